// Package main is a minimal driver for the editing core: it opens a file
// into an engine.Engine, recovers any leftover swap-log journal from a
// prior crash, and then applies a tiny line-oriented edit script read from
// stdin. It exists to exercise the core from a real binary without
// reimplementing a terminal UI around it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/smashed/core/internal/engine"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	file     string
	readOnly bool
	logLevel string
}

func run() int {
	opts := parseFlags()

	level := slog.LevelInfo
	if err := (&level).UnmarshalText([]byte(opts.logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q\n", opts.logLevel)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	e, err := openEngine(opts, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		if err := e.CloseSwapLog(); err != nil {
			logger.Warn("closing swap log", "error", err)
		}
	}()

	if err := runScript(e, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

// openEngine loads opts.file (if any) into a new Engine, replays any swap
// log left over from a prior crash, and opens a fresh swap log for the
// session (unless the engine is read-only).
func openEngine(opts options, logger *slog.Logger) (*engine.Engine, error) {
	var e *engine.Engine
	var err error

	engOpts := []engine.Option{}
	if opts.readOnly {
		engOpts = append(engOpts, engine.WithReadOnly())
	}

	if opts.file == "" {
		e = engine.New(engOpts...)
		return e, nil
	}

	if _, statErr := os.Stat(opts.file); statErr != nil {
		if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("opening %s: %w", opts.file, statErr)
		}
		e = engine.New(append(engOpts, engine.WithPath(opts.file))...)
		return e, nil
	}

	e, err = engine.OpenFile(opts.file, engOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", opts.file, err)
	}

	if !opts.readOnly {
		if n, recErr := e.RecoverFromSwap(); recErr == nil && n > 0 {
			logger.Info("recovered edits from swap log", "path", opts.file, "commands", n)
		}
		if err := e.OpenSwapLog(); err != nil {
			logger.Warn("opening swap log", "path", opts.file, "error", err)
		}
	}

	return e, nil
}

// runScript reads newline-delimited edit commands from r and applies them
// to e, printing the buffer's text to w after each one. Supported commands:
//
//	insert <offset> <text>
//	delete <start> <end>
//	replace <start> <end> <text>
//	undo
//	redo
//	save
//	print
func runScript(e *engine.Engine, r *os.File, w *os.File) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := execLine(e, line, w); err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func execLine(e *engine.Engine, line string, w *os.File) error {
	fields := strings.SplitN(line, " ", 4)
	switch fields[0] {
	case "insert":
		if len(fields) < 3 {
			return fmt.Errorf("insert <offset> <text>")
		}
		offset, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return err
		}
		text := strings.Join(fields[2:], " ")
		_, err = e.Insert(engine.ByteOffset(offset), text)
		return err
	case "delete":
		if len(fields) < 3 {
			return fmt.Errorf("delete <start> <end>")
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return err
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return err
		}
		return e.Delete(engine.ByteOffset(start), engine.ByteOffset(end))
	case "replace":
		if len(fields) < 4 {
			return fmt.Errorf("replace <start> <end> <text>")
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return err
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return err
		}
		_, err = e.Replace(engine.ByteOffset(start), engine.ByteOffset(end), fields[3])
		return err
	case "undo":
		_, err := e.Undo()
		return err
	case "redo":
		_, err := e.Redo()
		return err
	case "save":
		return saveAndDiscardSwap(e)
	case "print":
		fmt.Fprintln(w, e.Text())
		return nil
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func saveAndDiscardSwap(e *engine.Engine) error {
	if err := e.Save(); err != nil {
		return err
	}
	return e.DiscardSwapLog()
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.BoolVar(&opts.readOnly, "readonly", false, "open the file in read-only mode")
	flag.BoolVar(&opts.readOnly, "R", false, "open the file in read-only mode (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.BoolVar(&showVersion, "version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "smash-core - editing core driver\n\n")
		fmt.Fprintf(os.Stderr, "Usage: smash-core [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Reads an edit script from stdin (insert/delete/replace/undo/redo/save/print)\n")
		fmt.Fprintf(os.Stderr, "and applies it to the named file, or an empty buffer if none is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("smash-core %s (%s)\n", version, commit)
		os.Exit(0)
	}

	if args := flag.Args(); len(args) > 0 {
		opts.file = args[0]
	}

	return opts
}
