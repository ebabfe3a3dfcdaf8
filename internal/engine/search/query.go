// Package search maintains an incrementally-updated index of matches for a
// search query over a buffer, so repeated searches (next/previous/replace)
// don't have to rescan the whole document after every keystroke.
package search

import (
	"fmt"
	"regexp"
	"strings"
)

// Query describes what to search for. The zero value matches nothing.
type Query struct {
	Pattern       string
	Regex         bool
	CaseSensitive bool
	WholeWord     bool

	re *regexp.Regexp
}

// NewQuery compiles pattern according to the given options. Plain-text
// queries are compiled to a regexp too (via regexp.QuoteMeta), so the
// index's maintenance logic never has to special-case plain vs. regex.
func NewQuery(pattern string, regex, caseSensitive, wholeWord bool) (*Query, error) {
	q := &Query{
		Pattern:       pattern,
		Regex:         regex,
		CaseSensitive: caseSensitive,
		WholeWord:     wholeWord,
	}

	expr := pattern
	if !regex {
		expr = regexp.QuoteMeta(pattern)
	}
	if wholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if !caseSensitive {
		expr = "(?i)" + expr
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile search query %q: %w", pattern, err)
	}
	q.re = re
	return q, nil
}

// IsEmpty returns true for the zero Query or one with no pattern text.
func (q *Query) IsEmpty() bool {
	return q == nil || q.Pattern == ""
}

// FindAllIn returns every non-overlapping match of the query within text,
// sorted by start position, exactly as regexp.FindAllStringIndex already
// guarantees.
func (q *Query) FindAllIn(text string) []Match {
	if q.IsEmpty() {
		return nil
	}
	locs := q.re.FindAllStringIndex(text, -1)
	matches := make([]Match, len(locs))
	for i, loc := range locs {
		matches[i] = Match{Start: ByteOffset(loc[0]), End: ByteOffset(loc[1])}
	}
	return matches
}

// describeFlags is used by Index.String for debugging/logging.
func (q *Query) describeFlags() string {
	var b strings.Builder
	if q.Regex {
		b.WriteString("regex")
	} else {
		b.WriteString("plain")
	}
	if q.CaseSensitive {
		b.WriteString(",case-sensitive")
	}
	if q.WholeWord {
		b.WriteString(",whole-word")
	}
	return b.String()
}
