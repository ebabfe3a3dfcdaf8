package encoding

import "testing"

func TestDetectLF(t *testing.T) {
	if got := Detect("a\nb\nc\n"); got != LF {
		t.Errorf("Detect() = %v, want LF", got)
	}
}

func TestDetectCRLF(t *testing.T) {
	if got := Detect("a\r\nb\r\nc\r\n"); got != CRLF {
		t.Errorf("Detect() = %v, want CRLF", got)
	}
}

func TestDetectCR(t *testing.T) {
	if got := Detect("a\rb\rc\rd\r"); got != CR {
		t.Errorf("Detect() = %v, want CR", got)
	}
}

func TestDetectMajorityVote(t *testing.T) {
	// Two CRLF, one lone LF: CRLF should win.
	if got := Detect("a\r\nb\r\nc\n"); got != CRLF {
		t.Errorf("Detect() = %v, want CRLF (majority)", got)
	}
}

func TestDetectTieBreaksToLF(t *testing.T) {
	// Equal count of bare LF and bare CR: spec requires LF on ties.
	if got := Detect("a\nb\rc"); got != LF {
		t.Errorf("Detect() = %v, want LF on tie", got)
	}
}

func TestDetectCRLFLFTieBreaksToLF(t *testing.T) {
	// One CRLF, one bare LF: an equal-count tie must also resolve to LF,
	// not CRLF, per spec's "LF as tie-breaker".
	if got := Detect("a\r\nb\nc"); got != LF {
		t.Errorf("Detect() = %v, want LF on CRLF/LF tie", got)
	}
}

func TestDetectNoLineEndingsDefaultsToLF(t *testing.T) {
	if got := Detect("no newlines here"); got != LF {
		t.Errorf("Detect() = %v, want LF", got)
	}
}

func TestDetectEmptyString(t *testing.T) {
	if got := Detect(""); got != LF {
		t.Errorf("Detect(\"\") = %v, want LF", got)
	}
}

func TestLineEndingSequence(t *testing.T) {
	cases := map[LineEnding]string{LF: "\n", CRLF: "\r\n", CR: "\r"}
	for le, want := range cases {
		if got := le.Sequence(); got != want {
			t.Errorf("%v.Sequence() = %q, want %q", le, got, want)
		}
	}
}

func TestToLF(t *testing.T) {
	in := "a\r\nb\rc\nd"
	want := "a\nb\nc\nd"
	if got := ToLF(in); got != want {
		t.Errorf("ToLF(%q) = %q, want %q", in, got, want)
	}
}

func TestFromLF(t *testing.T) {
	in := "a\nb\nc"
	if got := FromLF(in, CRLF); got != "a\r\nb\r\nc" {
		t.Errorf("FromLF CRLF = %q", got)
	}
	if got := FromLF(in, CR); got != "a\rb\rc" {
		t.Errorf("FromLF CR = %q", got)
	}
	if got := FromLF(in, LF); got != in {
		t.Errorf("FromLF LF = %q, want unchanged", got)
	}
}

func TestDetectBOM(t *testing.T) {
	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...)
	stripped, had := DetectBOM(withBOM)
	if !had {
		t.Fatal("expected BOM detected")
	}
	if string(stripped) != "hello" {
		t.Errorf("stripped = %q, want %q", stripped, "hello")
	}

	noBOM := []byte("hello")
	stripped2, had2 := DetectBOM(noBOM)
	if had2 {
		t.Fatal("expected no BOM detected")
	}
	if string(stripped2) != "hello" {
		t.Errorf("stripped2 = %q, want %q", stripped2, "hello")
	}
}
