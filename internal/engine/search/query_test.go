package search

import "testing"

func TestNewQueryPlainFindAll(t *testing.T) {
	q, err := NewQuery("foo", false, true, false)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	matches := q.FindAllIn("foo bar foo baz foo")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d: %+v", len(matches), matches)
	}
	want := []Match{{0, 3}, {8, 11}, {16, 19}}
	for i, m := range matches {
		if m != want[i] {
			t.Errorf("match %d = %+v, want %+v", i, m, want[i])
		}
	}
}

func TestNewQueryCaseInsensitive(t *testing.T) {
	q, err := NewQuery("foo", false, false, false)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	matches := q.FindAllIn("Foo FOO foo")
	if len(matches) != 3 {
		t.Fatalf("expected 3 case-insensitive matches, got %d", len(matches))
	}
}

func TestNewQueryRegexSpecialChars(t *testing.T) {
	q, err := NewQuery(`\d+`, true, true, false)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	matches := q.FindAllIn("a1 b22 c333")
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
}

func TestNewQueryPlainLiteralNotRegex(t *testing.T) {
	q, err := NewQuery("a.b", false, true, false)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	matches := q.FindAllIn("a.b axb")
	if len(matches) != 1 {
		t.Fatalf("plain query should not treat '.' as wildcard, got %d matches", len(matches))
	}
}

func TestNewQueryWholeWord(t *testing.T) {
	q, err := NewQuery("cat", false, true, true)
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	matches := q.FindAllIn("cat category cat")
	if len(matches) != 2 {
		t.Fatalf("expected 2 whole-word matches, got %d: %+v", len(matches), matches)
	}
}

func TestNewQueryInvalidRegex(t *testing.T) {
	if _, err := NewQuery("(unclosed", true, true, false); err == nil {
		t.Fatal("expected error for invalid regex")
	}
}

func TestQueryIsEmpty(t *testing.T) {
	var q *Query
	if !q.IsEmpty() {
		t.Error("nil query should be empty")
	}
	q2 := &Query{}
	if !q2.IsEmpty() {
		t.Error("zero-value query should be empty")
	}
	q3, _ := NewQuery("x", false, true, false)
	if q3.IsEmpty() {
		t.Error("query with pattern should not be empty")
	}
}

func TestQueryFindAllInEmptyIsNil(t *testing.T) {
	var q *Query
	if got := q.FindAllIn("anything"); got != nil {
		t.Errorf("expected nil matches for empty query, got %+v", got)
	}
}
