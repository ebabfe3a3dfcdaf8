package search

import "testing"

func TestMatchLen(t *testing.T) {
	m := Match{Start: 3, End: 7}
	if m.Len() != 4 {
		t.Errorf("Len() = %d, want 4", m.Len())
	}
}

func TestMatchOverlaps(t *testing.T) {
	cases := []struct {
		a, b Match
		want bool
	}{
		{Match{0, 3}, Match{3, 6}, false},  // adjacent, half-open, no overlap
		{Match{0, 4}, Match{3, 6}, true},   // overlap
		{Match{5, 10}, Match{1, 5}, false}, // adjacent other direction
		{Match{5, 10}, Match{1, 6}, true},
		{Match{2, 8}, Match{3, 5}, true}, // fully contained
	}
	for _, c := range cases {
		if got := c.a.Overlaps(c.b); got != c.want {
			t.Errorf("%+v.Overlaps(%+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestMatchShift(t *testing.T) {
	m := Match{Start: 5, End: 9}
	got := m.Shift(3)
	if got != (Match{Start: 8, End: 12}) {
		t.Errorf("Shift(3) = %+v, want {8 12}", got)
	}
	got = m.Shift(-5)
	if got != (Match{Start: 0, End: 4}) {
		t.Errorf("Shift(-5) = %+v, want {0 4}", got)
	}
}
