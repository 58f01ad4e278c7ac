package model

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestSortByNumber(t *testing.T) {
	in := []SurveyPoint{
		{Number: 3, Code: "C"},
		{Number: 1, Code: "A"},
		{Number: 2, Code: "B1"},
		{Number: 2, Code: "B2"},
	}

	got := SortByNumber(in)

	want := []string{"A", "B1", "B2", "C"}
	for i, w := range want {
		if got[i].Code != w {
			t.Errorf("index %d: got code %q, want %q", i, got[i].Code, w)
		}
	}
	if in[0].Number != 3 {
		t.Error("SortByNumber modified its input")
	}
}

func TestSkipSet(t *testing.T) {
	s := NewSkipSet([]SkipPair{{From: 1, To: 2}, {From: 1, To: 2}, {From: 5, To: 9}})

	if len(s) != 2 {
		t.Errorf("expected duplicates to collapse, got %d entries", len(s))
	}
	if !s.Contains(5, 9) {
		t.Error("expected (5,9) to be present")
	}
	if s.Contains(2, 1) {
		t.Error("pairs are ordered, (2,1) must not match (1,2)")
	}
}

func TestPathRun_Contains(t *testing.T) {
	r := PathRun{{0, 0}, {5, 0}}
	if !r.Contains(orb.Point{5, 0}) {
		t.Error("expected vertex (5,0)")
	}
	if r.Contains(orb.Point{5, 0.0001}) {
		t.Error("vertex match must be exact")
	}
}
