package model

import (
	"errors"
	"sort"
	"time"

	"github.com/paulmach/orb"
)

// ErrEmptyInput is returned when an operation needs at least one survey point.
var ErrEmptyInput = errors.New("empty point sequence")

// SurveyPoint is a single ground-survey measurement.
type SurveyPoint struct {
	Number int     `json:"number" msgpack:"number"` // Unique, defines ordering
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Z      float64 `json:"z" msgpack:"z"` // Elevation
	Code   string  `json:"code" msgpack:"code"`
}

// Planar returns the plan-view position of the point.
func (p SurveyPoint) Planar() orb.Point {
	return orb.Point{p.X, p.Y}
}

// Points is an ordered point sequence, ascending by Number.
// Adjacency means index adjacency; gaps in numbering are irrelevant.
type Points []SurveyPoint

// SortByNumber returns a copy of pts sorted ascending by Number.
// Points sharing a number keep their input order.
func SortByNumber(pts []SurveyPoint) Points {
	out := make(Points, len(pts))
	copy(out, pts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// SkipPair marks a break between two adjacent points.
type SkipPair struct {
	From int `json:"from" msgpack:"from"`
	To   int `json:"to" msgpack:"to"`
}

// SkipSet is a lookup table over skip pairs.
type SkipSet map[SkipPair]struct{}

// NewSkipSet builds a set from a list of pairs. Duplicates collapse.
func NewSkipSet(pairs []SkipPair) SkipSet {
	s := make(SkipSet, len(pairs))
	for _, p := range pairs {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether the pair (from, to) is a recorded break.
func (s SkipSet) Contains(from, to int) bool {
	_, ok := s[SkipPair{From: from, To: to}]
	return ok
}

// PathRun is one continuous drawable line, as an ordered vertex list.
// Vertices shared by overlapping segmentation windows appear more than once;
// consumers treat a run as a vertex list, not a set.
type PathRun orb.LineString

// LineString returns the run as an orb geometry.
func (r PathRun) LineString() orb.LineString {
	return orb.LineString(r)
}

// Contains reports whether v is one of the run's vertices.
func (r PathRun) Contains(v orb.Point) bool {
	for _, p := range r {
		if p == v {
			return true
		}
	}
	return false
}

// ProfilePoint is one sample of the longitudinal elevation profile.
type ProfilePoint struct {
	Number    int     `json:"number" msgpack:"number"`
	Distance  float64 `json:"distance" msgpack:"distance"`   // Cumulative along-path distance
	Elevation float64 `json:"elevation" msgpack:"elevation"` // Delta to the first point's Z
}

// ProfileLink joins two consecutive profile vertices in the profile drawing.
type ProfileLink struct {
	From ProfilePoint `json:"from" msgpack:"from"`
	To   ProfilePoint `json:"to" msgpack:"to"`
}

// ProfileSummary holds aggregate figures of a profile.
type ProfileSummary struct {
	Length        float64 `json:"length" msgpack:"length"`
	MinElevation  float64 `json:"min_elevation" msgpack:"min_elevation"`
	MaxElevation  float64 `json:"max_elevation" msgpack:"max_elevation"`
	MeanElevation float64 `json:"mean_elevation" msgpack:"mean_elevation"`
	Relief        float64 `json:"relief" msgpack:"relief"`
}

// Survey is a processed survey: the input plus every derived artifact.
type Survey struct {
	ID        string         `json:"id" msgpack:"id"`
	Name      string         `json:"name" msgpack:"name"`
	CreatedAt time.Time      `json:"created_at" msgpack:"created_at"`
	Points    Points         `json:"points" msgpack:"points"`
	Runs      []PathRun      `json:"runs" msgpack:"runs"`
	Skips     []SkipPair     `json:"skips" msgpack:"skips"`
	Chains    []PathRun      `json:"chains" msgpack:"chains"`
	Profile   []ProfilePoint `json:"profile" msgpack:"profile"`
	Links     []ProfileLink  `json:"links" msgpack:"links"`
	Summary   ProfileSummary `json:"summary" msgpack:"summary"`
}

// SurveyInfo is the listing view of a stored survey.
type SurveyInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PointCount int       `json:"point_count"`
	RunCount   int       `json:"run_count"`
	SkipCount  int       `json:"skip_count"`
	CreatedAt  time.Time `json:"created_at"`
}
