package segment

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"surveyline/pkg/config"
	"surveyline/pkg/geo"
	"surveyline/pkg/model"

	"github.com/paulmach/orb"
)

func pts(coords ...[3]float64) model.Points {
	out := make(model.Points, len(coords))
	for i, c := range coords {
		out[i] = model.SurveyPoint{Number: i + 1, X: c[0], Y: c[1], Z: c[2], Code: "A"}
	}
	return out
}

func TestSegment(t *testing.T) {
	tests := []struct {
		name      string
		points    model.Points
		wantRuns  []model.PathRun
		wantSkips []model.SkipPair
	}{
		{
			name:   "Single Point",
			points: pts([3]float64{0, 0, 10}),
		},
		{
			name:   "Two Points",
			points: pts([3]float64{0, 0, 10}, [3]float64{5, 0, 10}),
		},
		{
			name:     "Collinear Triple",
			points:   pts([3]float64{0, 0, 10}, [3]float64{5, 0, 10}, [3]float64{10, 0, 12}),
			wantRuns: []model.PathRun{{{0, 0}, {5, 0}, {10, 0}}},
		},
		{
			name:     "Coincident Leading Pair",
			points:   pts([3]float64{0, 0, 10}, [3]float64{0, 0, 10}, [3]float64{100, 100, 10}),
			wantRuns: []model.PathRun{{{0, 0}, {0, 0}, {100, 100}}},
		},
		{
			name:     "Distance At Threshold",
			points:   pts([3]float64{0, 0, 0}, [3]float64{10, 0, 0}, [3]float64{20, 0, 0}),
			wantRuns: []model.PathRun{{{0, 0}, {10, 0}, {20, 0}}},
		},
		{
			name:      "Distance Over Threshold",
			points:    pts([3]float64{0, 0, 0}, [3]float64{10.0001, 0, 0}, [3]float64{20, 0, 0}),
			wantSkips: []model.SkipPair{{From: 1, To: 2}},
		},
		{
			// North, then 150 degrees: a turn of exactly 60.
			name:     "Turn At Threshold",
			points:   pts([3]float64{0, 0, 0}, [3]float64{0, 10, 0}, [3]float64{-8.660254037844387, 15, 0}),
			wantRuns: []model.PathRun{{{0, 0}, {0, 10}, {-8.660254037844387, 15}}},
		},
		{
			name:      "Turn Over Threshold",
			points:    pts([3]float64{0, 0, 0}, [3]float64{0, 10, 0}, [3]float64{-9, 15, 0}),
			wantSkips: []model.SkipPair{{From: 1, To: 2}},
		},
		{
			name: "Turn After Joined Pair Is Not A Skip",
			points: pts(
				[3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{2, 0, 0},
				[3]float64{2, 5, 0}, [3]float64{2, 10, 0},
			),
			wantRuns: []model.PathRun{
				{{0, 0}, {1, 0}, {2, 0}},
				{{2, 0}, {2, 5}, {2, 10}},
			},
		},
		{
			name: "Long Legs Are Skipped",
			points: pts(
				[3]float64{0, 0, 0}, [3]float64{50, 0, 0}, [3]float64{100, 0, 0},
				[3]float64{101, 0, 0}, [3]float64{102, 0, 0},
			),
			wantRuns:  []model.PathRun{{{100, 0}, {101, 0}, {102, 0}}},
			wantSkips: []model.SkipPair{{From: 1, To: 2}, {From: 2, To: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(DefaultConfig(), nil).Segment(tt.points)
			if err != nil {
				t.Fatalf("Segment() error = %v", err)
			}
			if !reflect.DeepEqual(res.Runs, tt.wantRuns) {
				t.Errorf("Runs = %v, want %v", res.Runs, tt.wantRuns)
			}
			if !reflect.DeepEqual(res.Skips, tt.wantSkips) {
				t.Errorf("Skips = %v, want %v", res.Skips, tt.wantSkips)
			}
		})
	}
}

func TestSegment_BearingBoundIsInclusive(t *testing.T) {
	points := pts([3]float64{0, 0, 0}, [3]float64{3, 4, 0}, [3]float64{1, 9, 0})
	a, b, c := points[0].Planar(), points[1].Planar(), points[2].Planar()
	change := geo.BearingChange(geo.Bearing(a, b), geo.Bearing(b, c))

	tests := []struct {
		name      string
		limit     float64
		wantRuns  int
		wantSkips int
	}{
		{name: "Limit Equals Change", limit: change, wantRuns: 1, wantSkips: 0},
		{name: "Limit Just Below Change", limit: math.Nextafter(change, 0), wantRuns: 0, wantSkips: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MaxBearingChange = tt.limit
			res, err := New(cfg, nil).Segment(points)
			if err != nil {
				t.Fatalf("Segment() error = %v", err)
			}
			if len(res.Runs) != tt.wantRuns || len(res.Skips) != tt.wantSkips {
				t.Errorf("got %d runs and %d skips, want %d and %d", len(res.Runs), len(res.Skips), tt.wantRuns, tt.wantSkips)
			}
		})
	}
}

func TestSegment_EmptyInput(t *testing.T) {
	_, err := New(DefaultConfig(), nil).Segment(nil)
	if !errors.Is(err, model.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestSegment_StrictRejectsCoincidentPoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Strict = true
	points := pts([3]float64{0, 0, 10}, [3]float64{0, 0, 10}, [3]float64{100, 100, 10})

	_, err := New(cfg, nil).Segment(points)

	var degErr *DegenerateGeometryError
	if !errors.As(err, &degErr) {
		t.Fatalf("expected DegenerateGeometryError, got %v", err)
	}
	if degErr.From != 1 || degErr.To != 2 {
		t.Errorf("pair = (%d, %d), want (1, 2)", degErr.From, degErr.To)
	}
	if degErr.At != (orb.Point{0, 0}) {
		t.Errorf("At = %v, want (0, 0)", degErr.At)
	}
}

func TestSegment_FlushesFinalRun(t *testing.T) {
	var coords [][3]float64
	for i := 0; i < 6; i++ {
		coords = append(coords, [3]float64{float64(i), 0, 0})
	}
	points := pts(coords...)

	res, err := New(DefaultConfig(), nil).Segment(points)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	if len(res.Runs) != 1 || len(res.Skips) != 0 {
		t.Fatalf("got %d runs and %d skips, want 1 and 0", len(res.Runs), len(res.Skips))
	}

	run := res.Runs[0]
	// Four windows of three vertices each; overlapping vertices repeat.
	if len(run) != 12 {
		t.Errorf("run has %d vertices, want 12", len(run))
	}
	for _, p := range points {
		if !run.Contains(p.Planar()) {
			t.Errorf("point %d missing from run", p.Number)
		}
	}
	if run[0] != (orb.Point{0, 0}) || run[len(run)-1] != (orb.Point{5, 0}) {
		t.Errorf("run spans %v..%v, want (0,0)..(5,0)", run[0], run[len(run)-1])
	}
}

func TestSegment_Deterministic(t *testing.T) {
	points := pts(
		[3]float64{0, 0, 1}, [3]float64{3, 1, 2}, [3]float64{40, 7, 3},
		[3]float64{41, 8, 1}, [3]float64{42, 2, 5}, [3]float64{42, 2, 5},
		[3]float64{60, 60, 0},
	)
	before := append(model.Points(nil), points...)
	s := New(DefaultConfig(), nil)

	first, err := s.Segment(points)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}
	second, err := s.Segment(points)
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(before, points) {
		t.Error("input must not be mutated")
	}
}

func TestConfig_Continues(t *testing.T) {
	tests := []struct {
		name   string
		change float64
		dist   float64
		want   bool
	}{
		{name: "Both At Threshold", change: 60, dist: 10, want: true},
		{name: "Bearing Over", change: 60.0001, dist: 10, want: false},
		{name: "Distance Over", change: 60, dist: 10.0001, want: false},
		{name: "Well Inside", change: 0, dist: 0, want: true},
	}

	cfg := DefaultConfig()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.Continues(tt.change, tt.dist); got != tt.want {
				t.Errorf("Continues(%v, %v) = %v, want %v", tt.change, tt.dist, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig_MatchesAppDefaults(t *testing.T) {
	app := config.DefaultConfig().Segment
	got := DefaultConfig()
	if got.MaxBearingChange != float64(app.MaxBearingChange) || got.MaxDistance != float64(app.MaxDistance) {
		t.Errorf("DefaultConfig() = %+v, app defaults = %+v", got, app)
	}
}
