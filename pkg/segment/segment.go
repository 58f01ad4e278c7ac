// Package segment splits an ordered survey point sequence into continuous
// ground lines and records the breaks between them.
package segment

import (
	"log/slog"

	"surveyline/pkg/config"
	"surveyline/pkg/geo"
	"surveyline/pkg/logging"
	"surveyline/pkg/model"

	"github.com/paulmach/orb"
)

// Default continuity thresholds.
const (
	DefaultMaxBearingChange = config.DefaultMaxBearingChange
	DefaultMaxDistance      = config.DefaultMaxDistance
)

// Config holds the continuity policy.
type Config struct {
	MaxBearingChange float64
	MaxDistance      float64
	// Strict rejects coincident consecutive points instead of treating them
	// as distance 0 / bearing 0.
	Strict bool
}

// DefaultConfig returns the standard ground-line policy.
func DefaultConfig() Config {
	return Config{
		MaxBearingChange: DefaultMaxBearingChange,
		MaxDistance:      DefaultMaxDistance,
	}
}

// Continues reports whether a window with the given bearing change and
// leading-pair distance belongs to the current run. Both bounds are inclusive.
func (c Config) Continues(bearingChange, distance float64) bool {
	return bearingChange <= c.MaxBearingChange && distance <= c.MaxDistance
}

// Result is the output of a segmentation pass.
type Result struct {
	Runs  []model.PathRun
	Skips []model.SkipPair
}

// Segmenter runs the windowed continuity test.
type Segmenter struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Segmenter. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Segmenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{cfg: cfg, logger: logger}
}

// state is the value carried through the window fold.
type state struct {
	current model.PathRun
	runs    []model.PathRun
	skips   []model.SkipPair
}

func (s *state) join(p1, p2, p3 model.SurveyPoint) {
	s.current = append(s.current, p1.Planar(), p2.Planar(), p3.Planar())
}

// split records a break before closing the current run, unless the pair was
// already joined into it by an earlier window.
func (s *state) split(p1, p2 model.SurveyPoint) {
	if !s.current.Contains(p1.Planar()) || !s.current.Contains(p2.Planar()) {
		s.skips = append(s.skips, model.SkipPair{From: p1.Number, To: p2.Number})
	}
	s.flush()
}

func (s *state) flush() {
	if len(s.current) >= 2 {
		s.runs = append(s.runs, s.current)
	}
	s.current = nil
}

// Segment walks the sequence in windows of three consecutive points.
// Sequences shorter than three points yield no runs and no skips.
func (s *Segmenter) Segment(points model.Points) (*Result, error) {
	if len(points) == 0 {
		return nil, model.ErrEmptyInput
	}
	if err := s.checkDegenerate(points); err != nil {
		return nil, err
	}

	var st state
	for i := 0; i+2 < len(points); i++ {
		p1, p2, p3 := points[i], points[i+1], points[i+2]
		a, b, c := p1.Planar(), p2.Planar(), p3.Planar()

		dist := geo.Distance(a, b)
		change := geo.BearingChange(geo.Bearing(a, b), geo.Bearing(b, c))

		if s.cfg.Continues(change, dist) {
			st.join(p1, p2, p3)
			continue
		}

		logging.Trace(s.logger, "Path break", "from", p1.Number, "to", p2.Number, "distance", dist, "bearing_change", change)
		st.split(p1, p2)
	}
	st.flush()

	s.logger.Debug("Segmentation complete", "points", len(points), "runs", len(st.runs), "skips", len(st.skips))
	return &Result{Runs: st.runs, Skips: st.skips}, nil
}

func (s *Segmenter) checkDegenerate(points model.Points) error {
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if !geo.Coincident(prev.Planar(), cur.Planar()) {
			continue
		}
		if s.cfg.Strict {
			return &DegenerateGeometryError{From: prev.Number, To: cur.Number, At: orb.Point{cur.X, cur.Y}}
		}
		s.logger.Debug("Coincident consecutive points, using bearing 0", "from", prev.Number, "to", cur.Number)
	}
	return nil
}
