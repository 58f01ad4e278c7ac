// Package pipeline turns an ordered point sequence into a processed survey
// and renders surveys into drawings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"surveyline/pkg/chain"
	"surveyline/pkg/config"
	"surveyline/pkg/metrics"
	"surveyline/pkg/model"
	"surveyline/pkg/profile"
	"surveyline/pkg/segment"
)

// Processor runs segmentation, profile projection and code chaining.
type Processor struct {
	profile   config.ProfileConfig
	segmenter *segment.Segmenter
	logger    *slog.Logger
	metrics   *metrics.Manager

	now   func() time.Time
	newID func() string
}

// NewProcessor builds a Processor from the configuration. A nil logger falls
// back to slog.Default; a nil metrics manager disables recording.
func NewProcessor(cfg *config.Config, logger *slog.Logger, m *metrics.Manager) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	segCfg := segment.Config{
		MaxBearingChange: float64(cfg.Segment.MaxBearingChange),
		MaxDistance:      float64(cfg.Segment.MaxDistance),
		Strict:           cfg.Segment.Strict,
	}
	return &Processor{
		profile:   cfg.Profile,
		segmenter: segment.New(segCfg, logger),
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Process derives runs, skips, profile, links, summary and code chains for
// the given points. The input is sorted by number first and never mutated.
func (p *Processor) Process(ctx context.Context, name string, points []model.SurveyPoint) (*model.Survey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	sorted := model.SortByNumber(points)

	res, err := p.segmenter.Segment(sorted)
	if err != nil {
		p.recordError("segment")
		return nil, fmt.Errorf("segment %q: %w", name, err)
	}

	prof, err := profile.Project(sorted, res.Skips, float64(p.profile.NominalSpan))
	if err != nil {
		p.recordError("profile")
		return nil, fmt.Errorf("project %q: %w", name, err)
	}

	sv := &model.Survey{
		ID:        p.newID(),
		Name:      name,
		CreatedAt: p.now().UTC(),
		Points:    sorted,
		Runs:      res.Runs,
		Skips:     res.Skips,
		Chains:    chain.Chain(sorted),
		Profile:   prof,
		Links:     profile.Links(prof, res.Skips, float64(p.profile.MaxLink)),
		Summary:   profile.Summarize(prof),
	}

	elapsed := time.Since(start)
	if p.metrics != nil {
		p.metrics.RecordSurvey(len(sv.Points), len(sv.Runs), len(sv.Skips), elapsed)
	}
	p.logger.Info("Survey processed",
		"id", sv.ID,
		"name", name,
		"points", len(sv.Points),
		"runs", len(sv.Runs),
		"skips", len(sv.Skips),
		"chains", len(sv.Chains),
		"length", sv.Summary.Length,
		"duration", elapsed)
	return sv, nil
}

func (p *Processor) recordError(stage string) {
	if p.metrics != nil {
		p.metrics.RecordSurveyError(stage)
	}
}

// IsInputError reports whether err was caused by the caller's data rather
// than by the processor.
func IsInputError(err error) bool {
	var degenerate *segment.DegenerateGeometryError
	return errors.Is(err, model.ErrEmptyInput) || errors.As(err, &degenerate)
}
