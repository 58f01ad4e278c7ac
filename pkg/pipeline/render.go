package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"surveyline/pkg/config"
	"surveyline/pkg/drawing"
	"surveyline/pkg/model"
	"surveyline/pkg/profile"
)

// ErrUnknownMode is returned by ParseMode for unsupported drawing modes.
var ErrUnknownMode = errors.New("unknown drawing mode")

// Mode selects what BuildDrawing renders.
type Mode string

const (
	// ModePoints draws the survey points with their labels.
	ModePoints Mode = "points"
	// ModeConnect adds the code chains.
	ModeConnect Mode = "connect"
	// ModeProfile adds the segmented ground line and the elevation profile.
	ModeProfile Mode = "profile"
)

// Modes lists the supported modes.
func Modes() []Mode {
	return []Mode{ModePoints, ModeConnect, ModeProfile}
}

// ParseMode resolves a mode name. The empty string selects ModeProfile.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeProfile, nil
	case ModePoints, ModeConnect, ModeProfile:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// BuildDrawing renders a processed survey in the given mode.
func BuildDrawing(sv *model.Survey, mode Mode, style drawing.Style, cfg config.ProfileConfig) (*drawing.Drawing, error) {
	d := &drawing.Drawing{}
	d.AddSurveyPoints(sv.Points, style)

	switch mode {
	case ModePoints:
	case ModeConnect:
		d.AddRuns(sv.Chains, style.Layers.Chains)
	case ModeProfile:
		d.AddRuns(sv.Runs, style.Layers.Runs)
		dx, dy, err := profile.Offset(sv.Points, profile.Margin{X: float64(cfg.MarginX), Y: float64(cfg.MarginY)})
		if err != nil {
			return nil, fmt.Errorf("profile offset: %w", err)
		}
		d.AddProfile(sv.Points, sv.Profile, sv.Links, dx, dy, style)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return d, nil
}
