// Package profile projects an ordered survey sequence onto a longitudinal
// elevation profile.
//
// The horizontal axis is the cumulative along-path distance. Across a
// recorded break the true ground distance is not considered reliable, so a
// fixed nominal span is added instead. The axis is therefore not a faithful
// physical distance wherever the path breaks; it is a display approximation.
package profile

import (
	"math"

	"surveyline/pkg/config"
	"surveyline/pkg/geo"
	"surveyline/pkg/model"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Defaults for profile drafting.
const (
	DefaultNominalSpan = config.DefaultNominalSpan
	DefaultMaxLink     = config.DefaultMaxLink
	DefaultMarginX     = config.DefaultMarginX
	DefaultMarginY     = config.DefaultMarginY
)

// Project computes one profile point per survey point, in input order.
// Pairs found in skips contribute nominalSpan instead of their planar distance.
func Project(points model.Points, skips []model.SkipPair, nominalSpan float64) ([]model.ProfilePoint, error) {
	if len(points) == 0 {
		return nil, model.ErrEmptyInput
	}

	set := model.NewSkipSet(skips)
	ref := points[0].Z

	out := make([]model.ProfilePoint, len(points))
	out[0] = model.ProfilePoint{Number: points[0].Number, Distance: 0, Elevation: 0}

	cum := 0.0
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if set.Contains(prev.Number, cur.Number) {
			cum += nominalSpan
		} else {
			cum += geo.Distance(prev.Planar(), cur.Planar())
		}
		out[i] = model.ProfilePoint{
			Number:    cur.Number,
			Distance:  cum,
			Elevation: cur.Z - ref,
		}
	}
	return out, nil
}

// Links returns the profile segments to draw. A link between two consecutive
// profile vertices is dropped when the pair is a break or when the vertices
// lie more than maxLink apart in profile space.
func Links(profile []model.ProfilePoint, skips []model.SkipPair, maxLink float64) []model.ProfileLink {
	set := model.NewSkipSet(skips)

	var links []model.ProfileLink
	for i := 1; i < len(profile); i++ {
		a, b := profile[i-1], profile[i]
		if set.Contains(a.Number, b.Number) {
			continue
		}
		if math.Hypot(b.Distance-a.Distance, b.Elevation-a.Elevation) > maxLink {
			continue
		}
		links = append(links, model.ProfileLink{From: a, To: b})
	}
	return links
}

// Margin is the spacing between the plan and the profile in drawing space.
type Margin struct {
	X float64
	Y float64
}

// Offset places the profile beside the plan view: horizontally past the
// northernmost point, vertically above the westernmost one.
func Offset(points model.Points, m Margin) (dx, dy float64, err error) {
	if len(points) == 0 {
		return 0, 0, model.ErrEmptyInput
	}

	north, west := points[0], points[0]
	for _, p := range points[1:] {
		if p.Y > north.Y {
			north = p
		}
		if p.X < west.X {
			west = p
		}
	}
	return north.X + m.X, west.Y + m.Y, nil
}

// Summarize computes aggregate figures of a profile.
func Summarize(profile []model.ProfilePoint) model.ProfileSummary {
	if len(profile) == 0 {
		return model.ProfileSummary{}
	}

	elev := make([]float64, len(profile))
	for i, p := range profile {
		elev[i] = p.Elevation
	}

	lo, hi := floats.Min(elev), floats.Max(elev)
	return model.ProfileSummary{
		Length:        profile[len(profile)-1].Distance,
		MinElevation:  lo,
		MaxElevation:  hi,
		MeanElevation: stat.Mean(elev, nil),
		Relief:        hi - lo,
	}
}
