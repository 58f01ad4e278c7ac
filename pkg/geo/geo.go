// Package geo holds the planar geometry primitives used by the segmenter and
// the profile projector. Coordinates are survey-grid units; no projection or
// datum handling happens here.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Distance returns the planar Euclidean distance between two points.
func Distance(p1, p2 orb.Point) float64 {
	return planar.Distance(p1, p2)
}

// Bearing returns the angle from p1 to p2 in degrees, in [0, 360).
// 0 is the +x axis and angles grow counter-clockwise (atan2 convention).
// Coincident points have no direction; they yield 0.
func Bearing(p1, p2 orb.Point) float64 {
	dx := p2[0] - p1[0]
	dy := p2[1] - p1[1]
	if dx == 0 && dy == 0 {
		return 0
	}

	deg := math.Atan2(dy, dx) * (180.0 / math.Pi)
	if deg < 0 {
		deg += 360.0
	}
	// -tiny + 360 rounds to 360 in float64.
	if deg >= 360.0 {
		deg = 0
	}
	return deg
}

// BearingChange returns the absolute difference between two bearings.
// The difference is not wrapped: 350 -> 10 is a change of 340.
func BearingChange(b1, b2 float64) float64 {
	return math.Abs(b2 - b1)
}

// Coincident reports whether two points share the same plan position.
func Coincident(p1, p2 orb.Point) bool {
	return p1 == p2
}
