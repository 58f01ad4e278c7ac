// Package chain joins points that share a classification code and carry
// consecutive numbers, the way field crews record a single feature line.
package chain

import (
	"surveyline/pkg/model"
)

// Chain returns one run per unbroken chain. A chain continues while the next
// point's number is exactly one more than the previous and the codes match.
// Single-point chains are dropped.
func Chain(points model.Points) []model.PathRun {
	var runs []model.PathRun
	var current model.PathRun

	for i, p := range points {
		if i > 0 && points[i-1].Number == p.Number-1 && points[i-1].Code == p.Code {
			current = append(current, p.Planar())
			continue
		}
		if len(current) >= 2 {
			runs = append(runs, current)
		}
		current = model.PathRun{p.Planar()}
	}
	if len(current) >= 2 {
		runs = append(runs, current)
	}
	return runs
}
