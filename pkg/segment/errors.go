package segment

import (
	"fmt"

	"github.com/paulmach/orb"
)

// DegenerateGeometryError reports two consecutive points sharing a plan position.
type DegenerateGeometryError struct {
	From int
	To   int
	At   orb.Point
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("points %d and %d coincide at (%.3f, %.3f)", e.From, e.To, e.At[0], e.At[1])
}
