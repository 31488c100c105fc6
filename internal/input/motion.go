package input

import "errors"

// ErrInvalidSteps is returned by Plan when steps is less than one.
var ErrInvalidSteps = errors.New("motion plan needs at least one step")

// Plan returns steps intermediate cursor positions from start toward target.
//
// On each axis the per-step delta (target-start)/steps is computed in float64
// first, and point i is start + trunc(delta * i) for i in [0, steps). Because
// the division happens before the multiplication, a point can land one pixel
// short of the exact rational position (-300/28*21 truncates to -224, not -225).
// The first point is start and the last one stops short of target;
// callers that need the cursor to land exactly on target must move there
// after replaying the plan.
func Plan(start, target Point, steps int) ([]Point, error) {
	if steps < 1 {
		return nil, ErrInvalidSteps
	}

	dx := float64(target.X-start.X) / float64(steps)
	dy := float64(target.Y-start.Y) / float64(steps)

	points := make([]Point, steps)
	for i := range points {
		points[i] = Point{
			X: start.X + int(dx*float64(i)),
			Y: start.Y + int(dy*float64(i)),
		}
	}
	return points, nil
}

// ValidCoordinates reports whether p lies within [0, maxX] x [0, maxY].
func ValidCoordinates(p Point, maxX, maxY int) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= maxX && p.Y <= maxY
}
