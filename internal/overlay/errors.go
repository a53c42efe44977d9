package overlay

import "fmt"

// ShapeMismatchError is returned when overlay arrays are not index-aligned.
type ShapeMismatchError struct {
	X, Y, Color, Mask int
	HasMask           bool
}

func (e *ShapeMismatchError) Error() string {
	if e.HasMask {
		return fmt.Sprintf("overlay arrays differ in length: x=%d y=%d color=%d mask=%d", e.X, e.Y, e.Color, e.Mask)
	}
	return fmt.Sprintf("overlay arrays differ in length: x=%d y=%d color=%d", e.X, e.Y, e.Color)
}
