package diagnostic

import (
	"fmt"
	"strings"
)

// InvalidWindowError is returned for velocity bounds or steps that do not
// describe a selection over the native grid. It is always caller-correctable.
type InvalidWindowError struct {
	Min, Max, Step int
	Reason         string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("invalid velocity window (min=%d, max=%d, step=%d): %s", e.Min, e.Max, e.Step, e.Reason)
}

// UnknownQuantityError is returned when a derived quantity is not in the
// registry.
type UnknownQuantityError struct {
	Name      string
	Available []string
}

func (e *UnknownQuantityError) Error() string {
	return fmt.Sprintf("unknown quantity %q\nAvailable quantities: %s", e.Name, strings.Join(e.Available, ", "))
}
