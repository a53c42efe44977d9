package grouping

import "fmt"

// MismatchedGroupsError is returned when shock and precursor rows do not
// share the same set of magnetic-field values.
type MismatchedGroupsError struct {
	Shock     []float64
	Precursor []float64
}

func (e *MismatchedGroupsError) Error() string {
	return fmt.Sprintf("shock and precursor models cover different magnetic fields: shock %v, precursor %v", e.Shock, e.Precursor)
}

// DuplicateVelocityError is returned when one magnetic field has two models
// at the same velocity.
type DuplicateVelocityError struct {
	MagField float64
	Velocity int
}

func (e *DuplicateVelocityError) Error() string {
	return fmt.Sprintf("duplicate model at %d km/s for magnetic field %g", e.Velocity, e.MagField)
}
