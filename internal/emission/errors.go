package emission

import "fmt"

// LineNotFoundError is returned when a requested emission line is not part
// of a table (or of a remote line list). It usually means the table was
// produced for a different line list than the requested diagnostic.
type LineNotFoundError struct {
	Label string
}

func (e *LineNotFoundError) Error() string {
	return fmt.Sprintf("emission line %q not found", e.Label)
}
