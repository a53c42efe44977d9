package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MissingCredentialsError is returned before connecting when the source
// configuration lacks a required connection parameter.
type MissingCredentialsError struct {
	Source  string
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s source is missing connection parameters: %s\nHint: set them under source in ptero.yaml or via PTERO_SOURCE_* environment variables",
		e.Source, strings.Join(e.Missing, ", "))
}

// QueryFailedError wraps any connection, execution or timeout failure.
type QueryFailedError struct {
	Family Family
	Err    error
}

func (e *QueryFailedError) Error() string {
	what := "query"
	if e.Family != "" {
		what = string(e.Family) + " query"
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s timed out: %v", what, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", what, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}
