package scenario

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when the scenario file does not exist.
var ErrNotFound = errors.New("scenario config not found")

// ParseError indicates the file is not valid JSON or does not decode
// into the scenario shape.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse scenario %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError lists every problem found in a scenario.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid scenario %s:\n  %s", e.Path, strings.Join(e.Problems, "\n  "))
}
