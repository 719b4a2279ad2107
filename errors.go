package upcc

import (
	"errors"
	"fmt"

	"github.com/kolkov/upcc/internal/pipeline"
)

// FormatError represents input that is not a numeric table: a cell
// that does not parse as the scalar type, or a row whose length
// disagrees with the header's column count.
type FormatError struct {
	Message string // Error description
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s", e.Message)
}

// IOError represents a failure reading the input stream.
type IOError struct {
	Err error // Underlying cause
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read error: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// LogicError represents an internal contract violation.
// This is not an input problem; it indicates a bug.
type LogicError struct {
	Message string // Error description
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error: %s", e.Message)
}

// exportError converts internal pipeline errors to public types.
func exportError(err error) error {
	if err == nil {
		return nil
	}
	var fe *pipeline.FormatError
	if errors.As(err, &fe) {
		return &FormatError{Message: fe.Message}
	}
	var le *pipeline.LogicError
	if errors.As(err, &le) {
		return &LogicError{Message: le.Message}
	}
	return err
}
