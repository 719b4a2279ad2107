package pipeline

import "fmt"

// FormatError reports input that cannot be interpreted as numeric
// table data: a cell that does not parse as the scalar type, or a row
// whose length disagrees with the column count. It is fatal to the run.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: %s", e.Message)
}

// LogicError reports an internal contract violation. It signals a bug,
// not bad input.
type LogicError struct {
	Message string
}

func (e *LogicError) Error() string {
	return fmt.Sprintf("logic error: %s", e.Message)
}
