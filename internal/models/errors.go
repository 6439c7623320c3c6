package models

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed filter parameters or input records.
// Row is the 1-based data row when the error comes from a batch, 0 otherwise.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Row    int
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg = fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	return msg
}

// AtRow returns err annotated with a row number when it is a ValidationError
func AtRow(err error, row int) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		cp := *ve
		cp.Row = row
		return &cp
	}
	return fmt.Errorf("row %d: %w", row, err)
}

// IsValidation reports whether err wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
