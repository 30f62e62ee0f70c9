package msis

import (
	"errors"
	"fmt"
)

// ErrLength is matched by every LengthError via errors.Is.
var ErrLength = errors.New("msis: fixed-size argument has wrong length")

// LengthError reports a flat argument whose length does not match the
// model's fixed record size.
type LengthError struct {
	Field string
	Got   int
	Want  int
}

// Error returns the error message for LengthError.
func (e *LengthError) Error() string {
	return fmt.Sprintf("msis: %s has %d elements, want %d", e.Field, e.Got, e.Want)
}

// Is reports whether target is ErrLength.
func (e *LengthError) Is(target error) bool {
	return target == ErrLength
}

func checkLen(field string, got, want int) error {
	if got != want {
		return &LengthError{Field: field, Got: got, Want: want}
	}
	return nil
}
