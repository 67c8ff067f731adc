package script

import (
	"errors"
	"fmt"
)

// Sentinel construction errors. Error values wrap them, so callers can use
// errors.Is.
var (
	ErrEmpty      = errors.New("script has no steps")
	ErrNoTerminal = errors.New("last step must be terminal")
	ErrInvalid    = errors.New("invalid step")
)

// Error describes a script-authoring mistake found at construction.
//
// Index is the offending step (-1 for whole-script problems) and Field names
// the attribute at fault.
type Error struct {
	Script  string
	Index   int
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := "script"
	if e.Script != "" {
		prefix = fmt.Sprintf("script %q", e.Script)
	}
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: step %d: %s: %s", prefix, e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: step %d: %s", prefix, e.Index, e.Message)
}

// Unwrap returns the sentinel classifying the error.
func (e *Error) Unwrap() error {
	return e.Err
}

func stepError(name string, index int, field, msg string) *Error {
	return &Error{Script: name, Index: index, Field: field, Message: msg, Err: ErrInvalid}
}
