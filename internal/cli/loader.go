package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/playback/internal/demo"
	"github.com/roach88/playback/internal/script"
)

// LoadError represents a failure to load a script reference.
type LoadError struct {
	Code    string
	Message string
	File    string
	Line    int // source position, 0 when unknown
	Column  int
	Err     error
}

func (e *LoadError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ExitCode maps the error to a process exit code: a script that exists
// but is invalid is a failure, anything else is a command error.
func (e *LoadError) ExitCode() int {
	if e.Code == ErrCodeScript {
		return ExitFailure
	}
	return ExitCommandError
}

// LoadScript resolves ref ("builtin:<name>", a file path, or a bare
// built-in name) and returns the compiled script together with the
// reference to record for it: file paths are made absolute so a later
// replay finds the same file.
func LoadScript(ref string) (*script.Script, string, error) {
	s, err := demo.Resolve(ref, "")
	if err != nil {
		return nil, "", classifyLoadError(ref, err)
	}
	return s, recordedRef(ref), nil
}

func classifyLoadError(ref string, err error) *LoadError {
	var (
		scriptErr *script.Error
		sourceErr *script.SourceError
	)
	le := &LoadError{Code: ErrCodeNotFound, Message: err.Error(), Err: err}
	switch {
	case errors.As(err, &sourceErr):
		le.Code = ErrCodeScript
		le.File = sourceErr.File
		le.Line = sourceErr.Line
		le.Column = sourceErr.Column
		le.Message = sourceErr.Message
	case errors.As(err, &scriptErr):
		le.Code = ErrCodeScript
		le.File = ref
	case errors.Is(err, demo.ErrUnknown):
		le.Message = fmt.Sprintf("built-in script %q not found", strings.TrimPrefix(ref, demo.BuiltinPrefix))
	}
	return le
}

func recordedRef(ref string) string {
	if strings.HasPrefix(ref, demo.BuiltinPrefix) {
		return ref
	}
	if _, err := os.Stat(ref); err != nil {
		return demo.BuiltinPrefix + ref
	}
	if abs, err := filepath.Abs(ref); err == nil {
		return abs
	}
	return ref
}
