package engine

import "errors"

// Construction errors returned by New.
var (
	ErrNilScript    = errors.New("engine: script is nil")
	ErrNilHost      = errors.New("engine: host is nil")
	ErrNilScheduler = errors.New("engine: scheduler is nil")
	ErrBadTiming    = errors.New("engine: timing values must not be negative")
)
