package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure for the HTTP layer.
type Kind int

const (
	KindLaunch   Kind = iota + 1 // process could not be started
	KindOutput                   // no move line, empty move, or abnormal exit
	KindTimeout                  // run exceeded the configured timeout
	KindBusy                     // admission limit reached and caller gave up waiting
	KindCanceled                 // caller went away while the engine was running
)

func (k Kind) String() string {
	switch k {
	case KindLaunch:
		return "engine_launch_failed"
	case KindOutput:
		return "engine_output_invalid"
	case KindTimeout:
		return "engine_timeout"
	case KindBusy:
		return "engine_busy"
	case KindCanceled:
		return "request_canceled"
	}
	return "engine_error"
}

// Error is returned by Runner.Run for every failed invocation.
// Log holds whatever the engine wrote to stderr before failing.
type Error struct {
	Kind Kind
	Log  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	ErrNoMove    = errors.New("engine wrote no move")
	ErrEmptyMove = errors.New("engine wrote an empty move")
)

// KindOf returns the Kind carried by err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
