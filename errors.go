package esprunner

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrNoPortFound is returned by ResolvePort when no explicit port was given
// and none of the enumerated devices could be chosen automatically.
var ErrNoPortFound = errors.New("could not automatically choose a serial port; use --port to specify it explicitly")

// OpenTimeoutError is returned when the serial port could not be opened
// within the allowed window. It wraps the last underlying open error.
type OpenTimeoutError struct {
	Port    string
	Window  time.Duration
	LastErr error
}

func (e *OpenTimeoutError) Error() string {
	return fmt.Sprintf("failed to open serial port %q within %s: %v", e.Port, e.Window, e.LastErr)
}

func (e *OpenTimeoutError) Unwrap() error { return e.LastErr }

// InvalidCommandError is returned when a command token cannot be turned into
// a valid device command. Nothing is sent to the device in that case.
type InvalidCommandError struct {
	Token  string
	Reason string
}

func (e *InvalidCommandError) Error() string {
	return fmt.Sprintf("invalid command %q: %s", e.Token, e.Reason)
}
