// File: errors.go
package switchboard

import (
	"errors"
	"fmt"
)

var (
	ErrNoPayload       = errors.New("switchboard: message carries no payload")
	ErrPayloadEncoding = errors.New("switchboard: payload encoding mismatch")
	ErrNilComponent    = errors.New("switchboard: component cannot be nil")
	ErrComponentPanic  = errors.New("switchboard: component panicked")
	ErrInvalidOption   = errors.New("switchboard: invalid option")
	ErrAlreadyStarted  = errors.New("switchboard: environment already started")
	ErrNoCause         = errors.New("switchboard: component failed without a cause")
)

// FatalError is returned by Start when a component (or the Environment
// itself) ends the run with Update.Error.
type FatalError struct {
	// Pid is the address of the component that failed.
	Pid Pid
	// Identifier is the identifier of the message being handled, empty when
	// the failure happened during Init.
	Identifier string
	Err        error
}

func (e *FatalError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("component %s failed during init: %v", e.Pid, e.Err)
	}
	return fmt.Sprintf("component %s failed handling %q: %v", e.Pid, e.Identifier, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
