package station

import (
	"errors"
	"fmt"

	"golang-wifista/internal/types"
)

// Failure kinds returned by the controller. Match them with errors.Is.
var (
	ErrDeviceConfiguration = errors.New("device configuration failed")
	ErrRadio               = errors.New("radio failure")
	ErrConnect             = errors.New("connect failed")
	ErrInterfaceUp         = errors.New("interface did not come up")
	ErrDisconnect          = errors.New("disconnect failed")
	ErrInvalidState        = errors.New("operation not valid in current state")
	ErrBusy                = errors.New("another bring-up or teardown is in progress")
)

// StepError is the failure of a single bring-up or teardown step.
type StepError struct {
	State types.InterfaceState
	Kind  error
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v (state %s)", e.Kind, e.Err, e.State)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
