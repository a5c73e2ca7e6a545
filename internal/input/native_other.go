//go:build !windows && !cgo

package input

import "context"

// Without cgo there is no way to reach the X11/Quartz input APIs, so every
// call reports ErrUnsupported and the dispatcher logs it.

type unsupportedActuator struct{}

// New returns the platform actuator.
func New() Actuator { return unsupportedActuator{} }

func (unsupportedActuator) MovePointer(context.Context, int, int) error { return ErrUnsupported }

func (unsupportedActuator) Click(context.Context, Button) error { return ErrUnsupported }

func (unsupportedActuator) TypeText(context.Context, string) error { return ErrUnsupported }
