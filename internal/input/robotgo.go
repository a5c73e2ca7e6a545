//go:build cgo

package input

import (
	"context"

	"github.com/go-vgo/robotgo"
)

type robotgoActuator struct{}

// New returns the platform actuator.
func New() Actuator { return robotgoActuator{} }

func (robotgoActuator) MovePointer(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Move(x, y)
	return nil
}

func (robotgoActuator) Click(ctx context.Context, btn Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.Click(string(btn), false)
	return nil
}

func (robotgoActuator) TypeText(ctx context.Context, s string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	robotgo.TypeStr(s)
	return nil
}
