package input

import (
	"context"
	"errors"
	"fmt"

	"deskbridge/internal/imaging"
	"deskbridge/internal/logx"
	t "deskbridge/internal/types"
)

// ErrNoTransformer is returned for processImage when no transformer is configured.
var ErrNoTransformer = errors.New("image processing unavailable")

// Dispatcher executes decoded commands against an Actuator and a Transformer.
type Dispatcher struct {
	Actuator    Actuator
	Transformer imaging.Transformer
	Log         logx.Logger
}

// Dispatch runs cmd and returns the reply frame to send back, if any.
// Actuation failures are logged and returned; they never affect other commands.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd t.Command) ([]byte, error) {
	switch c := cmd.(type) {
	case t.MoveMouse:
		return nil, d.actuate(c, d.Actuator.MovePointer(ctx, c.X, c.Y))
	case t.MouseClick:
		return nil, d.actuate(c, d.Actuator.Click(ctx, ParseButton(c.Button)))
	case t.TypeText:
		return nil, d.actuate(c, d.Actuator.TypeText(ctx, c.Text))
	case t.ProcessImage:
		return d.processImage(ctx, c)
	case t.Unknown:
		d.Log.Debugf("ignoring action %q", c.Name)
		return nil, nil
	default:
		return nil, fmt.Errorf("unhandled command %T", cmd)
	}
}

func (d *Dispatcher) actuate(cmd t.Command, err error) error {
	if err != nil {
		d.Log.Warnf("%s failed: %v", cmd.Action(), err)
		return fmt.Errorf("%s: %w", cmd.Action(), err)
	}
	return nil
}

// processImage always yields a reply: the thumbnail, or an error frame.
func (d *Dispatcher) processImage(ctx context.Context, c t.ProcessImage) ([]byte, error) {
	var out []byte
	err := ErrNoTransformer
	if d.Transformer != nil {
		out, err = d.Transformer.Transform(ctx, c.Image)
	}
	if err != nil {
		d.Log.Warnf("processImage failed: %v", err)
		reply, mErr := t.NewErrorReply(t.ActionProcessImage, err)
		if mErr != nil {
			return nil, mErr
		}
		return reply, fmt.Errorf("processImage: %w", err)
	}
	return t.NewImageProcessed(out)
}
