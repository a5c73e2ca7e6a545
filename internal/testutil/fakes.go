// Package testutil holds fakes shared by package tests.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"deskbridge/internal/input"
)

// Call is one recorded actuator invocation.
type Call struct {
	Op     string
	X, Y   int
	Button input.Button
	Text   string
}

// Actuator records calls instead of touching the OS.
type Actuator struct {
	mu    sync.Mutex
	calls []Call
	// Err, when set, is returned from every call after recording it.
	Err error
	// Block, when set, is waited on by TypeText.
	Block chan struct{}
}

func (a *Actuator) record(c Call) error {
	a.mu.Lock()
	a.calls = append(a.calls, c)
	a.mu.Unlock()
	return a.Err
}

func (a *Actuator) MovePointer(_ context.Context, x, y int) error {
	return a.record(Call{Op: "move", X: x, Y: y})
}

func (a *Actuator) Click(_ context.Context, btn input.Button) error {
	return a.record(Call{Op: "click", Button: btn})
}

func (a *Actuator) TypeText(ctx context.Context, s string) error {
	if a.Block != nil {
		select {
		case <-a.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return a.record(Call{Op: "type", Text: s})
}

// Calls returns a copy of the recorded calls.
func (a *Actuator) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// Grabber returns a tiny numbered frame and counts captures.
type Grabber struct {
	n   atomic.Int64
	mu  sync.Mutex
	err error
}

// SetErr makes subsequent captures fail with err (nil restores them).
func (g *Grabber) SetErr(err error) {
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
}

func (g *Grabber) Grab(context.Context) ([]byte, error) {
	n := g.n.Add(1)
	g.mu.Lock()
	err := g.err
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("frame-%d", n)), nil
}

// Count reports how many captures were attempted.
func (g *Grabber) Count() int64 { return g.n.Load() }

// Transformer echoes a prefix of the input or fails on "bad".
type Transformer struct{}

func (Transformer) Transform(_ context.Context, buf []byte) ([]byte, error) {
	if string(buf) == "bad" {
		return nil, errors.New("cannot decode")
	}
	return append([]byte("thumb:"), buf...), nil
}
