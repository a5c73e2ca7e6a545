package input

// Package input synthesizes pointer and keyboard events on the host. The
// backend is chosen at build time: robotgo when cgo is available, a small
// native implementation otherwise.

import (
	"context"
	"errors"
	"strings"
)

// ErrUnsupported is returned by backends that cannot drive input on this platform.
var ErrUnsupported = errors.New("input actuation not supported on this platform")

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Actuator drives OS-level input. Calls are blocking and not transactional:
// a TypeText that fails midway may leave part of the text typed.
type Actuator interface {
	// MovePointer moves the cursor to absolute screen coordinates. Values are
	// passed through unchecked.
	MovePointer(ctx context.Context, x, y int) error
	// Click presses and releases btn.
	Click(ctx context.Context, btn Button) error
	// TypeText types s as a sequence of key presses.
	TypeText(ctx context.Context, s string) error
}

// ParseButton maps a device-supplied button name; anything unknown is left.
func ParseButton(b string) Button {
	switch strings.ToLower(b) {
	case "right", "r":
		return ButtonRight
	case "center", "middle", "m":
		return ButtonMiddle
	default:
		return ButtonLeft
	}
}
