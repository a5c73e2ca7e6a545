//go:build windows && !cgo

package input

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32           = windows.NewLazySystemDLL("user32.dll")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procMouseEvent   = user32.NewProc("mouse_event")
	procKeybdEvent   = user32.NewProc("keybd_event")
)

// Win32 constants
const (
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040

	keyeventfKeyUp = 0x0002
)

type nativeActuator struct{}

// New returns the platform actuator.
func New() Actuator { return nativeActuator{} }

func (nativeActuator) MovePointer(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ret, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func (nativeActuator) Click(ctx context.Context, btn Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var down, up uintptr
	switch btn {
	case ButtonRight:
		down, up = mouseeventfRightDown, mouseeventfRightUp
	case ButtonMiddle:
		down, up = mouseeventfMiddleDown, mouseeventfMiddleUp
	default:
		down, up = mouseeventfLeftDown, mouseeventfLeftUp
	}
	procMouseEvent.Call(down, 0, 0, 0, 0)
	procMouseEvent.Call(up, 0, 0, 0, 0)
	return nil
}

// TypeText types the runes it can map to a virtual key and reports how many
// it had to skip.
func (nativeActuator) TypeText(ctx context.Context, s string) error {
	skipped := 0
	for _, r := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		k, ok := keyFor(r)
		if !ok {
			skipped++
			continue
		}
		vk, shift := k.vk, k.shift
		if shift {
			keybdEvent(vkShift, 0)
		}
		keybdEvent(vk, 0)
		keybdEvent(vk, keyeventfKeyUp)
		if shift {
			keybdEvent(vkShift, keyeventfKeyUp)
		}
	}
	if skipped > 0 {
		return fmt.Errorf("typed with %d unmappable characters skipped", skipped)
	}
	return nil
}

func keybdEvent(vk uint16, flags uint32) {
	procKeybdEvent.Call(uintptr(vk), 0, uintptr(flags), 0)
}
