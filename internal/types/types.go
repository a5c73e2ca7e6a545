// Package types defines the wire protocol spoken with the companion device.
package types

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Inbound action names.
const (
	ActionMoveMouse    = "moveMouse"
	ActionMouseClick   = "mouseClick"
	ActionType         = "type"
	ActionProcessImage = "processImage"
)

// Outbound message types.
const (
	TypeScreenshot     = "screenshot"
	TypeImageProcessed = "imageProcessed"
	TypeError          = "error"
)

// Ack is sent as a plain text frame right after a device connects.
const Ack = "connected"

var (
	// ErrMalformed means the frame is not a JSON object at all.
	ErrMalformed = errors.New("malformed frame")
	// ErrInvalidPayload means the action is known but its fields are missing or wrong.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Command is a decoded inbound envelope. The set of implementations is closed:
// MoveMouse, MouseClick, TypeText, ProcessImage and Unknown.
type Command interface {
	Action() string
	isCommand()
}

// MoveMouse moves the pointer to absolute screen coordinates.
type MoveMouse struct{ X, Y int }

// MouseClick presses and releases a button; empty Button means left.
type MouseClick struct{ Button string }

// TypeText types Text with synthetic key events.
type TypeText struct{ Text string }

// ProcessImage asks for a thumbnail of Image.
type ProcessImage struct{ Image []byte }

// Unknown carries an unrecognised action and the raw frame.
type Unknown struct {
	Name string
	Raw  []byte
}

func (MoveMouse) Action() string    { return ActionMoveMouse }
func (MouseClick) Action() string   { return ActionMouseClick }
func (TypeText) Action() string     { return ActionType }
func (ProcessImage) Action() string { return ActionProcessImage }
func (u Unknown) Action() string    { return u.Name }

func (MoveMouse) isCommand()    {}
func (MouseClick) isCommand()   {}
func (TypeText) isCommand()     {}
func (ProcessImage) isCommand() {}
func (Unknown) isCommand()      {}

// envelope keeps every field raw so a bad field only fails its own action.
type envelope struct {
	Action      json.RawMessage `json:"action"`
	X           json.RawMessage `json:"x"`
	Y           json.RawMessage `json:"y"`
	Text        json.RawMessage `json:"text"`
	Button      json.RawMessage `json:"button"`
	ImageBuffer json.RawMessage `json:"imageBuffer"`
}

// Decode parses one inbound frame. A frame that is not a JSON object returns
// ErrMalformed; a known action with bad fields returns ErrInvalidPayload
// together with the action name in the error text.
func Decode(raw []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var action string
	if len(env.Action) > 0 {
		// a non-string action can't match anything we know
		_ = json.Unmarshal(env.Action, &action)
	}

	switch action {
	case ActionMoveMouse:
		x, errX := number(env.X)
		y, errY := number(env.Y)
		if err := errors.Join(errX, errY); err != nil {
			return nil, invalid(action, err)
		}
		return MoveMouse{X: x, Y: y}, nil

	case ActionMouseClick:
		var btn string
		if present(env.Button) {
			if err := json.Unmarshal(env.Button, &btn); err != nil {
				return nil, invalid(action, err)
			}
		}
		return MouseClick{Button: btn}, nil

	case ActionType:
		if !present(env.Text) {
			return nil, invalid(action, errors.New("text missing"))
		}
		var text string
		if err := json.Unmarshal(env.Text, &text); err != nil {
			return nil, invalid(action, err)
		}
		return TypeText{Text: text}, nil

	case ActionProcessImage:
		img, err := imageBytes(env.ImageBuffer)
		if err != nil {
			return nil, invalid(action, err)
		}
		return ProcessImage{Image: img}, nil
	}

	return Unknown{Name: action, Raw: raw}, nil
}

func invalid(action string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, action, err)
}

func present(r json.RawMessage) bool {
	return len(r) > 0 && !bytes.Equal(r, []byte("null"))
}

func number(r json.RawMessage) (int, error) {
	if !present(r) {
		return 0, errors.New("coordinate missing")
	}
	var f float64
	if err := json.Unmarshal(r, &f); err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, fmt.Errorf("coordinate %v out of range", f)
	}
	return int(f), nil
}

// imageBytes accepts a base64 string, an array of byte values, or a
// serialized Node Buffer {"type":"Buffer","data":[...]}.
func imageBytes(r json.RawMessage) ([]byte, error) {
	if !present(r) {
		return nil, errors.New("imageBuffer missing")
	}
	switch r[0] {
	case '"':
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(s)
	case '[':
		return byteArray(r)
	case '{':
		var nb struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(r, &nb); err != nil {
			return nil, err
		}
		if nb.Type != "Buffer" || !present(nb.Data) {
			return nil, errors.New("unsupported imageBuffer object")
		}
		return byteArray(nb.Data)
	}
	return nil, errors.New("unsupported imageBuffer encoding")
}

func byteArray(r json.RawMessage) ([]byte, error) {
	var vals []int
	if err := json.Unmarshal(r, &vals); err != nil {
		return nil, err
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte %d out of range: %d", i, v)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// Screenshot is the periodic capture frame. Image is base64 on the wire.
type Screenshot struct {
	Type  string `json:"type"`
	Image []byte `json:"image"`
}

// ImageProcessed answers a processImage command.
type ImageProcessed struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// ErrorReply reports a failed command back to the device.
type ErrorReply struct {
	Type    string `json:"type"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// NewScreenshot marshals a screenshot frame.
func NewScreenshot(img []byte) ([]byte, error) {
	return json.Marshal(Screenshot{Type: TypeScreenshot, Image: img})
}

// NewImageProcessed marshals a processImage result.
func NewImageProcessed(img []byte) ([]byte, error) {
	return json.Marshal(ImageProcessed{
		Type: TypeImageProcessed,
		Data: base64.StdEncoding.EncodeToString(img),
	})
}

// NewErrorReply marshals an error reply for action.
func NewErrorReply(action string, err error) ([]byte, error) {
	return json.Marshal(ErrorReply{Type: TypeError, Action: action, Message: err.Error()})
}
