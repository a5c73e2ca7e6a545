package capture

import (
	"context"
	"fmt"

	"github.com/kbinani/screenshot"

	"deskbridge/internal/imaging"
)

// Grabber produces one encoded screen image per call.
type Grabber interface {
	Grab(ctx context.Context) ([]byte, error)
}

type Options struct {
	Display int
	Format  string // "png" or "jpeg"
	Quality int    // 1-100, jpeg only
}

// Screen captures a display through kbinani/screenshot.
type Screen struct {
	opts Options
}

func NewScreen(opts Options) *Screen {
	if opts.Format == "" {
		opts.Format = "png"
	}
	return &Screen{opts: opts}
}

// Grab captures the configured display, falling back to display 0 when the
// index is out of range, and returns the encoded image.
func (s *Screen) Grab(ctx context.Context) ([]byte, error) {
	num := screenshot.NumActiveDisplays()
	if num <= 0 {
		return nil, fmt.Errorf("no active display")
	}
	d := s.opts.Display
	if d < 0 || d >= num {
		d = 0
	}
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(d))
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", d, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Encode(img, s.opts.Format, s.opts.Quality)
}
