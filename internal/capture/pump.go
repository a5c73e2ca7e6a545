// Package capture grabs the host screen and pushes frames to connected devices.
package capture

import (
	"context"
	"time"

	"deskbridge/internal/logx"
	"deskbridge/internal/types"
)

// Sink accepts an outbound frame without blocking; an error means the frame
// was not queued.
type Sink interface {
	TrySend(frame []byte) error
}

// Pump ticks at a fixed cadence for a single session.
type Pump struct {
	Grabber  Grabber
	Sink     Sink
	Interval time.Duration
	Log      logx.Logger
}

// Interval converts frames per second to a tick period.
func Interval(fps int) time.Duration {
	if fps <= 0 {
		fps = 5
	}
	return time.Second / time.Duration(fps)
}

// Run captures and sends on every tick until ctx is cancelled. Capture and
// send failures skip the tick.
func (p *Pump) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = Interval(0)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Pump) tick(ctx context.Context) {
	img, err := p.Grabber.Grab(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.Log.Warnf("capture error: %v", err)
		}
		return
	}
	payload, err := types.NewScreenshot(img)
	if err != nil {
		p.Log.Errorf("encode frame: %v", err)
		return
	}
	if err := p.Sink.TrySend(payload); err != nil {
		p.Log.Debugf("frame skipped: %v", err)
	}
}
