package capture

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/logx"
	"deskbridge/internal/testutil"
	"deskbridge/internal/types"
)

type sink struct {
	mu     sync.Mutex
	frames [][]byte
	err    error
}

func (s *sink) TrySend(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, b)
	return nil
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func runPump(t *testing.T, p *Pump) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("pump did not stop")
		}
	}
}

func TestInterval(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, Interval(5))
	assert.Equal(t, 200*time.Millisecond, Interval(0))
	assert.Equal(t, 100*time.Millisecond, Interval(10))
}

func TestPumpSendsScreenshotFrames(t *testing.T) {
	g := &testutil.Grabber{}
	s := &sink{}
	stop := runPump(t, &Pump{Grabber: g, Sink: s, Interval: 10 * time.Millisecond, Log: logx.Discard()})

	require.Eventually(t, func() bool { return s.count() >= 3 }, time.Second, 5*time.Millisecond)
	stop()

	var frame types.Screenshot
	s.mu.Lock()
	require.NoError(t, json.Unmarshal(s.frames[0], &frame))
	s.mu.Unlock()
	assert.Equal(t, types.TypeScreenshot, frame.Type)
	assert.Equal(t, []byte("frame-1"), frame.Image)
}

func TestPumpSurvivesCaptureAndSendErrors(t *testing.T) {
	g := &testutil.Grabber{}
	g.SetErr(errors.New("no display"))
	s := &sink{err: errors.New("queue full")}
	stop := runPump(t, &Pump{Grabber: g, Sink: s, Interval: 5 * time.Millisecond, Log: logx.Discard()})

	require.Eventually(t, func() bool { return g.Count() >= 3 }, time.Second, 5*time.Millisecond)
	g.SetErr(nil)
	require.Eventually(t, func() bool { return g.Count() >= 6 }, time.Second, 5*time.Millisecond)
	stop()
	assert.Zero(t, s.count())
}

func TestPumpStopsOnCancel(t *testing.T) {
	g := &testutil.Grabber{}
	stop := runPump(t, &Pump{Grabber: g, Sink: &sink{}, Interval: 5 * time.Millisecond, Log: logx.Discard()})
	require.Eventually(t, func() bool { return g.Count() >= 2 }, time.Second, 5*time.Millisecond)
	stop()

	after := g.Count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, g.Count())
}
