// Package relay mirrors raw inbound command frames to local UI surfaces.
// Delivery is best effort: nothing here ever blocks the command path.
package relay

import (
	"context"
	"sync"
	"sync/atomic"
)

// Forwarder is what the command server sees of the relay.
type Forwarder interface {
	Forward(raw []byte)
}

// Relay hands frames from Forward to subscribers through a bounded queue.
type Relay struct {
	queue   chan []byte
	dropped atomic.Uint64

	mu     sync.Mutex
	subs   map[int]chan []byte
	nextID int
}

// New returns a relay whose queue holds size frames.
func New(size int) *Relay {
	if size <= 0 {
		size = 256
	}
	return &Relay{
		queue: make(chan []byte, size),
		subs:  make(map[int]chan []byte),
	}
}

// Forward queues a copy of raw; when the queue is full the frame is dropped.
func (r *Relay) Forward(raw []byte) {
	msg := append([]byte(nil), raw...)
	select {
	case r.queue <- msg:
	default:
		r.dropped.Add(1)
	}
}

// Dropped reports how many frames were discarded so far.
func (r *Relay) Dropped() uint64 { return r.dropped.Load() }

// Subscribe registers a listener with a buffer of size frames. The returned
// cancel func unregisters it and closes the channel.
func (r *Relay) Subscribe(size int) (<-chan []byte, func()) {
	if size <= 0 {
		size = 64
	}
	ch := make(chan []byte, size)
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
			close(ch)
		})
	}
}

// Run delivers queued frames until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.queue:
			r.deliver(msg)
		}
	}
}

func (r *Relay) deliver(msg []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- msg:
		default:
			r.dropped.Add(1)
		}
	}
}
