// Package ports finds a free TCP port to listen on.
package ports

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"deskbridge/internal/logx"
)

// DefaultAttempts is the scan cap used when none is given.
const DefaultAttempts = 1000

const maxPort = 65535

// ErrExhausted is returned when no port in the scanned range could be bound.
var ErrExhausted = errors.New("no free port in range")

// Prober reports whether port can be bound for listening right now.
type Prober func(port int) bool

// Allocator scans ports with a bind-then-release probe.
type Allocator struct {
	Probe    Prober
	Attempts int
	Log      logx.Logger
}

// ListenProbe opens a TCP listener on every interface and closes it at once.
func ListenProbe(port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// Find returns the first port >= start accepted by the probe.
func (a Allocator) Find(start int) (int, error) {
	probe := a.Probe
	if probe == nil {
		probe = ListenProbe
	}
	attempts := a.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if start < 1 {
		start = 1
	}

	port := start
	for i := 0; i < attempts && port <= maxPort; i, port = i+1, port+1 {
		if probe(port) {
			return port, nil
		}
		if a.Log != nil {
			a.Log.Debugf("port %d busy, trying next", port)
		}
	}
	return 0, fmt.Errorf("%w: %d..%d", ErrExhausted, start, port-1)
}
