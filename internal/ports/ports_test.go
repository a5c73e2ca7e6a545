package ports

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindReturnsOnlyFreePort(t *testing.T) {
	var probed []int
	a := Allocator{Probe: func(p int) bool {
		probed = append(probed, p)
		return p == 3007
	}}

	port, err := a.Find(3000)
	require.NoError(t, err)
	assert.Equal(t, 3007, port)
	assert.Equal(t, []int{3000, 3001, 3002, 3003, 3004, 3005, 3006, 3007}, probed)
}

func TestFindExhaustedIsBounded(t *testing.T) {
	calls := 0
	a := Allocator{Attempts: 50, Probe: func(int) bool {
		calls++
		return false
	}}

	_, err := a.Find(4000)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 50, calls)
}

func TestFindStopsAtMaxPort(t *testing.T) {
	calls := 0
	a := Allocator{Probe: func(int) bool {
		calls++
		return false
	}}

	_, err := a.Find(65530)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 6, calls)
}

func TestListenProbeReleasesSocket(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	busy := ln.Addr().(*net.TCPAddr).Port

	assert.False(t, ListenProbe(busy), "held port must be reported busy")
	require.NoError(t, ln.Close())

	require.True(t, ListenProbe(busy))
	// the probe must not keep the port: binding again succeeds
	again, err := net.Listen("tcp", ln.Addr().String())
	require.NoError(t, err)
	_ = again.Close()
}
