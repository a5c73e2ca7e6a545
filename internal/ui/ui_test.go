package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskbridge/internal/config"
	"deskbridge/internal/logx"
	"deskbridge/internal/relay"
)

func newServer(t *testing.T, files string, mode string) (*httptest.Server, *relay.Relay) {
	t.Helper()
	r := relay.New(8)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Run(ctx)

	mux := http.NewServeMux()
	h := &Handler{Files: Content(mode, files), Relay: r, Log: logx.Discard(), Buffer: 8}
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, r
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestPackagedPageIsEmbedded(t *testing.T) {
	srv, _ := newServer(t, "", config.ModePackaged)
	assert.Contains(t, get(t, srv.URL+"/ui/"), "<h1>deskbridge</h1>")
}

func TestDevelopmentPageFromDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("dev build"), 0o644))

	srv, _ := newServer(t, dir, config.ModeDevelopment)
	assert.Contains(t, get(t, srv.URL+"/ui/"), "dev build")
}

func TestStreamMirrorsRelay(t *testing.T) {
	srv, r := newServer(t, "", config.ModePackaged)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ui/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	// the subscription is registered after the upgrade; keep forwarding until one arrives
	got := make(chan string, 1)
	go func() {
		ws.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, data, err := ws.ReadMessage()
		if err == nil {
			got <- string(data)
		}
		close(got)
	}()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case msg, ok := <-got:
			require.True(t, ok, "no mirrored frame")
			assert.Equal(t, `{"action":"foo"}`, msg)
			return
		case <-tick.C:
			r.Forward([]byte(`{"action":"foo"}`))
		}
	}
}
