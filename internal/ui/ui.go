// Package ui serves the operator page and streams mirrored device commands to it.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"deskbridge/internal/config"
	"deskbridge/internal/logx"
)

//go:embed static
var embedded embed.FS

const writeDeadline = 5 * time.Second

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Subscriber is the part of the relay the UI consumes.
type Subscriber interface {
	Subscribe(size int) (<-chan []byte, func())
}

// Content returns the page files for mode: the embedded copy when packaged,
// dir on disk in development.
func Content(mode, dir string) fs.FS {
	if mode == config.ModeDevelopment && dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err) // the embed directive guarantees "static" exists
	}
	return sub
}

// Handler mounts the page under /ui/ and the command stream at /ui/ws.
type Handler struct {
	Files  fs.FS
	Relay  Subscriber
	Log    logx.Logger
	Buffer int
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/ui/", http.StripPrefix("/ui/", http.FileServer(http.FS(h.Files))))
	mux.HandleFunc("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})
	mux.HandleFunc("/ui/ws", h.serveStream)
}

// serveStream forwards every mirrored frame to one UI websocket until either
// side goes away.
func (h *Handler) serveStream(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warnf("ui upgrade error: %v", err)
		return
	}
	defer ws.Close()

	frames, cancel := h.Relay.Subscribe(h.Buffer)
	defer cancel()

	// drain reads so close frames are noticed
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case msg, ok := <-frames:
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.Log.Debugf("ui write error: %v", err)
				return
			}
		}
	}
}
