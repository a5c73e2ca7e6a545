package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"deskbridge/internal/capture"
	"deskbridge/internal/clients"
	t "deskbridge/internal/types"
)

// commandQueue is how many decoded-but-unhandled frames a session holds
// before the reader waits for the worker.
const commandQueue = 64

// handleDevice upgrades a device connection and starts its session. Plain
// browser hits on / are sent to the operator page.
func (s *Server) handleDevice(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/ui/", http.StatusFound)
			return
		}
		http.NotFound(w, r)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnf("upgrade error: %v", err)
		return
	}

	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	if s.ctx.Err() != nil {
		_ = ws.Close()
		return
	}
	c := clients.New(ws, r.RemoteAddr, s.cfg.SendBuffer, s.cliLog)
	c.SetReadTimeout(s.cfg.ReadTimeout)
	s.sessions.Add(1)
	go s.runSession(c)
}

// runSession owns one device from Open to Closed: it registers the client,
// acknowledges, starts the capture pump and processes commands in order on a
// worker of its own, so the socket keeps being read (and pongs answered)
// while a slow command runs. On return the pump and worker have stopped and
// the client is deregistered.
func (s *Server) runSession(c *clients.Client) {
	defer s.sessions.Done()

	s.mgr.Add(c)
	s.log.Infof("device connected id=%s remote=%s", c.ID, c.Remote)
	go c.WritePump()
	if err := c.TrySend([]byte(t.Ack)); err != nil {
		s.log.Warnf("ack to %s dropped: %v", c.ID, err)
	}

	ctx, cancel := context.WithCancel(s.ctx)
	pump := &capture.Pump{
		Grabber:  s.deps.Grabber,
		Sink:     c,
		Interval: capture.Interval(s.cfg.FPS),
		Log:      s.capLog,
	}
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		pump.Run(ctx)
	}()

	// server shutdown or a failed write must also end the read loop
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.Done():
		}
	}()

	inbox := make(chan []byte, commandQueue)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for msg := range inbox {
			if ctx.Err() != nil {
				continue
			}
			s.handleCommand(ctx, c, msg)
		}
	}()

	c.ReadLoop(func(msg []byte) {
		select {
		case inbox <- msg:
		case <-c.Done():
		}
	})

	close(inbox)
	cancel()
	<-workerDone
	<-pumpDone
	c.Close()
	s.mgr.Remove(c)
	s.log.Infof("device disconnected id=%s", c.ID)
}

// handleCommand mirrors one inbound frame to the UI relay, then decodes and
// dispatches it. Nothing here closes the session.
func (s *Server) handleCommand(ctx context.Context, c *clients.Client, msg []byte) {
	s.deps.Relay.Forward(msg)

	cmd, err := t.Decode(msg)
	switch {
	case errors.Is(err, t.ErrMalformed):
		s.log.Warnf("dropping frame from %s: %v", c.ID, err)
		return
	case err != nil:
		s.log.Warnf("rejected command from %s: %v", c.ID, err)
		return
	}
	s.log.Debugf("command %s from %s", cmd.Action(), c.ID)

	reply, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		s.log.Debugf("command %s from %s failed: %v", cmd.Action(), c.ID, err)
	}
	if reply == nil {
		return
	}
	if err := c.TrySend(reply); err != nil {
		s.log.Warnf("%s response to %s dropped: %v", cmd.Action(), c.ID, err)
	}
}
