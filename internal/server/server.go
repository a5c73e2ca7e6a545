// Package server accepts device connections, runs their command and capture
// loops, and exposes the advertised URL to the operator.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/logging"
	"golang.org/x/sync/errgroup"

	"deskbridge/internal/capture"
	"deskbridge/internal/clients"
	"deskbridge/internal/imaging"
	in "deskbridge/internal/input"
	"deskbridge/internal/logx"
	"deskbridge/internal/netid"
	"deskbridge/internal/ports"
	"deskbridge/internal/relay"
	"deskbridge/internal/ui"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	StartPort  int
	ScanLimit  int
	FPS        int
	SendBuffer int
	UIBuffer   int

	// ReadTimeout is how long a silent device is kept; zero means 60s.
	ReadTimeout time.Duration
}

// Mirror is the UI relay as the server uses it: commands go in through
// Forward, the operator page subscribes, and Run drives delivery.
type Mirror interface {
	relay.Forwarder
	ui.Subscriber
	Run(ctx context.Context) error
	Dropped() uint64
}

// Deps are the collaborators the server drives. Nil Relay, Interfaces and
// Logger get working defaults; Actuator and Grabber are required.
type Deps struct {
	Actuator    in.Actuator
	Transformer imaging.Transformer
	Grabber     capture.Grabber
	Relay       Mirror
	Interfaces  netid.Source
	UIFiles     fs.FS
	Probe       ports.Prober
	Logger      logging.LoggerFactory
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// Server is the process-wide bridge state: bound port, advertised address and
// the open sessions.
type Server struct {
	cfg        Config
	deps       Deps
	mgr        *clients.Manager
	dispatcher *in.Dispatcher
	log        logx.Logger
	capLog     logx.Logger
	cliLog     logx.Logger

	ctx      context.Context
	stop     context.CancelFunc
	sessMu   sync.Mutex // orders session starts against Close
	sessions sync.WaitGroup

	mu   sync.RWMutex
	ln   net.Listener
	port int
	ip   string
	url  string
	host *netid.Host
}

func New(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logx.NewFactory("info", nil)
	}
	if deps.Relay == nil {
		deps.Relay = relay.New(0)
	}
	if deps.Interfaces == nil {
		deps.Interfaces = netid.SystemSource{}
	}
	if deps.UIFiles == nil {
		deps.UIFiles = ui.Content("", "")
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		cfg:  cfg,
		deps: deps,
		mgr:  clients.NewManager(),
		dispatcher: &in.Dispatcher{
			Actuator:    deps.Actuator,
			Transformer: deps.Transformer,
			Log:         deps.Logger.NewLogger("input"),
		},
		log:    deps.Logger.NewLogger("server"),
		capLog: deps.Logger.NewLogger("capture"),
		cliLog: deps.Logger.NewLogger("clients"),
		ctx:    ctx,
		stop:   stop,
	}
}

// Listen picks the first free port from StartPort, binds it and resolves the
// advertised URL. A port that is taken between probe and bind is skipped.
func (s *Server) Listen() error {
	alloc := ports.Allocator{
		Probe:    s.deps.Probe,
		Attempts: s.cfg.ScanLimit,
		Log:      s.deps.Logger.NewLogger("ports"),
	}
	if alloc.Attempts <= 0 {
		alloc.Attempts = ports.DefaultAttempts
	}
	start := s.cfg.StartPort
	limit := start + alloc.Attempts

	var ln net.Listener
	var port int
	for ln == nil {
		alloc.Attempts = limit - start
		if alloc.Attempts <= 0 {
			return fmt.Errorf("%w: %d..%d", ports.ErrExhausted, s.cfg.StartPort, limit-1)
		}
		p, err := alloc.Find(start)
		if err != nil {
			return err
		}
		l, err := net.Listen("tcp", net.JoinHostPort("", strconv.Itoa(p)))
		if err != nil {
			s.log.Warnf("bind %d failed, trying next port: %v", p, err)
			start = p + 1
			continue
		}
		ln, port = l, p
	}

	ip := netid.LocalIPv4(s.deps.Interfaces)
	url := netid.URL(ip, port)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var host *netid.Host
	if h, err := netid.HostInfo(ctx); err != nil {
		s.log.Debugf("host info unavailable: %v", err)
	} else {
		host = &h
	}

	s.mu.Lock()
	s.ln, s.port, s.ip, s.url, s.host = ln, port, ip, url, host
	s.mu.Unlock()

	s.log.Infof("websocket server listening, %s", url)
	return nil
}

// URL is the address devices should connect to, e.g. ws://192.168.1.5:3000.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.url
}

// Port is the bound port, zero before Listen.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// SessionCount reports the number of open device sessions.
func (s *Server) SessionCount() int { return s.mgr.Len() }

// Serve runs the HTTP/websocket server and the UI relay until ctx is done,
// then closes every session and waits for their loops to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.RLock()
	ln := s.ln
	s.mu.RUnlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	httpSrv := &http.Server{Handler: s.Handler()}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error { return s.deps.Relay.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(sctx)
		s.Close()
		return err
	})
	return g.Wait()
}

// Close ends every open session and waits until their capture loops have stopped.
func (s *Server) Close() {
	s.sessMu.Lock()
	s.stop()
	s.sessMu.Unlock()
	s.mgr.CloseAll()
	s.sessions.Wait()
}

// Handler routes device websockets, the operator UI and the query endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleDevice)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/url", s.handleURL)
	mux.HandleFunc("/api/status", s.handleStatus)

	uh := &ui.Handler{
		Files:  s.deps.UIFiles,
		Relay:  s.deps.Relay,
		Log:    s.deps.Logger.NewLogger("ui"),
		Buffer: s.cfg.UIBuffer,
	}
	uh.Register(mux)
	return mux
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"url": s.URL()})
}

type status struct {
	URL      string      `json:"url"`
	Port     int         `json:"port"`
	Sessions int         `json:"sessions"`
	Dropped  uint64      `json:"mirrorDropped"`
	Host     *netid.Host `json:"host,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := status{URL: s.url, Port: s.port, Host: s.host}
	s.mu.RUnlock()
	st.Sessions = s.SessionCount()
	st.Dropped = s.deps.Relay.Dropped()
	writeJSON(w, st)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
