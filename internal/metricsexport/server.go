package metricsexport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schedulerd/internal/scheduler"
	logx "schedulerd/pkg/logx"
)

// Config controls the optional metrics HTTP server.
type Config struct {
	Enabled bool
	Addr    string
	Path    string
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:9090"
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	return c
}

// Server manages the lifecycle of the /metrics HTTP listener.
type Server struct {
	mu   sync.Mutex
	log  logx.Logger
	srv  *http.Server
	ln   net.Listener
	addr string

	registry *prometheus.Registry
}

// New builds a Server that scrapes sched on every request.
func New(sched *scheduler.Scheduler, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(newSchedulerCollector(sched))
	return &Server{log: log, registry: reg}
}

// Apply starts/stops the server according to cfg. Safe to call repeatedly,
// including with a toggled Enabled flag. A running server is left as is
// when its actual listen address equals cfg.Addr, and restarted otherwise
// (so an Addr with port 0 or a host name restarts it on every call); a
// changed Path alone does not restart it.
func (s *Server) Apply(ctx context.Context, cfg Config) {
	cfg = cfg.withDefaults()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !cfg.Enabled {
		s.stopLocked(ctx)
		return
	}
	if s.srv != nil && s.addr == cfg.Addr {
		return
	}
	s.stopLocked(ctx)
	s.startLocked(ctx, cfg)
}

func (s *Server) startLocked(ctx context.Context, cfg Config) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		s.log.Warn("metrics listen failed", logx.String("addr", cfg.Addr), logx.Err(err))
		return
	}

	s.srv = srv
	s.ln = ln
	s.addr = ln.Addr().String()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("metrics server error", logx.String("addr", s.addr), logx.Err(err))
		}
	}()
	s.log.Info("metrics server enabled", logx.String("addr", s.addr), logx.String("path", cfg.Path))
}

// Stop gracefully shuts down the server, if running.
func (s *Server) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(ctx)
}

func (s *Server) stopLocked(ctx context.Context) {
	if s.srv == nil {
		return
	}
	srv := s.srv
	ln := s.ln
	addr := s.addr
	s.srv = nil
	s.ln = nil
	s.addr = ""

	shutdownCtx := ctx
	if shutdownCtx == nil {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Warn("metrics shutdown error", logx.String("addr", addr), logx.Err(err))
	}
	if ln != nil {
		_ = ln.Close()
	}
	s.log.Info("metrics server disabled", logx.String("addr", addr))
}

// Addr reports the actual listen address if running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
