package devserver

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
)

// Options configures a Server.
type Options struct {
	Host       string
	Port       int
	BaseDir    string
	LiveReload bool
	// Metrics is mounted at /metrics when non-nil.
	Metrics  http.Handler
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Server is the development web server.
type Server struct {
	opts   Options
	hub    *LiveReloadHub
	logger *slog.Logger

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	serveCh chan error
}

// New creates a server. It does not bind until Start.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{opts: opts, hub: NewLiveReloadHub(opts.Recorder), logger: opts.Logger}
}

// Hub returns the live reload hub; it is the reload side channel for watch.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Handler returns the routing for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	var files http.Handler = http.FileServer(http.Dir(s.opts.BaseDir))
	if s.opts.LiveReload {
		files = injectLiveReload(files)
		mux.Handle("/livereload", s.hub)
		mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
			w.Header().Set("Cache-Control", "no-cache")
			_, _ = w.Write([]byte(LiveReloadScript))
		})
	}
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/", noCache(files))
	return s.accessLog(mux)
}

// Start binds the listener, failing fast when the port is taken, then
// serves in the background.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ferrors.ServerError("server already started").Build()
	}
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryServer, "bind dev server").
			WithContext("addr", addr).Build()
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.serveCh = make(chan error, 1)
	srv := s.srv
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveCh <- err
	}()
	s.logger.Info("Dev server listening",
		slog.String("url", "http://"+ln.Addr().String()),
		logfields.Path(s.opts.BaseDir))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop closes live reload clients and shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, serveCh := s.srv, s.serveCh
	s.srv = nil
	s.mu.Unlock()
	s.hub.Shutdown()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		_ = srv.Close()
		return ferrors.WrapError(err, ferrors.CategoryServer, "shutdown dev server").Build()
	}
	if err := <-serveCh; err != nil {
		return ferrors.WrapError(err, ferrors.CategoryServer, "dev server failed").Build()
	}
	s.logger.Info("Dev server stopped")
	return nil
}

// Serve runs the server until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	serveCh := s.serveCh
	s.mu.Unlock()

	select {
	case <-ctx.Done():
	case err := <-serveCh:
		// Put the result back for Stop.
		serveCh <- err
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request",
			logfields.Method(r.Method),
			logfields.Path(r.URL.Path),
			logfields.Status(rec.status),
			logfields.RemoteAddr(r.RemoteAddr),
			logfields.Duration(time.Since(start)))
	})
}
