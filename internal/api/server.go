package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/PolarWolf314/condlock/internal/audit"
	"github.com/PolarWolf314/condlock/internal/catalog"
	"github.com/PolarWolf314/condlock/internal/ratelimit"
	"github.com/PolarWolf314/condlock/internal/workflows"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Logger is the subset of logging the server uses.
type Logger interface {
	Infof(msg string, args ...any)
	Errorf(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Options configure a Server.
type Options struct {
	Checker workflows.ConditionChecker
	Catalog *catalog.Catalog
	History *audit.Log
	// Limiter throttles requests per client IP. Nil disables throttling.
	Limiter *ratelimit.KeyedLimiter
	// Registry receives the HTTP collectors and is served on /metrics.
	Registry     *prometheus.Registry
	MaxBodyBytes int64
	// RoundTimeout bounds the oracle round of a decrypt or inspect request.
	// Zero leaves only the request context.
	RoundTimeout time.Duration
	Logger       Logger
}

// Server is the local JSON API over the encrypt, decrypt and inspect workflows.
type Server struct {
	opts    Options
	metrics *httpMetrics
	handler http.Handler
}

// roundContext derives the context for one oracle round from the request.
func (s *Server) roundContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.opts.RoundTimeout > 0 {
		return context.WithTimeout(r.Context(), s.opts.RoundTimeout)
	}
	return context.WithCancel(r.Context())
}

// DefaultMaxBodyBytes bounds request bodies when Options.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 1 << 20

// New builds a server and its routes.
func New(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}

	s := &Server{opts: opts}
	if opts.Registry != nil {
		s.metrics = newHTTPMetrics(opts.Registry)
	}

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.instrument(name, withRateLimit(opts.Limiter, h)))
	}
	route("POST /v1/encrypt", "encrypt", s.handleEncrypt)
	route("POST /v1/decrypt", "decrypt", s.handleDecrypt)
	route("POST /v1/inspect", "inspect", s.handleInspect)
	route("GET /v1/assets", "assets", s.handleAssets)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	s.handler = withRequestID(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Decrypt waits for a full oracle round.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.opts.Logger.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
