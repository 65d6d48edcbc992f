// Package http serves rendered displays to polling e-ink devices.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spendboard/internal/log"
	"spendboard/internal/middleware/ratelimit"
	"spendboard/internal/middleware/security"
	"spendboard/internal/middleware/trace"
	"spendboard/internal/services"
)

// Renderer produces the display for a request.
type Renderer interface {
	Generate(ctx context.Context, req services.Request) (*services.Result, error)
}

// Options tunes a Server. The zero value serves no metrics.
type Options struct {
	// Gatherer backs GET /metrics when set.
	Gatherer      prometheus.Gatherer
	RateLimit     ratelimit.Config
	RenderTimeout time.Duration
}

type Server struct {
	http.Server
	renderer      Renderer
	limiter       *ratelimit.Limiter
	renderTimeout time.Duration
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, renderer Renderer, opts Options) *Server {
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 20 * time.Second
	}
	s := &Server{
		renderer:      renderer,
		limiter:       ratelimit.NewLimiter(opts.RateLimit),
		renderTimeout: opts.RenderTimeout,
	}

	ips := security.NewClientIPResolver()
	logger := log.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	mux.Handle("GET /display.png", s.limiter.Middleware(ips.ClientIP)(http.HandlerFunc(s.handleDisplay)))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleHealth)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(logger, ips.ClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(mux)),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      opts.RenderTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
