// Package http serves the tool registry over JSON: tool calls, prompts,
// resources, plus health and metrics endpoints.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledgerkit/internal/log"
	"ledgerkit/internal/middleware/ratelimit"
	"ledgerkit/internal/middleware/security"
	"ledgerkit/internal/middleware/trace"
	"ledgerkit/internal/tools"
)

const (
	maxBodyBytes     = 1 << 20
	readyTimeout     = 10 * time.Second
	readHeaderWindow = 10 * time.Second
)

// Pinger reports whether the ledger backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr               string
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	Logger             *log.Logger
}

type Server struct {
	http.Server
	registry *tools.Registry
	pinger   Pinger
	logger   *log.Logger
	timeout  time.Duration

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time
	shutdownOnce     sync.Once
}

// NewServer wires routes and middleware; pinger may be nil.
func NewServer(opts Options, reg *tools.Registry, pinger Pinger) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	detector := security.NewDetector()

	s := &Server{
		registry:         reg,
		pinger:           pinger,
		logger:           opts.Logger.WithComponent(log.ComponentHTTP),
		timeout:          opts.RequestTimeout,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		started:          time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /tools/{name}", s.handleCallTool)
	mux.HandleFunc("GET /prompts", s.handleListPrompts)
	mux.HandleFunc("POST /prompts/{name}", s.handleGetPrompt)
	mux.HandleFunc("GET /resources", s.handleListResources)
	mux.HandleFunc("GET /resources/read", s.handleReadResource)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: readHeaderWindow,
	}
	return s
}

// middleware wraps h, outermost first: tracing and access log, request
// logger, security headers, probe detection, POST rate limit, deadline.
func (s *Server) middleware(h http.Handler) http.Handler {
	chain := []func(http.Handler) http.Handler{
		s.traceMiddleware.Middleware,
		log.Middleware(s.logger),
		log.RequestIDMiddleware(trace.RequestID),
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.securityDetector.Middleware,
		s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimit, http.MethodPost),
		s.withTimeout,
	}
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	if s.timeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
}

// Shutdown stops the rate limiter and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
