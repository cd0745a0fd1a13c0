// Package web provides the HTTP server and handlers for the dataset dashboard.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"

	"github.com/JonMunkholm/suicide-explorer/internal/config"
	"github.com/JonMunkholm/suicide-explorer/internal/core"
	"github.com/JonMunkholm/suicide-explorer/internal/core/catalog"
	"github.com/JonMunkholm/suicide-explorer/internal/store"
	mw "github.com/JonMunkholm/suicide-explorer/internal/web/middleware"
)

// Publisher writes the clean table to the publish database.
type Publisher interface {
	Publish(ctx context.Context, t *core.Table) (*store.Batch, error)
	Batches(ctx context.Context, limit int) ([]store.Batch, error)
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the dataset dashboard.
type Server struct {
	service   *core.Service
	publisher Publisher // nil when no database is configured
	catalog   *catalog.Catalog
	cfg       *config.Config
	sessions  sessions.Store
	router    *chi.Mux
	server    *http.Server
	limiters  []*rateLimiter

	publishGate *core.Limiter
}

// NewServer creates a new Server instance. publisher may be nil.
func NewServer(service *core.Service, publisher Publisher, cfg *config.Config) *Server {
	s := &Server{
		service:   service,
		publisher: publisher,
		catalog:   catalog.Default(),
		cfg:       cfg,
		sessions:  newSessionStore(cfg.Security),
		router:    chi.NewRouter(),

		publishGate: core.NewLimiter(core.DefaultMaxConcurrentPublishes, cfg.Database.PublishWait),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	// Pages
	s.router.Get("/", s.handleDashboard)

	// View toggles
	s.router.Route("/view", func(r chi.Router) {
		r.Post("/dataset", s.handleShowDataset)
		r.Post("/columns", s.handleShowColumns)
		r.Post("/reset", s.handleResetView)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// Static catalog
		r.Get("/columns", s.handleColumns)
		r.Get("/issues", s.handleIssues)
		r.Get("/steps", s.handleSteps)

		// Data views
		r.Get("/preview/{table}", s.handlePreview)
		r.Get("/profile", s.handleProfile)
		r.Get("/report", s.handleReport)

		// Heavier operations share a stricter limit
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.newLimiter(s.cfg.Rate.ExportLimit).middleware)
			}
			r.Get("/export", s.handleExport)

			r.Group(func(r chi.Router) {
				r.Use(mw.APIKeyAuth(&s.cfg.Security))
				r.Post("/reload", s.handleReload)
				r.Post("/publish", s.handlePublish)
				r.Get("/batches", s.handleBatches)
			})
		})
	})
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	slog.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background limiters, then
// waits for a running publish to commit or roll back.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, l := range s.limiters {
		l.stop()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if n := s.publishGate.ActiveCount(); n > 0 {
		slog.Info("waiting for publish to finish", "active", n)
	}
	return s.publishGate.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) newLimiter(rate int) *rateLimiter {
	l := newRateLimiter(rate, time.Minute)
	s.limiters = append(s.limiters, l)
	return l
}

const csp = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'; form-action 'self'"

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// Inline styles only; the dashboard ships no scripts
			if enableCSP {
				w.Header().Set("Content-Security-Policy", csp)
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if time.Since(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	// Check if we have tokens left
	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// RemoteAddr has already been rewritten by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error response with a sanitized message.
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Warn("http error", "status", status, "message", message)

	msg := core.MapError(errors.New(message))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
