// Package api provides the versemem HTTP API: corpus navigation, answer
// checking over JSON and WebSocket, and background source downloads.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/internal/logging"
	"github.com/FocuswithJustin/versemem/internal/service"
	"github.com/FocuswithJustin/versemem/internal/source"
)

// Downloader fetches sources into local storage, reporting progress.
type Downloader interface {
	Download(ctx context.Context, ids []string, progress func(source.Progress)) error
}

// Server serves the API over a Service.
type Server struct {
	svc        *service.Service
	cfg        Config
	registry   *source.Registry
	store      *source.Store
	downloader Downloader
	jobs       *JobStore
	hub        *Hub
	limiter    *RateLimiter
	upgrader   websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithRegistry lists the registry's translations under GET /sources.
func WithRegistry(r *source.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithStore reports download state under GET /sources.
func WithStore(st *source.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithDownloader enables POST /downloads.
func WithDownloader(d Downloader) Option {
	return func(s *Server) { s.downloader = d }
}

// NewServer creates a server. Zero MaxMessageSize and MessagesPerSecond
// take the DefaultConfig values.
func NewServer(svc *service.Service, cfg Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, verrors.Wrap(err, "invalid server config")
	}
	def := DefaultConfig()
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.MessagesPerSecond <= 0 {
		cfg.MessagesPerSecond = def.MessagesPerSecond
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}

	s := &Server{
		svc:  svc,
		cfg:  cfg,
		jobs: NewJobStore(),
		hub:  NewHub(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitBurst)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (srv *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", srv.handleRoot)
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /sources", srv.handleSources)
	mux.HandleFunc("GET /sources/{id}/books", srv.handleBooks)
	mux.HandleFunc("GET /sources/{id}/books/{book}/chapters", srv.handleChapters)
	mux.HandleFunc("GET /sources/{id}/books/{book}/chapters/{chapter}/verses", srv.handleVerses)
	mux.HandleFunc("GET /sources/{id}/books/{book}/chapters/{chapter}/verses/{verse}", srv.handleVerse)
	mux.HandleFunc("GET /sources/{id}/random", srv.handleRandom)
	mux.HandleFunc("GET /sources/{id}/lookup", srv.handleLookup)
	mux.HandleFunc("POST /check", srv.handleCheck)
	mux.HandleFunc("POST /check/reference", srv.handleCheckReference)
	mux.HandleFunc("POST /downloads", srv.handleCreateDownload)
	mux.HandleFunc("GET /downloads", srv.handleListDownloads)
	mux.HandleFunc("GET /downloads/{id}", srv.handleGetDownload)
	mux.HandleFunc("DELETE /downloads/{id}", srv.handleCancelDownload)
	mux.HandleFunc("GET /ws/check", srv.handleCheckSocket)
	mux.HandleFunc("GET /ws/progress", srv.handleProgressSocket)
	mux.HandleFunc("/", handleNotFound)

	return mux
}

// Handler returns the routed handler wrapped in the middleware chain:
// logging, CORS, rate limiting, authentication and security headers, from
// outermost in.
func (srv *Server) Handler() http.Handler {
	var handler http.Handler = securityHeaders(srv.routes())

	if srv.cfg.APIKey != "" {
		handler = AuthMiddleware(srv.cfg.APIKey, handler)
		logging.SecurityEvent("authentication_configured", "api", "enabled", true)
	}
	if srv.limiter != nil {
		handler = srv.limiter.Middleware(handler)
	}
	handler = corsMiddleware(srv.cfg.AllowedOrigins, handler)
	return logging.CombinedMiddleware(handler)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (srv *Server) ListenAndServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go srv.hub.Run(ctx)
	if srv.limiter != nil {
		go srv.limiter.Cleanup(ctx)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", srv.cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if len(srv.cfg.AllowedOrigins) == 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
	logging.ServerStartup("rest_api", "http", srv.cfg.Port, "websocket_protocol", "ws")

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware sets CORS headers. An empty allow list admits every origin
// with "*"; otherwise only listed origins get headers and other preflights
// are refused.
func corsMiddleware(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowOrigin := "*"
		if len(allowed) > 0 {
			origin := r.Header.Get("Origin")
			ok := false
			for _, a := range allowed {
				if origin == a {
					ok = true
					break
				}
			}
			if !ok {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			allowOrigin = origin
		}

		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, X-Request-ID")
		if allowOrigin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}
