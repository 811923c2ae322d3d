// Package server provides the HTTP handlers and routing for the remote MCP server.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"mcp-toolbox/internal/mcpserver"
	"mcp-toolbox/internal/storage"
	"mcp-toolbox/internal/tools"
)

// Config contains server configuration values such as identity, auth token and limits.
type Config struct {
	Name           string
	Version        string
	Token          string
	AllowedOrigins []string
	RatePerMinute  int
	RateBurst      int
	CallTimeout    time.Duration
}

// Deps are the shared components the HTTP surface serves.
type Deps struct {
	Store      *storage.Store
	Dispatcher *tools.Dispatcher
	MCP        *mcpserver.Adapter
	Logger     *slog.Logger
}

// Server contains the configured router and the components behind it.
type Server struct {
	cfg        Config
	router     *chi.Mux
	store      *storage.Store
	dispatcher *tools.Dispatcher
	mcp        *mcpserver.Adapter
	limiters   *LimiterCache
	logger     *slog.Logger
	started    time.Time
}

// New constructs a Server with middleware and routes configured.
func New(cfg Config, deps Deps) *Server {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		mcp:        deps.MCP,
		logger:     logger,
		started:    time.Now(),
	}
	if cfg.RatePerMinute > 0 {
		s.limiters = NewLimiterCache(cfg.RatePerMinute, cfg.RateBurst, 10*time.Minute)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Mcp-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	s.router.Use(s.rateLimit)

	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/metrics", s.handleMetrics)

		// The SSE stream must outlive any request timeout, so these routes
		// sit outside the timeout group. The endpoint event sent on GET /sse
		// points back at /sse?sessionid=..., and /message accepts the same posts.
		sse := s.mcp.SSEHandler()
		r.Get("/sse", sse.ServeHTTP)
		r.Post("/sse", sse.ServeHTTP)
		r.Post("/message", sse.ServeHTTP)
	})

	s.router.Route("/mcp", func(r chi.Router) {
		r.Use(s.auth)
		r.Use(middleware.Timeout(cfg.CallTimeout))
		r.Get("/tools", s.handleListTools)
		r.Post("/call", s.handleCall)
	})

	return s
}

// Router exposes the root HTTP handler for the server.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next.ServeHTTP(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.cfg.Token {
			s.logger.Debug("rejected unauthenticated request", "path", r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiters == nil {
			next.ServeHTTP(w, r)
			return
		}
		ip := clientIP(r)
		if !s.limiters.Allow(ip) {
			s.logger.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	authMode := "Bearer token required"
	if s.cfg.Token == "" {
		authMode = "disabled"
	}
	writeJSON(w, http.StatusOK, Info{
		Name:    s.cfg.Name,
		Version: s.cfg.Version,
		Endpoints: map[string]string{
			"health":  "/health",
			"metrics": "/metrics",
			"sse":     "/sse",
			"message": "/message",
			"tools":   "/mcp/tools",
			"call":    "/mcp/call",
		},
		Authentication: authMode,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:        "healthy",
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		UptimeSeconds: time.Since(s.started).Seconds(),
		Version:       s.cfg.Version,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	writeJSON(w, http.StatusOK, Metrics{
		StorageItems:   s.store.Size(),
		ActiveSessions: s.mcp.ActiveSessions(),
		UptimeSeconds:  time.Since(s.started).Seconds(),
		Memory: MemoryStats{
			AllocBytes:  ms.Alloc,
			SysBytes:    ms.Sys,
			HeapObjects: ms.HeapObjects,
			NumGC:       ms.NumGC,
		},
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ToolsResponse{Tools: s.dispatcher.ListTools()})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	res := s.dispatcher.Call(r.Context(), tools.Invocation{Name: req.Name, Arguments: req.Args})
	writeJSON(w, http.StatusOK, CallResponse{
		Content: []Content{{Type: "text", Text: res.Text()}},
		IsError: res.IsError(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
