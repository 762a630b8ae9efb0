package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gorilla/websocket"

	"github.com/raysh454/devconsole/internal/console"
	"github.com/raysh454/devconsole/internal/logging"
)

// Server is the HTTP + WebSocket API surface for the console.
type Server struct {
	cfg      Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
	clock    *monotonicClock
	console  *console.Generator
}

// NewServer creates a Server with its routes registered.
func NewServer(cfg Config) (*Server, error) {
	def := DefaultConfig()
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = def.AllowedOrigin
	}
	if cfg.Console.DefaultLimit <= 0 {
		cfg.Console.DefaultLimit = def.Console.DefaultLimit
	}
	if cfg.Console.MaxLimit <= 0 {
		cfg.Console.MaxLimit = def.Console.MaxLimit
	}
	if cfg.Console.StreamInterval <= 0 {
		cfg.Console.StreamInterval = def.Console.StreamInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := chi.NewRouter()
	s := &Server{
		cfg:     cfg,
		router:  r,
		logger:  logger.With(logging.F("component", "server")),
		clock:   newMonotonicClock(nil),
		console: console.NewGenerator(cfg.Console),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestIDHeader)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(httprate.Limit(s.cfg.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				}),
			))
		}

		r.Get("/health", s.handleHealth)
		r.Get("/dev/console/tail", s.handleConsoleTail)

		for _, st := range StubRoutes {
			r.Method(st.Method, apiRelative(st.Pattern), s.stubHandler(st))
		}
	})

	// WebSocket for the live console
	r.Get("/ws/dev/console/tail", s.handleConsoleWS)
}

func (s *Server) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			w.Header().Set(middleware.RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.AllowedOrigin
		// Credentials are never allowed alongside a wildcard origin.
		if origin == "*" {
			if reqOrigin := r.Header.Get("Origin"); reqOrigin != "" {
				origin = reqOrigin
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if origin != "*" {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		w.Header().Set("Access-Control-Max-Age", "86400")

		// CORS preflight
		if r.Method == http.MethodOptions {
			s.optionsHandler("GET, POST, PUT, DELETE, OPTIONS")(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowedOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == s.cfg.AllowedOrigin
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q})
	}

	if r.ContentLength > 0 {
		fields = append(fields, logging.Field{Key: "body_bytes", Value: r.ContentLength})
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// Close releases server resources.
func (s *Server) Close() {
	s.logger.Info("server closed")
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// --- HTTP handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: s.clock.NowMillis(),
	})
}

// tailParams reads limit and level from the query string.
func (s *Server) tailParams(r *http.Request) (int, console.Level, string) {
	limit := s.cfg.Console.DefaultLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		v, err := strconv.Atoi(ls)
		if err != nil {
			return 0, "", "invalid limit query parameter"
		}
		limit = max(1, min(v, s.cfg.Console.MaxLimit))
	}

	level, err := console.ParseLevel(r.URL.Query().Get("level"))
	if err != nil {
		return 0, "", "invalid level query parameter"
	}
	return limit, level, ""
}

func (s *Server) handleConsoleTail(w http.ResponseWriter, r *http.Request) {
	limit, level, problem := s.tailParams(r)
	if problem != "" {
		s.logger.Warn("console tail: bad request", logging.F("reason", problem))
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	logs := s.console.Tail(limit, level)
	s.logger.Debug("served console tail", logging.F("count", len(logs)), logging.F("level", string(level)))
	writeJSON(w, http.StatusOK, TailResponse{Logs: logs})
}

// WebSockets

func (s *Server) handleConsoleWS(w http.ResponseWriter, r *http.Request) {
	_, level, problem := s.tailParams(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The read side only exists to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("console stream opened", logging.F("level", string(level)))
	for entry := range s.console.Stream(ctx, s.cfg.Console.StreamInterval, level) {
		if err := conn.WriteJSON(entry); err != nil {
			// Assume client disconnected
			cancel()
			break
		}
	}
	s.logger.Info("console stream closed")
}
