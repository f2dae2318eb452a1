// internal/httpserver/server.go
//
// HTTP server wiring for the theseus move API.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, CORS, JSON).
//   - Public endpoints: "/", "/health", "GET /theseus".
//   - Debug endpoint: "/debug/invocations" (recent engine runs from the journal).
//   - Graceful shutdown when the serving context is cancelled.
//
// Notes:
//   - CORS is permissive by default (Access-Control-Allow-Origin: *), no credentials.
//   - Every error leaves the server as a JSON body {"error": code, "detail": ...}.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/quoridor/theseus-api/internal/engine"
	"github.com/quoridor/theseus-api/internal/journal"
)

// Engine runs the external move engine for one token.
type Engine interface {
	Run(ctx context.Context, token string) (*engine.Result, error)
}

// Options carries the request-handling settings taken from config.Config.
type Options struct {
	CORSOrigin      string
	StrictToken     bool
	ShutdownTimeout time.Duration
}

// Server bundles router, engine runner and invocation journal.
type Server struct {
	r       *chi.Mux
	engine  Engine
	journal journal.Journal
	opts    Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(eng Engine, j journal.Journal, opts Options) *Server {
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{r: chi.NewRouter(), engine: eng, journal: j, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))
	s.r.Use(accessLog)
	s.r.Use(jsonContentType)         // JSON responses everywhere
	s.r.Use(cors(s.opts.CORSOrigin)) // permissive CORS + preflight
	s.r.Use(recoverJSON)             // panics become JSON 500s

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"theseus-api","endpoints":["/health","GET /theseus","/debug/invocations"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Get("/theseus", s.handleThink)
	s.mountDebug(s.r)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed", "path": r.URL.Path})
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("server gracefully shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// writeJSON writes data with the given status code. HTML escaping is off so
// the "> " log markers reach the client as-is.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}
