// Package ops serves the operational HTTP endpoints: liveness, readiness
// and a JSON snapshot of bot counters.
package ops

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/gptbot/core/logger"
)

const (
	healthCheckTimeout = 5 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Pinger checks a dependency, typically *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the handler.
type Options struct {
	// DB is pinged by /health when set.
	DB Pinger
	// Stats returns the payload of /stats.
	Stats func() any
}

// NewHandler builds the router: /ping (liveness), /health and /stats.
func NewHandler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		checks := map[string]string{"bot": "ok"}
		status, code := "healthy", http.StatusOK
		if opts.DB != nil {
			ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
			defer cancel()
			if err := opts.DB.PingContext(ctx); err != nil {
				logger.Warn(ctx, "ops", "health.db", slog.Any("err", err))
				checks["database"] = "unreachable"
				status, code = "degraded", http.StatusServiceUnavailable
			} else {
				checks["database"] = "ok"
			}
		}
		writeJSON(w, code, map[string]any{"status": status, "checks": checks})
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		if opts.Stats == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stats not configured"})
			return
		}
		writeJSON(w, http.StatusOK, opts.Stats())
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Server runs the handler on its own listener.
type Server struct {
	srv  *http.Server
	ln   net.Listener
	done chan error
}

// Start listens on addr and serves h in the background.
func Start(addr string, h http.Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ln:   ln,
		done: make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	logger.Info(logger.Background(), "ops", "listen", slog.String("addr", ln.Addr().String()))
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
