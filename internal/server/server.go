// Package server hosts the bot's HTTP surface: ingress handlers such as the
// webhook, and a health endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/iLeonidze/OXPAHA28-bot/internal/frontdoor"
)

// HealthPath answers liveness probes.
const HealthPath = "/healthz"

const (
	requestTimeout    = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// HealthFunc reports whether the bot can accept work.
type HealthFunc func(ctx context.Context) error

type Server struct {
	Router *chi.Mux
	Port   int
	logger *slog.Logger
}

// New creates a server listening on port. A nil health func always reports
// healthy.
func New(port int, logger *slog.Logger, health HealthFunc) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "incidentbot")
	})

	r.Get(HealthPath, healthHandler(health))

	return &Server{
		Router: r,
		Port:   port,
		logger: logger,
	}
}

// Mount registers ingress handlers. An empty method means POST.
func (s *Server) Mount(regs []frontdoor.HandlerRegistration) {
	for _, reg := range regs {
		method := reg.Method
		if method == "" {
			method = http.MethodPost
		}

		switch method {
		case http.MethodGet:
			s.Router.Get(reg.Path, reg.Handler)
		case http.MethodPost:
			s.Router.Post(reg.Path, reg.Handler)
		default:
			s.Router.Method(method, reg.Path, reg.Handler)
		}

		s.logger.Info("registered handler",
			slog.String("method", method),
			slog.String("path", reg.Path))
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.Int("port", s.Port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	<-errc
	return nil
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthHandler(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		code := http.StatusOK
		if health != nil {
			if err := health(r.Context()); err != nil {
				resp = healthResponse{Status: "unavailable", Error: err.Error()}
				code = http.StatusServiceUnavailable
				AddError(r.Context(), err)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
