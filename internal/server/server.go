// Package server exposes the reward engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/balkashynov/listeningroom/internal/apperr"
	"github.com/balkashynov/listeningroom/internal/auth"
	"github.com/balkashynov/listeningroom/internal/rewards"
)

// Server wraps a chi router with the reward routes and lifecycle management
type Server struct {
	Router *chi.Mux
	Logger *slog.Logger

	svc   *rewards.Service
	authn auth.Authenticator
}

// New builds the router with the common middleware stack
func New(svc *rewards.Service, authn auth.Authenticator, logger *slog.Logger) *Server {
	s := &Server{
		Router: chi.NewRouter(),
		Logger: logger,
		svc:    svc,
		authn:  authn,
	}

	s.Router.Use(chimw.RequestID)
	s.Router.Use(chimw.RealIP)
	s.Router.Use(s.requestLog)
	s.Router.Use(chimw.Recoverer)

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.Router.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/sessions", s.listSessions)
		r.Get("/sessions/{id}/rewards", s.getRewards)
		r.Post("/sessions/{id}/rewards", s.postDecision)
		r.Post("/sessions/{id}/end", s.postEnd)
		r.Get("/sessions/{id}/rewards/history", s.getHistory)
		r.Get("/volunteers/me/stats", s.getVolunteerStats)
	})
}

// ServeHTTP lets the server be mounted directly in tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("starting reward server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down reward server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// Error writes a JSON error response for err, picking the status from its kind.
func Error(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := apperr.HTTPStatus(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	JSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
