package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/internal/app"
	"github.com/Clark-Hu/cinesignal/internal/config"
	"github.com/Clark-Hu/cinesignal/internal/metrics"
	"github.com/Clark-Hu/cinesignal/internal/reaction"
)

// HealthFunc reports whether the backing storage is reachable.
type HealthFunc func(ctx context.Context) error

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	svc     *app.Services
	health  HealthFunc
	logger  zerolog.Logger
	router  chi.Router
	httpSrv *http.Server
}

// New constructs the HTTP server with base middleware and routes. A nil
// health func always reports healthy.
func New(cfg config.Config, svc *app.Services, health HealthFunc, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		health: health,
		logger: logger.With().Str("component", "http").Logger(),
		router: r,
	}
	r.Use(s.requestLogger)
	s.registerRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/films", func(r chi.Router) {
		r.Get("/", s.handleListFilms)
		r.With(s.requireBearer).Post("/", s.handleCreateFilm)
		r.Get("/popular", s.handlePopular)
		r.Get("/common", s.handleCommon)
		r.Get("/director/{directorId}", s.handleFilmsByDirector)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetFilm)
			r.With(s.requireBearer).Put("/like/{userId}", s.handleAddLike)
			r.With(s.requireBearer).Delete("/like/{userId}", s.handleRemoveLike)
		})
	})

	s.router.Route("/reviews", func(r chi.Router) {
		r.Get("/", s.handleListReviews)
		r.With(s.requireBearer).Post("/", s.handleCreateReview)
		r.With(s.requireBearer).Put("/", s.handleUpdateReview)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetReview)
			r.Group(func(r chi.Router) {
				r.Use(s.requireBearer)
				r.Delete("/", s.handleDeleteReview)
				r.Put("/like/{userId}", s.reactionHandler(reaction.AddLike))
				r.Put("/dislike/{userId}", s.reactionHandler(reaction.AddDislike))
				r.Delete("/like/{userId}", s.reactionHandler(reaction.DeleteLike))
				r.Delete("/dislike/{userId}", s.reactionHandler(reaction.DeleteDislike))
			})
		})
	})

	s.router.Route("/users", func(r chi.Router) {
		r.With(s.requireBearer).Post("/", s.handleCreateUser)
		r.Get("/{id}/recommendations", s.handleRecommendations)
		r.Get("/{id}/feed", s.handleFeed)
	})

	s.router.With(s.requireBearer).Post("/directors", s.handleCreateDirector)
}

// Start boots the HTTP server and blocks until ctx is done or serving fails.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.health != nil {
		if err := s.health(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("health check failed")
			s.writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unreachable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs and measures every request by its route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.RecordAPIRequest(r.Method, route, status, elapsed)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request served")
	})
}

// requireBearer rejects requests without the configured token. With no
// AUTH_TOKEN configured every request passes.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken != "" && !s.authorized(r.Header.Get("Authorization")) {
			s.writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		next.ServeHTTP(w, r)
	})
}
