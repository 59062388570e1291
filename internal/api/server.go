package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shohag/pubsubsink/internal/config"
	"github.com/shohag/pubsubsink/internal/metrics"
	"github.com/shohag/pubsubsink/internal/storage"
)

type Server struct {
	cfg     *config.Config
	store   storage.Storage
	metrics *metrics.Metrics
	router  *chi.Mux
	log     zerolog.Logger
	http    *http.Server
}

func NewServer(cfg *config.Config, store storage.Storage, log zerolog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		metrics: metrics.New(),
		log:     log,
	}
	s.router = s.buildRouter()
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(s.log))

	format := s.cfg.Storage.PayloadFormat
	pushHandler := NewPushHandler(s.store, format, s.cfg.Push.MaxBodyBytes, s.metrics, s.log)
	msgHandler := NewMessageHandler(s.store, format, s.metrics, s.log)

	r.Get("/health", Health)
	if s.cfg.Metrics.Enabled {
		r.Method(http.MethodGet, s.cfg.Metrics.Path, s.metrics.Handler())
	}

	r.With(PushTokenMiddleware(s.cfg.Push.VerificationToken, s.metrics, s.log)).
		Post("/pubsub/push", pushHandler.Receive)
	r.Get("/messages", msgHandler.List)

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
