package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/maxaizer/ipu-notifier/internal/config"
	"github.com/maxaizer/ipu-notifier/internal/metrics"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	cfg        config.ServerConfig
	handlers   *handlers
	httpServer *http.Server
}

func NewServer(cfg config.ServerConfig, query noticesQuery, refresher noticesRefresher) (*Server, error) {

	if query == nil {
		return nil, errors.New("notices query is nil")
	}

	if refresher == nil {
		return nil, errors.New("notices refresher is nil")
	}

	s := &Server{
		cfg:      cfg,
		handlers: &handlers{env: cfg.Env, query: query, refresher: refresher},
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/{$}", observe("list", http.HandlerFunc(s.handlers.list)))
	mux.Handle("POST /api/get", observe("list", http.HandlerFunc(s.handlers.list)))
	mux.Handle("POST /api/search", observe("search", http.HandlerFunc(s.handlers.search)))
	mux.Handle("POST /api/refresh", observe("refresh", http.HandlerFunc(s.handlers.refresh)))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", observe("not_found", http.HandlerFunc(s.handlers.notFound)))

	return mux
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	log.Infof("Server is running on http://127.0.0.1%s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}
