// Package server exposes the pipeline executor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/DaianCosta/pipehttp/internal/pipeline"
	"github.com/DaianCosta/pipehttp/internal/store"
	"github.com/gin-gonic/gin"
)

// Executor runs every configured pipeline once.
type Executor interface {
	Execute(ctx context.Context) *pipeline.Run
}

// RunStore serves recorded executions. It is optional.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
	GetRun(ctx context.Context, id string) (*pipeline.Run, error)
}

// Config holds listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the gin engine plus its http.Server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	executor   Executor
	runs       RunStore
	cfg        Config
	log        *common.Logger
}

// New builds the engine and registers every route. runs may be nil.
func New(cfg Config, executor Executor, runs RunStore) *Server {
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultListenAddr
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	log := common.GetLogger().WithComponent("server")
	if log.Level() == common.LogLevelDebug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(RequestID(), Recovery(log), RequestLogger(log))

	s := &Server{
		engine:   engine,
		executor: executor,
		runs:     runs,
		cfg:      cfg,
		log:      log,
	}
	s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Handler returns the gin engine, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Engine exposes the gin engine so callers can mount extra routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
