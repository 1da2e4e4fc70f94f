// @title           Movelearn Tutor API
// @version         1.0
// @description     AI assistant API of the Move learning platform.
// @host            localhost:8100
// @BasePath        /

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/movelearn/tutor/pkg/api/handler"
	"github.com/movelearn/tutor/pkg/api/middleware"
)

// Config defines the HTTP server settings.
type Config struct {
	Addr   string
	APIKey string
	// DailyLimit caps assistant calls per identity and day. Negative disables.
	DailyLimit int
	DevMode    bool // Enables Swagger UI
	// Provider is reported by the health endpoints.
	Provider string
}

// Server hosts the Gin engine and manages API resources.
type Server struct {
	engine  *gin.Engine
	config  Config
	svc     handler.Assistant
	quota   *middleware.DailyQuota
	metrics *middleware.Metrics
	log     *slog.Logger
}

// NewServer constructs the HTTP API server.
func NewServer(cfg Config, svc handler.Assistant, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8100"
	}
	if cfg.DailyLimit == 0 {
		cfg.DailyLimit = 50
	}

	metrics := middleware.NewMetrics()

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Identity())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.Instrument(metrics))

	srv := &Server{
		engine:  engine,
		config:  cfg,
		svc:     svc,
		quota:   middleware.NewDailyQuota(cfg.DailyLimit),
		metrics: metrics,
		log:     log,
	}

	srv.setupRoutes()

	return srv
}

// Engine returns the underlying Gin engine (for http.Server).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Addr returns the configured address.
func (s *Server) Addr() string {
	return s.config.Addr
}

// Quota returns the daily quota shared by the assistant routes.
func (s *Server) Quota() *middleware.DailyQuota {
	return s.quota
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http api listening", "addr", s.config.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http api shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
