// Package server exposes the calendar nodes over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"flowcal/internal/nodes"
	"flowcal/internal/vars"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Server holds the gin engine and the runner the node routes call into.
type Server struct {
	gin    *gin.Engine
	logger *slog.Logger
	runner *nodes.Runner
	port   int
}

// Config is the dependency bag passed to New.
type Config struct {
	Port int
	// Mode is a gin mode (debug, release or test). Empty means release.
	Mode string
}

// New builds a Server with all routes registered.
func New(logger *slog.Logger, runner *nodes.Runner, cfg Config) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = gin.ReleaseMode
	}
	gin.SetMode(cfg.Mode)

	srv := &Server{
		gin:    gin.New(),
		logger: logger,
		runner: runner,
		port:   cfg.Port,
	}
	srv.gin.Use(gin.Recovery(), srv.requestLogger())
	srv.registerRoutes()
	return srv, nil
}

// Handler returns the HTTP handler, mostly for tests.
func (srv *Server) Handler() http.Handler { return srv.gin }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", srv.port),
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.logger.Info("HTTP server listening", "addr", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		srv.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}

func (srv *Server) registerRoutes() {
	srv.gin.GET("/health", srv.healthCheck)

	v1 := srv.gin.Group("/v1/nodes")
	v1.POST("/create", nodeHandler(srv, srv.runner.Create))
	v1.POST("/update", nodeHandler(srv, srv.runner.Update))
	v1.POST("/list", nodeHandler(srv, srv.runner.List))
	v1.POST("/delete", nodeHandler(srv, srv.runner.Delete))
}

func (srv *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "flowcal"})
}

func (srv *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		srv.logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// nodeRequest is the body of every node route.
type nodeRequest[C any] struct {
	Config    C              `json:"config"`
	Variables map[string]any `json:"variables"`
}

type nodeResponse struct {
	Result    string             `json:"result,omitempty"`
	Error     string             `json:"error,omitempty"`
	Variables map[string]*string `json:"variables"`
}

func nodeHandler[C any](srv *Server, run func(context.Context, C, vars.Store) (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nodeRequest[C]
		if err := c.ShouldBindJSON(&req); err != nil {
			srv.logger.Warn("Rejected node request", "path", c.FullPath(), "error", err)
			c.JSON(http.StatusBadRequest, nodeResponse{
				Error:     fmt.Sprintf("invalid request body: %v", err),
				Variables: map[string]*string{},
			})
			return
		}

		store := vars.NewMemoryStore(req.Variables)
		out, err := run(c.Request.Context(), req.Config, store)
		if err != nil {
			status := http.StatusBadGateway
			if nodes.IsInputError(err) {
				status = http.StatusBadRequest
			}
			c.JSON(status, nodeResponse{Error: err.Error(), Variables: store.Snapshot()})
			return
		}
		c.JSON(http.StatusOK, nodeResponse{Result: out, Variables: store.Snapshot()})
	}
}
