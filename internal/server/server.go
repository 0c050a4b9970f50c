package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	v1 "kidbloom/internal/api/v1"
	"kidbloom/internal/config"
	"kidbloom/internal/logging"
	"kidbloom/internal/store"
)

// Server is the HTTP front of the application.
type Server struct {
	router *gin.Engine
	store  *store.Store
	logger *logrus.Logger
	http   *http.Server
}

// NewServer opens the store and builds the router.
func NewServer(cfg *config.AppConfig, logger *logrus.Logger) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, err
	}
	st, err := store.New(config.DBPath(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "initialize database")
	}

	return New(cfg, st, logger), nil
}

func snapshotDir(cfg *config.AppConfig) string {
	if !cfg.Import.SnapshotBeforeReplace {
		return ""
	}
	return config.ExportsDir(cfg)
}

// New builds a server over an already opened store.
func New(cfg *config.AppConfig, st *store.Store, logger *logrus.Logger) *Server {
	s := &Server{
		router: gin.New(),
		store:  st,
		logger: logger,
	}

	api := v1.NewHandler(st, v1.Options{
		PreviewLimit:      cfg.Import.PreviewLimit,
		ErrorDisplayLimit: cfg.Import.ErrorDisplayLimit,
		PendingTTL:        cfg.PendingTTLDuration(),
		MaxUploadBytes:    int64(cfg.Import.MaxUploadMB) << 20,
		SnapshotDir:       snapshotDir(cfg),
	})
	s.setupRoutes(api)
	return s
}

func (s *Server) setupRoutes(api *v1.Handler) {
	s.router.Use(gin.Recovery(), s.requestLogger(), cors(), v1.SessionMiddleware())

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.RegisterRoutes(s.router.Group("/api"))
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+v1.HeaderUserID+", "+v1.HeaderRole)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requestLogger puts a request-scoped entry into the request context and
// logs each request once it completes.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		entry := s.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), entry))

		c.Next()

		fields := logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.WithFields(fields).Error("request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			entry.WithFields(fields).Warn("request completed")
		default:
			entry.WithFields(fields).Debug("request completed")
		}
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	}
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore returns the store, for tests and the CLI.
func (s *Server) GetStore() *store.Store {
	return s.store
}
