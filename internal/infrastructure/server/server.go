package server

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AppletOS/backend/internal/api/http"
	"github.com/GriffinCanCode/AppletOS/backend/internal/api/middleware"
	"github.com/GriffinCanCode/AppletOS/backend/internal/api/ws"
	"github.com/GriffinCanCode/AppletOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AppletOS/backend/internal/infrastructure/monitoring"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
	registry *prometheus.Registry
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing AppletOS Server",
		zap.String("port", cfg.Server.Port),
		zap.Int("region", cfg.APT.Region),
		zap.Bool("new_3ds", cfg.APT.New3DS),
		zap.String("loader", cfg.Loader.Mode),
	)

	// Metrics first; sessions report into them
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	sessions, err := session.NewManager(session.ConfigFrom(cfg), session.Deps{
		Logger:  logger.Logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to create default session: %w", err)
	}
	logger.Info("Default session created", zap.String("session_id", sessions.Default().ID().String()))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Logger))
	router.Use(monitoring.Middleware(metrics, "/metrics"))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	handlers := http.NewHandlers(sessions, http.NewHandlerMetrics(metrics), logger.Logger)
	wsHandler := ws.NewHandler(sessions, metrics, logger.Logger)
	metricsAggregator := http.NewMetricsAggregator(metrics, sessions)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Metrics endpoints
	router.GET("/metrics", monitoring.Handler(registry))
	router.GET("/metrics/json", metricsAggregator.GetAggregatedMetrics)

	// Session management
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions", handlers.CreateSession)
	router.DELETE("/sessions/:id", handlers.DeleteSession)

	router.GET("/apt", handlers.ListAPTOperations)

	// The default session serves the unscoped routes
	def := router.Group("/", handlers.DefaultSession)
	registerSessionRoutes(def, handlers)
	def.GET("/events", wsHandler.HandleConnection)

	scoped := router.Group("/sessions/:id", handlers.ScopedSession)
	scoped.GET("", handlers.GetSession)
	registerSessionRoutes(scoped, handlers)
	scoped.GET("/events", wsHandler.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
		registry: registry,
	}, nil
}

func registerSessionRoutes(r gin.IRoutes, handlers *http.Handlers) {
	r.POST("/apt/:op", handlers.ExecuteAPT)
	r.POST("/advance", handlers.AdvanceTime)
	r.GET("/captures", handlers.GetCaptures)
	r.GET("/launches", handlers.GetLaunches)
	r.PUT("/input/buttons/:button", handlers.SetButton)
	r.GET("/kernel/stats", handlers.GetKernelStats)
	r.GET("/kernel/objects/:handle", handlers.GetKernelObject)
	r.POST("/kernel/objects/:handle/consume", handlers.ConsumeKernelObject)
}

// Router exposes the configured engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run drives the sessions and serves HTTP until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.sessions.Start(ctx)

	addr := s.config.Server.Host + ":" + s.config.Server.Port
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases every session and flushes the logger
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.sessions.Shutdown()
	s.logger.Info("Closed all sessions")

	// Sync logger before exit
	_ = s.logger.Sync()
	return nil
}
