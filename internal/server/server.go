package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/webdeckhq/webdeck/backend/internal/applets"
	"github.com/webdeckhq/webdeck/backend/internal/fetch"
	deckhttp "github.com/webdeckhq/webdeck/backend/internal/http"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/config"
	"github.com/webdeckhq/webdeck/backend/internal/infrastructure/monitoring"
	"github.com/webdeckhq/webdeck/backend/internal/logging"
	"github.com/webdeckhq/webdeck/backend/internal/middleware"
	"github.com/webdeckhq/webdeck/backend/internal/providers/net"
	"github.com/webdeckhq/webdeck/backend/internal/providers/page"
	"github.com/webdeckhq/webdeck/backend/internal/service"
	"github.com/webdeckhq/webdeck/backend/internal/ws"
)

// shutdownTimeout bounds graceful shutdown before in-flight requests are cut.
const shutdownTimeout = 10 * time.Second

// poolGaugeInterval is how often the fetch pool gauges are refreshed.
const poolGaugeInterval = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	httpServer *http.Server
	registry   *service.Registry
	applets    *applets.Registry
	fetcher    *fetch.Service
	metrics    *monitoring.Metrics
	logger     *logging.Logger
	config     *config.Config
	stopGauges chan struct{}
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: false,
			OutputPaths: []string{"stdout"},
		})
		if err != nil {
			return nil, err
		}
		logger = l
	}

	logger.Info("Initializing WebDeck backend",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()

	// The fetch service owns the pooled clients every provider shares.
	fetcher := fetch.NewService(fetch.Config{
		PoolSize:     cfg.Fetch.PoolSize,
		Timeout:      cfg.Fetch.Timeout(),
		UserAgent:    cfg.Fetch.UserAgent,
		ProxyURL:     cfg.Fetch.ProxyURL,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
	}, logger)

	serviceRegistry := service.NewRegistry()
	registerProviders(serviceRegistry, fetcher, metrics, logger)

	appletRegistry := applets.NewRegistry()
	seeder := applets.NewSeeder(appletRegistry, cfg.Applets.Dir, logger)
	if err := seeder.Seed(); err != nil {
		logger.Warn("Failed to seed applet manifests", zap.Error(err))
	}
	metrics.SetAppletsRegistered(len(appletRegistry.List()))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := deckhttp.NewHandlers(serviceRegistry, appletRegistry, fetcher, metrics)
	wsHandler := ws.NewHandler(serviceRegistry, appletRegistry, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Service management
	router.GET("/services", handlers.ListServices)
	router.POST("/services/discover", handlers.DiscoverServices)
	router.POST("/services/execute", handlers.ExecuteService)

	// Applet manifests
	router.GET("/applets", handlers.ListApplets)
	router.GET("/applets/:id", handlers.GetApplet)

	// WebSocket invoke transport
	router.GET("/stream", wsHandler.HandleConnection)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &Server{
		httpServer: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		registry:   serviceRegistry,
		applets:    appletRegistry,
		fetcher:    fetcher,
		metrics:    metrics,
		logger:     logger,
		config:     cfg,
		stopGauges: make(chan struct{}),
	}

	go srv.updatePoolGauges()

	logger.Info("Server initialized")
	return srv, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server and releases the client pool.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	close(s.stopGauges)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}

	s.fetcher.Close()
	s.logger.Sync()
	return nil
}

// updatePoolGauges periodically mirrors pool occupancy into Prometheus.
func (s *Server) updatePoolGauges() {
	ticker := time.NewTicker(poolGaugeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := s.fetcher.Stats()
			inUse, _ := stats["in_use"].(int)
			waiting, _ := stats["waiting"].(int)
			s.metrics.SetPoolStats(inUse, waiting)
		case <-s.stopGauges:
			return
		}
	}
}

func registerProviders(registry *service.Registry, fetcher *fetch.Service, metrics *monitoring.Metrics, logger *logging.Logger) {
	providers := []service.Provider{
		net.NewProvider(fetcher).WithMetrics(metrics),
		page.NewProvider(fetcher),
	}

	for _, p := range providers {
		def := p.Definition()
		if err := registry.Register(p); err != nil {
			logger.Warn("Failed to register provider", zap.String("service", def.ID), zap.Error(err))
			continue
		}
		logger.Info("Registered provider",
			zap.String("service", def.ID),
			zap.Int("tools", len(def.Tools)),
		)
	}
}
