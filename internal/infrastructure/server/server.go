package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/shellgate/internal/api/http"
	"github.com/GriffinCanCode/shellgate/internal/api/middleware"
	"github.com/GriffinCanCode/shellgate/internal/api/ws"
	sessions "github.com/GriffinCanCode/shellgate/internal/domain/terminal"
	"github.com/GriffinCanCode/shellgate/internal/domain/trust"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/config"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/logging"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/spawn"
	"github.com/GriffinCanCode/shellgate/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/shellgate/internal/providers/terminal"
)

// Options replaces collaborators that touch the machine. Zero values select
// the real PTY spawner, the file trust store and a logger built from config.
type Options struct {
	Spawner    spawn.Spawner
	TrustStore trust.Store
	Logger     *logging.Logger
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	registry *sessions.Registry
	gate     *trust.Gate
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a server with the real PTY spawner and trust store
func NewServer(cfg *config.Config) (*Server, error) {
	return New(cfg, Options{})
}

// New creates a new server instance
func New(cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Initializing shellgate",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	// Metrics get their own registry so tests can build many servers
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(promRegistry)

	ctx := context.Background()
	var gate *trust.Gate
	var err error
	if opts.TrustStore != nil {
		gate, err = trust.NewGate(ctx, opts.TrustStore, logger.Component("trust"))
	} else {
		gate, err = NewGate(ctx, cfg, logger.Component("trust"))
	}
	if err != nil {
		return nil, err
	}
	gate.WithMetrics(metrics)

	loader, err := NewSettingsLoader(cfg)
	if err != nil {
		return nil, err
	}
	registryCfg, err := RegistryConfig(cfg)
	if err != nil {
		return nil, err
	}

	spawner := opts.Spawner
	if spawner == nil {
		spawner = spawn.NewPTY()
	}

	registry := sessions.NewRegistry(registryCfg, NewResolver(), loader, gate, spawner, logger.Component("terminal")).
		WithMetrics(metrics)
	tracer := tracing.New(logger.Component("trace"))
	provider := terminal.NewProvider(registry, gate, logger.Component("commands")).
		WithMetrics(metrics).
		WithTracer(tracer)

	logger.Info("Terminal registry initialized",
		zap.String("platform", string(registryCfg.Platform)),
		zap.Int("scrollback", registryCfg.Options.Scrollback),
		zap.Duration("kill_grace", registryCfg.KillGrace),
	)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.RequestLogger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig().WithOrigins(cfg.Server.AllowedOrigins)))

	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Int("spawn_rps", cfg.RateLimit.SpawnPerSecond),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
		provider.WithSpawnLimit(cfg.RateLimit.SpawnPerSecond, cfg.RateLimit.SpawnBurst)
	}

	// Register routes
	handlers := apihttp.NewHandlers(provider, registry, gate, metrics,
		apihttp.Options{ConfirmOnExit: cfg.Terminal.ConfirmOnExit}, logger.Component("http"))
	handlers.Register(router)

	wsHandler := ws.NewHandler(registry, provider, cfg.Server.AllowedOrigins, logger.Component("stream")).
		WithMetrics(metrics)
	router.GET("/stream", wsHandler.HandleConnection)

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		registry: registry,
		gate:     gate,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Registry returns the terminal registry
func (s *Server) Registry() *sessions.Registry {
	return s.registry
}

// Run serves HTTP until ctx is cancelled, then drains requests and stops
// every terminal
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			s.Close()
			return fmt.Errorf("http server failed: %w", err)
		}
		return s.Close()
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	return s.Close()
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	err := s.registry.KillAll(ctx)
	if err != nil {
		s.logger.Error("Failed to stop terminals", zap.Error(err))
	}

	s.tracer.Close()

	// Sync logger before exit
	s.logger.Close()

	return err
}
