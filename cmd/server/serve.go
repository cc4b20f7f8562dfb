package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-http-provider/pkg/config"
	"github.com/sirosfoundation/go-http-provider/pkg/httpprovider"
	"github.com/sirosfoundation/go-http-provider/pkg/logging"
	"github.com/sirosfoundation/go-http-provider/pkg/metrics"
	"github.com/sirosfoundation/go-http-provider/pkg/middleware"
	"github.com/sirosfoundation/go-http-provider/pkg/reporting"
)

const sentryFlushTimeout = 2 * time.Second

type serveFlags struct {
	driver string
	port   int
}

// shutdowner is implemented by every registered driver.
type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func loadConfig(configFile string, flags serveFlags) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if flags.driver != "" {
		cfg.Provider.Driver = flags.driver
	}
	if flags.port != 0 {
		cfg.Server.Port = flags.port
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSettings maps the loaded configuration onto driver settings.
func newSettings(cfg *config.Config, logger *zap.Logger) httpprovider.Settings {
	read, write, idle := cfg.Server.Timeouts()
	s := httpprovider.Settings{
		Logger:       logger,
		BodyLimit:    cfg.Provider.BodyLimit,
		DisableXML:   !cfg.Provider.XML,
		UploadDir:    cfg.Provider.UploadDir,
		MaxFileSize:  cfg.Provider.MaxFileSize,
		Host:         cfg.Server.Host,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}
	if cfg.CORS.Enabled {
		s.CORS = &httpprovider.CORSSettings{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAgeDuration(),
		}
	}
	return s
}

func runServe(ctx context.Context, configFile string, flags serveFlags) error {
	cfg, err := loadConfig(configFile, flags)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gin.SetMode(logging.GinMode(cfg.Logging.Level))

	logger.Info("Starting HTTP provider",
		zap.String("version", version),
		zap.String("build_time", buildTime),
		zap.String("driver", cfg.Provider.Driver),
	)

	settings := newSettings(cfg, logger)

	reporter, err := reporting.New(cfg.Sentry, logger)
	switch {
	case errors.Is(err, reporting.ErrDisabled):
	case err != nil:
		return err
	default:
		settings.Reporter = reporter
		defer reporter.Flush(sentryFlushTimeout)
		logger.Info("Sentry error reporting enabled", zap.String("environment", cfg.Sentry.Environment))
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		settings.Observer = collector
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		BurstSize:         cfg.RateLimit.BurstSize,
		CleanupInterval:   cfg.RateLimit.CleanupEvery(),
		Enabled:           cfg.RateLimit.Enabled,
	}, logger)
	defer limiter.Stop()

	factory, err := httpprovider.NewFactory(cfg.Provider.Driver, settings)
	if err != nil {
		return err
	}

	deps := endpointDeps{
		cfg:       cfg,
		logger:    logger,
		limiter:   limiter,
		collector: collector,
	}
	provider, err := factory.MakeProvider(httpprovider.FactoryOptions{
		Port: cfg.Server.Port,
		OnReady: func() error {
			logger.Info("Server listening", zap.String("address", cfg.Server.Address()))
			return nil
		},
		Endpoints: sampleEndpoints(deps),
	})
	if err != nil {
		return fmt.Errorf("failed to start provider: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down server...")

	sd, ok := provider.(shutdowner)
	if !ok {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Shutdown())
	defer cancel()
	if err := sd.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}
