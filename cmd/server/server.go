package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/config"
	"github.com/janhq/cms-media/internal/infrastructure/auth"
	"github.com/janhq/cms-media/internal/infrastructure/logger"
	"github.com/janhq/cms-media/internal/infrastructure/observability"
	"github.com/janhq/cms-media/internal/interfaces/httpserver"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/handlers"
)

// @title CMS Media API
// @version 1.0
// @description Upload credential broker and media store for the CMS
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	app, cleanup, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build application")
	}
	defer cleanup()

	if err := app.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return
	}

	log.Info().Msg("application exited cleanly")
}

// buildApplication assembles the service by hand in the order BuildApplication declares.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	validator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize auth: %w", err)
	}

	issuer, err := provideIssuer(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize identity provider: %w", err)
	}

	backend, err := provideBackend(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize storage: %w", err)
	}

	repo, cleanup, err := provideAuditRepository(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	broker := provideBroker(cfg, issuer, provideAuditLog(repo), log)
	if err := broker.Ready(); err != nil {
		log.Warn().Err(err).Msg("credential broker is not ready")
	}

	stores, err := provideStoreResolver(cfg, broker, backend, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	provider := handlers.NewProvider(cfg, broker, stores, provideIssuanceLister(repo), log)
	server := httpserver.New(cfg, log, provider, validator, provideReadiness(broker, backend))
	return NewApplication(server, log), cleanup, nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
