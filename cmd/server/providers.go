package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/cms-media/internal/config"
	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/infrastructure/database"
	"github.com/janhq/cms-media/internal/infrastructure/repository/issuance"
	"github.com/janhq/cms-media/internal/infrastructure/storage"
	"github.com/janhq/cms-media/internal/infrastructure/sts"
	"github.com/janhq/cms-media/internal/interfaces/httpserver"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/handlers"
	"github.com/janhq/cms-media/internal/utils/redact"
)

// provideIssuer selects the identity provider the broker exchanges policies with.
func provideIssuer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (credential.Issuer, error) {
	switch cfg.STSProvider {
	case config.STSProviderMinIO:
		return sts.NewMinIOAssumeRoleIssuer(cfg.STSEndpointURL(), cfg.BrokerConfig(), log)
	case config.STSProviderStatic:
		return sts.NewStaticIssuer(cfg.BrokerConfig(), log), nil
	default:
		return sts.NewFederationIssuer(ctx, cfg.BrokerConfig(), cfg.STSEndpoint, log)
	}
}

// provideBackend creates the storage backend based on configuration.
func provideBackend(ctx context.Context, cfg *config.Config, log zerolog.Logger) (media.Backend, error) {
	switch {
	case cfg.IsLocalStorage():
		return storage.NewLocalBackend(cfg.LocalStoragePath, cfg.LocalStorageBaseURL, log)
	case cfg.IsMinIOStorage():
		return storage.NewMinIOBackend(cfg.S3Endpoint, cfg.S3UploadRegion, log)
	default:
		return storage.NewS3Backend(ctx, storage.S3Options{
			Region:       cfg.S3UploadRegion,
			Endpoint:     cfg.S3Endpoint,
			UsePathStyle: cfg.S3UsePathStyle,
		}, log)
	}
}

// provideAuditRepository connects the issuance audit database. It returns nil when auditing is off.
func provideAuditRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*issuance.Repository, func(), error) {
	if !cfg.AuditEnabled() {
		return nil, func() {}, nil
	}

	db, err := database.Connect(database.Config{
		DSN:             cfg.AuditDatabaseDSN,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect audit database: %w", err)
	}

	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close audit database")
		}
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("migrate audit database: %w", err)
	}
	return issuance.NewRepository(db), cleanup, nil
}

func provideAuditLog(repo *issuance.Repository) credential.AuditLog {
	if repo == nil {
		return nil
	}
	return repo
}

func provideIssuanceLister(repo *issuance.Repository) handlers.IssuanceLister {
	if repo == nil {
		return nil
	}
	return repo
}

func provideBroker(cfg *config.Config, issuer credential.Issuer, audit credential.AuditLog, log zerolog.Logger) *credential.Broker {
	sanitizer := redact.NewSanitizer(redact.Level(cfg.RedactLevel), cfg.S3UploadBucket)
	return credential.NewBroker(cfg.BrokerConfig(), issuer, cfg.ScopeDeriver(), audit, sanitizer, log)
}

// provideStoreResolver keeps one store, and so one credential cache, per principal.
func provideStoreResolver(cfg *config.Config, broker *credential.Broker, backend media.Backend, log zerolog.Logger) (handlers.StoreResolver, error) {
	pool, err := media.NewStorePool(cfg.StorePoolSize, func(principal credential.Principal) (*media.Store, error) {
		if err := broker.Ready(); err != nil {
			return nil, err
		}
		cache := credential.NewCache(credential.BrokerSource{Broker: broker, Principal: principal}, cfg.RefreshPolicy(), log)
		return media.NewStore(cfg.StoreOptions(), cache, backend, log)
	})
	if err != nil {
		return nil, err
	}
	return handlers.PoolResolver(pool), nil
}

type healthChecker interface {
	Health(ctx context.Context) error
}

// provideReadiness checks the broker configuration and, for backends that can report it, storage health.
func provideReadiness(broker *credential.Broker, backend media.Backend) httpserver.ReadinessCheck {
	checker, _ := backend.(healthChecker)
	return func(ctx context.Context) error {
		if err := broker.Ready(); err != nil {
			return err
		}
		if checker != nil {
			return checker.Health(ctx)
		}
		return nil
	}
}
