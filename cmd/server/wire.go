//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/janhq/cms-media/internal/config"
	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/auth"
	"github.com/janhq/cms-media/internal/infrastructure/logger"
	"github.com/janhq/cms-media/internal/interfaces/httpserver"
	"github.com/janhq/cms-media/internal/interfaces/httpserver/handlers"
)

var brokerSet = wire.NewSet(
	provideIssuer,
	provideAuditRepository,
	provideAuditLog,
	provideBroker,
	wire.Bind(new(handlers.TokenIssuer), new(*credential.Broker)),
)

var mediaSet = wire.NewSet(
	provideBackend,
	provideStoreResolver,
	provideIssuanceLister,
)

// BuildApplication assembles the media API with Wire.
func BuildApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		auth.NewValidator,
		brokerSet,
		mediaSet,
		provideReadiness,
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil, nil
}
