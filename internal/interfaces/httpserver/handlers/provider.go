package handlers

import (
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/config"
)

// Provider wires HTTP handlers.
type Provider struct {
	Token     *TokenHandler
	Media     *MediaHandler
	Issuances *IssuanceHandler
}

func NewProvider(cfg *config.Config, broker TokenIssuer, stores StoreResolver, issuances IssuanceLister, log zerolog.Logger) *Provider {
	return &Provider{
		Token:     NewTokenHandler(broker, log),
		Media:     NewMediaHandler(stores, cfg.MaxMediaBytes, log),
		Issuances: NewIssuanceHandler(issuances, log),
	}
}
