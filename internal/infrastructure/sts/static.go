package sts

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/metrics"
)

const providerStatic = "static"

// StaticIssuer hands out the configured key pair without any exchange.
// The policy is not enforced, so it is only meant for local development.
type StaticIssuer struct {
	cfg credential.BrokerConfig
	now func() time.Time
}

func NewStaticIssuer(cfg credential.BrokerConfig, log zerolog.Logger) *StaticIssuer {
	log.Warn().Str("component", "sts-static").Msg("static credential issuer in use; leases are not policy scoped")
	return &StaticIssuer{cfg: cfg, now: time.Now}
}

func (i *StaticIssuer) IssueFederationToken(_ context.Context, req credential.FederationRequest) (*credential.Token, error) {
	expiration := i.now().Add(req.Duration).UTC()
	metrics.RecordCredentialExchange(providerStatic, nil, 0)

	return &credential.Token{
		Credentials: &credential.Credentials{
			AccessKeyID:     i.cfg.AccessKeyID,
			SecretAccessKey: i.cfg.SecretAccessKey,
			Expiration:      &expiration,
		},
		FederatedUser: &credential.FederatedUser{
			Arn:             "static:" + req.Name,
			FederatedUserID: req.Name,
		},
	}, nil
}
