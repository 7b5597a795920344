package sts

import (
	"context"
	"fmt"
	"time"

	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/metrics"
)

const providerMinIO = "minio"

// MinIOAssumeRoleIssuer issues tokens with the MinIO STS AssumeRole API.
// MinIO has no federation endpoint; AssumeRole with an inline policy gives the same scoped triple.
type MinIOAssumeRoleIssuer struct {
	endpoint string
	cfg      credential.BrokerConfig
	log      zerolog.Logger
}

func NewMinIOAssumeRoleIssuer(endpoint string, cfg credential.BrokerConfig, log zerolog.Logger) (*MinIOAssumeRoleIssuer, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("minio sts endpoint is required")
	}
	return &MinIOAssumeRoleIssuer{
		endpoint: endpoint,
		cfg:      cfg,
		log:      log.With().Str("component", "sts-minio").Logger(),
	}, nil
}

func (i *MinIOAssumeRoleIssuer) IssueFederationToken(ctx context.Context, req credential.FederationRequest) (*credential.Token, error) {
	policy, err := req.Policy.JSON()
	if err != nil {
		return nil, err
	}

	provider, err := miniocredentials.NewSTSAssumeRole(i.endpoint, miniocredentials.STSAssumeRoleOptions{
		AccessKey:       i.cfg.AccessKeyID,
		SecretKey:       i.cfg.SecretAccessKey,
		Policy:          policy,
		Location:        i.cfg.Region,
		DurationSeconds: int(req.Duration / time.Second),
		RoleSessionName: req.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("create assume role provider: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	value, err := provider.Get()
	metrics.RecordCredentialExchange(providerMinIO, err, time.Since(start).Seconds())
	if err != nil {
		i.log.Error().Err(err).Msg("AssumeRole failed")
		return nil, err
	}

	token := &credential.Token{
		Credentials: &credential.Credentials{
			AccessKeyID:     value.AccessKeyID,
			SecretAccessKey: value.SecretAccessKey,
			SessionToken:    value.SessionToken,
		},
		FederatedUser: &credential.FederatedUser{
			Arn:             "arn:minio:iam:::user/" + req.Name,
			FederatedUserID: req.Name,
		},
	}
	if !value.Expiration.IsZero() {
		expiration := value.Expiration
		token.Credentials.Expiration = &expiration
	}
	return token, nil
}
