package sts

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	awssts "github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/infrastructure/metrics"
)

const providerAWS = "aws"

// FederationIssuer issues tokens with STS GetFederationToken.
type FederationIssuer struct {
	client *awssts.Client
	log    zerolog.Logger
}

// NewFederationIssuer builds an STS client signed with the broker's long-lived key pair.
// endpoint overrides the regional STS endpoint when set.
func NewFederationIssuer(ctx context.Context, cfg credential.BrokerConfig, endpoint string, log zerolog.Logger) (*FederationIssuer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(awscredentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awssts.NewFromConfig(awsCfg, func(o *awssts.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &FederationIssuer{
		client: client,
		log:    log.With().Str("component", "sts-federation").Logger(),
	}, nil
}

func (i *FederationIssuer) IssueFederationToken(ctx context.Context, req credential.FederationRequest) (*credential.Token, error) {
	policy, err := req.Policy.JSON()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := i.client.GetFederationToken(ctx, &awssts.GetFederationTokenInput{
		Name:            aws.String(req.Name),
		Policy:          aws.String(policy),
		DurationSeconds: aws.Int32(int32(req.Duration / time.Second)),
	})
	metrics.RecordCredentialExchange(providerAWS, err, time.Since(start).Seconds())
	if err != nil {
		i.log.Error().Err(err).Str("name", req.Name).Msg("GetFederationToken failed")
		return nil, err
	}

	return tokenFromOutput(out), nil
}

func tokenFromOutput(out *awssts.GetFederationTokenOutput) *credential.Token {
	if out == nil {
		return nil
	}

	token := &credential.Token{PackedPolicySize: out.PackedPolicySize}
	if out.Credentials != nil {
		token.Credentials = &credential.Credentials{
			AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
			SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
			SessionToken:    aws.ToString(out.Credentials.SessionToken),
			Expiration:      out.Credentials.Expiration,
		}
	}
	if out.FederatedUser != nil {
		token.FederatedUser = &credential.FederatedUser{
			Arn:             aws.ToString(out.FederatedUser.Arn),
			FederatedUserID: aws.ToString(out.FederatedUser.FederatedUserId),
		}
	}
	return token
}
