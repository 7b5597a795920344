package brokerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
)

// TokenPath is the broker route that returns a credential envelope.
const TokenPath = "/api/s3-sts-token"

// Client fetches leases from a running broker over HTTP.
type Client struct {
	baseURL    string
	httpClient *resty.Client
	log        zerolog.Logger
}

// Options configures the broker client. BearerToken is sent when the broker runs with auth enabled.
type Options struct {
	BaseURL     string
	BearerToken string
	Timeout     time.Duration
}

func NewClient(opts Options, log zerolog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("broker base url is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "CMS-Media-Client/1.0").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	if opts.BearerToken != "" {
		client.SetAuthToken(opts.BearerToken)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: client,
		log:        log.With().Str("component", "broker-client").Logger(),
	}, nil
}

// Fetch requests a fresh lease. An envelope carrying an error fails regardless of the HTTP status.
func (c *Client) Fetch(ctx context.Context) (*credential.Lease, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(TokenPath)
	if err != nil {
		return nil, fmt.Errorf("broker request failed: %w", err)
	}

	var envelope credential.Envelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		if resp.IsError() {
			return nil, &credential.EnvelopeError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
		}
		return nil, fmt.Errorf("decode broker response: %w", err)
	}
	if resp.IsError() && envelope.Error == "" {
		envelope.Error = fmt.Sprintf("unexpected status %s", resp.Status())
	}

	lease, err := envelope.Lease(resp.StatusCode())
	if err != nil {
		c.log.Warn().Err(err).Int("status", resp.StatusCode()).Msg("broker returned no lease")
		return nil, err
	}

	c.log.Debug().Time("issued_at", lease.IssuedAt).Msg("lease received")
	return lease, nil
}
