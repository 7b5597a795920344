package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/utils/redact"
)

const (
	// FederationName is the principal name every federation request uses.
	FederationName = "S3UploadWebToken"
	// TokenLifetime is the lifetime requested for every federated token.
	TokenLifetime = time.Hour

	EnvAccessKeyID     = "S3_UPLOAD_KEY"
	EnvSecretAccessKey = "S3_UPLOAD_SECRET"
	EnvRegion          = "S3_UPLOAD_REGION"
	EnvBucket          = "S3_UPLOAD_BUCKET"
)

var (
	// ErrExchangeFailed wraps every failure of the identity provider call.
	ErrExchangeFailed = errors.New("credential exchange failed")
	// ErrPrincipalRequired is returned by scopes that need an authenticated caller.
	ErrPrincipalRequired = errors.New("authenticated principal required")
	// ErrInvalidPrincipal is returned when a principal cannot be turned into a key prefix.
	ErrInvalidPrincipal = errors.New("principal cannot be used as a key prefix")
)

// BrokerConfig holds the server-side secrets needed to issue federated tokens.
type BrokerConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
}

// Missing returns the env names of every empty required value, in a fixed order.
func (c BrokerConfig) Missing() []string {
	var missing []string
	for _, field := range []struct {
		env   string
		value string
	}{
		{EnvAccessKeyID, c.AccessKeyID},
		{EnvSecretAccessKey, c.SecretAccessKey},
		{EnvRegion, c.Region},
		{EnvBucket, c.Bucket},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.env)
		}
	}
	return missing
}

// MissingConfigError names every required configuration key that is not set.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return "S3 Media: Missing ENVs " + strings.Join(e.Keys, ", ")
}

// Principal is the caller a lease is issued for. The zero value is anonymous.
type Principal struct {
	UserID string
}

// Anonymous reports whether no authenticated user is attached.
func (p Principal) Anonymous() bool {
	return strings.TrimSpace(p.UserID) == ""
}

// FederationRequest is what an Issuer exchanges for a token.
type FederationRequest struct {
	Name     string
	Policy   Policy
	Duration time.Duration
}

// Issuer exchanges a policy for a federated token with an identity provider.
type Issuer interface {
	IssueFederationToken(ctx context.Context, req FederationRequest) (*Token, error)
}

// ScopeDeriver derives the key prefix a lease is confined to.
type ScopeDeriver interface {
	DeriveKeyPrefix(ctx context.Context, principal Principal) (string, error)
}

// BucketScope grants the whole bucket to every caller.
type BucketScope struct{}

func (BucketScope) DeriveKeyPrefix(context.Context, Principal) (string, error) {
	return "", nil
}

// UserScope confines each authenticated user to <Root>/<user id>.
type UserScope struct {
	Root string
}

func (s UserScope) DeriveKeyPrefix(_ context.Context, principal Principal) (string, error) {
	if principal.Anonymous() {
		return "", ErrPrincipalRequired
	}

	userID := strings.TrimSpace(principal.UserID)
	if strings.ContainsAny(userID, "/\\*?") || userID == "." || userID == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidPrincipal, userID)
	}

	root := strings.Trim(s.Root, "/")
	if root == "" {
		return userID, nil
	}
	return root + "/" + userID, nil
}

// AuditLog records successful issuances.
type AuditLog interface {
	RecordIssuance(ctx context.Context, issuance Issuance) error
}

type nopAuditLog struct{}

func (nopAuditLog) RecordIssuance(context.Context, Issuance) error { return nil }

// Broker issues short-lived, policy-scoped tokens.
type Broker struct {
	config    BrokerConfig
	missing   []string
	issuer    Issuer
	scope     ScopeDeriver
	audit     AuditLog
	sanitizer *redact.Sanitizer
	log       zerolog.Logger
	now       func() time.Time
}

// NewBroker validates cfg once and returns a broker. A broker with missing configuration is
// still returned; every Issue call then fails with *MissingConfigError.
func NewBroker(cfg BrokerConfig, issuer Issuer, scope ScopeDeriver, audit AuditLog, sanitizer *redact.Sanitizer, log zerolog.Logger) *Broker {
	if scope == nil {
		scope = BucketScope{}
	}
	if audit == nil {
		audit = nopAuditLog{}
	}
	if sanitizer == nil {
		sanitizer = redact.NewSanitizer(redact.LevelHashed, cfg.Bucket)
	}

	b := &Broker{
		config:    cfg,
		missing:   cfg.Missing(),
		issuer:    issuer,
		scope:     scope,
		audit:     audit,
		sanitizer: sanitizer,
		log:       log.With().Str("component", "credential-broker").Logger(),
		now:       time.Now,
	}

	if len(b.missing) > 0 {
		b.log.Warn().Strs("missing", b.missing).Msg("broker configuration incomplete; token requests will fail")
	}
	return b
}

// Ready reports whether the broker has every required configuration value.
func (b *Broker) Ready() error {
	if len(b.missing) > 0 {
		return &MissingConfigError{Keys: append([]string(nil), b.missing...)}
	}
	return nil
}

// Issue exchanges the bucket policy for a federated token on behalf of principal.
func (b *Broker) Issue(ctx context.Context, principal Principal) (*Lease, error) {
	if err := b.Ready(); err != nil {
		return nil, err
	}
	if b.issuer == nil {
		return nil, fmt.Errorf("%w: no identity provider configured", ErrExchangeFailed)
	}

	keyPrefix, err := b.scope.DeriveKeyPrefix(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("derive key prefix: %w", err)
	}

	issuedAt := b.now()
	token, err := b.issuer.IssueFederationToken(ctx, FederationRequest{
		Name:     FederationName,
		Policy:   NewPolicy(b.config.Bucket, keyPrefix),
		Duration: TokenLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	lease := &Lease{
		Token:    token,
		IssuedAt: issuedAt,
		Scope:    Scope{Bucket: b.config.Bucket, KeyPrefix: keyPrefix},
	}
	if !lease.Usable() {
		return nil, fmt.Errorf("%w: identity provider returned no credentials", ErrExchangeFailed)
	}

	b.record(ctx, principal, lease)
	return lease, nil
}

func (b *Broker) record(ctx context.Context, principal Principal, lease *Lease) {
	issuance := Issuance{
		Principal:   b.sanitizer.Principal(principal.UserID),
		Bucket:      lease.Scope.Bucket,
		KeyPrefix:   lease.Scope.KeyPrefix,
		AccessKeyID: b.sanitizer.AccessKeyID(lease.Token.Credentials.AccessKeyID),
		IssuedAt:    lease.IssuedAt.UTC(),
		ExpiresAt:   lease.ExpiresAt().UTC(),
	}

	if err := b.audit.RecordIssuance(ctx, issuance); err != nil {
		b.log.Error().Err(err).Str("access_key_id", issuance.AccessKeyID).Msg("failed to record issuance")
		return
	}

	b.log.Debug().
		Str("access_key_id", issuance.AccessKeyID).
		Str("key_prefix", issuance.KeyPrefix).
		Time("expires_at", issuance.ExpiresAt).
		Msg("issued federated token")
}

// BrokerSource adapts a Broker into a cache Source for one principal.
type BrokerSource struct {
	Broker    *Broker
	Principal Principal
}

func (s BrokerSource) Fetch(ctx context.Context) (*Lease, error) {
	return s.Broker.Issue(ctx, s.Principal)
}
