package credential

import (
	"fmt"
	"time"
)

// Credentials is the access key triple of a federated token.
// JSON names follow the identity provider's wire shape so browser clients can use them unchanged.
type Credentials struct {
	AccessKeyID     string     `json:"AccessKeyId"`
	SecretAccessKey string     `json:"SecretAccessKey"`
	SessionToken    string     `json:"SessionToken"`
	Expiration      *time.Time `json:"Expiration,omitempty"`
}

// FederatedUser identifies the federated principal a token was issued to.
type FederatedUser struct {
	Arn             string `json:"Arn"`
	FederatedUserID string `json:"FederatedUserId"`
}

// Token is a federated, time-boxed credential.
type Token struct {
	Credentials      *Credentials   `json:"Credentials,omitempty"`
	FederatedUser    *FederatedUser `json:"FederatedUser,omitempty"`
	PackedPolicySize *int32         `json:"PackedPolicySize,omitempty"`
}

// Scope describes what a lease may touch.
type Scope struct {
	Bucket    string `json:"bucket"`
	KeyPrefix string `json:"keyPrefix,omitempty"`
}

// Lease is a token together with the moment the broker started issuing it.
// A lease is replaced when it goes stale, never mutated.
type Lease struct {
	Token    *Token
	IssuedAt time.Time
	Scope    Scope
}

// Usable reports whether the lease carries a complete key triple.
func (l *Lease) Usable() bool {
	return l != nil && l.Token != nil && l.Token.Credentials != nil &&
		l.Token.Credentials.AccessKeyID != "" && l.Token.Credentials.SecretAccessKey != ""
}

// ValidAt reports whether the lease may still be used at now given a reuse window.
func (l *Lease) ValidAt(now time.Time, ttl time.Duration) bool {
	if !l.Usable() || l.IssuedAt.IsZero() {
		return false
	}
	return now.Sub(l.IssuedAt) < ttl
}

// ExpiresAt returns the provider expiry when known, otherwise the nominal lifetime end.
func (l *Lease) ExpiresAt() time.Time {
	if l.Token != nil && l.Token.Credentials != nil && l.Token.Credentials.Expiration != nil {
		return *l.Token.Credentials.Expiration
	}
	return l.IssuedAt.Add(TokenLifetime)
}

// Envelope renders the lease as the broker endpoint body.
func (l *Lease) Envelope() Envelope {
	return Envelope{Token: l.Token, CreatedAt: l.IssuedAt.UnixMilli(), KeyPrefix: l.Scope.KeyPrefix}
}

// Envelope is the body exchanged between the broker endpoint and its clients.
// Exactly one of Token or Error is set. KeyPrefix is set only for leases confined to a prefix.
type Envelope struct {
	Token     *Token `json:"token,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
	KeyPrefix string `json:"keyPrefix,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Lease converts a decoded envelope into a lease.
// An envelope carrying an error is a failure whatever status code came with it.
func (e Envelope) Lease(status int) (*Lease, error) {
	if e.Error != "" {
		return nil, &EnvelopeError{Status: status, Message: e.Error}
	}

	lease := &Lease{Token: e.Token, IssuedAt: time.UnixMilli(e.CreatedAt), Scope: Scope{KeyPrefix: e.KeyPrefix}}
	if e.CreatedAt <= 0 || !lease.Usable() {
		return nil, &EnvelopeError{Status: status, Message: "credential endpoint returned no usable token"}
	}
	return lease, nil
}

// EnvelopeError is returned when the credential endpoint reports an error.
type EnvelopeError struct {
	Status  int
	Message string
}

func (e *EnvelopeError) Error() string {
	return fmt.Sprintf("credential endpoint error (status %d): %s", e.Status, e.Message)
}

// Issuance is an audit record of one successful token issuance. It never holds secrets.
type Issuance struct {
	ID          string    `json:"id"`
	Principal   string    `json:"principal"`
	Bucket      string    `json:"bucket"`
	KeyPrefix   string    `json:"keyPrefix,omitempty"`
	AccessKeyID string    `json:"accessKeyId"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
