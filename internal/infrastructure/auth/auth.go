package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/config"
	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/utils/platformerrors"
)

// UserIDKey is the gin context key holding the authenticated subject.
const UserIDKey = "user_id"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Validator validates JWTs using JWKS.
type Validator struct {
	enabled  bool
	issuer   string
	audience string
	keyfunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
	log      zerolog.Logger
}

// NewValidator initializes JWKS fetching when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	logger := log.With().Str("component", "auth").Logger()
	if !cfg.AuthEnabled {
		return &Validator{log: logger}, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Error().Err(err).Msg("jwks refresh error")
		},
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}

	return newValidator(jwks, cfg.AuthIssuer, cfg.AuthAudience, logger), nil
}

func newValidator(jwks *keyfunc.JWKS, issuer, audience string, log zerolog.Logger) *Validator {
	return &Validator{
		enabled:  true,
		issuer:   issuer,
		audience: audience,
		keyfunc:  jwks.Keyfunc,
		jwks:     jwks,
		log:      log,
	}
}

// Enabled reports whether requests must carry a bearer token.
func (v *Validator) Enabled() bool {
	return v != nil && v.enabled
}

// Validate parses a raw token and returns the principal it names.
func (v *Validator) Validate(raw string) (credential.Principal, error) {
	if raw == "" {
		return credential.Principal{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keyfunc, opts...)
	if err != nil || !token.Valid {
		return credential.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return credential.Principal{}, fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return credential.Principal{UserID: subject}, nil
}

// Close stops background JWKS refresh.
func (v *Validator) Close() {
	if v != nil && v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Middleware enforces JWT auth when enabled and stores the subject under UserIDKey.
func (v *Validator) Middleware() gin.HandlerFunc {
	if !v.Enabled() {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		principal, err := v.Validate(bearerToken(c.GetHeader("Authorization")))
		if err != nil {
			v.log.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected request")
			if errors.Is(err, ErrMissingToken) {
				platformerrors.WriteUnauthorized(c, ErrMissingToken.Error())
				return
			}
			platformerrors.WriteUnauthorized(c, ErrInvalidToken.Error())
			return
		}

		c.Set(UserIDKey, principal.UserID)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Middleware, or the anonymous principal.
func PrincipalFrom(c *gin.Context) credential.Principal {
	return credential.Principal{UserID: c.GetString(UserIDKey)}
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
