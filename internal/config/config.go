package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
)

const (
	STSProviderAWS    = "aws"
	STSProviderMinIO  = "minio"
	STSProviderStatic = "static"

	StorageBackendS3    = "s3"
	StorageBackendMinIO = "minio"
	StorageBackendLocal = "local"

	KeyScopeBucket = "bucket"
	KeyScopeUser   = "user"
)

// Config holds the environment driven configuration for the media service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"cms-media-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"MEDIA_API_PORT" envDefault:"8285"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	RedactLevel     string        `env:"LOG_REDACT_LEVEL" envDefault:"hashed"`
	EnableTracing   bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Credential Broker (checked per request, the service starts without them)
	S3UploadKey    string `env:"S3_UPLOAD_KEY"`
	S3UploadSecret string `env:"S3_UPLOAD_SECRET"`
	S3UploadRegion string `env:"S3_UPLOAD_REGION"`
	S3UploadBucket string `env:"S3_UPLOAD_BUCKET"`

	// Identity provider
	STSProvider string `env:"S3_STS_PROVIDER" envDefault:"aws"` // Options: "aws", "minio" or "static"
	STSEndpoint string `env:"S3_STS_ENDPOINT"`                  // MinIO STS endpoint, defaults to S3_ENDPOINT

	// Key scoping
	KeyScope     string `env:"S3_KEY_SCOPE" envDefault:"bucket"` // Options: "bucket" or "user"
	KeyScopeRoot string `env:"S3_KEY_SCOPE_ROOT" envDefault:"users"`

	// Object store
	S3ReadURL              string `env:"S3_READ_URL"`
	S3ServerSideEncryption string `env:"S3_SERVER_SIDE_ENCRYPTION"`
	S3Endpoint             string `env:"S3_ENDPOINT"`
	S3UsePathStyle         bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	// Storage Backend Selection
	StorageBackend      string `env:"MEDIA_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3", "minio" or "local"
	LocalStoragePath    string `env:"MEDIA_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"MEDIA_LOCAL_STORAGE_BASE_URL"`

	// Media Configuration
	MaxMediaBytes           int64  `env:"MEDIA_MAX_BYTES" envDefault:"20971520"`
	StorePoolSize           int    `env:"MEDIA_STORE_POOL_SIZE" envDefault:"256"`
	CredentialRefreshPolicy string `env:"CREDENTIAL_REFRESH_POLICY" envDefault:"redundant"`

	// Issuance audit log (optional)
	AuditDatabaseDSN string        `env:"AUDIT_DATABASE_DSN"`
	DBMaxIdleConns   int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime   time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Authentication
	AuthEnabled  bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer   string `env:"AUTH_ISSUER"`
	AuthAudience string `env:"AUTH_AUDIENCE"`
	AuthJWKSURL  string `env:"AUTH_JWKS_URL"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3UploadKey = strings.TrimSpace(cfg.S3UploadKey)
	cfg.S3UploadSecret = strings.TrimSpace(cfg.S3UploadSecret)
	cfg.S3UploadRegion = strings.TrimSpace(cfg.S3UploadRegion)
	cfg.S3UploadBucket = strings.TrimSpace(cfg.S3UploadBucket)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	cfg.STSEndpoint = strings.TrimSpace(cfg.STSEndpoint)
	cfg.STSProvider = strings.ToLower(strings.TrimSpace(cfg.STSProvider))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	cfg.KeyScope = strings.ToLower(strings.TrimSpace(cfg.KeyScope))

	if cfg.MaxMediaBytes <= 0 {
		cfg.MaxMediaBytes = 20 * 1024 * 1024
	}
	if cfg.StorePoolSize <= 0 {
		cfg.StorePoolSize = 256
	}

	switch cfg.STSProvider {
	case STSProviderAWS, STSProviderMinIO, STSProviderStatic:
	default:
		return nil, fmt.Errorf("S3_STS_PROVIDER must be one of aws, minio, static; got %q", cfg.STSProvider)
	}

	switch cfg.StorageBackend {
	case StorageBackendS3, StorageBackendMinIO:
	case StorageBackendLocal:
		if strings.TrimSpace(cfg.LocalStoragePath) == "" {
			return nil, fmt.Errorf("MEDIA_LOCAL_STORAGE_PATH is required when MEDIA_STORAGE_BACKEND is local")
		}
	default:
		return nil, fmt.Errorf("MEDIA_STORAGE_BACKEND must be one of s3, minio, local; got %q", cfg.StorageBackend)
	}

	switch cfg.KeyScope {
	case KeyScopeBucket:
	case KeyScopeUser:
		if !cfg.AuthEnabled {
			return nil, fmt.Errorf("S3_KEY_SCOPE=user requires AUTH_ENABLED")
		}
	default:
		return nil, fmt.Errorf("S3_KEY_SCOPE must be bucket or user; got %q", cfg.KeyScope)
	}

	if _, err := credential.ParseRefreshPolicy(cfg.CredentialRefreshPolicy); err != nil {
		return nil, fmt.Errorf("CREDENTIAL_REFRESH_POLICY: %w", err)
	}

	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsProduction reports whether gin should run in release mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// BrokerConfig projects the broker secrets.
func (c *Config) BrokerConfig() credential.BrokerConfig {
	return credential.BrokerConfig{
		AccessKeyID:     c.S3UploadKey,
		SecretAccessKey: c.S3UploadSecret,
		Region:          c.S3UploadRegion,
		Bucket:          c.S3UploadBucket,
	}
}

// StoreOptions projects the media store options.
func (c *Config) StoreOptions() media.Options {
	readURL := c.S3ReadURL
	if readURL == "" && c.IsLocalStorage() {
		readURL = c.LocalStorageBaseURL
	}
	return media.Options{
		Bucket:               c.S3UploadBucket,
		ReadURL:              readURL,
		ServerSideEncryption: c.S3ServerSideEncryption,
	}
}

// RefreshPolicy returns the parsed credential refresh policy.
func (c *Config) RefreshPolicy() credential.RefreshPolicy {
	policy, err := credential.ParseRefreshPolicy(c.CredentialRefreshPolicy)
	if err != nil {
		return credential.RefreshRedundant
	}
	return policy
}

// ScopeDeriver returns the key scope strategy for the broker.
func (c *Config) ScopeDeriver() credential.ScopeDeriver {
	if c.KeyScope == KeyScopeUser {
		return credential.UserScope{Root: c.KeyScopeRoot}
	}
	return credential.BucketScope{}
}

// STSEndpointURL returns the endpoint MinIO STS requests go to.
func (c *Config) STSEndpointURL() string {
	if c.STSEndpoint != "" {
		return c.STSEndpoint
	}
	return c.S3Endpoint
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return c.StorageBackend == StorageBackendLocal
}

// IsMinIOStorage returns true if the MinIO backend is configured.
func (c *Config) IsMinIOStorage() bool {
	return c.StorageBackend == StorageBackendMinIO
}

// AuditEnabled reports whether issuances are written to the database.
func (c *Config) AuditEnabled() bool {
	return strings.TrimSpace(c.AuditDatabaseDSN) != ""
}
