package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/infrastructure/brokerclient"
	"github.com/janhq/cms-media/internal/infrastructure/storage"
)

const envPrefix = "MEDIA_CLI"

// settings is the resolved CLI configuration. Flags win over MEDIA_CLI_* env, which wins over the config file.
type settings struct {
	BrokerURL     string        `mapstructure:"broker-url"`
	Token         string        `mapstructure:"token"`
	Bucket        string        `mapstructure:"bucket"`
	Region        string        `mapstructure:"region"`
	ReadURL       string        `mapstructure:"read-url"`
	Backend       string        `mapstructure:"backend"`
	Endpoint      string        `mapstructure:"endpoint"`
	PathStyle     bool          `mapstructure:"path-style"`
	SSE           string        `mapstructure:"sse"`
	LocalPath     string        `mapstructure:"local-path"`
	RefreshPolicy string        `mapstructure:"refresh-policy"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Output        string        `mapstructure:"output"`
	Verbose       bool          `mapstructure:"verbose"`
}

// cli carries state shared by every subcommand.
type cli struct {
	v   *viper.Viper
	cfg settings
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "media-cli",
		Short: "Manage CMS media with credentials from the upload broker",
		Long: `media-cli is a client-side media adapter for the CMS media store.

It asks the credential broker for a short lived token, caches it for up to 59
minutes and talks to the bucket directly with it.

Examples:
  media-cli --broker-url http://localhost:8285 --bucket cms-assets list hero-image
  media-cli upload hero-image ./banner.png ./logo.svg
  media-cli delete hero-image/banner.png
  media-cli schema --type page`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (yaml, json or toml)")
	flags.String("broker-url", "", "Base URL of the credential broker")
	flags.String("token", "", "Bearer token sent to the broker")
	flags.String("bucket", "", "Bucket holding the media")
	flags.String("region", "us-east-1", "Bucket region")
	flags.String("read-url", "", "Public read URL (default //<bucket>.s3.amazonaws.com)")
	flags.String("backend", "s3", "Object store: s3, minio or local")
	flags.String("endpoint", "", "S3 compatible endpoint")
	flags.Bool("path-style", false, "Use path style bucket addressing")
	flags.String("sse", "", "Server side encryption: AES256 or aws:kms")
	flags.String("local-path", "", "Storage root for the local backend")
	flags.String("refresh-policy", string(credential.RefreshRedundant), "Credential refresh policy: redundant or single-flight")
	flags.Duration("timeout", 15*time.Second, "Broker request timeout")
	flags.StringP("output", "o", "json", "Output format: json or yaml")
	flags.BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(newUploadCmd(c))
	rootCmd.AddCommand(newListCmd(c))
	rootCmd.AddCommand(newDeleteCmd(c))
	rootCmd.AddCommand(newPreviewCmd(c))
	rootCmd.AddCommand(newSchemaCmd(c))

	return rootCmd
}

func (c *cli) load(cmd *cobra.Command) error {
	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	if err := c.v.Unmarshal(&c.cfg); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}

	c.cfg.Backend = strings.ToLower(strings.TrimSpace(c.cfg.Backend))
	c.cfg.Output = strings.ToLower(strings.TrimSpace(c.cfg.Output))
	if c.cfg.Output != "json" && c.cfg.Output != "yaml" {
		return fmt.Errorf("output must be json or yaml; got %q", c.cfg.Output)
	}

	level := zerolog.WarnLevel
	if c.cfg.Verbose {
		level = zerolog.DebugLevel
	}
	c.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Str("service", "media-cli").
		Logger()
	return nil
}

// storeOptions projects the settings onto the store options.
func (c *cli) storeOptions() media.Options {
	return media.Options{
		Bucket:               c.cfg.Bucket,
		ReadURL:              c.cfg.ReadURL,
		ServerSideEncryption: c.cfg.SSE,
	}
}

// newStore builds a store whose credentials come from the broker.
func (c *cli) newStore(ctx context.Context) (*media.Store, error) {
	policy, err := credential.ParseRefreshPolicy(c.cfg.RefreshPolicy)
	if err != nil {
		return nil, err
	}

	client, err := brokerclient.NewClient(brokerclient.Options{
		BaseURL:     c.cfg.BrokerURL,
		BearerToken: c.cfg.Token,
		Timeout:     c.cfg.Timeout,
	}, c.log)
	if err != nil {
		return nil, err
	}

	backend, err := c.newBackend(ctx)
	if err != nil {
		return nil, err
	}

	return media.NewStore(c.storeOptions(), credential.NewCache(client, policy, c.log), backend, c.log)
}

func (c *cli) newBackend(ctx context.Context) (media.Backend, error) {
	switch c.cfg.Backend {
	case "minio":
		return storage.NewMinIOBackend(c.cfg.Endpoint, c.cfg.Region, c.log)
	case "local":
		return storage.NewLocalBackend(c.cfg.LocalPath, c.cfg.ReadURL, c.log)
	case "s3", "":
		return storage.NewS3Backend(ctx, storage.S3Options{
			Region:       c.cfg.Region,
			Endpoint:     c.cfg.Endpoint,
			UsePathStyle: c.cfg.PathStyle,
		}, c.log)
	default:
		return nil, fmt.Errorf("backend must be s3, minio or local; got %q", c.cfg.Backend)
	}
}
