package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/infrastructure/metrics"
)

const backendMinIO = "minio"

// MinIOBackend opens sessions against a MinIO (or other S3 compatible) server with minio-go.
type MinIOBackend struct {
	host   string
	secure bool
	region string
	log    zerolog.Logger
}

// NewMinIOBackend parses endpoint, which may carry an http or https scheme.
func NewMinIOBackend(endpoint, region string, log zerolog.Logger) (*MinIOBackend, error) {
	host, secure, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &MinIOBackend{
		host:   host,
		secure: secure,
		region: region,
		log:    log.With().Str("component", "minio-storage").Logger(),
	}, nil
}

func splitEndpoint(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", false, fmt.Errorf("minio endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse minio endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("minio endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}

func (b *MinIOBackend) Session(_ context.Context, lease *credential.Lease) (media.ObjectStore, error) {
	if !lease.Usable() {
		return nil, errUnusableLease
	}
	creds := lease.Token.Credentials

	client, err := minio.New(b.host, &minio.Options{
		Creds:  miniocredentials.NewStaticV4(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		Secure: b.secure,
		Region: b.region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &minioSession{client: client, log: b.log}, nil
}

type minioSession struct {
	client *minio.Client
	log    zerolog.Logger
}

func (s *minioSession) List(ctx context.Context, input media.ListInput) (listing *media.Listing, err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageOperation(backendMinIO, "list", err, time.Since(start).Seconds()) }()

	listing = &media.Listing{}
	for object := range s.client.ListObjects(ctx, input.Bucket, minio.ListObjectsOptions{
		Prefix:    input.Prefix,
		Recursive: false,
	}) {
		if object.Err != nil {
			return nil, object.Err
		}
		// minio-go reports common prefixes as keys ending in the delimiter
		if strings.HasSuffix(object.Key, input.Delimiter) && object.Key != input.Prefix {
			listing.CommonPrefixes = append(listing.CommonPrefixes, object.Key)
			continue
		}
		listing.Keys = append(listing.Keys, object.Key)
	}
	return listing, nil
}

func (s *minioSession) Put(ctx context.Context, input media.PutInput) (out *media.PutOutput, err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageOperation(backendMinIO, "put", err, time.Since(start).Seconds()) }()

	opts := minio.PutObjectOptions{
		ContentType:  input.ContentType,
		CacheControl: input.CacheControl,
		UserMetadata: map[string]string{"x-amz-acl": input.ACL},
	}
	if input.ServerSideEncryption != "" {
		sse, err := serverSideEncryption(input.ServerSideEncryption)
		if err != nil {
			return nil, err
		}
		opts.ServerSideEncryption = sse
	}

	info, err := s.client.PutObject(ctx, input.Bucket, input.Key, bytes.NewReader(input.Body), int64(len(input.Body)), opts)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("key", info.Key).Int64("bytes", info.Size).Msg("object uploaded")
	return &media.PutOutput{Key: input.Key, Location: info.Location}, nil
}

func (s *minioSession) Delete(ctx context.Context, bucket, key string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageOperation(backendMinIO, "delete", err, time.Since(start).Seconds()) }()

	return s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{})
}

func serverSideEncryption(algorithm string) (encrypt.ServerSide, error) {
	switch algorithm {
	case "AES256":
		return encrypt.NewSSE(), nil
	case "aws:kms":
		return encrypt.NewSSEKMS("", nil)
	default:
		return nil, fmt.Errorf("unsupported server side encryption %q", algorithm)
	}
}
