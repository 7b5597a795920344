package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
	"github.com/janhq/cms-media/internal/infrastructure/metrics"
)

const backendS3 = "s3"

var errUnusableLease = errors.New("storage session requires a lease with credentials")

// S3Options configures the S3 backend.
type S3Options struct {
	Region       string
	Endpoint     string
	UsePathStyle bool
}

// S3Backend opens S3 sessions signed with leased credentials.
type S3Backend struct {
	awsCfg       aws.Config
	endpoint     string
	usePathStyle bool
	log          zerolog.Logger
}

func NewS3Backend(ctx context.Context, opts S3Options, log zerolog.Logger) (*S3Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Backend{
		awsCfg:       awsCfg,
		endpoint:     opts.Endpoint,
		usePathStyle: opts.UsePathStyle,
		log:          log.With().Str("component", "s3-storage").Logger(),
	}, nil
}

func (b *S3Backend) Session(_ context.Context, lease *credential.Lease) (media.ObjectStore, error) {
	if !lease.Usable() {
		return nil, errUnusableLease
	}
	creds := lease.Token.Credentials

	client := s3.NewFromConfig(b.awsCfg, func(o *s3.Options) {
		o.Credentials = credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)
		o.UsePathStyle = b.usePathStyle
		if b.endpoint != "" {
			o.BaseEndpoint = aws.String(b.endpoint)
		}
	})

	return &s3Session{
		client:   client,
		uploader: manager.NewUploader(client),
		log:      b.log,
	}, nil
}

type s3Session struct {
	client   *s3.Client
	uploader *manager.Uploader
	log      zerolog.Logger
}

func (s *s3Session) List(ctx context.Context, input media.ListInput) (listing *media.Listing, err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageOperation(backendS3, "list", err, time.Since(start).Seconds()) }()

	params := &s3.ListObjectsV2Input{
		Bucket:    aws.String(input.Bucket),
		Delimiter: aws.String(input.Delimiter),
	}
	if input.Prefix != "" {
		params.Prefix = aws.String(input.Prefix)
	}

	listing = &media.Listing{}
	paginator := s3.NewListObjectsV2Paginator(s.client, params)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, prefix := range page.CommonPrefixes {
			listing.CommonPrefixes = append(listing.CommonPrefixes, aws.ToString(prefix.Prefix))
		}
		for _, object := range page.Contents {
			listing.Keys = append(listing.Keys, aws.ToString(object.Key))
		}
	}
	return listing, nil
}

func (s *s3Session) Put(ctx context.Context, input media.PutInput) (out *media.PutOutput, err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageOperation(backendS3, "put", err, time.Since(start).Seconds()) }()

	params := &s3.PutObjectInput{
		Bucket:        aws.String(input.Bucket),
		Key:           aws.String(input.Key),
		Body:          bytes.NewReader(input.Body),
		ContentLength: aws.Int64(int64(len(input.Body))),
		ContentType:   aws.String(input.ContentType),
		ACL:           types.ObjectCannedACL(input.ACL),
		CacheControl:  aws.String(input.CacheControl),
	}
	if input.ServerSideEncryption != "" {
		params.ServerSideEncryption = types.ServerSideEncryption(input.ServerSideEncryption)
	}

	result, err := s.uploader.Upload(ctx, params)
	if err != nil {
		return nil, err
	}

	s.log.Debug().Str("key", input.Key).Str("location", result.Location).Msg("object uploaded")
	return &media.PutOutput{Key: input.Key, Location: result.Location}, nil
}

func (s *s3Session) Delete(ctx context.Context, bucket, key string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStorageOperation(backendS3, "delete", err, time.Since(start).Seconds()) }()

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}
