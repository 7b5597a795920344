package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
)

var errInvalidKey = errors.New("object key escapes the storage root")

// LocalBackend keeps objects on the filesystem under <basePath>/<bucket>/<key>.
// ACLs, cache headers and encryption are not applied.
type LocalBackend struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

// NewLocalBackend creates the storage root if it does not exist.
func NewLocalBackend(basePath, baseURL string, log zerolog.Logger) (*LocalBackend, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("local storage path is required")
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	logger.Info().
		Str("path", basePath).
		Str("base_url", baseURL).
		Msg("local storage initialized")

	return &LocalBackend{basePath: basePath, baseURL: strings.TrimSpace(baseURL), log: logger}, nil
}

// BucketPath is the directory holding a bucket's objects.
func (l *LocalBackend) BucketPath(bucket string) string {
	return filepath.Join(l.basePath, bucket)
}

// Session ignores the lease; the filesystem has no credentials to check.
func (l *LocalBackend) Session(context.Context, *credential.Lease) (media.ObjectStore, error) {
	return l, nil
}

func (l *LocalBackend) resolve(bucket, key string) (string, error) {
	root := l.BucketPath(bucket)
	full := filepath.Join(root, filepath.FromSlash(key))
	if full != root && !strings.HasPrefix(full, root+string(os.PathSeparator)) {
		return "", errInvalidKey
	}
	return full, nil
}

func (l *LocalBackend) List(_ context.Context, input media.ListInput) (*media.Listing, error) {
	dir, err := l.resolve(input.Bucket, input.Prefix)
	if err != nil {
		return nil, err
	}

	listing := &media.Listing{}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return listing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if entry.IsDir() {
			listing.CommonPrefixes = append(listing.CommonPrefixes, input.Prefix+entry.Name()+input.Delimiter)
			continue
		}
		listing.Keys = append(listing.Keys, input.Prefix+entry.Name())
	}
	return listing, nil
}

func (l *LocalBackend) Put(_ context.Context, input media.PutInput) (*media.PutOutput, error) {
	fullPath, err := l.resolve(input.Bucket, input.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(fullPath, input.Body, 0644); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	l.log.Debug().
		Str("key", input.Key).
		Int("bytes", len(input.Body)).
		Msg("file uploaded to local storage")

	location := fullPath
	if l.baseURL != "" {
		location = strings.TrimSuffix(l.baseURL, "/") + "/" + input.Key
	}
	return &media.PutOutput{Key: input.Key, Location: location}, nil
}

func (l *LocalBackend) Delete(_ context.Context, bucket, key string) error {
	fullPath, err := l.resolve(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file not found: %s", key)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Health checks if the storage directory is writable.
func (l *LocalBackend) Health(context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
