package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/janhq/cms-media/internal/domain/credential"
)

const (
	DefaultListLimit = 1000
	Delimiter        = "/"

	PublicReadACL         = "public-read"
	ImmutableCacheControl = "max-age=630720000, public"
)

var (
	ErrBucketRequired = errors.New("media store: bucket is required")
	ErrEmptyFilename  = errors.New("media store: filename is empty")
	ErrEmptyID        = errors.New("media store: media id is empty")
)

// CredentialProvider hands out a lease that is valid for the next store call.
type CredentialProvider interface {
	Get(ctx context.Context) (*credential.Lease, error)
}

// Backend opens object store sessions authenticated with a lease.
type Backend interface {
	Session(ctx context.Context, lease *credential.Lease) (ObjectStore, error)
}

// ObjectStore is the subset of an object API the store needs.
type ObjectStore interface {
	// List returns every immediate child of Prefix, following continuation tokens to the end.
	List(ctx context.Context, input ListInput) (*Listing, error)
	Put(ctx context.Context, input PutInput) (*PutOutput, error)
	Delete(ctx context.Context, bucket, key string) error
}

type ListInput struct {
	Bucket    string
	Prefix    string
	Delimiter string
}

// Listing holds a delimiter listing in store order.
type Listing struct {
	CommonPrefixes []string
	Keys           []string
}

type PutInput struct {
	Bucket               string
	Key                  string
	Body                 []byte
	ContentType          string
	ACL                  string
	CacheControl         string
	ServerSideEncryption string
}

type PutOutput struct {
	Key      string
	Location string
}

// PersistError reports the upload that aborted a batch and what was stored before it.
type PersistError struct {
	Index    int
	Name     string
	Uploaded []Media
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %q (item %d): %v", e.Name, e.Index, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Options configures a Store. Only Bucket is required.
type Options struct {
	Bucket               string
	ReadURL              string
	ServerSideEncryption string
}

// Store persists, lists and deletes media in one bucket using leased credentials.
type Store struct {
	bucket      string
	readURL     string
	sse         string
	credentials CredentialProvider
	backend     Backend
	log         zerolog.Logger
}

func NewStore(opts Options, credentials CredentialProvider, backend Backend, log zerolog.Logger) (*Store, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, ErrBucketRequired
	}

	readURL := strings.TrimSpace(opts.ReadURL)
	if readURL == "" {
		readURL = DefaultReadURL(bucket)
	}

	return &Store{
		bucket:      bucket,
		readURL:     readURL,
		sse:         strings.TrimSpace(opts.ServerSideEncryption),
		credentials: credentials,
		backend:     backend,
		log:         log.With().Str("component", "media-store").Str("bucket", bucket).Logger(),
	}, nil
}

func (s *Store) ReadURL() string { return s.readURL }

// Persist uploads files one after another and returns their records in input order.
// The first failure stops the batch and is returned as *PersistError.
func (s *Store) Persist(ctx context.Context, uploads []UploadRequest) ([]Media, error) {
	uploaded := make([]Media, 0, len(uploads))

	for i, upload := range uploads {
		item, err := s.persistOne(ctx, upload)
		if err != nil {
			s.log.Error().Err(err).Int("index", i).Str("name", upload.Name).Msg("upload failed; aborting batch")
			return nil, &PersistError{Index: i, Name: upload.Name, Uploaded: uploaded, Err: err}
		}
		uploaded = append(uploaded, item)
	}

	return uploaded, nil
}

func (s *Store) persistOne(ctx context.Context, upload UploadRequest) (Media, error) {
	if SanitizeFilename(upload.Name) == "" {
		return Media{}, ErrEmptyFilename
	}

	session, scope, err := s.session(ctx)
	if err != nil {
		return Media{}, err
	}

	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" {
		contentType = mimetype.Detect(upload.Content).String()
	}

	out, err := session.Put(ctx, PutInput{
		Bucket:               s.bucket,
		Key:                  ScopeKey(scope, ObjectKey(upload.Directory, upload.Name)),
		Body:                 upload.Content,
		ContentType:          contentType,
		ACL:                  PublicReadACL,
		CacheControl:         ImmutableCacheControl,
		ServerSideEncryption: s.sse,
	})
	if err != nil {
		return Media{}, err
	}

	s.log.Debug().Str("key", out.Key).Int("bytes", len(upload.Content)).Msg("object stored")
	return s.fileRecord(scope, out.Key), nil
}

// List returns a window of the immediate children of a directory: directories first, then files.
// TotalCount is the number of children in the directory, not the size of the window.
func (s *Store) List(ctx context.Context, opts *ListOptions) (*ListPage, error) {
	directory, offset, limit := "", 0, DefaultListLimit
	if opts != nil {
		directory = opts.Directory
		if opts.Offset > 0 {
			offset = opts.Offset
		}
		if opts.Limit > 0 {
			limit = opts.Limit
		}
	}

	session, scope, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	prefix := ScopeKey(scope, ListPrefix(directory))
	listing, err := session.List(ctx, ListInput{Bucket: s.bucket, Prefix: prefix, Delimiter: Delimiter})
	if err != nil {
		return nil, err
	}

	items := make([]Media, 0, len(listing.CommonPrefixes)+len(listing.Keys))
	for _, p := range listing.CommonPrefixes {
		items = append(items, PrefixToMedia(UnscopeKey(scope, p)))
	}
	for _, key := range listing.Keys {
		// folder placeholder objects share the directory's own prefix
		if key == prefix {
			continue
		}
		items = append(items, s.fileRecord(scope, key))
	}

	total := len(items)
	start := min(offset, total)
	end := total
	if limit < total-start {
		end = start + limit
	}

	return &ListPage{
		Items:      items[start:end],
		Offset:     offset,
		Limit:      limit,
		TotalCount: total,
	}, nil
}

// Delete removes the object named by item.ID. Store errors are returned untouched.
func (s *Store) Delete(ctx context.Context, item Media) error {
	if item.ID == "" {
		return ErrEmptyID
	}

	session, scope, err := s.session(ctx)
	if err != nil {
		return err
	}
	return session.Delete(ctx, s.bucket, ScopeKey(scope, item.ID))
}

// PreviewSrc joins the read URL and filename with exactly one slash.
func (s *Store) PreviewSrc(filename string) string {
	return withTrailingSlash(s.readURL) + strings.TrimLeft(filename, "/")
}

// session opens an object store session and returns the key prefix the lease is confined to.
func (s *Store) session(ctx context.Context) (ObjectStore, string, error) {
	lease, err := s.credentials.Get(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("obtain credentials: %w", err)
	}
	session, err := s.backend.Session(ctx, lease)
	if err != nil {
		return nil, "", err
	}
	return session, lease.Scope.KeyPrefix, nil
}

// fileRecord translates a stored key into a record whose id is relative to the lease scope.
// The preview URL keeps the full key since that is where the object is served from.
func (s *Store) fileRecord(scope, key string) Media {
	item := ObjectToMedia(UnscopeKey(scope, key), s.readURL)
	if item.PreviewSrc != "" {
		item.PreviewSrc = withTrailingSlash(s.readURL) + key
	}
	return item
}
