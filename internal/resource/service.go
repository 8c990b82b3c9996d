package resource

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"go.uber.org/zap"
)

const defaultCounterTimeout = 5 * time.Second

type catalog interface {
	Insert(ctx context.Context, res Resource) (Resource, error)
	Get(ctx context.Context, id uuid.UUID) (Resource, error)
	Search(ctx context.Context, f Filter) ([]Resource, error)
	IncrementDownloads(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type blobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	PublicURL(ctx context.Context, key string) (string, error)
}

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	Limits         Limits
	CounterTimeout time.Duration
	Logger         *zap.Logger
}

// Service implements intake, catalog search, downloads and deletes.
type Service struct {
	repo           catalog
	blobs          blobStore
	limits         Limits
	counterTimeout time.Duration
	log            *zap.Logger

	counters sync.WaitGroup
}

// NewService constructs a resource service.
func NewService(repo catalog, blobs blobStore, opts Options) *Service {
	limits := opts.Limits
	if limits.MaxDocumentBytes <= 0 {
		limits.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if limits.MaxPreviewBytes <= 0 {
		limits.MaxPreviewBytes = DefaultMaxPreviewBytes
	}
	timeout := opts.CounterTimeout
	if timeout <= 0 {
		timeout = defaultCounterTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:           repo,
		blobs:          blobs,
		limits:         limits,
		counterTimeout: timeout,
		log:            logger,
	}
}

// Limits returns the enforced size ceilings.
func (s *Service) Limits() Limits {
	return s.limits
}

// Search returns the resources matching f, newest first.
func (s *Service) Search(ctx context.Context, f Filter) ([]Resource, error) {
	resources, err := s.repo.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range resources {
		s.attachPreviewURL(ctx, &resources[i])
	}
	return resources, nil
}

// Get returns a single resource.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Resource, error) {
	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return Resource{}, err
	}
	s.attachPreviewURL(ctx, &res)
	return res, nil
}

// ListByUploader returns everything the identity has uploaded.
func (s *Service) ListByUploader(ctx context.Context, identity auth.Identity) ([]Resource, error) {
	if !identity.Authenticated() {
		return nil, ErrUnauthenticated
	}
	uploaderID := identity.ID
	return s.Search(ctx, Filter{UploaderID: &uploaderID})
}

// Delete removes a resource owned by identity, or any resource when identity
// is an admin. Blobs go first so a failed call can be retried.
func (s *Service) Delete(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	if !identity.Authenticated() {
		return ErrUnauthenticated
	}

	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if res.UploaderID != identity.ID && !identity.IsAdmin() {
		return ErrForbidden
	}

	if err := s.removeBlobs(ctx, res); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info("resource deleted",
		zap.String("resource_id", id.String()),
		zap.String("actor_id", identity.ID.String()),
	)
	return nil
}

// RemoveUploaderBlobs deletes the stored objects of every resource owned by
// uploaderID. Metadata is left for the caller to remove.
func (s *Service) RemoveUploaderBlobs(ctx context.Context, uploaderID uuid.UUID) (int, error) {
	resources, err := s.repo.Search(ctx, Filter{UploaderID: &uploaderID})
	if err != nil {
		return 0, fmt.Errorf("list uploader resources: %w", err)
	}
	for _, res := range resources {
		if err := s.removeBlobs(ctx, res); err != nil {
			return 0, err
		}
	}
	return len(resources), nil
}

func (s *Service) removeBlobs(ctx context.Context, res Resource) error {
	if res.PreviewKey != nil {
		if err := s.blobs.Remove(ctx, *res.PreviewKey); err != nil {
			return fmt.Errorf("remove preview %s: %w", *res.PreviewKey, err)
		}
	}
	if err := s.blobs.Remove(ctx, res.ObjectKey); err != nil {
		return fmt.Errorf("remove object %s: %w", res.ObjectKey, err)
	}
	return nil
}

func (s *Service) attachPreviewURL(ctx context.Context, res *Resource) {
	if res.PreviewKey == nil {
		return
	}
	url, err := s.blobs.PublicURL(ctx, *res.PreviewKey)
	if err != nil {
		s.log.Debug("preview url unavailable", zap.String("resource_id", res.ID.String()), zap.Error(err))
		return
	}
	res.PreviewURL = url
}
