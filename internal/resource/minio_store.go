package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

const defaultObjectTimeout = 60 * time.Second

type urlSigner interface {
	GetURL(ctx context.Context, bucket, object string) (string, error)
}

// MinIOStore adapts a MinIO bucket to the blob operations intake, download
// and delete need.
type MinIOStore struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
	signer  urlSigner
}

// NewMinIOStore constructs an adapter over one bucket. A nil signer disables
// preview URLs.
func NewMinIOStore(client *minio.Client, bucket string, timeout time.Duration, signer urlSigner) *MinIOStore {
	if timeout <= 0 {
		timeout = defaultObjectTimeout
	}
	return &MinIOStore{client: client, bucket: bucket, timeout: timeout, signer: signer}
}

// Put uploads size bytes from body under key.
func (s *MinIOStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Open returns a stream of the object. The object is stat'ed first so a
// missing key surfaces here rather than mid-transfer.
func (s *MinIOStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat object: %w", err)
	}
	return obj, nil
}

// Remove deletes key. Removing a missing key succeeds.
func (s *MinIOStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// PublicURL returns a time-limited GET URL for key.
func (s *MinIOStore) PublicURL(ctx context.Context, key string) (string, error) {
	if s.signer == nil {
		return "", errors.New("url signing disabled")
	}
	return s.signer.GetURL(ctx, s.bucket, key)
}
