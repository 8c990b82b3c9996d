package presigned

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

const defaultTTL = 15 * time.Minute

// ErrEmptyObject is returned when asked to sign an empty object key.
var ErrEmptyObject = errors.New("object key required")

type presignClient interface {
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Service issues time-limited GET URLs for stored objects.
type Service struct {
	client presignClient
	ttl    time.Duration
}

// NewService builds a signer. minio.Client satisfies presignClient.
func NewService(client presignClient, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{client: client, ttl: ttl}
}

// TTL reports how long issued URLs stay valid.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// GetURL signs a GET for object in bucket. The response is served inline so
// preview images render in the browser.
func (s *Service) GetURL(ctx context.Context, bucket, object string) (string, error) {
	if strings.TrimSpace(object) == "" {
		return "", ErrEmptyObject
	}

	params := make(url.Values)
	params.Set("response-content-disposition", "inline")

	u, err := s.client.PresignedGetObject(ctx, bucket, object, s.ttl, params)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
