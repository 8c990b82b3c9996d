package resource

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/metrics"
	"go.uber.org/zap"
)

// Download opens the resource's document for identity and records the
// download. The counter update runs in the background and its failure never
// reaches the caller; it is attempted even when the object cannot be opened.
func (s *Service) Download(ctx context.Context, identity auth.Identity, id uuid.UUID) (Resource, io.ReadCloser, error) {
	if !identity.Authenticated() {
		return Resource{}, nil, ErrUnauthenticated
	}

	res, err := s.repo.Get(ctx, id)
	if err != nil {
		return Resource{}, nil, err
	}

	s.countDownload(ctx, res.ID)

	body, err := s.blobs.Open(ctx, res.ObjectKey)
	if err != nil {
		return Resource{}, nil, fmt.Errorf("open object: %w", err)
	}
	metrics.DownloadsTotal.Inc()

	return res, body, nil
}

// Drain blocks until in-flight counter updates finish or ctx is done.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.counters.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) countDownload(parent context.Context, id uuid.UUID) {
	s.counters.Add(1)
	go func() {
		defer s.counters.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), s.counterTimeout)
		defer cancel()

		if _, err := s.repo.IncrementDownloads(ctx, id); err != nil {
			metrics.DownloadCounterFailures.Inc()
			s.log.Warn("download count not recorded",
				zap.String("resource_id", id.String()),
				zap.Error(err),
			)
		}
	}()
}
