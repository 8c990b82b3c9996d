package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/metrics"
	"github.com/vive890/academic-resource-depot/internal/resource"
	"go.uber.org/zap"
)

type userLister interface {
	ListUsers(ctx context.Context) ([]auth.User, error)
}

type resourceLister interface {
	Search(ctx context.Context, f resource.Filter) ([]resource.Resource, error)
}

type platformCache interface {
	Load(ctx context.Context) (Platform, error)
	Store(ctx context.Context, p Platform) error
	Invalidate(ctx context.Context) error
}

// Service loads users and resources and aggregates them.
type Service struct {
	users     userLister
	resources resourceLister
	cache     platformCache
	log       *zap.Logger
	now       func() time.Time
}

// NewService builds a stats service. cache may be nil.
func NewService(users userLister, resources resourceLister, cache platformCache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:     users,
		resources: resources,
		cache:     cache,
		log:       logger,
		now:       time.Now,
	}
}

// Report loads every user and resource and computes the full report.
func (s *Service) Report(ctx context.Context) (Report, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list users: %w", err)
	}
	resources, err := s.resources.Search(ctx, resource.Filter{})
	if err != nil {
		return Report{}, fmt.Errorf("list resources: %w", err)
	}
	return Compute(users, resources, s.now()), nil
}

// Platform returns the catalog-wide figures, served from cache when fresh.
// Cache failures are logged and bypassed.
func (s *Service) Platform(ctx context.Context) (Platform, error) {
	if s.cache != nil {
		p, err := s.cache.Load(ctx)
		switch {
		case err == nil:
			metrics.StatsCacheResults.WithLabelValues("hit").Inc()
			return p, nil
		case errors.Is(err, ErrCacheMiss):
			metrics.StatsCacheResults.WithLabelValues("miss").Inc()
		default:
			metrics.StatsCacheResults.WithLabelValues("error").Inc()
			s.log.Warn("stats cache unavailable", zap.Error(err))
		}
	}

	report, err := s.Report(ctx)
	if err != nil {
		return Platform{}, err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, report.Platform); err != nil {
			s.log.Warn("stats cache store failed", zap.Error(err))
		}
	}
	return report.Platform, nil
}

// Invalidate drops cached figures after catalog changes.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidate failed", zap.Error(err))
	}
}

// Dashboard is a member's own uploads with totals.
type Dashboard struct {
	Resources      []resource.Resource `json:"resources"`
	ResourceCount  int                 `json:"resource_count"`
	TotalDownloads int64               `json:"total_downloads"`
}

// ForUser returns the dashboard of identity.
func (s *Service) ForUser(ctx context.Context, identity auth.Identity) (Dashboard, error) {
	if !identity.Authenticated() {
		return Dashboard{}, resource.ErrUnauthenticated
	}

	uploaderID := identity.ID
	resources, err := s.resources.Search(ctx, resource.Filter{UploaderID: &uploaderID})
	if err != nil {
		return Dashboard{}, err
	}

	count, downloads := Summarize(identity.ID, resources)
	return Dashboard{Resources: resources, ResourceCount: count, TotalDownloads: downloads}, nil
}
