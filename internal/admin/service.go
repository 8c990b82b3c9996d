package admin

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vive890/academic-resource-depot/internal/auth"
	"github.com/vive890/academic-resource-depot/internal/resource"
	"github.com/vive890/academic-resource-depot/internal/stats"
	"go.uber.org/zap"
)

type accountStore interface {
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type catalog interface {
	Search(ctx context.Context, f resource.Filter) ([]resource.Resource, error)
	Delete(ctx context.Context, identity auth.Identity, id uuid.UUID) error
	RemoveUploaderBlobs(ctx context.Context, uploaderID uuid.UUID) (int, error)
}

type reporter interface {
	Report(ctx context.Context) (stats.Report, error)
	Platform(ctx context.Context) (stats.Platform, error)
	Invalidate(ctx context.Context)
}

// Service implements the moderation panel. Every call checks the admin role
// on the identity it is given.
type Service struct {
	accounts  accountStore
	resources catalog
	stats     reporter
	log       *zap.Logger
}

// NewService constructs an admin service.
func NewService(accounts accountStore, resources catalog, stats reporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		accounts:  accounts,
		resources: resources,
		stats:     stats,
		log:       logger,
	}
}

// Stats returns the platform figures.
func (s *Service) Stats(ctx context.Context, identity auth.Identity) (stats.Platform, error) {
	if err := requireAdmin(identity); err != nil {
		return stats.Platform{}, err
	}
	return s.stats.Platform(ctx)
}

// Users lists every account with its upload totals.
func (s *Service) Users(ctx context.Context, identity auth.Identity) ([]stats.UserSummary, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	report, err := s.stats.Report(ctx)
	if err != nil {
		return nil, err
	}
	return report.PerUser, nil
}

// Resources lists the whole catalog, newest first.
func (s *Service) Resources(ctx context.Context, identity auth.Identity, f resource.Filter) ([]resource.Resource, error) {
	if err := requireAdmin(identity); err != nil {
		return nil, err
	}
	return s.resources.Search(ctx, f)
}

// DeleteResource removes any resource.
func (s *Service) DeleteResource(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, identity, id); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)
	return nil
}

// DeleteUser removes an account. Stored objects of the user's resources are
// removed first; the metadata rows cascade with the account.
func (s *Service) DeleteUser(ctx context.Context, identity auth.Identity, userID uuid.UUID) error {
	if err := requireAdmin(identity); err != nil {
		return err
	}
	if userID == identity.ID {
		return ErrSelfDelete
	}

	removed, err := s.resources.RemoveUploaderBlobs(ctx, userID)
	if err != nil {
		return fmt.Errorf("remove user objects: %w", err)
	}
	if err := s.accounts.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.stats.Invalidate(ctx)

	s.log.Info("user deleted",
		zap.String("user_id", userID.String()),
		zap.String("actor_id", identity.ID.String()),
		zap.Int("resources_removed", removed),
	)
	return nil
}

func requireAdmin(identity auth.Identity) error {
	if !identity.Authenticated() {
		return resource.ErrUnauthenticated
	}
	if !identity.IsAdmin() {
		return auth.ErrForbidden
	}
	return nil
}
