package users

import (
	"context"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
)

// Paging limits for the host user listing.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Store lists users for a host.
type Store interface {
	List(ctx context.Context, hostID int64, f Filter, s Sort, p models.PageRequest) ([]models.User, int64, error)
	ListRecipients(ctx context.Context, hostID int64, f Filter, s Sort) ([]models.User, error)
}

// GiveawayFinder loads a giveaway for ownership checks.
type GiveawayFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Giveaway, error)
}

// Service answers host queries over their users.
type Service struct {
	store     Store
	giveaways GiveawayFinder
	logger    *zap.Logger
}

// NewService creates a users service.
func NewService(store Store, giveaways GiveawayFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, giveaways: giveaways, logger: logger}
}

// List returns a page of the host's users.
func (s *Service) List(ctx context.Context, hostID int64, f Filter, sort Sort, p models.PageRequest) (models.Page[models.UserListItem], error) {
	if err := s.checkGiveaway(ctx, hostID, f.GiveawayID); err != nil {
		return models.Page[models.UserListItem]{}, err
	}
	list, total, err := s.store.List(ctx, hostID, f, sort, p)
	if err != nil {
		return models.Page[models.UserListItem]{}, err
	}
	items := make([]models.UserListItem, 0, len(list))
	for i := range list {
		items = append(items, list[i].ToListItem())
	}
	return models.NewPage(items, p.Page, p.Size, total), nil
}

// Recipients returns every user matching f, for campaign fan-out.
func (s *Service) Recipients(ctx context.Context, hostID int64, f Filter, sort Sort) ([]models.User, error) {
	if err := s.checkGiveaway(ctx, hostID, f.GiveawayID); err != nil {
		return nil, err
	}
	return s.store.ListRecipients(ctx, hostID, f, sort)
}

func (s *Service) checkGiveaway(ctx context.Context, hostID int64, giveawayID *int64) error {
	if giveawayID == nil {
		return nil
	}
	g, err := s.giveaways.FindByID(ctx, *giveawayID)
	if err != nil {
		return err
	}
	if g == nil || g.HostID != hostID {
		return apperror.NotFound("Giveaway not found")
	}
	return nil
}
