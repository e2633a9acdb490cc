package entries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
)

// Paging defaults for a user's entry history.
const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// MaxPointsPerRequest caps a single regular entry request.
const MaxPointsPerRequest = 1_000_000

// Entry messages.
const (
	MsgWrongTenant      = "This giveaway does not belong to your subdomain"
	MsgNotActive        = "This giveaway is not active"
	MsgEnded            = "This giveaway has ended"
	MsgAlreadyClaimed   = "You have already claimed your free entry for this giveaway"
	MsgPointsPositive   = "Points to add must be greater than 0"
	MsgPointsTooMany    = "Points to add must be at most 1000000"
	MsgPointsLimit      = "Your entry has reached the maximum number of points"
	MsgEntered          = "Successfully entered giveaway!"
	MsgFreeAddedToEntry = "Free entry claimed! Added 1 point to your existing entry."
)

// Store persists entries.
type Store interface {
	ClaimFree(ctx context.Context, userID, giveawayID int64) (*models.GiveawayEntry, bool, error)
	AddPoints(ctx context.Context, userID, giveawayID int64, points int) (*models.GiveawayEntry, bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.UserEntry, error)
	History(ctx context.Context, userID int64, p models.PageRequest) ([]models.UserGiveawayEntry, int64, error)
}

// UserFinder loads the entering user.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// GiveawayFinder loads the giveaway being entered.
type GiveawayFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Giveaway, error)
}

// Service implements giveaway entry for participants.
type Service struct {
	store     Store
	users     UserFinder
	giveaways GiveawayFinder
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an entries service.
func NewService(store Store, users UserFinder, giveaways GiveawayFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, users: users, giveaways: giveaways, logger: logger, now: time.Now}
}

// ClaimFreeEntry grants the user's single free point in the giveaway.
func (s *Service) ClaimFreeEntry(ctx context.Context, userID, giveawayID int64) (*models.EntryResult, error) {
	g, err := s.enterable(ctx, userID, giveawayID)
	if err != nil {
		return nil, err
	}
	e, inserted, err := s.store.ClaimFree(ctx, userID, giveawayID)
	if errors.Is(err, ErrAlreadyClaimed) {
		return nil, apperror.GiveawayEntry(MsgAlreadyClaimed)
	}
	if err != nil {
		return nil, err
	}
	msg := MsgFreeAddedToEntry
	if inserted {
		msg = MsgEntered
	}
	s.logger.Info("free entry claimed", zap.Int64("user_id", userID), zap.Int64("giveaway_id", giveawayID))
	return result(msg, e, g), nil
}

// AddRegularEntries adds points to the user's entry, creating it if needed.
func (s *Service) AddRegularEntries(ctx context.Context, userID, giveawayID int64, points int) (*models.EntryResult, error) {
	if points <= 0 {
		return nil, apperror.GiveawayEntry(MsgPointsPositive)
	}
	if points > MaxPointsPerRequest {
		return nil, apperror.GiveawayEntry(MsgPointsTooMany)
	}
	g, err := s.enterable(ctx, userID, giveawayID)
	if err != nil {
		return nil, err
	}
	e, inserted, err := s.store.AddPoints(ctx, userID, giveawayID, points)
	if errors.Is(err, ErrPointsOverflow) {
		return nil, apperror.GiveawayEntry(MsgPointsLimit)
	}
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("Added %d points to your entry!", points)
	if inserted {
		msg = fmt.Sprintf("Successfully entered giveaway with %d points!", points)
	}
	s.logger.Info("entry points added", zap.Int64("user_id", userID), zap.Int64("giveaway_id", giveawayID),
		zap.Int("points", points), zap.Int("total", e.Points))
	return result(msg, e, g), nil
}

// MyEntries returns all of the user's entries.
func (s *Service) MyEntries(ctx context.Context, userID int64) ([]models.UserEntry, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	list, err := s.store.ListByUser(ctx, userID)
	if list == nil {
		list = []models.UserEntry{}
	}
	return list, err
}

// History returns a page of the user's giveaway participation.
func (s *Service) History(ctx context.Context, userID int64, p models.PageRequest) (models.Page[models.UserGiveawayEntry], error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return models.Page[models.UserGiveawayEntry]{}, err
	}
	list, total, err := s.store.History(ctx, userID, p)
	if err != nil {
		return models.Page[models.UserGiveawayEntry]{}, err
	}
	return models.NewPage(list, p.Page, p.Size, total), nil
}

func (s *Service) requireUser(ctx context.Context, userID int64) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.NotFound("User not found")
	}
	return nil
}

// enterable checks that the user exists and the giveaway is theirs to enter right now.
func (s *Service) enterable(ctx context.Context, userID, giveawayID int64) (*models.Giveaway, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("User not found")
	}
	g, err := s.giveaways.FindByID(ctx, giveawayID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, apperror.NotFound("Giveaway not found")
	}
	if g.HostID != u.HostID {
		return nil, apperror.GiveawayEntry(MsgWrongTenant)
	}
	if g.Status != models.GiveawayActive {
		return nil, apperror.GiveawayEntry(MsgNotActive)
	}
	if g.EndedAt(s.now()) {
		return nil, apperror.GiveawayEntry(MsgEnded)
	}
	return g, nil
}

func result(msg string, e *models.GiveawayEntry, g *models.Giveaway) *models.EntryResult {
	return &models.EntryResult{
		Success: true,
		Message: msg,
		Entry: models.EntryView{
			EntryID:          e.ID,
			Points:           e.Points,
			FreeEntryClaimed: e.FreeEntryClaimed,
			GiveawayID:       g.ID,
			GiveawayTitle:    g.Title,
			EnteredAt:        e.CreatedAt,
		},
	}
}
