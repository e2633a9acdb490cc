package giveaways

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
)

// Paging defaults for giveaway listings.
const (
	DefaultPageSize = 5
	MaxPageSize     = 100
)

// Giveaway messages.
const (
	MsgNotFound            = "Giveaway not found"
	MsgNotFoundOnSubdomain = "Giveaway not found on this subdomain"
	MsgActiveExists        = "You already have an active giveaway. Only one active giveaway allowed at a time."
	MsgEndDateInPast       = "End date must be in the future"
	MsgStillActive         = "Cannot select a winner while the giveaway is still active"
	MsgNoEntries           = "No entries with points to select a winner from"
)

// Store is the persistence the giveaway service needs.
type Store interface {
	FindByID(ctx context.Context, id int64) (*models.Giveaway, error)
	CreateActive(ctx context.Context, g *models.Giveaway) error
	List(ctx context.Context, hostID int64, status *models.GiveawayStatus, p models.PageRequest) ([]models.GiveawaySummary, int64, error)
	ListByStatus(ctx context.Context, hostID int64, status models.GiveawayStatus) ([]models.GiveawaySummary, error)
	ListAll(ctx context.Context, hostID int64) ([]models.GiveawaySummary, error)
	Stats(ctx context.Context, id int64) (entries, points, users int64, err error)
	CountEntries(ctx context.Context, id int64) (int64, error)
	Leaderboard(ctx context.Context, id int64) ([]models.LeaderboardEntry, error)
	Candidates(ctx context.Context, id int64) ([]Candidate, error)
	SetWinner(ctx context.Context, id, userID int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// CreateInput is a new giveaway.
type CreateInput struct {
	Title       string
	Description string
	ImageURL    *string
	EndDate     time.Time
}

// Service implements the public and host giveaway operations.
type Service struct {
	store  Store
	logger *zap.Logger
	rnd    RandInt
	now    func() time.Time
}

// NewService creates a giveaway service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, rnd: CryptoRandInt, now: time.Now}
}

// PublicList pages through a tenant's giveaways, optionally filtered by status.
func (s *Service) PublicList(ctx context.Context, hostID int64, status *models.GiveawayStatus, p models.PageRequest) (models.Page[models.GiveawaySummary], error) {
	list, total, err := s.store.List(ctx, hostID, status, p)
	if err != nil {
		return models.Page[models.GiveawaySummary]{}, err
	}
	return models.NewPage(list, p.Page, p.Size, total), nil
}

// Active lists the tenant's ACTIVE giveaways. It filters by status only, so a giveaway past its
// end date stays listed until the sweeper ends it.
func (s *Service) Active(ctx context.Context, hostID int64) ([]models.GiveawaySummary, error) {
	list, err := s.store.ListByStatus(ctx, hostID, models.GiveawayActive)
	return nonNil(list), err
}

// All lists every giveaway of the host.
func (s *Service) All(ctx context.Context, hostID int64) ([]models.GiveawaySummary, error) {
	list, err := s.store.ListAll(ctx, hostID)
	return nonNil(list), err
}

// PublicDetails returns a giveaway of the tenant serving the request.
func (s *Service) PublicDetails(ctx context.Context, hostID, id int64) (*models.GiveawayDetails, error) {
	g, err := s.owned(ctx, hostID, id, MsgNotFoundOnSubdomain)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, g)
}

// Details returns one of the host's giveaways.
func (s *Service) Details(ctx context.Context, hostID, id int64) (*models.GiveawayDetails, error) {
	g, err := s.owned(ctx, hostID, id, MsgNotFound)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, g)
}

// Stats aggregates a host giveaway's entries.
func (s *Service) Stats(ctx context.Context, hostID, id int64) (*models.GiveawayStats, error) {
	g, err := s.owned(ctx, hostID, id, MsgNotFound)
	if err != nil {
		return nil, err
	}
	entries, points, users, err := s.store.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.GiveawayStats{
		GiveawayID:   g.ID,
		Title:        g.Title,
		TotalEntries: entries,
		TotalPoints:  points,
		UniqueUsers:  users,
	}, nil
}

// Leaderboard returns a host giveaway's entries by points.
func (s *Service) Leaderboard(ctx context.Context, hostID, id int64) ([]models.LeaderboardEntry, error) {
	if _, err := s.owned(ctx, hostID, id, MsgNotFound); err != nil {
		return nil, err
	}
	list, err := s.store.Leaderboard(ctx, id)
	if list == nil {
		list = []models.LeaderboardEntry{}
	}
	return list, err
}

// Create starts a new ACTIVE giveaway now. A host may run one ACTIVE giveaway at a time.
func (s *Service) Create(ctx context.Context, hostID int64, in CreateInput) (*models.GiveawayDetails, error) {
	now := s.now()
	if !in.EndDate.After(now) {
		return nil, apperror.Validation(MsgEndDateInPast)
	}
	g := &models.Giveaway{
		HostID:      hostID,
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		StartDate:   now,
		EndDate:     in.EndDate,
	}
	if err := s.store.CreateActive(ctx, g); err != nil {
		if errors.Is(err, ErrActiveExists) {
			return nil, apperror.Duplicate(MsgActiveExists)
		}
		return nil, err
	}
	s.logger.Info("giveaway created", zap.Int64("giveaway_id", g.ID), zap.Int64("host_id", hostID),
		zap.Time("end_date", g.EndDate))
	return detailsOf(g, 0), nil
}

// Delete removes a host giveaway and its entries.
func (s *Service) Delete(ctx context.Context, hostID, id int64) error {
	if _, err := s.owned(ctx, hostID, id, MsgNotFound); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("giveaway deleted", zap.Int64("giveaway_id", id), zap.Int64("host_id", hostID))
	return nil
}

// SelectWinner draws a points-weighted winner from a giveaway that is no longer ACTIVE.
// Drawing again replaces the previous winner.
func (s *Service) SelectWinner(ctx context.Context, hostID, id int64) (*models.WinnerSelection, error) {
	g, err := s.owned(ctx, hostID, id, MsgNotFound)
	if err != nil {
		return nil, err
	}
	if g.Status == models.GiveawayActive {
		return nil, apperror.Validation(MsgStillActive)
	}
	candidates, err := s.store.Candidates(ctx, id)
	if err != nil {
		return nil, err
	}
	winner, err := Draw(candidates, s.rnd)
	if errors.Is(err, ErrNoCandidates) {
		return nil, apperror.Validation(MsgNoEntries)
	}
	if err != nil {
		return nil, fmt.Errorf("draw winner: %w", err)
	}
	at := s.now().UTC()
	if err := s.store.SetWinner(ctx, id, winner.UserID, at); err != nil {
		return nil, err
	}
	total, err := s.store.CountEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("winner selected", zap.Int64("giveaway_id", id), zap.Int64("user_id", winner.UserID),
		zap.Int("points", winner.Points), zap.Int("candidates", len(candidates)))
	return &models.WinnerSelection{
		GiveawayID:        g.ID,
		GiveawayTitle:     g.Title,
		WinnerID:          winner.UserID,
		WinnerEmail:       winner.Email,
		WinnerFirstName:   winner.FirstName,
		WinnerLastName:    winner.LastName,
		WinnerPhoneNumber: winner.PhoneNumber,
		WinnerPoints:      winner.Points,
		SelectedAt:        at,
		TotalEntries:      total,
	}, nil
}

func (s *Service) owned(ctx context.Context, hostID, id int64, notFound string) (*models.Giveaway, error) {
	g, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil || g.HostID != hostID {
		return nil, apperror.NotFound(notFound)
	}
	return g, nil
}

func (s *Service) details(ctx context.Context, g *models.Giveaway) (*models.GiveawayDetails, error) {
	total, err := s.store.CountEntries(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return detailsOf(g, total), nil
}

func detailsOf(g *models.Giveaway, total int64) *models.GiveawayDetails {
	return &models.GiveawayDetails{
		ID:               g.ID,
		Title:            g.Title,
		Description:      g.Description,
		ImageURL:         g.ImageURL,
		StartDate:        g.StartDate,
		EndDate:          g.EndDate,
		Status:           g.Status,
		TotalEntries:     total,
		WinnerID:         g.WinnerID,
		WinnerSelectedAt: g.WinnerSelectedAt,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

func nonNil(list []models.GiveawaySummary) []models.GiveawaySummary {
	if list == nil {
		return []models.GiveawaySummary{}
	}
	return list
}
