package branding

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/tenants"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/validator"
)

// Branding messages.
const (
	MsgLogoNotAccessible = "Logo URL is not accessible"
	MsgInvalidColor      = "Primary color must be a valid hex color code (e.g., #FFFF00 or #FFF)"
	MsgHostNotFound      = "Host not found"
)

// Store reads and updates a host's branding columns.
type Store interface {
	FindByID(ctx context.Context, id int64) (*models.Host, error)
	UpdateBranding(ctx context.Context, id int64, u tenants.BrandingUpdate) (*models.Host, error)
}

// CacheInvalidator drops a subdomain from the validation cache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, subdomain string)
}

// Update is a partial branding change. Nil fields are left alone.
type Update struct {
	CompanyName  *string
	LogoURL      *string
	PrimaryColor *string
}

// Service manages a host's branding.
type Service struct {
	store  Store
	prober URLProber
	cache  CacheInvalidator
	logger *zap.Logger
}

// NewService creates a branding service.
func NewService(store Store, prober URLProber, cache CacheInvalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, prober: prober, cache: cache, logger: logger}
}

// Get returns the host's branding with the default color applied.
func (s *Service) Get(ctx context.Context, hostID int64) (models.Branding, error) {
	h, err := s.store.FindByID(ctx, hostID)
	if err != nil {
		return models.Branding{}, err
	}
	if h == nil {
		return models.Branding{}, apperror.NotFound(MsgHostNotFound)
	}
	return h.Branding(), nil
}

// Update validates and applies u, then invalidates the host's cached entry.
func (s *Service) Update(ctx context.Context, hostID int64, u Update) (models.Branding, error) {
	var upd tenants.BrandingUpdate
	if u.CompanyName != nil {
		if name := strings.TrimSpace(*u.CompanyName); name != "" {
			upd.CompanyName = &name
		}
	}
	if u.PrimaryColor != nil {
		if !validator.ValidBrandColor(*u.PrimaryColor) {
			return models.Branding{}, apperror.Validation(MsgInvalidColor)
		}
		upd.PrimaryColor = u.PrimaryColor
	}
	if u.LogoURL != nil {
		logo := strings.TrimSpace(*u.LogoURL)
		if !s.prober.Accessible(ctx, logo) {
			return models.Branding{}, apperror.Validation(MsgLogoNotAccessible)
		}
		upd.LogoURL = &logo
	}

	h, err := s.store.UpdateBranding(ctx, hostID, upd)
	if err != nil {
		return models.Branding{}, err
	}
	if h == nil {
		return models.Branding{}, apperror.NotFound(MsgHostNotFound)
	}
	s.cache.Invalidate(ctx, h.Subdomain)
	s.logger.Info("branding updated", zap.Int64("host_id", hostID), zap.String("subdomain", h.Subdomain))
	return h.Branding(), nil
}
