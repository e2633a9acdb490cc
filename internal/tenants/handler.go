package tenants

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// Validator resolves a subdomain to a reachable host.
type Validator interface {
	Validate(ctx context.Context, subdomain string) (*models.Host, error)
}

// Handler serves the public subdomain endpoints used by the frontend before login.
type Handler struct {
	cache  Validator
	logger *zap.Logger
}

// NewHandler creates a tenants handler.
func NewHandler(cache Validator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cache: cache, logger: logger}
}

// ValidateResponse is the body of GET /api/public/subdomain/validate.
type ValidateResponse struct {
	Exists       bool             `json:"exists"`
	IsMainDomain bool             `json:"isMainDomain,omitempty"`
	Subdomain    string           `json:"subdomain,omitempty"`
	CompanyName  string           `json:"companyName,omitempty"`
	Branding     *models.Branding `json:"branding,omitempty"`
}

// Validate handles GET /api/public/subdomain/validate.
func (h *Handler) Validate(c *gin.Context) {
	res := reqctx.From(c).Resolution
	if !res.IsSubdomain() {
		response.OK(c, ValidateResponse{Exists: true, IsMainDomain: true})
		return
	}
	host, err := h.cache.Validate(c.Request.Context(), res.Subdomain)
	if err != nil {
		h.logger.Error("subdomain validation failed", zap.String("subdomain", res.Subdomain), zap.Error(err))
		response.ServiceUnavailable(c, "Service temporarily unavailable")
		return
	}
	if host == nil {
		c.JSON(http.StatusNotFound, ValidateResponse{Exists: false, Subdomain: res.Subdomain})
		return
	}
	branding := host.Branding()
	response.OK(c, ValidateResponse{
		Exists:      true,
		Subdomain:   host.Subdomain,
		CompanyName: host.CompanyName,
		Branding:    &branding,
	})
}

// Branding handles GET /api/public/subdomain/branding.
func (h *Handler) Branding(c *gin.Context) {
	res := reqctx.From(c).Resolution
	if !res.IsSubdomain() {
		response.OK(c, models.DefaultBranding())
		return
	}
	host, err := h.cache.Validate(c.Request.Context(), res.Subdomain)
	if err != nil {
		h.logger.Error("branding lookup failed", zap.String("subdomain", res.Subdomain), zap.Error(err))
		response.ServiceUnavailable(c, "Service temporarily unavailable")
		return
	}
	if host == nil {
		c.JSON(http.StatusNotFound, models.DefaultBranding())
		return
	}
	response.OK(c, host.Branding())
}
