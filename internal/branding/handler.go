package branding

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// UpdateRequest is the body of PATCH /api/host/branding.
type UpdateRequest struct {
	CompanyName  *string `json:"companyName" binding:"omitempty,max=255"`
	LogoURL      *string `json:"logoUrl" binding:"omitempty,max=2048"`
	PrimaryColor *string `json:"primaryColor" binding:"omitempty,brandcolor"`
}

// Handler serves the host branding endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a branding handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Get handles GET /api/host/branding.
func (h *Handler) Get(c *gin.Context) {
	hostID, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	b, err := h.svc.Get(c.Request.Context(), hostID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, b)
}

// Update handles PATCH /api/host/branding.
func (h *Handler) Update(c *gin.Context) {
	hostID, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	b, err := h.svc.Update(c.Request.Context(), hostID, Update{
		CompanyName:  req.CompanyName,
		LogoURL:      req.LogoURL,
		PrimaryColor: req.PrimaryColor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, b)
}
