package users

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// Handler handles the host user listing.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// ListQuery is the query string of GET /api/host/users.
type ListQuery struct {
	Page          int    `form:"page"`
	Size          int    `form:"size"`
	SortBy        string `form:"sortBy"`
	SortOrder     string `form:"sortOrder"`
	GiveawayID    *int64 `form:"giveawayId"`
	EmailVerified *bool  `form:"emailVerified"`
	EmailOptIn    *bool  `form:"emailOptIn"`
	SMSOptIn      *bool  `form:"smsOptIn"`
}

// List handles GET /api/host/users.
func (h *Handler) List(c *gin.Context) {
	hostID, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	page := models.NormalizePage(q.Page, q.Size, DefaultPageSize, MaxPageSize)
	f := Filter{GiveawayID: q.GiveawayID, EmailVerified: q.EmailVerified, EmailOptIn: q.EmailOptIn, SMSOptIn: q.SMSOptIn}

	result, err := h.svc.List(c.Request.Context(), hostID, f, ParseSort(q.SortBy, q.SortOrder), page)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.logger.Debug("listed users", zap.Int64("host_id", hostID), zap.Int("page", page.Page), zap.Int64("total", result.TotalItems))
	response.OK(c, result)
}
