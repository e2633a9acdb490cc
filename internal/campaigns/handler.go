package campaigns

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/internal/users"
	"github.com/sweepgoat/backend/pkg/response"
)

// SendRequest is the body of POST /api/host/campaigns/send.
type SendRequest struct {
	Name          string `json:"name" binding:"required,max=255"`
	Type          string `json:"type" binding:"required,oneof=EMAIL SMS BOTH"`
	Subject       string `json:"subject"`
	Message       string `json:"message" binding:"required"`
	GiveawayID    *int64 `json:"giveawayId"`
	EmailVerified *bool  `json:"emailVerified"`
	EmailOptIn    *bool  `json:"emailOptIn"`
	SMSOptIn      *bool  `json:"smsOptIn"`
	SortBy        string `json:"sortBy"`
	SortOrder     string `json:"sortOrder"`
}

// Handler serves host campaign endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a campaigns handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func hostID(c *gin.Context) (int64, bool) {
	id, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
	}
	return id, ok
}

// Send handles POST /api/host/campaigns/send.
func (h *Handler) Send(c *gin.Context) {
	host, ok := hostID(c)
	if !ok {
		return
	}
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.svc.Send(c.Request.Context(), host, SendInput{
		Name:    req.Name,
		Type:    req.Type,
		Subject: req.Subject,
		Message: req.Message,
		Filter: users.Filter{
			GiveawayID:    req.GiveawayID,
			EmailVerified: req.EmailVerified,
			EmailOptIn:    req.EmailOptIn,
			SMSOptIn:      req.SMSOptIn,
		},
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// List handles GET /api/host/campaigns.
func (h *Handler) List(c *gin.Context) {
	host, ok := hostID(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), host)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/host/campaigns/:id.
func (h *Handler) Get(c *gin.Context) {
	host, ok := hostID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid campaign id")
		return
	}
	d, err := h.svc.Details(c.Request.Context(), host, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}
