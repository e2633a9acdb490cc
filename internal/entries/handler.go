package entries

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// AddEntriesRequest is the body for POST /api/user/giveaways/:id/enter.
type AddEntriesRequest struct {
	Points int `json:"points" binding:"required,max=1000000"`
}

// HistoryQuery is the query string of GET /api/user/my-giveaway-entries.
type HistoryQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

// Handler handles participant entry endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an entries handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func userAndGiveaway(c *gin.Context) (int64, int64, bool) {
	userID, ok := reqctx.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return 0, 0, false
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid giveaway id")
		return 0, 0, false
	}
	return userID, id, true
}

// ClaimFree handles POST /api/user/giveaways/:id/enter/free.
func (h *Handler) ClaimFree(c *gin.Context) {
	userID, giveawayID, ok := userAndGiveaway(c)
	if !ok {
		return
	}
	res, err := h.svc.ClaimFreeEntry(c.Request.Context(), userID, giveawayID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// Enter handles POST /api/user/giveaways/:id/enter.
func (h *Handler) Enter(c *gin.Context) {
	userID, giveawayID, ok := userAndGiveaway(c)
	if !ok {
		return
	}
	var req AddEntriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res, err := h.svc.AddRegularEntries(c.Request.Context(), userID, giveawayID, req.Points)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}

// MyEntries handles GET /api/user/my-entries.
func (h *Handler) MyEntries(c *gin.Context) {
	userID, ok := reqctx.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	list, err := h.svc.MyEntries(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// History handles GET /api/user/my-giveaway-entries.
func (h *Handler) History(c *gin.Context) {
	userID, ok := reqctx.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	page, err := h.svc.History(c.Request.Context(), userID, models.NormalizePage(q.Page, q.Size, DefaultPageSize, MaxPageSize))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}
