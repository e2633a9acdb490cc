package giveaways

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// CreateRequest is the body for POST /api/host/giveaways.
type CreateRequest struct {
	Title       string    `json:"title" binding:"required,max=255"`
	Description string    `json:"description" binding:"max=5000"`
	ImageURL    *string   `json:"imageUrl" binding:"omitempty,url"`
	EndDate     time.Time `json:"endDate" binding:"required"`
}

// ListQuery is the query string of GET /api/public/giveaways.
type ListQuery struct {
	Page   int    `form:"page"`
	Size   int    `form:"size"`
	Status string `form:"status"`
}

// Handler handles giveaway endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a giveaways handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// publicHost returns the tenant of the request; the main domain has none.
func publicHost(c *gin.Context) (int64, bool) {
	tenant := reqctx.Tenant(c)
	if tenant == nil {
		response.NotFound(c, "Host not found")
		return 0, false
	}
	return tenant.ID, true
}

func hostID(c *gin.Context) (int64, bool) {
	id, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
	}
	return id, ok
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid giveaway id")
		return 0, false
	}
	return id, true
}

// PublicList handles GET /api/public/giveaways.
func (h *Handler) PublicList(c *gin.Context) {
	hid, ok := publicHost(c)
	if !ok {
		return
	}
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	var status *models.GiveawayStatus
	if q.Status != "" {
		st := models.GiveawayStatus(strings.ToUpper(q.Status))
		if !st.Valid() {
			response.BadRequest(c, "status must be one of: ACTIVE, ENDED, CANCELLED")
			return
		}
		status = &st
	}
	page, err := h.svc.PublicList(c.Request.Context(), hid, status, models.NormalizePage(q.Page, q.Size, DefaultPageSize, MaxPageSize))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// PublicActive handles GET /api/public/giveaways/active.
func (h *Handler) PublicActive(c *gin.Context) {
	hid, ok := publicHost(c)
	if !ok {
		return
	}
	list, err := h.svc.Active(c.Request.Context(), hid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// PublicGet handles GET /api/public/giveaways/:id.
func (h *Handler) PublicGet(c *gin.Context) {
	hid, ok := publicHost(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.PublicDetails(c.Request.Context(), hid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// List handles GET /api/host/giveaways.
func (h *Handler) List(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	list, err := h.svc.All(c.Request.Context(), hid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListActive handles GET /api/host/giveaways/active.
func (h *Handler) ListActive(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	list, err := h.svc.Active(c.Request.Context(), hid)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/host/giveaways/:id.
func (h *Handler) Get(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	d, err := h.svc.Details(c.Request.Context(), hid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, d)
}

// Stats handles GET /api/host/giveaways/:id/stats.
func (h *Handler) Stats(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, err := h.svc.Stats(c.Request.Context(), hid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, st)
}

// Entries handles GET /api/host/giveaways/:id/entries.
func (h *Handler) Entries(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	list, err := h.svc.Leaderboard(c.Request.Context(), hid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/host/giveaways.
func (h *Handler) Create(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	d, err := h.svc.Create(c.Request.Context(), hid, CreateInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		EndDate:     req.EndDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

// Delete handles DELETE /api/host/giveaways/:id.
func (h *Handler) Delete(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), hid, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Giveaway deleted successfully")
}

// SelectWinner handles POST /api/host/giveaways/:id/select-winner.
func (h *Handler) SelectWinner(c *gin.Context) {
	hid, ok := hostID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	w, err := h.svc.SelectWinner(c.Request.Context(), hid, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, w)
}
