package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/response"
)

// MsgSubdomainOnly answers participant auth calls made on the main domain.
const MsgSubdomainOnly = "User accounts are only available on a host subdomain"

// UserRegisterRequest is the body for POST /api/auth/user/register.
type UserRegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	FirstName   string `json:"firstName" binding:"required,max=100"`
	LastName    string `json:"lastName" binding:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" binding:"max=32"`
	EmailOptIn  *bool  `json:"emailOptIn"`
	SMSOptIn    *bool  `json:"smsOptIn"`
}

// UserHandler handles participant auth and account endpoints.
type UserHandler struct {
	svc    *UserService
	logger *zap.Logger
}

// NewUserHandler creates a participant auth handler.
func NewUserHandler(svc *UserService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{svc: svc, logger: logger}
}

// tenant returns the host whose subdomain served the request, answering the request itself when there is none.
func (h *UserHandler) tenant(c *gin.Context) (*models.Host, bool) {
	rc := reqctx.From(c)
	if !rc.Resolution.IsSubdomain() {
		response.Forbidden(c, MsgSubdomainOnly)
		return nil, false
	}
	if rc.Tenant == nil {
		response.NotFound(c, "This site cannot be reached")
		return nil, false
	}
	return rc.Tenant, true
}

// Register handles POST /api/auth/user/register.
func (h *UserHandler) Register(c *gin.Context) {
	tenant, ok := h.tenant(c)
	if !ok {
		return
	}
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	msg, err := h.svc.Register(c.Request.Context(), tenant, RegisterUserInput{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		EmailOptIn:  req.EmailOptIn != nil && *req.EmailOptIn,
		SMSOptIn:    req.SMSOptIn != nil && *req.SMSOptIn,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.MessageBody{Message: msg})
}

// Login handles POST /api/auth/user/login.
func (h *UserHandler) Login(c *gin.Context) {
	tenant, ok := h.tenant(c)
	if !ok {
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	outcome, err := h.svc.Login(c.Request.Context(), tenant, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeOutcome(c, outcome)
}

// VerifyEmail handles POST /api/auth/user/verify-email.
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	tenant, ok := h.tenant(c)
	if !ok {
		return
	}
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (string, error) {
		return h.svc.VerifyEmail(ctx, tenant, req.Email, req.Code)
	})
}

// ResendVerification handles POST /api/auth/user/resend-verification.
func (h *UserHandler) ResendVerification(c *gin.Context) {
	tenant, ok := h.tenant(c)
	if !ok {
		return
	}
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (string, error) {
		return h.svc.ResendVerification(ctx, tenant, req.Email)
	})
}

// ChangePassword handles POST /api/user/change-password.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := reqctx.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (string, error) {
		return h.svc.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	})
}

// DeleteAccount handles DELETE /api/user/account.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := reqctx.UserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.svc.DeleteAccount(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Account deleted successfully")
}
