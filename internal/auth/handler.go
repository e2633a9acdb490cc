package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/internal/reqctx"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/response"
)

// HostRegisterRequest is the body for POST /api/auth/host/register.
type HostRegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Subdomain   string `json:"subdomain" binding:"required,subdomain"`
	CompanyName string `json:"companyName" binding:"required,max=255"`
}

// LoginRequest is the body for both login endpoints.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// VerifyEmailRequest is the body for the verify-email endpoints.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// ResendVerificationRequest is the body for the resend-verification endpoints.
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ChangePasswordRequest is the body for the change-password endpoints.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8,max=72"`
}

// HostLoginResponse is returned on a successful host login.
type HostLoginResponse struct {
	Token       string `json:"token"`
	UserType    string `json:"userType"`
	HostID      int64  `json:"hostId"`
	Email       string `json:"email"`
	Subdomain   string `json:"subdomain"`
	CompanyName string `json:"companyName"`
}

// UserLoginResponse is returned on a successful participant login.
type UserLoginResponse struct {
	Token     string `json:"token"`
	UserType  string `json:"userType"`
	UserID    int64  `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	HostID    int64  `json:"hostId"`
	Subdomain string `json:"subdomain"`
}

// UnverifiedResponse is the 200 body for a login with an unverified email.
type UnverifiedResponse struct {
	EmailVerified bool   `json:"emailVerified"`
	Email         string `json:"email"`
	Message       string `json:"message"`
}

// HostHandler handles host auth and account endpoints.
type HostHandler struct {
	svc    *HostService
	logger *zap.Logger
}

// NewHostHandler creates a host auth handler.
func NewHostHandler(svc *HostService, logger *zap.Logger) *HostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HostHandler{svc: svc, logger: logger}
}

// Register handles POST /api/auth/host/register.
func (h *HostHandler) Register(c *gin.Context) {
	var req HostRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	res := reqctx.From(c).Resolution
	msg, err := h.svc.Register(c.Request.Context(), RegisterHostInput{
		Email:       req.Email,
		Password:    req.Password,
		Subdomain:   req.Subdomain,
		CompanyName: req.CompanyName,
	}, res.IsMainDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.MessageBody{Message: msg})
}

// Login handles POST /api/auth/host/login. From a tenant subdomain the host must own it.
func (h *HostHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	var requestSubdomain string
	if res := reqctx.From(c).Resolution; res.IsSubdomain() {
		requestSubdomain = res.Subdomain
	}
	outcome, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, requestSubdomain)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeOutcome(c, outcome)
}

// VerifyEmail handles POST /api/auth/host/verify-email.
func (h *HostHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (string, error) {
		return h.svc.VerifyEmail(ctx, req.Email, req.Code)
	})
}

// ResendVerification handles POST /api/auth/host/resend-verification.
func (h *HostHandler) ResendVerification(c *gin.Context) {
	var req ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	respond(c, func(ctx context.Context) (string, error) {
		return h.svc.ResendVerification(ctx, req.Email)
	})
}

// ChangePassword handles POST /api/host/change-password.
func (h *HostHandler) ChangePassword(c *gin.Context) {
	hostID, ok := reqctx.HostID(c)
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
		return h.svc.ChangePassword(ctx, hostID, req.CurrentPassword, req.NewPassword)
	})
}

// DeleteAccount handles DELETE /api/host/account.
func (h *HostHandler) DeleteAccount(c *gin.Context) {
	hostID, ok := reqctx.HostID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return
	}
	if err := h.svc.DeleteAccount(c.Request.Context(), hostID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Account deleted successfully")
}

func respond(c *gin.Context, fn func(ctx context.Context) (string, error)) {
	msg, err := fn(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, msg)
}

func writeOutcome(c *gin.Context, outcome LoginOutcome) {
	switch o := outcome.(type) {
	case *LoginSuccess:
		if o.UserType == models.UserTypeUser && o.UserID != nil {
			response.OK(c, UserLoginResponse{
				Token:     o.Token,
				UserType:  string(o.UserType),
				UserID:    *o.UserID,
				Email:     o.Email,
				FirstName: o.FirstName,
				LastName:  o.LastName,
				HostID:    o.HostID,
				Subdomain: o.Subdomain,
			})
			return
		}
		response.OK(c, HostLoginResponse{
			Token:       o.Token,
			UserType:    string(o.UserType),
			HostID:      o.HostID,
			Email:       o.Email,
			Subdomain:   o.Subdomain,
			CompanyName: o.CompanyName,
		})
	case *LoginEmailUnverified:
		response.OK(c, UnverifiedResponse{EmailVerified: false, Email: o.Email, Message: MsgVerifyEmail})
	case *LoginFailed:
		if o.Reason == ReasonSubdomainMismatch {
			response.Error(c, apperror.SubdomainMismatch(o.Message))
			return
		}
		response.Error(c, apperror.InvalidCredentials(o.Message))
	default:
		response.Internal(c, "An unexpected error occurred")
	}
}
