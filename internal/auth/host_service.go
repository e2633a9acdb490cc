package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/email"
	"github.com/sweepgoat/backend/pkg/metrics"
	"github.com/sweepgoat/backend/pkg/utils"
	"github.com/sweepgoat/backend/pkg/validator"
)

// Account messages shared by hosts and users.
const (
	MsgRegistered          = "Registration successful! Check your email for a 6-digit verification code."
	MsgAlreadyVerified     = "Email is already verified"
	MsgVerified            = "Email verified successfully! You can now log in."
	MsgCodeSent            = "Verification code sent! Check your email."
	MsgInvalidCode         = "Invalid verification code"
	MsgCodeExpired         = "Verification code has expired. Please request a new one."
	MsgWrongPassword       = "Current password is incorrect"
	MsgSamePassword        = "New password must be different from current password"
	MsgPasswordChanged     = "Password changed successfully!"
	MsgRegisterMainOnly    = "Host registration is only available on the main domain"
	MsgInvalidSubdomain    = "Subdomain must be 2-63 lowercase letters, digits or hyphens and cannot be www"
	defaultVerificationTTL = 24 * time.Hour
)

// HostStore is the subset of the tenant directory the host account flows need.
type HostStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Host, error)
	FindByID(ctx context.Context, id int64) (*models.Host, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)
	Create(ctx context.Context, h *models.Host) error
	SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// CacheInvalidator drops a subdomain from the validation cache.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, subdomain string)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(plain, hashed string) bool
}

// Options tunes the account services.
type Options struct {
	BaseDomain      string
	CodeTTL         time.Duration
	AutoVerifyUsers bool
}

// RegisterHostInput is a normalized host registration.
type RegisterHostInput struct {
	Email       string
	Password    string
	Subdomain   string
	CompanyName string
}

// HostService implements host registration, login and account management.
type HostService struct {
	hosts   HostStore
	tokens  *TokenService
	hasher  PasswordHasher
	mailer  email.Sender
	cache   CacheInvalidator
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    Options
	newCode func() (string, error)
	now     func() time.Time
}

// NewHostService creates a host account service.
func NewHostService(hosts HostStore, tokens *TokenService, hasher PasswordHasher, mailer email.Sender,
	cache CacheInvalidator, m *metrics.Metrics, opts Options, logger *zap.Logger) *HostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = defaultVerificationTTL
	}
	return &HostService{
		hosts: hosts, tokens: tokens, hasher: hasher, mailer: mailer, cache: cache,
		metrics: m, logger: logger, opts: opts,
		newCode: utils.VerificationCode,
		now:     time.Now,
	}
}

// Register creates an unverified host and emails a verification code.
// It is only allowed from the main domain.
func (s *HostService) Register(ctx context.Context, in RegisterHostInput, fromMainDomain bool) (string, error) {
	if !fromMainDomain {
		return "", apperror.InvalidDomain(MsgRegisterMainOnly)
	}
	in.Email = utils.NormalizeEmail(in.Email)
	in.Subdomain = strings.ToLower(strings.TrimSpace(in.Subdomain))
	if !validator.ValidSubdomain(in.Subdomain) {
		return "", apperror.Validation(MsgInvalidSubdomain)
	}

	exists, err := s.hosts.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperror.Duplicate("A host with this email already exists")
	}
	exists, err = s.hosts.ExistsBySubdomain(ctx, in.Subdomain)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperror.Duplicate("This subdomain is already taken")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(s.opts.CodeTTL)
	host := &models.Host{
		Subdomain:                 in.Subdomain,
		CompanyName:               in.CompanyName,
		Email:                     in.Email,
		PasswordHash:              hash,
		VerificationCode:          &code,
		VerificationCodeExpiresAt: &expires,
	}
	// the unique constraints catch a concurrent registration that passed the checks above
	if err := s.hosts.Create(ctx, host); err != nil {
		return "", err
	}
	s.logger.Info("host registered", zap.Int64("host_id", host.ID), zap.String("subdomain", host.Subdomain))
	s.sendCode(ctx, host.Email, code)
	return MsgRegistered, nil
}

// Login checks credentials and, when requestSubdomain is set, that it is the host's own subdomain.
func (s *HostService) Login(ctx context.Context, emailAddr, password, requestSubdomain string) (LoginOutcome, error) {
	outcome, err := s.login(ctx, utils.NormalizeEmail(emailAddr), password, requestSubdomain)
	if err == nil {
		s.metrics.LoginOutcome(string(models.UserTypeHost), outcome.outcome())
	}
	return outcome, err
}

func (s *HostService) login(ctx context.Context, emailAddr, password, requestSubdomain string) (LoginOutcome, error) {
	host, err := s.hosts.FindByEmail(ctx, emailAddr)
	if err != nil {
		return nil, err
	}
	if host == nil || !s.hasher.Check(password, host.PasswordHash) {
		return invalidCredentials(), nil
	}
	if !host.IsActive {
		return &LoginFailed{Reason: ReasonDeactivated, Message: MsgDeactivated}, nil
	}
	if !host.EmailVerified {
		return &LoginEmailUnverified{Email: host.Email}, nil
	}
	if requestSubdomain != "" && !strings.EqualFold(requestSubdomain, host.Subdomain) {
		s.logger.Warn("host login from foreign subdomain",
			zap.Int64("host_id", host.ID), zap.String("request_subdomain", requestSubdomain))
		return &LoginFailed{
			Reason: ReasonSubdomainMismatch,
			Message: fmt.Sprintf("Cannot log in from subdomain '%s'. Please log in from '%s.%s' or the main domain.",
				requestSubdomain, host.Subdomain, s.opts.BaseDomain),
		}, nil
	}
	token, err := s.tokens.IssueHostToken(host.Email, host.ID)
	if err != nil {
		return nil, fmt.Errorf("issue host token: %w", err)
	}
	return &LoginSuccess{
		Token:       token,
		UserType:    models.UserTypeHost,
		HostID:      host.ID,
		Email:       host.Email,
		Subdomain:   host.Subdomain,
		CompanyName: host.CompanyName,
	}, nil
}

// VerifyEmail confirms the code. The cache is invalidated after the update commits so the
// subdomain becomes reachable immediately.
func (s *HostService) VerifyEmail(ctx context.Context, emailAddr, code string) (string, error) {
	host, err := s.hosts.FindByEmail(ctx, utils.NormalizeEmail(emailAddr))
	if err != nil {
		return "", err
	}
	if host == nil {
		return "", apperror.NotFound("Host not found")
	}
	if host.EmailVerified {
		return MsgAlreadyVerified, nil
	}
	if err := checkCode(code, host.VerificationCode, host.VerificationCodeExpiresAt, s.now()); err != nil {
		return "", err
	}
	if err := s.hosts.MarkVerified(ctx, host.ID); err != nil {
		return "", err
	}
	s.cache.Invalidate(ctx, host.Subdomain)
	s.logger.Info("host email verified", zap.Int64("host_id", host.ID), zap.String("subdomain", host.Subdomain))
	return MsgVerified, nil
}

// ResendVerification issues a fresh code.
func (s *HostService) ResendVerification(ctx context.Context, emailAddr string) (string, error) {
	host, err := s.hosts.FindByEmail(ctx, utils.NormalizeEmail(emailAddr))
	if err != nil {
		return "", err
	}
	if host == nil {
		return "", apperror.NotFound("Host not found")
	}
	if host.EmailVerified {
		return MsgAlreadyVerified, nil
	}
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	if err := s.hosts.SetVerificationCode(ctx, host.ID, code, s.now().Add(s.opts.CodeTTL)); err != nil {
		return "", err
	}
	s.sendCode(ctx, host.Email, code)
	return MsgCodeSent, nil
}

// ChangePassword replaces the host's password after checking the current one.
func (s *HostService) ChangePassword(ctx context.Context, hostID int64, current, next string) (string, error) {
	host, err := s.hosts.FindByID(ctx, hostID)
	if err != nil {
		return "", err
	}
	if host == nil {
		return "", apperror.NotFound("Host not found")
	}
	hash, err := newPasswordHash(s.hasher, host.PasswordHash, current, next)
	if err != nil {
		return "", err
	}
	if err := s.hosts.UpdatePassword(ctx, hostID, hash); err != nil {
		return "", err
	}
	return MsgPasswordChanged, nil
}

// DeleteAccount removes the host and all tenant data.
func (s *HostService) DeleteAccount(ctx context.Context, hostID int64) error {
	host, err := s.hosts.FindByID(ctx, hostID)
	if err != nil {
		return err
	}
	if host == nil {
		return apperror.NotFound("Host not found")
	}
	if err := s.hosts.Delete(ctx, hostID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, host.Subdomain)
	s.logger.Info("host deleted", zap.Int64("host_id", hostID), zap.String("subdomain", host.Subdomain))
	return nil
}

func (s *HostService) sendCode(ctx context.Context, to, code string) {
	hours := int(s.opts.CodeTTL / time.Hour)
	if _, err := s.mailer.Send(ctx, email.VerificationMessage(to, code, hours)); err != nil {
		s.logger.Error("verification email failed", zap.String("to", to), zap.Error(err))
	}
}

func checkCode(given string, stored *string, expiresAt *time.Time, now time.Time) error {
	if stored == nil || subtle.ConstantTimeCompare([]byte(given), []byte(*stored)) != 1 {
		return apperror.InvalidVerificationCode(MsgInvalidCode)
	}
	if expiresAt == nil || expiresAt.Before(now) {
		return apperror.InvalidVerificationCode(MsgCodeExpired)
	}
	return nil
}

func newPasswordHash(h PasswordHasher, currentHash, current, next string) (string, error) {
	if !h.Check(current, currentHash) {
		return "", apperror.InvalidCredentials(MsgWrongPassword)
	}
	if current == next {
		return "", apperror.InvalidCredentials(MsgSamePassword)
	}
	hash, err := h.Hash(next)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
