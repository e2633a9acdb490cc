package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/apperror"
	"github.com/sweepgoat/backend/pkg/email"
	"github.com/sweepgoat/backend/pkg/metrics"
	"github.com/sweepgoat/backend/pkg/utils"
)

// User account messages.
const (
	MsgRegisteredAutoVerified = "Registration successful! Email automatically verified (dev mode). You can now login."
	MsgUserCodeSent           = "New verification code sent to your email!"
	MsgHostAsUser             = "Host cannot register as a user on their own subdomain"
	MsgUserExists             = "A user with this email already exists on this subdomain"
)

// UserStore is the subset of the users repository the participant account flows need.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByEmailAndHost(ctx context.Context, email string, hostID int64) (*models.User, error)
	ExistsByEmailAndHost(ctx context.Context, email string, hostID int64) (bool, error)
	SetVerificationCode(ctx context.Context, id int64, code string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	Delete(ctx context.Context, id int64) error
}

// RegisterUserInput is a participant registration on a tenant subdomain.
type RegisterUserInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber string
	EmailOptIn  bool
	SMSOptIn    bool
}

// UserService implements participant registration, login and account management.
// Every operation is scoped to the tenant resolved from the request subdomain.
type UserService struct {
	users   UserStore
	tokens  *TokenService
	hasher  PasswordHasher
	mailer  email.Sender
	metrics *metrics.Metrics
	logger  *zap.Logger
	opts    Options
	newCode func() (string, error)
	now     func() time.Time
}

// NewUserService creates a participant account service.
func NewUserService(users UserStore, tokens *TokenService, hasher PasswordHasher, mailer email.Sender,
	m *metrics.Metrics, opts Options, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = defaultVerificationTTL
	}
	return &UserService{
		users: users, tokens: tokens, hasher: hasher, mailer: mailer,
		metrics: m, logger: logger, opts: opts,
		newCode: utils.VerificationCode,
		now:     time.Now,
	}
}

// Register creates a participant on tenant.
func (s *UserService) Register(ctx context.Context, tenant *models.Host, in RegisterUserInput) (string, error) {
	in.Email = utils.NormalizeEmail(in.Email)
	if utils.NormalizeEmail(tenant.Email) == in.Email {
		return "", apperror.Duplicate(MsgHostAsUser)
	}
	exists, err := s.users.ExistsByEmailAndHost(ctx, in.Email, tenant.ID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperror.Duplicate(MsgUserExists)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		HostID:       tenant.ID,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		EmailOptIn:   in.EmailOptIn,
		SMSOptIn:     in.SMSOptIn,
	}
	var code string
	if s.opts.AutoVerifyUsers {
		u.EmailVerified = true
	} else {
		if code, err = s.newCode(); err != nil {
			return "", err
		}
		expires := s.now().Add(s.opts.CodeTTL)
		u.VerificationCode = &code
		u.VerificationCodeExpiresAt = &expires
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", err
	}
	s.logger.Info("user registered",
		zap.Int64("user_id", u.ID), zap.Int64("host_id", tenant.ID), zap.Bool("auto_verified", u.EmailVerified))

	if s.opts.AutoVerifyUsers {
		return MsgRegisteredAutoVerified, nil
	}
	s.sendCode(ctx, u.Email, code)
	return MsgRegistered, nil
}

// Login authenticates a participant of tenant. Lookups are by (email, host), so a user of
// another tenant can never log in here.
func (s *UserService) Login(ctx context.Context, tenant *models.Host, emailAddr, password string) (LoginOutcome, error) {
	outcome, err := s.login(ctx, tenant, utils.NormalizeEmail(emailAddr), password)
	if err == nil {
		s.metrics.LoginOutcome(string(models.UserTypeUser), outcome.outcome())
	}
	return outcome, err
}

func (s *UserService) login(ctx context.Context, tenant *models.Host, emailAddr, password string) (LoginOutcome, error) {
	u, err := s.users.FindByEmailAndHost(ctx, emailAddr, tenant.ID)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.hasher.Check(password, u.PasswordHash) {
		return invalidCredentials(), nil
	}
	if !u.IsActive {
		return &LoginFailed{Reason: ReasonDeactivated, Message: MsgDeactivated}, nil
	}
	if !u.EmailVerified {
		return &LoginEmailUnverified{Email: u.Email}, nil
	}
	if err := s.users.TouchLastLogin(ctx, u.ID, s.now()); err != nil {
		return nil, err
	}
	token, err := s.tokens.IssueUserToken(u.Email, u.ID, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("issue user token: %w", err)
	}
	userID := u.ID
	return &LoginSuccess{
		Token:       token,
		UserType:    models.UserTypeUser,
		HostID:      tenant.ID,
		UserID:      &userID,
		Email:       u.Email,
		Subdomain:   tenant.Subdomain,
		CompanyName: tenant.CompanyName,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}, nil
}

// VerifyEmail confirms a participant's code.
func (s *UserService) VerifyEmail(ctx context.Context, tenant *models.Host, emailAddr, code string) (string, error) {
	u, err := s.find(ctx, tenant, emailAddr)
	if err != nil {
		return "", err
	}
	if u.EmailVerified {
		return MsgAlreadyVerified, nil
	}
	if err := checkCode(code, u.VerificationCode, u.VerificationCodeExpiresAt, s.now()); err != nil {
		return "", err
	}
	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return "", err
	}
	return MsgVerified, nil
}

// ResendVerification issues a fresh code to an unverified participant.
func (s *UserService) ResendVerification(ctx context.Context, tenant *models.Host, emailAddr string) (string, error) {
	u, err := s.find(ctx, tenant, emailAddr)
	if err != nil {
		return "", err
	}
	if u.EmailVerified {
		return MsgAlreadyVerified, nil
	}
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	if err := s.users.SetVerificationCode(ctx, u.ID, code, s.now().Add(s.opts.CodeTTL)); err != nil {
		return "", err
	}
	s.sendCode(ctx, u.Email, code)
	return MsgUserCodeSent, nil
}

// ChangePassword replaces the participant's password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, current, next string) (string, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", apperror.NotFound("User not found")
	}
	hash, err := newPasswordHash(s.hasher, u.PasswordHash, current, next)
	if err != nil {
		return "", err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return "", err
	}
	return MsgPasswordChanged, nil
}

// DeleteAccount removes the participant and their entries.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return apperror.NotFound("User not found")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.Int64("user_id", userID), zap.Int64("host_id", u.HostID))
	return nil
}

func (s *UserService) find(ctx context.Context, tenant *models.Host, emailAddr string) (*models.User, error) {
	u, err := s.users.FindByEmailAndHost(ctx, utils.NormalizeEmail(emailAddr), tenant.ID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperror.NotFound("User not found")
	}
	return u, nil
}

func (s *UserService) sendCode(ctx context.Context, to, code string) {
	hours := int(s.opts.CodeTTL / time.Hour)
	if _, err := s.mailer.Send(ctx, email.VerificationMessage(to, code, hours)); err != nil {
		s.logger.Error("verification email failed", zap.String("to", to), zap.Error(err))
	}
}
