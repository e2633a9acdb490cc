package auth

import "github.com/sweepgoat/backend/internal/models"

// LoginOutcome is the result of a login attempt: *LoginSuccess, *LoginEmailUnverified or *LoginFailed.
type LoginOutcome interface {
	outcome() string
}

// LoginSuccess carries the issued token and the account summary.
type LoginSuccess struct {
	Token       string
	UserType    models.UserType
	HostID      int64
	UserID      *int64
	Email       string
	Subdomain   string
	CompanyName string
	FirstName   string
	LastName    string
}

// LoginEmailUnverified means the credentials matched but the email is not verified yet.
type LoginEmailUnverified struct {
	Email string
}

// FailureReason says why a login was refused.
type FailureReason int

const (
	ReasonInvalidCredentials FailureReason = iota
	ReasonDeactivated
	ReasonSubdomainMismatch
)

// LoginFailed refuses the login with a client-safe message.
type LoginFailed struct {
	Reason  FailureReason
	Message string
}

func (*LoginSuccess) outcome() string         { return "success" }
func (*LoginEmailUnverified) outcome() string { return "email_unverified" }

func (f *LoginFailed) outcome() string {
	switch f.Reason {
	case ReasonDeactivated:
		return "deactivated"
	case ReasonSubdomainMismatch:
		return "subdomain_mismatch"
	default:
		return "invalid_credentials"
	}
}

// Login messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgDeactivated        = "This account has been deactivated"
	MsgVerifyEmail        = "Please verify your email to continue"
)

func invalidCredentials() *LoginFailed {
	return &LoginFailed{Reason: ReasonInvalidCredentials, Message: MsgInvalidCredentials}
}
