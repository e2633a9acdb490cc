package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sweepgoat/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Claims holds the token payload. Subject is the account email.
type Claims struct {
	UserType models.UserType `json:"userType"`
	HostID   int64           `json:"hostId"`
	// UserID is present on USER tokens only.
	UserID *int64 `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 tokens. It keeps no state between calls.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service.
func NewTokenService(secret string, expireHours int) *TokenService {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    time.Duration(expireHours) * time.Hour,
		now:    time.Now,
	}
}

// IssueHostToken creates a HOST token.
func (s *TokenService) IssueHostToken(email string, hostID int64) (string, error) {
	return s.issue(email, models.UserTypeHost, hostID, nil)
}

// IssueUserToken creates a USER token bound to the user's host.
func (s *TokenService) IssueUserToken(email string, userID, hostID int64) (string, error) {
	return s.issue(email, models.UserTypeUser, hostID, &userID)
}

func (s *TokenService) issue(email string, userType models.UserType, hostID int64, userID *int64) (string, error) {
	now := s.now()
	claims := Claims{
		UserType: userType,
		HostID:   hostID,
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse validates signature, expiry and claim shape. Every failure is ErrInvalidToken.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || !claims.wellFormed() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Claims) wellFormed() bool {
	if c.Subject == "" || c.HostID <= 0 {
		return false
	}
	switch c.UserType {
	case models.UserTypeHost:
		return c.UserID == nil
	case models.UserTypeUser:
		return c.UserID != nil && *c.UserID > 0
	default:
		return false
	}
}

// Verify reports whether the token parses.
func (s *TokenService) Verify(tokenString string) bool {
	_, err := s.Parse(tokenString)
	return err == nil
}

// ExtractUsername returns the email the token was issued to.
func (s *TokenService) ExtractUsername(tokenString string) (string, error) {
	c, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return c.Subject, nil
}

// ExtractUserType returns HOST or USER.
func (s *TokenService) ExtractUserType(tokenString string) (models.UserType, error) {
	c, err := s.Parse(tokenString)
	if err != nil {
		return "", err
	}
	return c.UserType, nil
}

// ExtractHostID returns the tenant the token is bound to.
func (s *TokenService) ExtractHostID(tokenString string) (int64, error) {
	c, err := s.Parse(tokenString)
	if err != nil {
		return 0, err
	}
	return c.HostID, nil
}

// ExtractUserID returns the user ID, nil for HOST tokens.
func (s *TokenService) ExtractUserID(tokenString string) (*int64, error) {
	c, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	return c.UserID, nil
}
