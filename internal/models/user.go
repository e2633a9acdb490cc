package models

import "time"

// User is a participant registered on one host's subdomain.
type User struct {
	ID                        int64      `json:"id"`
	HostID                    int64      `json:"hostId"`
	Email                     string     `json:"email"`
	FirstName                 string     `json:"firstName"`
	LastName                  string     `json:"lastName"`
	PhoneNumber               string     `json:"phoneNumber"`
	PasswordHash              string     `json:"-"`
	EmailOptIn                bool       `json:"emailOptIn"`
	SMSOptIn                  bool       `json:"smsOptIn"`
	EmailVerified             bool       `json:"emailVerified"`
	VerificationCode          *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	LastLoginAt               *time.Time `json:"lastLoginAt"`
	IsActive                  bool       `json:"isActive"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

// UserListItem is User without sensitive fields for host listings.
type UserListItem struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	PhoneNumber   string     `json:"phoneNumber"`
	EmailVerified bool       `json:"emailVerified"`
	EmailOptIn    bool       `json:"emailOptIn"`
	SMSOptIn      bool       `json:"smsOptIn"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
}

// ToListItem converts User to UserListItem.
func (u *User) ToListItem() UserListItem {
	return UserListItem{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		EmailVerified: u.EmailVerified,
		EmailOptIn:    u.EmailOptIn,
		SMSOptIn:      u.SMSOptIn,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}
