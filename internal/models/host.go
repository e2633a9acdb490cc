package models

import "time"

// DefaultPrimaryColor is the brand color used when a host has not set one.
const DefaultPrimaryColor = "#FFFF00"

// Host is a tenant. It owns exactly one subdomain.
type Host struct {
	ID                        int64      `json:"id"`
	Subdomain                 string     `json:"subdomain"`
	CompanyName               string     `json:"companyName"`
	Email                     string     `json:"email"`
	PasswordHash              string     `json:"-"`
	LogoURL                   *string    `json:"logoUrl,omitempty"`
	PrimaryColor              *string    `json:"primaryColor,omitempty"`
	EmailVerified             bool       `json:"emailVerified"`
	VerificationCode          *string    `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`
	IsActive                  bool       `json:"isActive"`
	CreatedAt                 time.Time  `json:"createdAt"`
	UpdatedAt                 time.Time  `json:"updatedAt"`
}

// Reachable reports whether the host's subdomain should serve traffic.
func (h *Host) Reachable() bool {
	return h != nil && h.EmailVerified
}

// Clone returns a deep copy so cached hosts cannot be mutated by callers.
func (h *Host) Clone() *Host {
	if h == nil {
		return nil
	}
	c := *h
	c.LogoURL = cloneString(h.LogoURL)
	c.PrimaryColor = cloneString(h.PrimaryColor)
	c.VerificationCode = cloneString(h.VerificationCode)
	if h.VerificationCodeExpiresAt != nil {
		t := *h.VerificationCodeExpiresAt
		c.VerificationCodeExpiresAt = &t
	}
	return &c
}

// Branding is the public look of a tenant.
type Branding struct {
	LogoURL      *string `json:"logoUrl"`
	PrimaryColor string  `json:"primaryColor"`
}

// DefaultBranding is returned when no tenant applies.
func DefaultBranding() Branding {
	return Branding{PrimaryColor: DefaultPrimaryColor}
}

// Branding returns the host's branding with defaults applied.
func (h *Host) Branding() Branding {
	b := DefaultBranding()
	if h == nil {
		return b
	}
	b.LogoURL = cloneString(h.LogoURL)
	if h.PrimaryColor != nil && *h.PrimaryColor != "" {
		b.PrimaryColor = *h.PrimaryColor
	}
	return b
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
