package models

// UserType is the account kind carried in tokens.
type UserType string

const (
	UserTypeHost UserType = "HOST"
	UserTypeUser UserType = "USER"
)

// Valid reports whether t is a known account kind.
func (t UserType) Valid() bool {
	return t == UserTypeHost || t == UserTypeUser
}
