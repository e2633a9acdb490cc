package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares plain password with hashed password in constant time.
func CheckPassword(plain, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// PasswordHasher adapts the package functions to the interface services depend on.
type PasswordHasher struct{}

func (PasswordHasher) Hash(plain string) (string, error) { return HashPassword(plain) }
func (PasswordHasher) Check(plain, hashed string) bool  { return CheckPassword(plain, hashed) }
