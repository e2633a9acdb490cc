package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var codeSpan = big.NewInt(900000)

// VerificationCode returns a random six digit code in [100000, 999999].
func VerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
