package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSubdomain(t *testing.T) {
	for _, s := range []string{"acme", "a1", "my-shop", "x0-9"} {
		assert.True(t, ValidSubdomain(s), s)
	}
	for _, s := range []string{"", "a", "www", "-acme", "acme-", "ACME", "ac_me", "ac.me"} {
		assert.False(t, ValidSubdomain(s), s)
	}
}

func TestValidBrandColor(t *testing.T) {
	assert.True(t, ValidBrandColor("#FFFF00"))
	assert.True(t, ValidBrandColor("#0af"))
	assert.False(t, ValidBrandColor("FFFF00"))
	assert.False(t, ValidBrandColor("#12345"))
	assert.False(t, ValidBrandColor("#GGGGGG"))
}

type signup struct {
	Email     string `json:"email" validate:"required,email"`
	Subdomain string `json:"subdomain" validate:"required,subdomain"`
	Color     string `json:"primaryColor" validate:"omitempty,brandcolor"`
	Code      string `json:"code" validate:"omitempty,len=6,numeric"`
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.Struct(signup{Email: "nope", Subdomain: "www", Color: "red", Code: "12"})
	fields := FieldErrors(err)
	require.Len(t, fields, 4)
	assert.Equal(t, "email must be a valid email address", fields["email"])
	assert.Contains(t, fields["subdomain"], "cannot be www")
	assert.Contains(t, fields["primaryColor"], "hex color")
	assert.Equal(t, "code must be exactly 6 characters", fields["code"])

	assert.NoError(t, v.Struct(signup{Email: "a@b.co", Subdomain: "Acme"}))
	assert.Nil(t, FieldErrors(nil))
}
