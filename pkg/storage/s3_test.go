package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageContentType(t *testing.T) {
	tests := []struct {
		name, contentType, filename, want string
	}{
		{"jpeg", "image/jpeg", "a.bin", "image/jpeg"},
		{"jpg alias", "image/jpg", "a.jpg", "image/jpeg"},
		{"png with params", "image/png; charset=binary", "a.png", "image/png"},
		{"webp", "image/webp", "a.webp", "image/webp"},
		{"octet stream falls back to ext", "application/octet-stream", "logo.PNG", "image/png"},
		{"empty falls back to ext", "", "logo.jpeg", "image/jpeg"},
		{"gif rejected", "image/gif", "a.gif", ""},
		{"declared pdf not rescued by ext", "application/pdf", "a.png", ""},
		{"unknown ext", "", "a.txt", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImageContentType(tt.contentType, tt.filename))
		})
	}
}

func TestImageKey(t *testing.T) {
	key := ImageKey(42, "image/png")
	assert.True(t, strings.HasPrefix(key, "images/42/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestPublicObjectURL(t *testing.T) {
	s := &S3{cfg: S3Config{ImagesBucket: "imgs", Region: "us-east-1"}}
	assert.Equal(t, "https://imgs.s3.us-east-1.amazonaws.com/images/1/x.png", s.PublicObjectURL("images/1/x.png"))
}
