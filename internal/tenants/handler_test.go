package tenants

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweepgoat/backend/internal/models"
)

func setupRouter(dir *fakeDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewValidationCache(dir, 10, time.Minute, nil, nil), nil)
	r := gin.New()
	r.GET("/api/public/subdomain/validate", h.Validate)
	r.GET("/api/public/subdomain/branding", h.Branding)
	return r
}

func get(r *gin.Engine, path, host string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestValidateEndpoint(t *testing.T) {
	logo := "https://cdn/acme.png"
	dir := newFakeDirectory(
		&models.Host{ID: 1, Subdomain: "acme", CompanyName: "Acme", EmailVerified: true, LogoURL: &logo},
		&models.Host{ID: 2, Subdomain: "pending", CompanyName: "Pending"},
	)
	r := setupRouter(dir)

	rec := get(r, "/api/public/subdomain/validate", "sweepgoat.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"exists":true,"isMainDomain":true}`, rec.Body.String())

	rec = get(r, "/api/public/subdomain/validate", "www.sweepgoat.com")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(r, "/api/public/subdomain/validate", "acme.sweepgoat.com")
	require.Equal(t, http.StatusOK, rec.Code)
	var body ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Exists)
	assert.Equal(t, "Acme", body.CompanyName)
	assert.Equal(t, models.DefaultPrimaryColor, body.Branding.PrimaryColor)
	assert.Equal(t, logo, *body.Branding.LogoURL)

	// unverified and unknown look the same
	rec = get(r, "/api/public/subdomain/validate", "pending.sweepgoat.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"exists":false,"subdomain":"pending"}`, rec.Body.String())
	rec = get(r, "/api/public/subdomain/validate", "ghost.sweepgoat.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"exists":false,"subdomain":"ghost"}`, rec.Body.String())
}

func TestValidateEndpointUnavailable(t *testing.T) {
	dir := newFakeDirectory()
	dir.err = errors.New("db down")
	rec := get(setupRouter(dir), "/api/public/subdomain/validate", "acme.sweepgoat.com")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBrandingEndpoint(t *testing.T) {
	color := "#FF5733"
	dir := newFakeDirectory(&models.Host{ID: 1, Subdomain: "acme", EmailVerified: true, PrimaryColor: &color})
	r := setupRouter(dir)

	rec := get(r, "/api/public/subdomain/branding", "sweepgoat.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"logoUrl":null,"primaryColor":"#FFFF00"}`, rec.Body.String())

	rec = get(r, "/api/public/subdomain/branding", "acme.sweepgoat.com")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"logoUrl":null,"primaryColor":"#FF5733"}`, rec.Body.String())

	rec = get(r, "/api/public/subdomain/branding", "ghost.sweepgoat.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"logoUrl":null,"primaryColor":"#FFFF00"}`, rec.Body.String())
}
