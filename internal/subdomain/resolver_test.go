package subdomain

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		override string
		wantSub  string
		wantKind Kind
	}{
		{"tenant", "acme.sweepgoat.com", "", "acme", Tenant},
		{"tenant with port", "acme.sweepgoat.com:8080", "", "acme", Tenant},
		{"uppercase host", "ACME.SweepGoat.com", "", "acme", Tenant},
		{"deep host uses first label", "a.b.sweepgoat.com", "", "a", Tenant},
		{"apex", "sweepgoat.com", "", "", Main},
		{"apex with port", "sweepgoat.com:443", "", "", Main},
		{"www", "www.sweepgoat.com", "", "www", WWW},
		{"single label", "intranet", "", "intranet", Tenant},
		{"localhost without override", "localhost:8081", "", "", Main},
		{"localhost with override", "localhost:8081", "acme", "acme", Tenant},
		{"override kept verbatim", "localhost", "Acme", "Acme", Tenant},
		{"loopback ipv4 override", "127.0.0.1:8081", "acme", "acme", Tenant},
		{"loopback ipv6 override", "[::1]:8081", "acme", "acme", Tenant},
		{"loopback www override", "localhost", "www", "www", WWW},
		{"override ignored off loopback", "sweepgoat.com", "acme", "", Main},
		{"public ip", "203.0.113.7:80", "", "", Main},
		{"empty host", "", "", "", Main},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.host, tt.override)
			assert.Equal(t, tt.wantSub, got.Subdomain)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantSub == "", got.IsMainDomain())
			assert.Equal(t, tt.wantKind == Tenant, got.IsSubdomain())
			assert.Equal(t, got.IsSubdomain(), got.HasSubdomain())
		})
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/public/giveaways", nil)
	r.Host = "localhost:8081"
	r.Header.Set(HeaderOverride, "acme")
	assert.Equal(t, "acme", FromRequest(r).Subdomain)
}

func TestBuildFullDomain(t *testing.T) {
	assert.Equal(t, "acme.sweepgoat.com", BuildFullDomain("acme", "sweepgoat.com"))
	assert.Equal(t, "sweepgoat.com", BuildFullDomain("", "sweepgoat.com"))
}
