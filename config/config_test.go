package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "BASE_DOMAIN", "DATABASE_URL", "REDIS_ENABLED", "TENANT_CACHE_SIZE", "TENANT_CACHE_TTL_MINUTES",
		"GIVEAWAY_SWEEP_INTERVAL_SECONDS", "EMAIL_DELIVERY", "AUTO_VERIFY_EMAILS", "VERIFICATION_CODE_TTL_HOURS",
		"BRANDING_PROBE_TIMEOUT_SEC", "CLOUDFLARE_TIMEOUT_SEC",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sweepgoat.com", cfg.Server.BaseDomain)
	assert.Equal(t, 1000, cfg.Tenants.CacheSize)
	assert.Equal(t, 10, cfg.Tenants.CacheTTLMinutes)
	assert.Equal(t, 300, cfg.Giveaways.SweepIntervalSeconds)
	assert.Equal(t, 24, cfg.Auth.VerificationCodeTTLHours)
	assert.False(t, cfg.Auth.AutoVerifyEmails)
	assert.Equal(t, "log", cfg.Email.Delivery)
	assert.Equal(t, 5, cfg.Branding.ProbeTimeoutSeconds)
	assert.Equal(t, 10, cfg.Cloudflare.TimeoutSeconds)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TENANT_CACHE_SIZE", "50")
	t.Setenv("AUTO_VERIFY_EMAILS", "true")
	t.Setenv("EMAIL_DELIVERY", "RESEND")
	t.Setenv("GIVEAWAY_SWEEP_INTERVAL_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Tenants.CacheSize)
	assert.True(t, cfg.Auth.AutoVerifyEmails)
	assert.Equal(t, "resend", cfg.Email.Delivery)
	assert.Equal(t, 300, cfg.Giveaways.SweepIntervalSeconds)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_DELIVERY", "carrier-pigeon")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("EMAIL_DELIVERY", "queue")
	t.Setenv("REDIS_ENABLED", "false")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("TENANT_CACHE_SIZE", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "g", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/g?sslmode=disable", d.DSN())
	d.URL = "postgres://override"
	assert.Equal(t, "postgres://override", d.DSN())
}

func TestSplitTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitTrim(" a, ,b ,", ","))
	assert.Nil(t, SplitTrim("", ","))
}
