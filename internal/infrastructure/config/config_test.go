package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
billing:
  trial_days: 7
sweeper:
  secret: file-secret
`)

	cfg, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Billing.TrialDays)
	assert.Equal(t, 2, cfg.Billing.MaxChargeFailures)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, "file-secret", cfg.Sweeper.Secret)
	assert.False(t, cfg.Billing.Production)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "sweeper:\n  secret: file-secret\n")
	t.Setenv("BILLING_SWEEPER_SECRET", "env-secret")
	t.Setenv("BILLING_PAYMENT_TIMEOUT", "3s")

	cfg, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, "env-secret", cfg.Sweeper.Secret)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	path := writeConfig(t, "logger:\n  level: warn\n")

	_, err := Load("production", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sweeper.secret")
	assert.Contains(t, err.Error(), "auth.jwt.secret")
	assert.Contains(t, err.Error(), "payment.paystack.secret_key")
}

func TestLoad_ProductionFlagFollowsEnvironment(t *testing.T) {
	path := writeConfig(t, `
sweeper:
  secret: s
auth:
  jwt:
    secret: real-secret
payment:
  paystack:
    secret_key: sk_live_x
`)

	cfg, err := Load("production", path)
	require.NoError(t, err)
	assert.True(t, cfg.Billing.Production)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_RejectsNonPositiveKnobs(t *testing.T) {
	cfg := &Config{}
	cfg.Sweeper.Concurrency = 1
	assert.Error(t, cfg.Validate())

	cfg.Billing.TrialDays = 14
	cfg.Sweeper.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg.Sweeper.Concurrency = 4
	assert.NoError(t, cfg.Validate())
}
