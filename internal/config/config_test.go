package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBase(t *testing.T) {
	t.Setenv("DB_USER", "market")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "campus")
	t.Setenv("PAYMENT_PASSPHRASE", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setBase(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.False(t, cfg.PaymentSyncSettle)
	assert.Equal(t, []string{"vercel.app"}, cfg.CORSAllowedSuffixes)
	assert.Empty(t, cfg.AdminEmails)
}

func TestLoadLists(t *testing.T) {
	setBase(t)
	t.Setenv("ADMIN_EMAILS", "a@uni.example,b@uni.example")
	t.Setenv("CORS_ALLOWED_SUFFIXES", "vercel.app,campus.example")
	t.Setenv("PAYMENT_SYNC_SETTLE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@uni.example", "b@uni.example"}, cfg.AdminEmails)
	assert.Equal(t, []string{"vercel.app", "campus.example"}, cfg.CORSAllowedSuffixes)
	assert.True(t, cfg.PaymentSyncSettle)
}

func TestLoadRequiresPassphrase(t *testing.T) {
	setBase(t)
	t.Setenv("PAYMENT_PASSPHRASE", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadDatabaseSelection(t *testing.T) {
	t.Setenv("PAYMENT_PASSPHRASE", "secret")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	assert.Error(t, err, "no database configured")

	t.Setenv("DATABASE_URL", "postgres://market@localhost/campus")
	t.Setenv("DB_DRIVER", "postgres")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)

	t.Setenv("DB_DRIVER", "oracle")
	_, err = Load()
	assert.Error(t, err)
}
