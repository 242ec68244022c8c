package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "phonehub/pkg/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PHONEHUB_PROVIDERS_SPECCHASER_API_KEY", "sk-test")
	t.Setenv("PHONEHUB_PROVIDERS_MOBILEFEED_API_KEY", "mf-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 24*time.Hour, cfg.Cadence())
	assert.Equal(t, 50, cfg.Import.PerBrandLimit)
	assert.Equal(t, 20, cfg.Import.LatestLimit)
	assert.Equal(t, "USD", cfg.Import.Currency)
	assert.Contains(t, cfg.Import.PopularBrands, "Samsung")
	assert.Equal(t, 7500, cfg.Audit.BatteryMaxMAH)
}

// API keys have no meaningful default; they must still arrive from the
// environment alone.
func TestLoadAPIKeysFromEnvOnly(t *testing.T) {
	t.Setenv("PHONEHUB_PROVIDERS_SPECCHASER_API_KEY", "sk-live-1")
	t.Setenv("PHONEHUB_PROVIDERS_MOBILEFEED_API_KEY", "mf-live-2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-live-1", cfg.Providers.Specchaser.APIKey)
	assert.Equal(t, "mf-live-2", cfg.Providers.Mobilefeed.APIKey)
}

func TestLoadMissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("PHONEHUB_PROVIDERS_SPECCHASER_API_KEY", "")
	t.Setenv("PHONEHUB_PROVIDERS_MOBILEFEED_API_KEY", "mf-test")

	_, err := Load()
	require.Error(t, err)
	var cfgErr *pkgerrors.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "specchaser", cfgErr.Component)
}

// Provisioning tooling needs the configured database path even when the
// provider credentials that Load insists on are absent.
func TestDatabasePathWithoutProviderKeys(t *testing.T) {
	t.Setenv("PHONEHUB_PROVIDERS_SPECCHASER_API_KEY", "")
	t.Setenv("PHONEHUB_PROVIDERS_MOBILEFEED_API_KEY", "")
	t.Setenv("PHONEHUB_DATABASE_PATH", "/tmp/phonehub-test/data.db")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "/tmp/phonehub-test/data.db", DatabasePath())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PHONEHUB_PROVIDERS_SPECCHASER_API_KEY", "sk-test")
	t.Setenv("PHONEHUB_PROVIDERS_MOBILEFEED_API_KEY", "mf-test")
	t.Setenv("PHONEHUB_IMPORT_CADENCE_HOURS", "6")
	t.Setenv("PHONEHUB_IMPORT_CURRENCY", "EUR")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cfg.Cadence())
	assert.Equal(t, "EUR", cfg.Import.Currency)
}
