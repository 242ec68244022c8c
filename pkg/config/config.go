// Package config loads application configuration from environment variables
// and an optional config file, with working defaults for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgerrors "phonehub/pkg/errors"
)

// Provider holds the connection settings for one external data source.
type Provider struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// Config is the full application configuration.
type Config struct {
	Server struct {
		Address string `mapstructure:"address"` // e.g. ":8080"
	} `mapstructure:"server"`

	Database struct {
		Path string `mapstructure:"path"` // sqlite file path
	} `mapstructure:"database"`

	Providers struct {
		Specchaser Provider `mapstructure:"specchaser"`
		Mobilefeed Provider `mapstructure:"mobilefeed"`
	} `mapstructure:"providers"`

	Import struct {
		CadenceHours  int      `mapstructure:"cadence_hours"`   // scheduler interval
		PerBrandLimit int      `mapstructure:"per_brand_limit"` // listByBrand cap
		LatestLimit   int      `mapstructure:"latest_limit"`    // default for importLatest
		Currency      string   `mapstructure:"currency"`        // target price currency
		PopularBrands []string `mapstructure:"popular_brands"`
	} `mapstructure:"import"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
		JWTIssuer string `mapstructure:"jwt_issuer"`
		JWTHours  int    `mapstructure:"jwt_hours"`
	} `mapstructure:"auth"`

	Audit struct {
		BatteryMinMAH  int     `mapstructure:"battery_min_mah"`
		BatteryMaxMAH  int     `mapstructure:"battery_max_mah"`
		DisplayMinInch float64 `mapstructure:"display_min_inch"`
		DisplayMaxInch float64 `mapstructure:"display_max_inch"`
		ChargingMaxW   int     `mapstructure:"charging_max_w"`
	} `mapstructure:"audit"`

	Logging struct {
		Level  string `mapstructure:"level"`  // trace|debug|info|warn|error
		Format string `mapstructure:"format"` // console|json
	} `mapstructure:"logging"`
}

// Cadence returns the scheduler interval.
func (c *Config) Cadence() time.Duration {
	return time.Duration(c.Import.CadenceHours) * time.Hour
}

// JWTDuration returns the admin token lifetime.
func (c *Config) JWTDuration() time.Duration {
	return time.Duration(c.Auth.JWTHours) * time.Hour
}

// Load reads configuration from env/file with defaults and validates it.
// A provider that is enabled but has no API key is a fatal configuration
// error: it must fail here, before the scheduler starts, not mid-run.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabasePath resolves database.path for tooling that touches only the
// local sqlite file and has no business requiring provider credentials,
// such as account provisioning. Same env/file resolution as Load.
func DatabasePath() string {
	cfg, err := load()
	if err != nil {
		return defaultDBPath()
	}
	return cfg.Database.Path
}

func load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("phonehub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.path", defaultDBPath())

	// every key needs a default (even an empty one): Unmarshal only walks
	// keys viper already knows about, so an env-only key would never land
	// in the struct
	v.SetDefault("providers.specchaser.enabled", true)
	v.SetDefault("providers.specchaser.base_url", "https://api.specchaser.com/v2")
	v.SetDefault("providers.specchaser.api_key", "")
	v.SetDefault("providers.mobilefeed.enabled", true)
	v.SetDefault("providers.mobilefeed.base_url", "https://feed.mobilefeed.io")
	v.SetDefault("providers.mobilefeed.api_key", "")

	v.SetDefault("import.cadence_hours", 24)
	v.SetDefault("import.per_brand_limit", 50)
	v.SetDefault("import.latest_limit", 20)
	v.SetDefault("import.currency", "USD")
	v.SetDefault("import.popular_brands", []string{
		"Samsung", "Apple", "Xiaomi", "Google", "OnePlus",
		"Oppo", "Vivo", "Realme", "Motorola", "Nothing",
	})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "phonehub")
	v.SetDefault("auth.jwt_hours", 24)

	v.SetDefault("audit.battery_min_mah", 1000)
	v.SetDefault("audit.battery_max_mah", 7500)
	v.SetDefault("audit.display_min_inch", 3.5)
	v.SetDefault("audit.display_max_inch", 8.5)
	v.SetDefault("audit.charging_max_w", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	if cfgFile := os.Getenv("PHONEHUB_CONFIG"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("phonehub")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/phonehub")
	}

	// Config file is optional; env vars and defaults are enough to run.
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Providers.Specchaser.Enabled && strings.TrimSpace(c.Providers.Specchaser.APIKey) == "" {
		return pkgerrors.NewConfigError("specchaser", "api key required (set PHONEHUB_PROVIDERS_SPECCHASER_API_KEY)")
	}
	if c.Providers.Mobilefeed.Enabled && strings.TrimSpace(c.Providers.Mobilefeed.APIKey) == "" {
		return pkgerrors.NewConfigError("mobilefeed", "api key required (set PHONEHUB_PROVIDERS_MOBILEFEED_API_KEY)")
	}
	if !c.Providers.Specchaser.Enabled && !c.Providers.Mobilefeed.Enabled {
		return pkgerrors.NewConfigError("providers", "at least one provider must be enabled")
	}
	if c.Import.CadenceHours <= 0 {
		return pkgerrors.NewConfigError("import", "cadence_hours must be positive")
	}
	return nil
}

func defaultDBPath() string {
	if p := os.Getenv("PHONEHUB_DB_PATH"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".phonehub", "data.db")
}
