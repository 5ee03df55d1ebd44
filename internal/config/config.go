// Package config loads weighttracker settings from defaults, an optional
// config.yaml and WEIGHTTRACKER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyAddr            = "addr"
	KeyWebDir          = "web_dir"
	KeyStorageDriver   = "storage.driver"
	KeyStorageDSN      = "storage.dsn"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyAuthEnabled     = "auth.enabled"
	KeyAuthSessionTTL  = "auth.session_ttl"
	KeyOIDCIssuer      = "oidc.issuer"
	KeyOIDCClientID    = "oidc.client_id"
	KeyOIDCSecret      = "oidc.client_secret"
	KeyOIDCRedirectURL = "oidc.redirect_url"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const envPrefix = "WEIGHTTRACKER"

// Config is the resolved configuration.
type Config struct {
	Addr    string
	WebDir  string
	Storage StorageConfig
	Log     LogConfig
	Auth    AuthConfig
	OIDC    OIDCConfig
}

// StorageConfig selects the backend.
type StorageConfig struct {
	Driver string
	DSN    string
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig configures sessions.
type AuthConfig struct {
	Enabled    bool
	SessionTTL time.Duration
}

// OIDCConfig configures single sign-on. An empty Issuer disables it.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether an issuer is configured.
func (c OIDCConfig) Enabled() bool { return c.Issuer != "" }

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAddr, ":8080")
	v.SetDefault(KeyWebDir, "web")
	v.SetDefault(KeyStorageDriver, DriverSQLite)
	v.SetDefault(KeyStorageDSN, "weighttracker.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "json")
	v.SetDefault(KeyAuthEnabled, true)
	v.SetDefault(KeyAuthSessionTTL, 24*time.Hour)
	v.SetDefault(KeyOIDCIssuer, "")
	v.SetDefault(KeyOIDCClientID, "")
	v.SetDefault(KeyOIDCSecret, "")
	v.SetDefault(KeyOIDCRedirectURL, "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed variables kept for existing deployments.
	_ = v.BindEnv(KeyAddr, envPrefix+"_ADDR", "ADDR")
	_ = v.BindEnv(KeyWebDir, envPrefix+"_WEB_DIR", "WEB_DIR")
	_ = v.BindEnv(KeyStorageDSN, envPrefix+"_STORAGE_DSN", "DATABASE_URL")
	return v
}

// Load reads the config file, if any, and returns the resolved Config. An
// empty path searches the working directory for config.yaml; a missing file
// is not an error unless path names it explicitly.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		Addr:   v.GetString(KeyAddr),
		WebDir: v.GetString(KeyWebDir),
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString(KeyStorageDriver)),
			DSN:    v.GetString(KeyStorageDSN),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Auth: AuthConfig{
			Enabled:    v.GetBool(KeyAuthEnabled),
			SessionTTL: v.GetDuration(KeyAuthSessionTTL),
		},
		OIDC: OIDCConfig{
			Issuer:       v.GetString(KeyOIDCIssuer),
			ClientID:     v.GetString(KeyOIDCClientID),
			ClientSecret: v.GetString(KeyOIDCSecret),
			RedirectURL:  v.GetString(KeyOIDCRedirectURL),
		},
	}
	// A postgres URL (typically from DATABASE_URL) is never a sqlite file name.
	if cfg.Storage.Driver == DriverSQLite && isPostgresURL(cfg.Storage.DSN) {
		cfg.Storage.Driver = DriverPostgres
	}
	return cfg, cfg.Validate()
}

func isPostgresURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("%s requires a dsn", KeyStorageDriver)
		}
		if c.Storage.Driver == DriverSQLite && isPostgresURL(c.Storage.DSN) {
			return fmt.Errorf("%s is sqlite but %s is a postgres url", KeyStorageDriver, KeyStorageDSN)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown %s %q (valid: sqlite, postgres, memory)", KeyStorageDriver, c.Storage.Driver)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("%s must be positive", KeyAuthSessionTTL)
	}
	if c.OIDC.Enabled() && (c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "") {
		return errors.New("oidc.issuer requires oidc.client_id and oidc.redirect_url")
	}
	return nil
}
