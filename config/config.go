package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	// Client
	APIURL          string
	HTTPTimeout     time.Duration
	RefreshTimeout  time.Duration
	CredentialsPath string
	SessionName     string

	LogLevel string
	LogJSON  bool

	// Shared by the client credential store, the event publisher and the
	// reference backend. Empty means in-process alternatives.
	RedisURL string

	// Reference backend
	Addr       string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Load loads Config from environment variables with defaults.
func Load() Config {
	return Config{
		APIURL:          EnvString("RECIPEBOOK_API_URL", "http://localhost:9000"),
		HTTPTimeout:     EnvDuration("RECIPEBOOK_HTTP_TIMEOUT", 30*time.Second),
		RefreshTimeout:  EnvDuration("RECIPEBOOK_REFRESH_TIMEOUT", 10*time.Second),
		CredentialsPath: EnvString("RECIPEBOOK_CREDENTIALS", defaultCredentialsPath()),
		SessionName:     EnvString("RECIPEBOOK_SESSION", "default"),

		LogLevel: EnvString("RECIPEBOOK_LOG_LEVEL", "info"),
		LogJSON:  EnvBool("RECIPEBOOK_LOG_JSON", false),

		RedisURL: EnvString("REDIS_URL", ""),

		Addr:       EnvString("RECIPEBOOK_ADDR", ":9000"),
		SigningKey: EnvString("RECIPEBOOK_SIGNING_KEY", ""),
		AccessTTL:  EnvDuration("RECIPEBOOK_ACCESS_TTL", 5*time.Minute),
		RefreshTTL: EnvDuration("RECIPEBOOK_REFRESH_TTL", 5*24*time.Hour),
	}
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "recipebook", "credentials.yaml")
}
