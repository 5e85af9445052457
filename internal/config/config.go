package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port         string
	DBDriver     string
	DatabaseURL  string
	SQLitePath   string
	CatalogPath  string
	TickRate     int
	SaveInterval time.Duration
	JWTSecret    string
	TokenTTL     time.Duration
	WorldSeed    string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultJWTSecret is only accepted for local sqlite setups.
	DefaultJWTSecret = "change-me"
)

// GetEnvDefault returns the variable or defaultValue when it is empty.
func GetEnvDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func Load() (Config, error) {
	cfg := Config{
		Port:        GetEnvDefault("PORT", "8080"),
		DBDriver:    GetEnvDefault("DB_DRIVER", DriverSQLite),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  GetEnvDefault("SQLITE_PATH", "realm.db"),
		CatalogPath: GetEnvDefault("CATALOG_PATH", "content/catalog.json"),
		JWTSecret:   GetEnvDefault("JWT_SECRET", DefaultJWTSecret),
		WorldSeed:   GetEnvDefault("WORLD_SEED", "realm"),
	}

	rate, err := strconv.Atoi(GetEnvDefault("TICK_RATE", "20"))
	if err != nil || rate <= 0 {
		return Config{}, fmt.Errorf("config: invalid TICK_RATE %q", os.Getenv("TICK_RATE"))
	}
	cfg.TickRate = rate

	if cfg.SaveInterval, err = parseDuration("SAVE_INTERVAL", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = parseDuration("TOKEN_TTL", "24h"); err != nil {
		return Config{}, err
	}

	switch cfg.DBDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("config: DATABASE_URL is required for driver %s", DriverPostgres)
		}
		if cfg.JWTSecret == DefaultJWTSecret {
			return Config{}, fmt.Errorf("config: JWT_SECRET must be set for driver %s", DriverPostgres)
		}
	case DriverSQLite:
	default:
		return Config{}, fmt.Errorf("config: unknown DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// TickInterval is the wall-clock duration of one simulation tick.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(GetEnvDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("config: invalid %s %q", key, os.Getenv(key))
	}
	return d, nil
}
