package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "TICK_RATE", "SAVE_INTERVAL", "TOKEN_TTL", "CATALOG_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("expected sqlite driver by default, got %s", cfg.DBDriver)
	}
	if cfg.TickInterval() != 50*time.Millisecond {
		t.Fatalf("expected 50ms tick, got %v", cfg.TickInterval())
	}
	if cfg.SaveInterval != 30*time.Second {
		t.Fatalf("expected 30s save interval, got %v", cfg.SaveInterval)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"TICK_RATE":     "zero",
		"SAVE_INTERVAL": "-1s",
		"DB_DRIVER":     "mysql",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", key, value)
			}
		})
	}
}

func TestLoadPostgresNeedsURL(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestLoadPostgresRejectsDefaultSecret(t *testing.T) {
	t.Setenv("DB_DRIVER", DriverPostgres)
	t.Setenv("DATABASE_URL", "postgres://realm@localhost/realm")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for the default JWT secret")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Fatalf("expected configured secret, got %s", cfg.JWTSecret)
	}
}
