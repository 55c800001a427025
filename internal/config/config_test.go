package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("S2W_DATABASE_DSN", "file:test.db")
	t.Setenv("S2W_JWT_SECRET", "secret-from-env")
	t.Setenv("S2W_SERVER_ADDR", ":9090")

	cfg, errLoad := Load("")
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.DatabaseDSN != "file:test.db" {
		t.Fatalf("expected dsn from env, got %q", cfg.DatabaseDSN)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("expected addr from env, got %q", cfg.Server.Addr)
	}
	if cfg.JWT.Expiry != 12*time.Hour {
		t.Fatalf("expected default jwt expiry, got %s", cfg.JWT.Expiry)
	}
	if cfg.Play.Cooldown != 24*time.Hour {
		t.Fatalf("expected default cooldown, got %s", cfg.Play.Cooldown)
	}
}

func TestLoadYAMLFileLayeredUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database-dsn: file:from-file.db
jwt:
  secret: file-secret
  expiry: 2h
server:
  addr: ":7070"
play:
  cooldown: 48h
`)
	if errWrite := os.WriteFile(path, content, 0600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	t.Setenv("S2W_SERVER_ADDR", ":6060")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.DatabaseDSN != "file:from-file.db" {
		t.Fatalf("expected dsn from file, got %q", cfg.DatabaseDSN)
	}
	if cfg.JWT.Secret != "file-secret" {
		t.Fatalf("expected jwt secret from file, got %q", cfg.JWT.Secret)
	}
	if cfg.JWT.Expiry != 2*time.Hour {
		t.Fatalf("expected jwt expiry from file, got %s", cfg.JWT.Expiry)
	}
	if cfg.Play.Cooldown != 48*time.Hour {
		t.Fatalf("expected cooldown from file, got %s", cfg.Play.Cooldown)
	}
	// Environment wins over the file.
	if cfg.Server.Addr != ":6060" {
		t.Fatalf("expected addr from env, got %q", cfg.Server.Addr)
	}
}

func TestLoadNestedEnvKeys(t *testing.T) {
	t.Setenv("S2W_DATABASE_DSN", "file:test.db")
	t.Setenv("S2W_JWT_SECRET", "s")
	t.Setenv("S2W_JWT_EXPIRY", "3h")
	t.Setenv("S2W_PLAY_COOLDOWN", "6h")
	t.Setenv("S2W_PLAY_LOCK_TTL", "30s")
	t.Setenv("S2W_LOG_MAX_SIZE_MB", "7")
	t.Setenv("S2W_REDIS_ADDR", "localhost:6379")

	cfg, errLoad := Load("")
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.JWT.Expiry != 3*time.Hour {
		t.Fatalf("expected jwt expiry from env, got %s", cfg.JWT.Expiry)
	}
	if cfg.Play.Cooldown != 6*time.Hour {
		t.Fatalf("expected cooldown from env, got %s", cfg.Play.Cooldown)
	}
	if cfg.Play.LockTTL != 30*time.Second {
		t.Fatalf("expected lock ttl from env, got %s", cfg.Play.LockTTL)
	}
	if cfg.Log.MaxSizeMB != 7 {
		t.Fatalf("expected max size from env, got %d", cfg.Log.MaxSizeMB)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("expected redis addr from env, got %q", cfg.Redis.Addr)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("S2W_DATABASE_DSN", "file:test.db")
	t.Setenv("S2W_JWT_SECRET", "s")

	if _, errLoad := Load(filepath.Join(t.TempDir(), "absent.yaml")); errLoad != nil {
		t.Fatalf("missing file should fall back to env, got %v", errLoad)
	}
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("S2W_DATABASE_DSN", "")
	t.Setenv("S2W_JWT_SECRET", "")
	if _, errLoad := Load(""); errLoad == nil {
		t.Fatalf("expected validation error without dsn")
	}

	t.Setenv("S2W_DATABASE_DSN", "file:test.db")
	if _, errLoad := Load(""); errLoad == nil {
		t.Fatalf("expected validation error without jwt secret")
	}
}
