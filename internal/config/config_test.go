package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "STORE_DRIVER", "STORE_TIMEOUT", "COMMIT_RETRIES", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" || cfg.StoreDriver != DriverMemory {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.StoreTimeout != 5*time.Second || cfg.CommitRetries != 3 {
		t.Errorf("unexpected store defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("STORE_TIMEOUT", "")
	// godotenv does not override variables already present in the environment.
	os.Unsetenv("APP_PORT")
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("STORE_TIMEOUT")

	path := filepath.Join(t.TempDir(), "test.env")
	content := "APP_PORT=9090\nSTORE_DRIVER=SQLite\nSTORE_TIMEOUT=750ms\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver = %s", cfg.StoreDriver)
	}
	if cfg.StoreTimeout != 750*time.Millisecond {
		t.Errorf("StoreTimeout = %s", cfg.StoreTimeout)
	}
}

func TestValidate(t *testing.T) {
	base := Config{StoreDriver: DriverMemory, StoreTimeout: time.Second, SessionCacheSize: 1, TerminalCacheSize: 1}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	pg := base
	pg.StoreDriver = DriverPostgres
	if err := pg.Validate(); err == nil {
		t.Error("postgres without DATABASE_URL accepted")
	}

	bad := base
	bad.StoreDriver = "firestore"
	if err := bad.Validate(); err == nil {
		t.Error("unknown driver accepted")
	}

	neg := base
	neg.CommitRetries = -1
	if err := neg.Validate(); err == nil {
		t.Error("negative retries accepted")
	}
}
