package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/88clipon/saleor/pkg/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Index.RebuildTTL != time.Hour {
		t.Errorf("default rebuildTTL = %s, want 1h", cfg.Index.RebuildTTL)
	}
	if cfg.Index.MinPrefixLength != 2 {
		t.Errorf("default minPrefixLength = %d, want 2", cfg.Index.MinPrefixLength)
	}
	if cfg.Index.DefaultLimit != 10 {
		t.Errorf("default limit = %d, want 10", cfg.Index.DefaultLimit)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("index:\n  rebuildTTL: 10m\n  minPrefixLength: 3\n  defaultLimit: 5\n  maxLimit: 20\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Index.RebuildTTL != 10*time.Minute {
		t.Errorf("rebuildTTL = %s, want 10m", cfg.Index.RebuildTTL)
	}
	if cfg.Index.MinPrefixLength != 3 || cfg.Index.DefaultLimit != 5 || cfg.Index.MaxLimit != 20 {
		t.Errorf("index config = %+v", cfg.Index)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TA_POSTGRES_HOST", "db.internal")
	t.Setenv("TA_INDEX_REBUILD_TTL", "30m")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Postgres.Host != "db.internal" {
		t.Errorf("postgres host = %s, want db.internal", cfg.Postgres.Host)
	}
	if cfg.Index.RebuildTTL != 30*time.Minute {
		t.Errorf("rebuildTTL = %s, want 30m", cfg.Index.RebuildTTL)
	}
}

func TestValidationRejectsBadLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("index:\n  defaultLimit: 50\n  maxLimit: 10\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err == nil {
		t.Error("maxLimit < defaultLimit accepted")
	}
}
