package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.DB.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.DB.Driver)
	}
	if cfg.WordCacheSize != 50000 {
		t.Errorf("default word cache = %d, want 50000", cfg.WordCacheSize)
	}
	if cfg.BatchSize != 500 {
		t.Errorf("default batch size = %d, want 500", cfg.BatchSize)
	}
	if cfg.TaskTimeout != 3600*time.Second {
		t.Errorf("default task timeout = %v, want 1h", cfg.TaskTimeout)
	}
	if err := Validate(&cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "corpus")
	t.Setenv("DB_USER", "ingest")
	t.Setenv("DB_PASSWORD", "hunter2")
	t.Setenv("DB_MIN_CONNECTIONS", "3")
	t.Setenv("DB_MAX_CONNECTIONS", "20")
	t.Setenv("WORD_CACHE_SIZE", "1000")
	t.Setenv("BATCH_SIZE", "50")
	t.Setenv("EXTRACTION_FOLDER", "/tmp/staging")
	t.Setenv("THREAD_MAX_WORKERS", "8")
	t.Setenv("THREAD_MONITORING", "true")

	cfg := Default()
	applyEnv(&cfg)

	if cfg.DB.Driver != "postgres" {
		t.Errorf("DB_HOST should imply postgres driver, got %q", cfg.DB.Driver)
	}
	if cfg.DB.Host != "db.internal" || cfg.DB.Port != 5433 {
		t.Errorf("db host/port = %s:%d", cfg.DB.Host, cfg.DB.Port)
	}
	if cfg.DB.MinConns != 3 || cfg.DB.MaxConns != 20 {
		t.Errorf("pool bounds = %d/%d", cfg.DB.MinConns, cfg.DB.MaxConns)
	}
	if cfg.WordCacheSize != 1000 || cfg.BatchSize != 50 {
		t.Errorf("cache/batch = %d/%d", cfg.WordCacheSize, cfg.BatchSize)
	}
	if cfg.ExtractionFolder != "/tmp/staging" {
		t.Errorf("extraction folder = %q", cfg.ExtractionFolder)
	}
	if cfg.MaxWorkers != 8 || !cfg.Monitoring {
		t.Errorf("workers=%d monitoring=%v", cfg.MaxWorkers, cfg.Monitoring)
	}
}

func TestExplicitDriverWinsOverHost(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_HOST", "db.internal")

	cfg := Default()
	applyEnv(&cfg)
	if cfg.DB.Driver != "sqlite" {
		t.Errorf("explicit DB_DRIVER must win, got %q", cfg.DB.Driver)
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".contentdex.yaml")
	yaml := "word_cache_size: 123\nmax_workers: 2\ndb:\n  name: fromfile\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_NAME", "fromenv")

	cfg, err := Load(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WordCacheSize != 123 {
		t.Errorf("yaml word_cache_size not applied: %d", cfg.WordCacheSize)
	}
	if cfg.MaxWorkers != 2 {
		t.Errorf("yaml max_workers not applied: %d", cfg.MaxWorkers)
	}
	if cfg.DB.Name != "fromenv" {
		t.Errorf("env must override yaml, got db name %q", cfg.DB.Name)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad driver", func(c *Config) { c.DB.Driver = "oracle" }},
		{"empty sqlite path", func(c *Config) { c.DB.Path = "" }},
		{"inverted pool", func(c *Config) { c.DB.MinConns = 8; c.DB.MaxConns = 2 }},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }},
		{"zero batch", func(c *Config) { c.BatchSize = 0 }},
		{"empty extraction folder", func(c *Config) { c.ExtractionFolder = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := Validate(&cfg); err == nil {
				t.Error("want validation error, got nil")
			}
		})
	}
}

func TestCPUWorkersCap(t *testing.T) {
	cfg := Default()
	cfg.MaxWorkers = 16
	if got := cfg.CPUWorkers(); got != 4 {
		t.Errorf("CPUWorkers() = %d, want 4", got)
	}
	cfg.MaxWorkers = 2
	if got := cfg.CPUWorkers(); got != 2 {
		t.Errorf("CPUWorkers() = %d, want 2", got)
	}
}
