package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Options for loading config. ConfigPath is relative to the working
// directory if not absolute.
type Options struct {
	ConfigPath   string
	SkipValidate bool
}

// Load builds config with precedence: defaults → yaml file → env vars.
// Dotenv files are loaded first so that .env values behave like
// environment variables without overriding the real environment.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	// Precedence stays: explicit env > .env.local > .env.
	for _, path := range []string{".env.local", ".env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = ".contentdex.yaml"
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("cannot read config file %s: %w", configPath, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("malformed YAML in %s: %w", configPath, err)
		}
	}

	applyEnv(&cfg)

	if !opts.SkipValidate {
		if err := Validate(&cfg); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.DB.Host = v
		if os.Getenv("DB_DRIVER") == "" {
			cfg.DB.Driver = "postgres"
		}
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.DB.Port = envInt(v, cfg.DB.Port)
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.DB.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.DB.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.DB.Password = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DB.Path = v
	}
	if v := os.Getenv("DB_MIN_CONNECTIONS"); v != "" {
		cfg.DB.MinConns = envInt(v, cfg.DB.MinConns)
	}
	if v := os.Getenv("DB_MAX_CONNECTIONS"); v != "" {
		cfg.DB.MaxConns = envInt(v, cfg.DB.MaxConns)
	}
	if v := os.Getenv("WORD_CACHE_SIZE"); v != "" {
		cfg.WordCacheSize = envInt(v, cfg.WordCacheSize)
	}
	if v := os.Getenv("PUNCTUATION_CACHE_SIZE"); v != "" {
		cfg.PunctCacheSize = envInt(v, cfg.PunctCacheSize)
	}
	if v := os.Getenv("BATCH_SIZE"); v != "" {
		cfg.BatchSize = envInt(v, cfg.BatchSize)
	}
	if v := os.Getenv("EXTRACTION_FOLDER"); v != "" {
		cfg.ExtractionFolder = v
	}
	if v := os.Getenv("CHECKPOINT_DIR"); v != "" {
		cfg.CheckpointDir = v
	}
	if v := os.Getenv("THREAD_MAX_WORKERS"); v != "" {
		cfg.MaxWorkers = envInt(v, cfg.MaxWorkers)
	}
	if v := os.Getenv("THREAD_MONITORING"); v != "" {
		cfg.Monitoring = envBool(v)
	}
	if v := os.Getenv("TASK_TIMEOUT_SECONDS"); v != "" {
		cfg.TaskTimeout = time.Duration(envInt(v, int(cfg.TaskTimeout/time.Second))) * time.Second
	}
}

func envInt(v string, fallback int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

// Validate rejects configurations the engine cannot run with.
func Validate(cfg *Config) error {
	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown db driver %q (want sqlite or postgres)", cfg.DB.Driver)
	}
	if cfg.DB.Driver == "sqlite" && cfg.DB.Path == "" {
		return fmt.Errorf("db path required for sqlite driver")
	}
	if cfg.DB.MinConns < 1 || cfg.DB.MaxConns < cfg.DB.MinConns {
		return fmt.Errorf("invalid connection pool bounds min=%d max=%d", cfg.DB.MinConns, cfg.DB.MaxConns)
	}
	if cfg.MaxWorkers < 1 {
		return fmt.Errorf("max workers must be at least 1, got %d", cfg.MaxWorkers)
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.WordCacheSize < 1 {
		return fmt.Errorf("word cache size must be at least 1, got %d", cfg.WordCacheSize)
	}
	if cfg.ExtractionFolder == "" {
		return fmt.Errorf("extraction folder must not be empty")
	}
	return nil
}

// DSN renders the postgres connection string for the pgx stdlib driver.
// Pool bounds are applied via database/sql, not the DSN.
func (d DB) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s",
		d.Host, d.Port, d.Name, d.User, d.Password)
}

// SQLitePath returns the sqlite database path, creating parent directories.
func (d DB) SQLitePath() (string, error) {
	dir := filepath.Dir(d.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating database directory: %w", err)
		}
	}
	return d.Path, nil
}
