package config

import "time"

// DB holds relational store connection settings. Driver selects between
// the pgx stdlib driver ("postgres") and modernc sqlite ("sqlite").
type DB struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
	// Path is the database file when Driver is sqlite.
	Path     string `yaml:"path"`
	MinConns int    `yaml:"min_connections"`
	MaxConns int    `yaml:"max_connections"`
}

// Config is the full engine configuration. Precedence when loading:
// defaults → .contentdex.yaml → environment variables.
type Config struct {
	DB DB `yaml:"db"`

	WordCacheSize  int `yaml:"word_cache_size"`
	PunctCacheSize int `yaml:"punct_cache_size"`
	BatchSize      int `yaml:"batch_size"`

	ExtractionFolder string `yaml:"extraction_folder"`
	CheckpointDir    string `yaml:"checkpoint_dir"`
	LogDir           string `yaml:"log_dir"`

	MaxWorkers int  `yaml:"max_workers"`
	Monitoring bool `yaml:"monitoring"`

	TaskTimeout     time.Duration `yaml:"task_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration. The sqlite driver is the
// zero-setup default; setting DB_HOST switches to postgres.
func Default() Config {
	return Config{
		DB: DB{
			Driver:   "sqlite",
			Host:     "localhost",
			Port:     5432,
			Name:     "contentdex",
			User:     "contentdex",
			Path:     "contentdex.db",
			MinConns: 2,
			MaxConns: 10,
		},
		WordCacheSize:    50000,
		PunctCacheSize:   1000,
		BatchSize:        500,
		ExtractionFolder: "extracted",
		CheckpointDir:    "checkpoints",
		LogDir:           "logs",
		MaxWorkers:       4,
		Monitoring:       false,
		TaskTimeout:      3600 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// CPUWorkers returns the CPU pool size derived from MaxWorkers.
func (c Config) CPUWorkers() int {
	if c.MaxWorkers < 4 {
		return c.MaxWorkers
	}
	return 4
}
