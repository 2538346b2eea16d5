package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for the import target and file names.
const (
	DefaultTargetDatabaseID = 1
	DefaultCollectionID     = 67
	DefaultDescription      = "Imported via cardport"
	DefaultQueriesFile      = "queries.json"
	DefaultFormattedFile    = "queries_formatted.json"
)

// Config holds all cardport configuration.
type Config struct {
	Metabase MetabaseConfig `yaml:"metabase"`
	Import   ImportConfig   `yaml:"import"`
	Files    FilesConfig    `yaml:"files"`
	LogLevel string         `yaml:"log_level"` // "debug", "info", "warn", "error"

	envErrs []error // malformed import settings, reported by Validate
}

// MetabaseConfig holds the remote instance settings.
type MetabaseConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"` // 0 = no client timeout
}

// ImportConfig holds values applied to every created card.
type ImportConfig struct {
	TargetDatabaseID int64  `yaml:"target_database_id"`
	CollectionID     int64  `yaml:"collection_id"`
	Description      string `yaml:"description"`
}

// FilesConfig holds the input and intermediate file names.
type FilesConfig struct {
	Queries   string `yaml:"queries"`
	Formatted string `yaml:"formatted"`
}

// Load reads configuration. A .env file in the working directory is loaded
// first without overriding variables already set; then the optional YAML file
// named by CARDPORT_CONFIG is applied, and environment variables win over it.
// Malformed numeric or duration variables keep their previous value and are
// reported by Validate, so stages that never use them still run.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CARDPORT_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Import: ImportConfig{
			TargetDatabaseID: DefaultTargetDatabaseID,
			CollectionID:     DefaultCollectionID,
			Description:      DefaultDescription,
		},
		Files: FilesConfig{
			Queries:   DefaultQueriesFile,
			Formatted: DefaultFormattedFile,
		},
		LogLevel: "info",
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Metabase.URL = getenv("METABASE_URL", cfg.Metabase.URL)
	cfg.Metabase.APIKey = getenv("METABASE_API_KEY", cfg.Metabase.APIKey)
	cfg.Import.Description = getenv("CARDPORT_DESCRIPTION", cfg.Import.Description)
	cfg.Files.Queries = getenv("CARDPORT_QUERIES_FILE", cfg.Files.Queries)
	cfg.Files.Formatted = getenv("CARDPORT_FORMATTED_FILE", cfg.Files.Formatted)
	cfg.LogLevel = getenv("CARDPORT_LOG_LEVEL", cfg.LogLevel)

	var err error
	if cfg.Import.TargetDatabaseID, err = getenvInt64("CARDPORT_TARGET_DB_ID", cfg.Import.TargetDatabaseID); err != nil {
		cfg.envErrs = append(cfg.envErrs, err)
	}
	if cfg.Import.CollectionID, err = getenvInt64("CARDPORT_COLLECTION_ID", cfg.Import.CollectionID); err != nil {
		cfg.envErrs = append(cfg.envErrs, err)
	}
	if cfg.Metabase.Timeout, err = getenvDuration("CARDPORT_HTTP_TIMEOUT", cfg.Metabase.Timeout); err != nil {
		cfg.envErrs = append(cfg.envErrs, err)
	}
}

// Validate checks the settings the import stage needs.
// Returns an error describing all problems found, or nil if valid.
func (c Config) Validate() error {
	errs := append([]error(nil), c.envErrs...)

	if c.Metabase.URL == "" {
		errs = append(errs, errors.New("METABASE_URL is required"))
	}
	if c.Metabase.APIKey == "" {
		errs = append(errs, errors.New("METABASE_API_KEY is required"))
	}
	if c.Import.TargetDatabaseID <= 0 {
		errs = append(errs, fmt.Errorf("target database id must be positive, got %d", c.Import.TargetDatabaseID))
	}
	if c.Metabase.Timeout < 0 {
		errs = append(errs, fmt.Errorf("http timeout must be >= 0, got %v", c.Metabase.Timeout))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: invalid integer %q", key, v)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("config: %s: invalid duration %q", key, v)
	}
	return d, nil
}
