package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSheetRange      = "A1:I"
	DefaultConnectTimeout  = 10 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultMaxMediaBytes   = 25 << 20
	DefaultPollInterval    = 2 * time.Second
	DefaultStaleJobTimeout = 30 * time.Minute
	DefaultServerAddr      = ":8080"
)

// CredentialsConfig points at the bundled service-account key files
type CredentialsConfig struct {
	SheetsKeyFile  string `yaml:"sheetsKeyFile" validate:"required"`
	StorageKeyFile string `yaml:"storageKeyFile" validate:"required"`
}

// MediaConfig controls how member photos are downloaded
type MediaConfig struct {
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	MaxBytes       int64         `yaml:"maxBytes"`
}

// SyncConfig controls the roster sync pipeline
type SyncConfig struct {
	SheetRange  string        `yaml:"sheetRange,omitempty"`
	Concurrency int           `yaml:"concurrency,omitempty" validate:"min=0,max=32"`
	RowTimeout  time.Duration `yaml:"rowTimeout,omitempty"`
	// Schedule is an RFC 5545 rule, e.g. "FREQ=DAILY;BYHOUR=6;BYMINUTE=0;BYSECOND=0"
	Schedule       string `yaml:"schedule,omitempty"`
	SpreadsheetURL string `yaml:"spreadsheetURL,omitempty" validate:"omitempty,url"`
}

// DatabaseConfig holds the Postgres connection used for the sync job queue
type DatabaseConfig struct {
	URL string `yaml:"url,omitempty"`
}

// WorkerConfig controls the background job worker
type WorkerConfig struct {
	PollInterval    time.Duration `yaml:"pollInterval,omitempty"`
	StaleJobTimeout time.Duration `yaml:"staleJobTimeout,omitempty"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// NotifyConfig enables summary emails after background sync runs
type NotifyConfig struct {
	KeyFile    string   `yaml:"keyFile,omitempty" validate:"required_with=Recipients"`
	Sender     string   `yaml:"sender,omitempty" validate:"omitempty,email"`
	Recipients []string `yaml:"recipients,omitempty" validate:"omitempty,dive,email"`
}

// Config represents the application configuration
type Config struct {
	Bucket      string            `yaml:"bucket" validate:"required"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Media       MediaConfig       `yaml:"media,omitempty"`
	Sync        SyncConfig        `yaml:"sync,omitempty"`
	Database    DatabaseConfig    `yaml:"database,omitempty"`
	Worker      WorkerConfig      `yaml:"worker,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
	Notify      NotifyConfig      `yaml:"notify,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads the configuration for the given environment
// For example, env="test" will look for "roster_sync_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Relative key paths are resolved against the config file location
	baseDir := filepath.Dir(path)
	cfg.Credentials.SheetsKeyFile = resolvePath(baseDir, cfg.Credentials.SheetsKeyFile)
	cfg.Credentials.StorageKeyFile = resolvePath(baseDir, cfg.Credentials.StorageKeyFile)
	cfg.Notify.KeyFile = resolvePath(baseDir, cfg.Notify.KeyFile)

	cfg.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyDefaults fills zero values with their defaults
func (c *Config) ApplyDefaults() {
	if c.Sync.SheetRange == "" {
		c.Sync.SheetRange = DefaultSheetRange
	}
	if c.Sync.Concurrency == 0 {
		c.Sync.Concurrency = 1
	}
	if c.Media.ConnectTimeout == 0 {
		c.Media.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Media.ReadTimeout == 0 {
		c.Media.ReadTimeout = DefaultReadTimeout
	}
	if c.Media.MaxBytes == 0 {
		c.Media.MaxBytes = DefaultMaxMediaBytes
	}
	if c.Worker.PollInterval == 0 {
		c.Worker.PollInterval = DefaultPollInterval
	}
	if c.Worker.StaleJobTimeout == 0 {
		c.Worker.StaleJobTimeout = DefaultStaleJobTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if len(cfg.Notify.Recipients) > 0 && cfg.Notify.Sender == "" {
		return fmt.Errorf("config validation failed: notify.sender is required when recipients are set")
	}

	if cfg.Sync.Schedule != "" {
		if cfg.Sync.SpreadsheetURL == "" {
			return fmt.Errorf("config validation failed: sync.spreadsheetURL is required when a schedule is set")
		}
		if _, err := rrule.StrToRRule(cfg.Sync.Schedule); err != nil {
			return fmt.Errorf("invalid rrule in sync.schedule: %w", err)
		}
	}

	return nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// findConfigFile searches for the env config file in current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "roster_sync_config.yaml"
	if env != "" {
		configFileName = "roster_sync_config." + env + ".yaml"
	}

	// Check current directory
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", configFileName)
}
