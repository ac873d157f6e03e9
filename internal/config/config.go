package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// AppName names the per-user configuration directory.
const AppName = "recipebox"

// DefaultConfigPath is read when RECIPEBOX_CONFIG_PATH is unset.
const DefaultConfigPath = "config/recipebox.yaml"

// ProductionDatabasePath is the persistent-disk location used when
// RECIPEBOX_ENV=production and no explicit path is configured.
const ProductionDatabasePath = "/opt/render/project/src/server/db/recipes.db"

// DefaultDatabaseFile is the file name used next to the executable.
const DefaultDatabaseFile = "recipes.db"

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Cleanup  CleanupConfig  `yaml:"cleanup"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is resolved by Load; see ResolveDatabasePath.
	Path string `yaml:"path"`
	// MigrationsDir replaces the embedded schema when set.
	MigrationsDir string `yaml:"migrations_dir"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CleanupConfig controls the duplicate recipe cleanup.
type CleanupConfig struct {
	OnStartup bool     `yaml:"on_startup"`
	Interval  Duration `yaml:"interval"` // 0 disables the periodic worker
	Backup    bool     `yaml:"backup"`
}

// SnapshotConfig controls pre-cleanup backups and their optional upload
// to S3-compatible storage. An empty Bucket keeps backups local.
type SnapshotConfig struct {
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	UseSSL    *bool  `yaml:"use_ssl"`
	AccessKey string `yaml:"-"` // env-only
	SecretKey string `yaml:"-"` // env-only
}

// IsProduction reports whether the production deployment mode is selected.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// The YAML path comes from RECIPEBOX_CONFIG_PATH, else DefaultConfigPath if it
// exists, else UserConfigPath. A missing file is not an error.
func Load() (*Config, error) {
	return load(getEnv("RECIPEBOX_CONFIG_PATH", defaultConfigPath()), false)
}

// UserConfigPath returns the per-user config file under the XDG config home.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

func defaultConfigPath() string {
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return UserConfigPath()
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, required bool) (*Config, error) {
	cfg := newDefaults()

	if err := loadYAMLFile(cfg, path, required); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.ResolveDatabasePath(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	useSSL := true
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cleanup: CleanupConfig{
			OnStartup: true,
		},
		Snapshot: SnapshotConfig{
			Dir:    "backups",
			Region: "us-east-1",
			UseSSL: &useSSL,
		},
	}
}

// loadYAMLFile loads configuration from a YAML file.
// A missing file is only an error when required is set.
func loadYAMLFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RECIPEBOX_ENV"); v != "" {
		cfg.Env = v
	}

	// Server
	if v := os.Getenv("RECIPEBOX_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RECIPEBOX_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("RECIPEBOX_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("RECIPEBOX_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("RECIPEBOX_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RECIPEBOX_MIGRATIONS_DIR"); v != "" {
		cfg.Database.MigrationsDir = v
	}

	// Auth
	if v := os.Getenv("RECIPEBOX_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("RECIPEBOX_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("RECIPEBOX_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// Cleanup
	if v := os.Getenv("RECIPEBOX_CLEANUP_ON_STARTUP"); v != "" {
		cfg.Cleanup.OnStartup = v == "true" || v == "1"
	}
	if v := os.Getenv("RECIPEBOX_CLEANUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cleanup.Interval = Duration(d)
		}
	}
	if v := os.Getenv("RECIPEBOX_CLEANUP_BACKUP"); v != "" {
		cfg.Cleanup.Backup = v == "true" || v == "1"
	}

	// Snapshot
	if v := os.Getenv("RECIPEBOX_SNAPSHOT_DIR"); v != "" {
		cfg.Snapshot.Dir = v
	}
	if v := os.Getenv("RECIPEBOX_SNAPSHOT_BUCKET"); v != "" {
		cfg.Snapshot.Bucket = v
	}
	if v := os.Getenv("RECIPEBOX_S3_ENDPOINT"); v != "" {
		cfg.Snapshot.Endpoint = v
	}
	if v := os.Getenv("RECIPEBOX_S3_REGION"); v != "" {
		cfg.Snapshot.Region = v
	}
	if v := os.Getenv("RECIPEBOX_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.Snapshot.UseSSL = &useSSL
	}
	if v := os.Getenv("RECIPEBOX_S3_ACCESS_KEY"); v != "" {
		cfg.Snapshot.AccessKey = v
	}
	if v := os.Getenv("RECIPEBOX_S3_SECRET_KEY"); v != "" {
		cfg.Snapshot.SecretKey = v
	}
}

// ResolveDatabasePath fills Database.Path from the deployment mode when no
// explicit path is configured: the persistent-disk path in production,
// otherwise recipes.db next to the running executable.
func (c *Config) ResolveDatabasePath() error {
	if c.Database.Path != "" {
		return nil
	}
	if c.IsProduction() {
		c.Database.Path = ProductionDatabasePath
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	c.Database.Path = filepath.Join(filepath.Dir(exe), DefaultDatabaseFile)
	return nil
}

// validate checks configuration values for consistency.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Cleanup.Interval < 0 {
		return errors.New("cleanup interval must not be negative")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q (want json or text)", c.Log.Format)
	}
	if c.Snapshot.Bucket != "" && c.Snapshot.Endpoint == "" {
		return errors.New("snapshot bucket requires RECIPEBOX_S3_ENDPOINT")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
