package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// ScanConfig configures traversal and duplicate detection.
type ScanConfig struct {
	Exclude           []string `mapstructure:"exclude"`
	ExcludeExtensions []string `mapstructure:"exclude_extensions"`
	MaxFileSize       string   `mapstructure:"max_file_size"`
	IncludeHidden     bool     `mapstructure:"include_hidden"`
	HashWorkers       int      `mapstructure:"hash_workers"`
	HashCache         bool     `mapstructure:"hash_cache"`
}

// CleanConfig configures deletion behavior.
type CleanConfig struct {
	SafeMode           bool     `mapstructure:"safe_mode"`
	UseTrash           bool     `mapstructure:"use_trash"`
	BackupBeforeDelete bool     `mapstructure:"backup_before_delete"`
	BackupDir          string   `mapstructure:"backup_dir"`
	Protected          []string `mapstructure:"protected"`
}

// ManifestConfig configures the operation journal.
type ManifestConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// Config represents the application configuration.
type Config struct {
	DefaultPath string         `mapstructure:"default_path"`
	Scan        ScanConfig     `mapstructure:"scan"`
	Clean       CleanConfig    `mapstructure:"clean"`
	Manifest    ManifestConfig `mapstructure:"manifest"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/declutter/config.yaml
//   - $HOME/.config/declutter/config.yaml
//
// Environment variables are prefixed with DECLUTTER_
// (e.g., DECLUTTER_SCAN_MAX_FILE_SIZE).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "declutter"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "declutter"))

	v.SetEnvPrefix("DECLUTTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("default_path", DefaultPath)

	v.SetDefault("scan.exclude", DefaultExclusions)
	v.SetDefault("scan.exclude_extensions", DefaultExcludedExtensions)
	v.SetDefault("scan.max_file_size", DefaultMaxFileSize)
	v.SetDefault("scan.include_hidden", false)
	v.SetDefault("scan.hash_workers", DefaultHashWorkers)
	v.SetDefault("scan.hash_cache", true)

	v.SetDefault("clean.safe_mode", true)
	v.SetDefault("clean.use_trash", false)
	v.SetDefault("clean.backup_before_delete", false)
	v.SetDefault("clean.backup_dir", filepath.Join(DataDir(), "backups"))
	v.SetDefault("clean.protected", []string{})

	v.SetDefault("manifest.enabled", true)
	v.SetDefault("manifest.path", filepath.Join(DataDir(), "manifest"))
	v.SetDefault("manifest.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"scanner": "info",
		"dupes":   "info",
		"cleaner": "info",
		"session": "info",
		"tui":     "warn",
	})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file means defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Clean.BackupDir, err = ExpandPath(cfg.Clean.BackupDir); err != nil {
		return nil, err
	}
	if cfg.Manifest.Path, err = ExpandPath(cfg.Manifest.Path); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "declutter"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "declutter"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Declutter Configuration

# Default path to scan when none is specified
default_path: %s

# Scan settings
scan:
  # Paths to exclude from scanning
  exclude:
    - /proc
    - /sys
    - /dev
  # File extensions to skip entirely (e.g. ".iso")
  exclude_extensions: []
  # Files larger than this are recorded but never hashed for duplicates
  max_file_size: %s
  # Include dotfiles and dot-directories
  include_hidden: false
  # Hashing worker count (0 = number of CPUs)
  hash_workers: %d
  # Cache content hashes across scans
  hash_cache: true

# Cleanup settings
clean:
  # Refuse to delete under protected system paths or outside the scan root
  safe_mode: true
  # Move files to the system trash instead of deleting permanently
  use_trash: false
  # Copy files to backup_dir (and verify) before deleting
  backup_before_delete: false
  backup_dir: %s
  # Extra protected path prefixes (added to the built-in system set)
  protected: []

# Manifest settings for tracking scan and cleanup history
manifest:
  enabled: true
  path: %s
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means $XDG_STATE_HOME/declutter/declutter.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    scanner: info
    dupes: info
    cleaner: info
    session: info
    tui: warn
`, DefaultPath, DefaultMaxFileSize, DefaultHashWorkers,
		filepath.Join(DataDir(), "backups"),
		filepath.Join(DataDir(), "manifest"),
		DefaultRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/declutter/ for manifests and backups.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "declutter")
}

// StateDir returns $XDG_STATE_HOME/declutter/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "declutter")
}

// CacheDir returns $XDG_CACHE_HOME/declutter/ for the hash cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "declutter")
}
