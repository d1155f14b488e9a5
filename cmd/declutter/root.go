package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/declutter/pkg/declutter/config"
	"github.com/jamesainslie/declutter/pkg/declutter/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "declutter [path]",
		Short: "Reclaim disk space by finding junk and duplicate files",
		Long: `Declutter scans a directory tree, categorizes every file, and finds
duplicate content so you can reclaim disk space safely.

By default, declutter launches an interactive progress view and prints a
summary when the scan finishes. Use --no-interactive or -o json for
scriptable output.

Examples:
  declutter                        # Scan current directory
  declutter ~/Downloads            # Scan a specific directory
  declutter -o json ~/Downloads    # Machine-readable result
  declutter clean --duplicates .   # Delete redundant duplicate copies
  declutter config show            # Show configuration
  declutter history                # View operation history`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScan,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/declutter/config.yaml)")
	rootCmd.PersistentFlags().StringP("max-file-size", "s", "", "skip hashing files larger than this (e.g., 500M, 1G)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude path prefixes (can be specified multiple times)")
	rootCmd.PersistentFlags().StringSlice("exclude-ext", nil, "skip files with these extensions entirely")
	rootCmd.PersistentFlags().Bool("hidden", false, "include hidden files")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "hashing worker count (0=auto)")
	rootCmd.PersistentFlags().BoolP("no-interactive", "n", false, "disable the live progress view")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the hash cache, re-hash everything")

	// Bind flags to viper
	_ = viper.BindPFlag("scan.max_file_size", rootCmd.PersistentFlags().Lookup("max-file-size"))
	_ = viper.BindPFlag("scan.exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("scan.exclude_extensions", rootCmd.PersistentFlags().Lookup("exclude-ext"))
	_ = viper.BindPFlag("scan.include_hidden", rootCmd.PersistentFlags().Lookup("hidden"))
	_ = viper.BindPFlag("scan.hash_workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("no_interactive", rootCmd.PersistentFlags().Lookup("no-interactive"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "declutter"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "declutter"))
		}
	}

	viper.SetEnvPrefix("DECLUTTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("default_path", config.DefaultPath)
	viper.SetDefault("scan.exclude", config.DefaultExclusions)
	viper.SetDefault("scan.exclude_extensions", config.DefaultExcludedExtensions)
	viper.SetDefault("scan.max_file_size", config.DefaultMaxFileSize)
	viper.SetDefault("scan.hash_cache", true)
	viper.SetDefault("clean.safe_mode", true)
	viper.SetDefault("clean.backup_dir", filepath.Join(config.DataDir(), "backups"))
	viper.SetDefault("manifest.enabled", true)
	viper.SetDefault("manifest.path", filepath.Join(config.DataDir(), "manifest"))
	viper.SetDefault("manifest.retention_days", config.DefaultRetentionDays)
	viper.SetDefault("logging.level", "info")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// buildConfig assembles the effective configuration from viper, which
// already merges defaults, the config file, environment, and flags.
func buildConfig() *config.Config {
	cfg := &config.Config{
		DefaultPath: viper.GetString("default_path"),
		Scan: config.ScanConfig{
			Exclude:           viper.GetStringSlice("scan.exclude"),
			ExcludeExtensions: viper.GetStringSlice("scan.exclude_extensions"),
			MaxFileSize:       viper.GetString("scan.max_file_size"),
			IncludeHidden:     viper.GetBool("scan.include_hidden"),
			HashWorkers:       viper.GetInt("scan.hash_workers"),
			HashCache:         viper.GetBool("scan.hash_cache") && !viper.GetBool("no_cache"),
		},
		Clean: config.CleanConfig{
			SafeMode:           viper.GetBool("clean.safe_mode"),
			UseTrash:           viper.GetBool("clean.use_trash"),
			BackupBeforeDelete: viper.GetBool("clean.backup_before_delete"),
			BackupDir:          viper.GetString("clean.backup_dir"),
			Protected:          viper.GetStringSlice("clean.protected"),
		},
		Manifest: config.ManifestConfig{
			Enabled:       viper.GetBool("manifest.enabled"),
			Path:          viper.GetString("manifest.path"),
			RetentionDays: viper.GetInt("manifest.retention_days"),
		},
	}
	return cfg
}

// initLogging configures the log file from viper settings. Verbose mode
// forces debug level and mirrors warnings to the console.
func initLogging() error {
	level := viper.GetString("logging.level")
	if getVerbose() {
		level = "debug"
	}
	return logging.Init(logging.Config{
		Level:    level,
		Path:     viper.GetString("logging.path"),
		Rotation: logging.DefaultRotationConfig(),
		Console:  getVerbose(),
	})
}

// resolvePath expands ~ and resolves the argument (or the configured
// default) to an absolute path.
func resolvePath(args []string) (string, error) {
	scanPath := "."
	if len(args) > 0 {
		scanPath = args[0]
	} else if defaultPath := viper.GetString("default_path"); defaultPath != "" {
		scanPath = defaultPath
	}

	expanded, err := config.ExpandPath(scanPath)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	return abs, nil
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logging.Close() }()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
