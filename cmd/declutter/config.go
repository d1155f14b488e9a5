package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/declutter/pkg/declutter/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage declutter configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/declutter/config.yaml (if set)
  2. ~/.config/declutter/config.yaml

Environment variables can override config file settings using the
DECLUTTER_ prefix:
  DECLUTTER_SCAN_MAX_FILE_SIZE=500M
  DECLUTTER_CLEAN_USE_TRASH=true
  DECLUTTER_SCAN_EXCLUDE=/tmp,/var/cache`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{
			DefaultPath: config.DefaultPath,
			Scan: config.ScanConfig{
				Exclude:     config.DefaultExclusions,
				MaxFileSize: config.DefaultMaxFileSize,
				HashCache:   true,
			},
			Clean: config.CleanConfig{SafeMode: true},
		}
		cfg.Manifest.Enabled = true
		cfg.Manifest.RetentionDays = config.DefaultRetentionDays
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("default_path:               %s\n", cfg.DefaultPath)
	fmt.Printf("scan.exclude:               %v\n", cfg.Scan.Exclude)
	fmt.Printf("scan.exclude_extensions:    %v\n", cfg.Scan.ExcludeExtensions)
	fmt.Printf("scan.max_file_size:         %s\n", cfg.Scan.MaxFileSize)
	fmt.Printf("scan.include_hidden:        %t\n", cfg.Scan.IncludeHidden)
	fmt.Printf("scan.hash_workers:          %d\n", cfg.Scan.HashWorkers)
	fmt.Printf("scan.hash_cache:            %t\n", cfg.Scan.HashCache)
	fmt.Printf("clean.safe_mode:            %t\n", cfg.Clean.SafeMode)
	fmt.Printf("clean.use_trash:            %t\n", cfg.Clean.UseTrash)
	fmt.Printf("clean.backup_before_delete: %t\n", cfg.Clean.BackupBeforeDelete)
	fmt.Printf("clean.backup_dir:           %s\n", cfg.Clean.BackupDir)
	fmt.Printf("clean.protected:            %v\n", cfg.Clean.Protected)
	fmt.Printf("manifest.enabled:           %t\n", cfg.Manifest.Enabled)
	fmt.Printf("manifest.path:              %s\n", cfg.Manifest.Path)
	fmt.Printf("manifest.retention:         %d days\n", cfg.Manifest.RetentionDays)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"DECLUTTER_DEFAULT_PATH",
		"DECLUTTER_SCAN_EXCLUDE",
		"DECLUTTER_SCAN_EXCLUDE_EXTENSIONS",
		"DECLUTTER_SCAN_MAX_FILE_SIZE",
		"DECLUTTER_SCAN_INCLUDE_HIDDEN",
		"DECLUTTER_SCAN_HASH_WORKERS",
		"DECLUTTER_CLEAN_SAFE_MODE",
		"DECLUTTER_CLEAN_USE_TRASH",
		"DECLUTTER_CLEAN_BACKUP_BEFORE_DELETE",
		"DECLUTTER_MANIFEST_ENABLED",
		"DECLUTTER_MANIFEST_PATH",
		"DECLUTTER_MANIFEST_RETENTION_DAYS",
	}

	anyOverrides := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Println("(none)")
	}

	return nil
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", configPath, editor)

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		printInfo("Use 'declutter config edit' to modify it.")
		return nil
	}

	if err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	fmt.Println(configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}
