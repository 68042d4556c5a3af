// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds cfgsh configuration settings
type Config struct {
	Engine             string `yaml:"engine" description:"Script engine (lua, goja)" default:"lua"`
	BootstrapDir       string `yaml:"bootstrap_dir" description:"Directory holding the bridge bootstrap libraries"`
	PreserveEmptyItems bool   `yaml:"preserve_empty_items" description:"Keep empty items when expanding lists" default:"false"`
	Listfile           string `yaml:"listfile" description:"Listfile name read from each source directory" default:"Configure.txt"`
	HistoryFile        string `yaml:"history_file" description:"REPL history file (relative to data dir)" default:"history"`
	WatchDebounceMs    int    `yaml:"watch_debounce_ms" description:"Quiet period before a watched change reconfigures" default:"300"`
	Color              string `yaml:"color" description:"Colored output (auto, always, never)" default:"auto"`
}

// Supported values for Config.Engine and Config.Color.
var (
	ValidEngines = []string{"lua", "goja"}
	ValidColors  = []string{"auto", "always", "never"}
)

// DefaultConfig returns the default configuration for runtime use.
// BootstrapDir is left empty and resolved by BootstrapDir().
func DefaultConfig() Config {
	return Config{
		Engine:          "lua",
		Listfile:        DefaultListfile,
		HistoryFile:     "history",
		WatchDebounceMs: 300,
		Color:           "auto",
	}
}

// DefaultListfile is the listfile read from every source directory.
const DefaultListfile = "Configure.txt"

// DefaultDataDir is the default data directory for cfgsh
const DefaultDataDir = "~/.cfgsh"

// GetDataDir returns the data directory.
// Resolution order: -d flag > CFGSH_DATA env var > ~/.cfgsh
func GetDataDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envDir := os.Getenv("CFGSH_DATA"); envDir != "" {
		return envDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "" // Can't determine default
	}
	return filepath.Join(home, ".cfgsh")
}

// GetConfigPath returns the path to the config file in the data directory.
// Returns empty string if dataDir is empty.
func GetConfigPath(dataDir string) string {
	if dataDir == "" {
		return ""
	}
	return filepath.Join(dataDir, "config.yaml")
}

// LoadConfig loads configuration from config.yaml in the data directory.
// If dataDir is empty or the file doesn't exist, returns default config.
// A relative history_file is resolved against the data directory.
func LoadConfig(dataDir string) (Config, error) {
	config, err := LoadConfigFromPath(GetConfigPath(dataDir))
	if err != nil {
		return config, err
	}
	if dataDir != "" {
		config.HistoryFile = ResolvePath(config.HistoryFile, dataDir)
	}
	return config, nil
}

// LoadConfigFromPath loads configuration from the specified path.
// If path is empty or the file doesn't exist, returns default config.
func LoadConfigFromPath(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		_, _ = fmt.Fprintf(os.Stderr, "Warning: Failed to read config file: %v\n", err)
		return DefaultConfig(), nil
	}

	// Start with defaults, then overlay config file values
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	// Fill in defaults for missing values
	defaults := DefaultConfig()
	if config.Listfile == "" {
		config.Listfile = defaults.Listfile
	}
	if config.HistoryFile == "" {
		config.HistoryFile = defaults.HistoryFile
	}
	if config.WatchDebounceMs == 0 {
		config.WatchDebounceMs = defaults.WatchDebounceMs
	}

	return config, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if !slices.Contains(ValidEngines, c.Engine) {
		return fmt.Errorf("invalid engine '%s' in config (must be %s)", c.Engine, strings.Join(ValidEngines, " or "))
	}
	if !slices.Contains(ValidColors, c.Color) {
		return fmt.Errorf("invalid color '%s' in config (must be %s)", c.Color, strings.Join(ValidColors, ", "))
	}
	if c.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms must not be negative")
	}
	if strings.ContainsAny(c.Listfile, `/\`) {
		return fmt.Errorf("listfile '%s' must be a file name, not a path", c.Listfile)
	}
	return nil
}

// BootstrapDirEnv points at an installation root; bootstrap libraries live in share/cfgbridge under it.
const BootstrapDirEnv = "CFGBRIDGE_ROOT"

// ResolveBootstrapDir returns the directory holding the bootstrap libraries.
// Resolution order: configured value > $CFGBRIDGE_ROOT/share/cfgbridge > <exe dir>/../share/cfgbridge
func (c *Config) ResolveBootstrapDir() string {
	if c.BootstrapDir != "" {
		return ExpandHome(c.BootstrapDir)
	}
	if root := os.Getenv(BootstrapDirEnv); root != "" {
		return filepath.Join(root, "share", "cfgbridge")
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("share", "cfgbridge")
	}
	return filepath.Join(filepath.Dir(exe), "..", "share", "cfgbridge")
}

// ResolvePath makes path absolute relative to baseDir. "~/" is expanded first.
func ResolvePath(path, baseDir string) string {
	path = ExpandHome(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// DisplayConfig prints the current configuration
func DisplayConfig(dataDir string) {
	config, err := LoadConfig(dataDir)
	configPath := GetConfigPath(dataDir)

	fmt.Println("Current Configuration:")
	fmt.Println("=====================")
	fmt.Printf("Data dir:      %s\n", dataDir)
	fmt.Printf("Config file:   %s\n", configPath)
	if err != nil {
		fmt.Printf("Error:         %v\n", err)
		fmt.Println()
		return
	}
	fmt.Printf("Engine:        %s\n", config.Engine)
	fmt.Printf("Bootstrap dir: %s\n", config.ResolveBootstrapDir())
	fmt.Printf("Empty items:   %v\n", config.PreserveEmptyItems)
	fmt.Printf("Listfile:      %s\n", config.Listfile)
	fmt.Printf("History:       %s\n", config.HistoryFile)
	fmt.Printf("Debounce:      %dms\n", config.WatchDebounceMs)
	fmt.Printf("Color:         %s\n", config.Color)
	fmt.Println()
}
