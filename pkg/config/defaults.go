package config

import (
	"os"
	"path/filepath"
)

// ProjectConfigFiles are looked up under <root>/config, in order.
var ProjectConfigFiles = []string{
	"token-calculator.json",
	"token-calculator.yaml",
}

// defaultDBPath returns the default database file path.
//
// Returns: ~/.config/token-calculator/sessions.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./sessions.db"
	}

	return filepath.Join(homeDir, ".config", "token-calculator", "sessions.db")
}

// DefaultConfigPath returns the user-level configuration file path.
//
// Returns: ~/.config/token-calculator/config.yaml.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}

	return filepath.Join(homeDir, ".config", "token-calculator", "config.yaml")
}

// CandidatePaths lists the config files searched when none is named, in order.
func CandidatePaths(projectRoot string) []string {
	var paths []string
	if projectRoot != "" {
		for _, name := range ProjectConfigFiles {
			paths = append(paths, filepath.Join(projectRoot, "config", name))
		}
	}
	return append(paths, DefaultConfigPath())
}
