// Package config provides configuration management for token-calculator.
//
// Configuration is loaded from multiple sources with the following precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables
// 3. Configuration file
// 4. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.NewLoader("", projectRoot).Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Context window: %d\n", cfg.ContextWindow.Size)
package config

import (
	"path/filepath"
)

// Supported report languages.
const (
	LanguageEnglish  = "en"
	LanguageJapanese = "ja"
)

// Config represents the complete application configuration.
//
// Invariants:
// - ContextWindow.Size must be > 0
// - 0 < CautionThreshold <= WarningThreshold <= 1
// - web tool costs must be >= 0
// - 0 <= JapaneseThreshold <= 1
// - chars-per-token ratios must be > 0
// - OutputLanguage must be en or ja.
type Config struct {
	// Context window the session total is measured against
	ContextWindow ContextWindowConfig `yaml:"context_window"`

	// Fixed costs of tools whose content is not visible in the log
	TokenEstimates TokenEstimatesConfig `yaml:"token_estimates"`

	// Language classification and token ratios
	LanguageDetection LanguageDetectionConfig `yaml:"language_detection"`

	// Report language (en, ja)
	OutputLanguage string `yaml:"output_language"`

	// Project layout
	Paths PathsConfig `yaml:"paths"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// ContextWindowConfig contains the context window size and usage thresholds.
type ContextWindowConfig struct {
	// Context window size in tokens
	Size int `yaml:"size"`

	// Usage ratio above which the report warns
	WarningThreshold float64 `yaml:"warning_threshold"`

	// Usage ratio above which the report adds a note
	CautionThreshold float64 `yaml:"caution_threshold"`
}

// TokenEstimatesConfig contains the fixed per-call costs of web tools.
type TokenEstimatesConfig struct {
	WebFetch  ToolCost `yaml:"web_fetch"`
	WebSearch ToolCost `yaml:"web_search"`
}

// ToolCost is a fixed token charge per tool invocation.
type ToolCost struct {
	Tokens int `yaml:"tokens"`
}

// LanguageDetectionConfig contains classification settings.
type LanguageDetectionConfig struct {
	// Japanese ratio at or above which text counts as Japanese
	JapaneseThreshold float64 `yaml:"japanese_threshold"`

	// Characters per token, per language
	CharsPerToken CharsPerTokenConfig `yaml:"chars_per_token"`
}

// CharsPerTokenConfig holds the divisors used by the token estimator.
type CharsPerTokenConfig struct {
	Japanese float64 `yaml:"japanese"`
	English  float64 `yaml:"english"`
}

// PathsConfig locates the project files. Relative LogFile and InitialContext
// paths are resolved against the project root.
type PathsConfig struct {
	// Project root; empty means discover from the working directory
	ProjectRoot string `yaml:"project_root"`

	// Session event log
	LogFile string `yaml:"log_file"`

	// Document loaded into every session up front
	InitialContext string `yaml:"initial_context"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to BoltDB database file holding session aliases
	DBPath string `yaml:"db_path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Validate checks if the configuration satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (c *Config) Validate() error {
	cw := c.ContextWindow
	if cw.Size <= 0 {
		return ErrInvalidWindowSize
	}
	if cw.CautionThreshold <= 0 || cw.WarningThreshold > 1 || cw.CautionThreshold > cw.WarningThreshold {
		return ErrInvalidThresholds
	}

	if c.TokenEstimates.WebFetch.Tokens < 0 || c.TokenEstimates.WebSearch.Tokens < 0 {
		return ErrInvalidToolCost
	}

	ld := c.LanguageDetection
	if ld.JapaneseThreshold < 0 || ld.JapaneseThreshold > 1 {
		return ErrInvalidJapaneseThreshold
	}
	if ld.CharsPerToken.Japanese <= 0 || ld.CharsPerToken.English <= 0 {
		return ErrInvalidCharsPerToken
	}

	if c.OutputLanguage != LanguageEnglish && c.OutputLanguage != LanguageJapanese {
		return ErrInvalidOutputLanguage
	}

	if c.Paths.LogFile == "" {
		return ErrNoLogFile
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// LogPath returns the event log location under root.
func (c *Config) LogPath(root string) string {
	return resolve(root, c.Paths.LogFile)
}

// InitialContextPath returns the initial-context document location under
// root, or "" when none is configured.
func (c *Config) InitialContextPath(root string) string {
	if c.Paths.InitialContext == "" {
		return ""
	}
	return resolve(root, c.Paths.InitialContext)
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

// Default returns a configuration with the stock values of the calculator.
func Default() *Config {
	return &Config{
		ContextWindow: ContextWindowConfig{
			Size:             100000,
			WarningThreshold: 0.8,
			CautionThreshold: 0.6,
		},
		TokenEstimates: TokenEstimatesConfig{
			WebFetch:  ToolCost{Tokens: 2500},
			WebSearch: ToolCost{Tokens: 1750},
		},
		LanguageDetection: LanguageDetectionConfig{
			JapaneseThreshold: 0.2,
			CharsPerToken: CharsPerTokenConfig{
				Japanese: 2.5,
				English:  4.0,
			},
		},
		OutputLanguage: LanguageEnglish,
		Paths: PathsConfig{
			LogFile:        filepath.Join("logs", "events.jsonl"),
			InitialContext: "claude.md",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Output: "stderr",
			Format: "text",
		},
	}
}
