package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/0xmhha/token-calculator/pkg/logger"
)

// Environment variables overriding file and default values.
const (
	EnvLogLevel    = "TOKEN_CALCULATOR_LOG_LEVEL"
	EnvLanguage    = "TOKEN_CALCULATOR_LANG"
	EnvDB          = "TOKEN_CALCULATOR_DB"
	EnvProjectRoot = "TOKEN_CALCULATOR_ROOT"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile reads a single file without defaults or validation.
	LoadFromFile(path string) (*Config, error)

	// Source returns the file the last Load merged, or "" if defaults only.
	Source() string
}

// loader implements the Loader interface.
type loader struct {
	configPath  string
	projectRoot string
	logger      logger.Logger
	source      string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. <projectRoot>/config/token-calculator.json
// 2. <projectRoot>/config/token-calculator.yaml
// 3. ~/.config/token-calculator/config.yaml.
func NewLoader(configPath, projectRoot string, log logger.Logger) Loader {
	if log == nil {
		log = logger.Noop()
	}
	return &loader{
		configPath:  configPath,
		projectRoot: projectRoot,
		logger:      log,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()
	l.source = ""

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly named file must load
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
			l.logger.Warn("config file loading failed, using defaults", "path", configPath, "error", err)
		} else {
			cfg = l.mergeConfigs(cfg, fileCfg)
			l.source = configPath
		}
	}

	cfg = l.applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
//
// Files ending in .json use the project document layout; anything else is
// read as YAML.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeDocument(data)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Source implements Loader.Source.
func (l *loader) Source() string {
	return l.source
}

// findConfigFile returns the first existing candidate, or "".
func (l *loader) findConfigFile() string {
	for _, path := range CandidatePaths(l.projectRoot) {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into default configuration.
//
// File values override defaults, but only if they are non-zero.
func (l *loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	// Merge context window
	if override.ContextWindow.Size > 0 {
		result.ContextWindow.Size = override.ContextWindow.Size
	}
	if override.ContextWindow.WarningThreshold > 0 {
		result.ContextWindow.WarningThreshold = override.ContextWindow.WarningThreshold
	}
	if override.ContextWindow.CautionThreshold > 0 {
		result.ContextWindow.CautionThreshold = override.ContextWindow.CautionThreshold
	}

	// Merge token estimates
	if override.TokenEstimates.WebFetch.Tokens > 0 {
		result.TokenEstimates.WebFetch = override.TokenEstimates.WebFetch
	}
	if override.TokenEstimates.WebSearch.Tokens > 0 {
		result.TokenEstimates.WebSearch = override.TokenEstimates.WebSearch
	}

	// Merge language detection
	if override.LanguageDetection.JapaneseThreshold > 0 {
		result.LanguageDetection.JapaneseThreshold = override.LanguageDetection.JapaneseThreshold
	}
	if override.LanguageDetection.CharsPerToken.Japanese > 0 {
		result.LanguageDetection.CharsPerToken.Japanese = override.LanguageDetection.CharsPerToken.Japanese
	}
	if override.LanguageDetection.CharsPerToken.English > 0 {
		result.LanguageDetection.CharsPerToken.English = override.LanguageDetection.CharsPerToken.English
	}

	if override.OutputLanguage != "" {
		result.OutputLanguage = override.OutputLanguage
	}

	// Merge paths
	if override.Paths.ProjectRoot != "" {
		result.Paths.ProjectRoot = override.Paths.ProjectRoot
	}
	if override.Paths.LogFile != "" {
		result.Paths.LogFile = override.Paths.LogFile
	}
	if override.Paths.InitialContext != "" {
		result.Paths.InitialContext = override.Paths.InitialContext
	}

	// Merge storage config
	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}

	// Merge logging config
	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - TOKEN_CALCULATOR_LOG_LEVEL: Log level
//   - TOKEN_CALCULATOR_LANG: Report language
//   - TOKEN_CALCULATOR_DB: Path to database file
//   - TOKEN_CALCULATOR_ROOT: Project root
func (l *loader) applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if logLevel := os.Getenv(EnvLogLevel); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}

	if lang := os.Getenv(EnvLanguage); lang != "" {
		result.OutputLanguage = strings.ToLower(lang)
	}

	if dbPath := os.Getenv(EnvDB); dbPath != "" {
		result.Storage.DBPath = dbPath
	}

	if root := os.Getenv(EnvProjectRoot); root != "" {
		result.Paths.ProjectRoot = root
	}

	return &result
}

// Load is a convenience function that loads configuration for projectRoot
// with automatic file discovery.
func Load(projectRoot string) (*Config, error) {
	return NewLoader("", projectRoot, nil).Load()
}

// LoadFromFile is a convenience function that loads configuration from a file,
// merged over defaults and validated.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path, "", nil).Load()
}

// Save writes the configuration to path, as a project JSON document when
// path ends in .json and as YAML otherwise.
//
// Creates parent directories if they don't exist.
// File is created with 0600 permissions (read/write for owner only).
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	marshal := MarshalYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		marshal = MarshalJSON
	}
	data, err := marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
