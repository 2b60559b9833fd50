package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// projectDocument is the camelCase layout of <root>/config/token-calculator.json,
// the format the calculator has always read from the project directory.
type projectDocument struct {
	ContextWindow struct {
		Size             int     `yaml:"size" json:"size"`
		WarningThreshold float64 `yaml:"warningThreshold" json:"warningThreshold"`
		CautionThreshold float64 `yaml:"cautionThreshold" json:"cautionThreshold"`
	} `yaml:"contextWindow" json:"contextWindow"`
	TokenEstimates struct {
		WebFetch  ToolCost `yaml:"webFetch" json:"webFetch"`
		WebSearch ToolCost `yaml:"webSearch" json:"webSearch"`
	} `yaml:"tokenEstimates" json:"tokenEstimates"`
	LanguageDetection struct {
		JapaneseThreshold  float64 `yaml:"japaneseThreshold" json:"japaneseThreshold"`
		TokensPerCharacter struct {
			Japanese float64 `yaml:"japanese" json:"japanese"`
			English  float64 `yaml:"english" json:"english"`
		} `yaml:"tokensPerCharacter" json:"tokensPerCharacter"`
	} `yaml:"languageDetection" json:"languageDetection"`
	OutputLanguage string `yaml:"outputLanguage" json:"outputLanguage"`
	Paths          struct {
		ProjectRoot    string `yaml:"projectRoot" json:"projectRoot,omitempty"`
		LogFile        string `yaml:"logFile" json:"logFile,omitempty"`
		InitialContext string `yaml:"initialContext" json:"initialContext,omitempty"`
	} `yaml:"paths" json:"paths"`
	Storage struct {
		DBPath string `yaml:"dbPath" json:"dbPath,omitempty"`
	} `yaml:"storage" json:"storage"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

func (d *projectDocument) toConfig() *Config {
	cfg := &Config{}
	cfg.ContextWindow = ContextWindowConfig{
		Size:             d.ContextWindow.Size,
		WarningThreshold: d.ContextWindow.WarningThreshold,
		CautionThreshold: d.ContextWindow.CautionThreshold,
	}
	cfg.TokenEstimates = TokenEstimatesConfig{
		WebFetch:  d.TokenEstimates.WebFetch,
		WebSearch: d.TokenEstimates.WebSearch,
	}
	cfg.LanguageDetection = LanguageDetectionConfig{
		JapaneseThreshold: d.LanguageDetection.JapaneseThreshold,
		CharsPerToken: CharsPerTokenConfig{
			Japanese: d.LanguageDetection.TokensPerCharacter.Japanese,
			English:  d.LanguageDetection.TokensPerCharacter.English,
		},
	}
	cfg.OutputLanguage = d.OutputLanguage
	cfg.Paths = PathsConfig{
		ProjectRoot:    d.Paths.ProjectRoot,
		LogFile:        d.Paths.LogFile,
		InitialContext: d.Paths.InitialContext,
	}
	cfg.Storage.DBPath = d.Storage.DBPath
	cfg.Logging = d.Logging
	return cfg
}

func documentFrom(cfg *Config) *projectDocument {
	d := &projectDocument{}
	d.ContextWindow.Size = cfg.ContextWindow.Size
	d.ContextWindow.WarningThreshold = cfg.ContextWindow.WarningThreshold
	d.ContextWindow.CautionThreshold = cfg.ContextWindow.CautionThreshold
	d.TokenEstimates.WebFetch = cfg.TokenEstimates.WebFetch
	d.TokenEstimates.WebSearch = cfg.TokenEstimates.WebSearch
	d.LanguageDetection.JapaneseThreshold = cfg.LanguageDetection.JapaneseThreshold
	d.LanguageDetection.TokensPerCharacter.Japanese = cfg.LanguageDetection.CharsPerToken.Japanese
	d.LanguageDetection.TokensPerCharacter.English = cfg.LanguageDetection.CharsPerToken.English
	d.OutputLanguage = cfg.OutputLanguage
	d.Paths.ProjectRoot = cfg.Paths.ProjectRoot
	d.Paths.LogFile = cfg.Paths.LogFile
	d.Paths.InitialContext = cfg.Paths.InitialContext
	d.Storage.DBPath = cfg.Storage.DBPath
	d.Logging = cfg.Logging
	return d
}

// decodeDocument parses a project JSON document. JSON is read through the
// YAML decoder, which accepts it as a subset.
func decodeDocument(data []byte) (*Config, error) {
	var doc projectDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return doc.toConfig(), nil
}

// MarshalJSON encodes cfg in the project JSON document layout.
func MarshalJSON(cfg *Config) ([]byte, error) {
	data, err := json.MarshalIndent(documentFrom(cfg), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append(data, '\n'), nil
}

// MarshalYAML encodes cfg in the YAML layout.
func MarshalYAML(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
