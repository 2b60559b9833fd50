// Package estimator converts text into approximate token counts.
//
// Token counts are not tokenizer output: they are the text length in UTF-16
// code units divided by a per-language characters-per-token ratio, rounded up.
// File content is resolved through the same formula; results are memoized per
// path, size and modification time.
package estimator

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"github.com/maypok86/otter/v2"

	"github.com/0xmhha/token-calculator/pkg/language"
	"github.com/0xmhha/token-calculator/pkg/logger"
)

// Default characters-per-token ratios.
const (
	DefaultCharsPerTokenJapanese = 2.5
	DefaultCharsPerTokenEnglish  = 4.0

	defaultCacheSize = 1024
)

// ErrInvalidRatio is returned when a characters-per-token ratio is not positive.
var ErrInvalidRatio = errors.New("invalid chars-per-token ratio: must be > 0")

// Config contains estimator configuration.
type Config struct {
	// CharsPerTokenJapanese applies to text classified as Japanese.
	CharsPerTokenJapanese float64

	// CharsPerTokenEnglish applies to everything else.
	CharsPerTokenEnglish float64

	// CacheSize bounds the number of memoized file results.
	// Default: 1024.
	CacheSize int
}

// FileStats describes the estimated token cost of a file on disk.
type FileStats struct {
	Tokens        int
	Size          int64
	Language      language.Tag
	JapaneseRatio *float64
}

// Estimator estimates token counts for text and files.
type Estimator struct {
	detector *language.Detector
	japanese float64
	english  float64
	files    *otter.Cache[string, FileStats]
	logger   logger.Logger
}

// New creates an estimator on top of the given detector.
func New(detector *language.Detector, cfg Config, log logger.Logger) (*Estimator, error) {
	if cfg.CharsPerTokenJapanese <= 0 || cfg.CharsPerTokenEnglish <= 0 {
		return nil, fmt.Errorf("%w: japanese=%v, english=%v",
			ErrInvalidRatio, cfg.CharsPerTokenJapanese, cfg.CharsPerTokenEnglish)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}

	files, err := otter.New(&otter.Options[string, FileStats]{
		MaximumSize: cfg.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create file cache: %w", err)
	}

	return &Estimator{
		detector: detector,
		japanese: cfg.CharsPerTokenJapanese,
		english:  cfg.CharsPerTokenEnglish,
		files:    files,
		logger:   log,
	}, nil
}

// Detector returns the classifier the estimator is built on.
func (e *Estimator) Detector() *language.Detector {
	return e.detector
}

// Estimate returns ceil(len(text) / charsPerToken). Empty text costs 0.
func (e *Estimator) Estimate(text string) int {
	tokens, _ := e.EstimateDetect(text)
	return tokens
}

// EstimateDetect returns the token estimate together with the classification
// that selected the ratio.
func (e *Estimator) EstimateDetect(text string) (int, language.Result) {
	result := e.detector.Detect(text)
	if text == "" {
		return 0, result
	}

	ratio := e.english
	if result.Language == language.Japanese {
		ratio = e.japanese
	}

	return int(math.Ceil(float64(language.Length(text)) / ratio)), result
}

// EstimateFile reads path and estimates its content.
//
// A missing or unreadable file yields {0, 0, Unknown, nil}; read failures are
// logged, never returned.
func (e *Estimator) EstimateFile(path string) FileStats {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("failed to stat file", "path", path, "error", err)
		}
		return unknownFile()
	}

	key := fmt.Sprintf("%s|%d|%d", path, info.Size(), info.ModTime().UnixNano())
	if cached, ok := e.files.GetIfPresent(key); ok {
		return cached
	}

	// #nosec G304: paths come from the session log being analysed
	content, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		e.logger.Warn("failed to read file", "path", path, "error", err)
		return unknownFile()
	}

	tokens, result := e.EstimateDetect(string(content))
	ratio := result.Ratio
	stats := FileStats{
		Tokens:        tokens,
		Size:          info.Size(),
		Language:      result.Language,
		JapaneseRatio: &ratio,
	}

	e.files.Set(key, stats)
	return stats
}

func unknownFile() FileStats {
	return FileStats{Language: language.Unknown}
}
