package estimator

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/token-calculator/pkg/language"
	"github.com/0xmhha/token-calculator/pkg/logger"
)

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()

	e, err := New(language.NewDetector(language.DefaultThreshold), Config{
		CharsPerTokenJapanese: DefaultCharsPerTokenJapanese,
		CharsPerTokenEnglish:  DefaultCharsPerTokenEnglish,
	}, logger.Noop())
	require.NoError(t, err)
	return e
}

func TestNew_InvalidRatio(t *testing.T) {
	t.Parallel()

	d := language.NewDetector(0.2)
	_, err := New(d, Config{CharsPerTokenJapanese: 0, CharsPerTokenEnglish: 4}, logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidRatio)

	_, err = New(d, Config{CharsPerTokenJapanese: 2.5, CharsPerTokenEnglish: -1}, logger.Noop())
	assert.ErrorIs(t, err, ErrInvalidRatio)
}

func TestEstimate(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"four chars", "abcd", 1},
		{"five chars", "abcde", 2},
		{"100 ascii", strings.Repeat("a", 100), 25},
		{"100 japanese", strings.Repeat("あ", 100), 40},
		{"one japanese char", "あ", 1},
		{"mixed above threshold", "これはtest", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.Estimate(tt.text))
		})
	}
}

func TestEstimate_MatchesFormula(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)
	samples := []string{
		"hello",
		"日本語のテキストとEnglish text",
		"mostly english with one 字",
		"😀😀😀",
		strings.Repeat("x", 1001),
	}

	for _, s := range samples {
		result := e.Detector().Detect(s)
		ratio := DefaultCharsPerTokenEnglish
		if result.Language == language.Japanese {
			ratio = DefaultCharsPerTokenJapanese
		}
		want := int(math.Ceil(float64(language.Length(s)) / ratio))
		assert.Equal(t, want, e.Estimate(s), "Estimate(%q)", s)
	}
}

func TestEstimateFile(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", 40)), 0600))

	got := e.EstimateFile(path)
	assert.Equal(t, 10, got.Tokens)
	assert.Equal(t, int64(40), got.Size)
	assert.Equal(t, language.English, got.Language)
	require.NotNil(t, got.JapaneseRatio)
	assert.Equal(t, 0.0, *got.JapaneseRatio)
}

func TestEstimateFile_Japanese(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)
	path := filepath.Join(t.TempDir(), "ja.txt")
	content := strings.Repeat("日本", 5)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	got := e.EstimateFile(path)
	assert.Equal(t, 4, got.Tokens)
	assert.Equal(t, int64(len(content)), got.Size)
	assert.Equal(t, language.Japanese, got.Language)
}

func TestEstimateFile_Missing(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)
	got := e.EstimateFile("/nonexistent/path")

	assert.Equal(t, FileStats{Language: language.Unknown}, got)
}

func TestEstimateFile_Directory(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)
	got := e.EstimateFile(t.TempDir())

	assert.Equal(t, 0, got.Tokens)
	assert.Equal(t, language.Unknown, got.Language)
}

func TestEstimateFile_PicksUpChanges(t *testing.T) {
	t.Parallel()

	e := newTestEstimator(t)
	path := filepath.Join(t.TempDir(), "grow.txt")

	require.NoError(t, os.WriteFile(path, []byte("abcd"), 0600))
	assert.Equal(t, 1, e.EstimateFile(path).Tokens)

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("abcd", 3)), 0600))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	assert.Equal(t, 3, e.EstimateFile(path).Tokens)
}
