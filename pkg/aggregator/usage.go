package aggregator

import (
	"slices"

	"github.com/samber/lo"
)

// Level classifies context-window usage.
type Level int

const (
	// LevelNormal is usage at or below the caution threshold.
	LevelNormal Level = iota

	// LevelCaution is usage above the caution threshold.
	LevelCaution

	// LevelWarning is usage above the warning threshold.
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelCaution:
		return "caution"
	case LevelWarning:
		return "warning"
	default:
		return "normal"
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Thresholds are the usage ratios that raise the level. Both comparisons are
// strict: usage exactly at a threshold does not cross it.
type Thresholds struct {
	Warning float64
	Caution float64
}

// Usage is total tokens measured against the context window.
type Usage struct {
	WindowSize int     `json:"windowSize"`
	Ratio      float64 `json:"ratio"`
	Level      Level   `json:"level"`
}

// Percent returns the usage ratio as a percentage.
func (u Usage) Percent() float64 {
	return u.Ratio * 100
}

// ComputeUsage measures total against windowSize. A non-positive window
// yields a zero ratio.
func ComputeUsage(total, windowSize int, th Thresholds) Usage {
	u := Usage{WindowSize: windowSize}
	if windowSize <= 0 {
		return u
	}

	u.Ratio = float64(total) / float64(windowSize)
	switch {
	case u.Ratio > th.Warning:
		u.Level = LevelWarning
	case u.Ratio > th.Caution:
		u.Level = LevelCaution
	}
	return u
}

// UniqueFiles keeps the last entry per FilePath, ordered by each path's last
// occurrence. The input is not modified.
func UniqueFiles(files []FileAccess) []FileAccess {
	latestFirst := lo.Reverse(slices.Clone(files))
	unique := lo.UniqBy(latestFirst, func(f FileAccess) string {
		return f.FilePath
	})
	return lo.Reverse(unique)
}
