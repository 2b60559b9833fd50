// Package language classifies text by script family.
//
// The classifier answers one question: is a span of text primarily Japanese
// (hiragana, katakana, CJK unified ideographs) or not. Lengths are measured in
// UTF-16 code units so that ratios and token estimates line up with editors and
// tooling that count characters that way.
package language

import "unicode"

// Tag identifies the language recorded for a text span or file.
type Tag string

const (
	// Japanese marks text whose Japanese script ratio meets the threshold.
	Japanese Tag = "ja"

	// English is the default tag for everything else.
	English Tag = "en"

	// Unknown marks content that could not be read.
	Unknown Tag = "unknown"
)

// DefaultThreshold is the Japanese ratio at or above which text is tagged Japanese.
const DefaultThreshold = 0.2

// japaneseScript covers hiragana, katakana and the CJK unified ideograph block.
var japaneseScript = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3040, Hi: 0x309F, Stride: 1},
		{Lo: 0x30A0, Hi: 0x30FF, Stride: 1},
		{Lo: 0x4E00, Hi: 0x9FAF, Stride: 1},
	},
}

// Result is the outcome of classifying one text span.
type Result struct {
	// Language is Japanese when Ratio >= threshold, English otherwise.
	Language Tag

	// Ratio is the fraction of code units in the Japanese script ranges.
	Ratio float64
}

// Detector classifies text against a fixed threshold.
//
// A Detector is immutable and safe for concurrent use.
type Detector struct {
	threshold float64
}

// NewDetector creates a detector using the given Japanese ratio threshold.
func NewDetector(threshold float64) *Detector {
	return &Detector{threshold: threshold}
}

// Threshold returns the configured Japanese ratio threshold.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect classifies text. Empty text yields {English, 0}.
func (d *Detector) Detect(text string) Result {
	if text == "" {
		return Result{Language: English}
	}

	matched, total := count(text)
	if total == 0 {
		return Result{Language: English}
	}

	ratio := float64(matched) / float64(total)
	return Result{Language: d.TagFor(ratio), Ratio: ratio}
}

// TagFor maps an aggregate ratio to a tag using the detector's threshold.
func (d *Detector) TagFor(ratio float64) Tag {
	if ratio >= d.threshold {
		return Japanese
	}
	return English
}

// Length returns the length of text in UTF-16 code units.
func Length(text string) int {
	_, total := count(text)
	return total
}

// count returns the number of Japanese-script code units and the total
// number of code units in text. Invalid UTF-8 bytes count as one unit each.
func count(text string) (matched, total int) {
	for _, r := range text {
		if r >= 0x10000 {
			total += 2
			continue
		}
		total++
		if unicode.Is(japaneseScript, r) {
			matched++
		}
	}
	return matched, total
}
