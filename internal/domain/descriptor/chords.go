package descriptor

import (
	"math"
	"sort"
)

// SilenceLabel marks non-harmonic spans in a chord sequence.
const SilenceLabel = "N"

// CoverageDigits is the decimal precision coverage is rounded to, so ratios that sum to
// full coverage compare equal to 1.
const CoverageDigits = 9

// ChordQualities are the recognised chord qualities.
var ChordQualities = []string{"maj", "min", "7", "maj7", "min7"}

// ChordRatio computes each label's share of non-silent duration.
func ChordRatio(seq []ChordSegment) map[string]float64 {
	durations := make(map[string]float64)
	var total float64
	for _, s := range seq {
		if s.Label == SilenceLabel || s.Label == "" {
			continue
		}
		d := s.End - s.Start
		if d <= 0 {
			continue
		}
		durations[s.Label] += d
		total += d
	}
	ratio := make(map[string]float64, len(durations))
	if total == 0 {
		return ratio
	}
	for label, d := range durations {
		ratio[label] = d / total
	}
	return ratio
}

// ChordLabels returns the distinct non-silent labels of a sequence, sorted.
func ChordLabels(seq []ChordSegment) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, s := range seq {
		if s.Label == SilenceLabel || s.Label == "" {
			continue
		}
		if _, ok := seen[s.Label]; ok {
			continue
		}
		seen[s.Label] = struct{}{}
		labels = append(labels, s.Label)
	}
	sort.Strings(labels)
	return labels
}

// Coverage sums the ratio of the requested labels and counts those present.
func (c *ChordInfo) Coverage(labels []string) (coverage float64, covered int) {
	for _, l := range labels {
		r := c.ChordRatio[l]
		coverage += r
		if r > 0 {
			covered++
		}
	}
	return RoundCoverage(coverage), covered
}

// RoundCoverage rounds a ratio sum to CoverageDigits decimals.
func RoundCoverage(v float64) float64 {
	scale := math.Pow10(CoverageDigits)
	return math.Round(v*scale) / scale
}
