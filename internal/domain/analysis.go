package domain

import (
	"context"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// Analyzer computes descriptors for a raw audio sample in a single round trip.
type Analyzer interface {
	Analyze(ctx context.Context, audio []byte, names []descriptor.Name) (Analysis, error)
}

// HealthChecker verifies analysis service availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ComputedKey is the analysis service's key estimate, e.g. {"key": "C# minor"}.
type ComputedKey struct {
	Key        string  `json:"key"`
	Confidence float64 `json:"confidence"`
}

// ComputedChords is the analysis service's chord estimate.
type ComputedChords struct {
	Confidence    float64                   `json:"confidence"`
	ChordSequence []descriptor.ChordSegment `json:"chordSequence"`
}

// Analysis is the descriptor subset computed for one audio sample.
// Only the requested descriptors are present.
type Analysis struct {
	Tempo     *float64                       `json:"tempo,omitempty"`
	Tuning    *float64                       `json:"tuning,omitempty"`
	Duration  *float64                       `json:"duration,omitempty"`
	GlobalKey *ComputedKey                   `json:"global-key,omitempty"`
	Chords    *ComputedChords                `json:"chords,omitempty"`
	Mood      map[descriptor.Emotion]float64 `json:"mood,omitempty"`
}

// Number returns a computed numeric descriptor.
func (a *Analysis) Number(name descriptor.Name) (float64, bool) {
	var p *float64
	switch name {
	case descriptor.Tempo:
		p = a.Tempo
	case descriptor.Tuning:
		p = a.Tuning
	case descriptor.Duration:
		p = a.Duration
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// CompactKey renders the computed key in criterion form: "C# minor" becomes "C#minor".
// Flat tonics are respelled with sharps.
func (a *Analysis) CompactKey() (string, bool) {
	if a.GlobalKey == nil {
		return "", false
	}
	tonic, scale, _ := strings.Cut(strings.TrimSpace(a.GlobalKey.Key), " ")
	if sharp, ok := descriptor.NormalizeTonic(tonic); ok {
		tonic = sharp
	}
	return tonic + strings.TrimSpace(scale), true
}

// ChordLabels returns the distinct non-silent chord labels, sorted.
func (a *Analysis) ChordLabels() ([]string, bool) {
	if a.Chords == nil {
		return nil, false
	}
	return descriptor.ChordLabels(a.Chords.ChordSequence), true
}

// DominantEmotion returns the emotion with the highest score.
// Ties resolve to the earlier canonical emotion.
func (a *Analysis) DominantEmotion() (descriptor.Emotion, bool) {
	var (
		best      descriptor.Emotion
		bestScore float64
		found     bool
	)
	for _, e := range descriptor.Emotions {
		s, ok := a.Mood[e]
		if !ok {
			continue
		}
		if !found || s > bestScore {
			best, bestScore, found = e, s, true
		}
	}
	return best, found
}
