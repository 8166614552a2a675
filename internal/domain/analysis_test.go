package domain

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

func TestAnalysis_Number(t *testing.T) {
	tempo := 128.0
	a := Analysis{Tempo: &tempo}

	if v, ok := a.Number(descriptor.Tempo); !ok || v != 128 {
		t.Errorf("expected tempo 128, got %v %v", v, ok)
	}
	if _, ok := a.Number(descriptor.Tuning); ok {
		t.Error("expected tuning absent")
	}
	if _, ok := a.Number(descriptor.Mood); ok {
		t.Error("mood is not numeric")
	}
}

func TestAnalysis_CompactKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"C# minor", "C#minor"},
		{"Db major", "C#major"},
		{"A minor", "Aminor"},
		{" E  major", "Emajor"},
	}
	for _, tc := range tests {
		a := Analysis{GlobalKey: &ComputedKey{Key: tc.in}}
		got, ok := a.CompactKey()
		if !ok || got != tc.want {
			t.Errorf("CompactKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, ok := (&Analysis{}).CompactKey(); ok {
		t.Error("expected no key when absent")
	}
}

func TestAnalysis_ChordLabels(t *testing.T) {
	a := Analysis{Chords: &ComputedChords{ChordSequence: []descriptor.ChordSegment{
		{Start: 0, End: 1, Label: "N"},
		{Start: 1, End: 2, Label: "Emaj"},
		{Start: 2, End: 3, Label: "Amin"},
		{Start: 3, End: 4, Label: "Emaj"},
	}}}

	labels, ok := a.ChordLabels()
	if !ok {
		t.Fatal("expected chords present")
	}
	if got := strings.Join(labels, "-"); got != "Amin-Emaj" {
		t.Errorf("expected Amin-Emaj, got %s", got)
	}
}

func TestAnalysis_DominantEmotion(t *testing.T) {
	a := Analysis{Mood: map[descriptor.Emotion]float64{
		descriptor.Aggressive: 0.1,
		descriptor.Happy:      0.7,
		descriptor.Relaxed:    0.7,
		descriptor.Sad:        0.2,
	}}

	e, ok := a.DominantEmotion()
	if !ok || e != descriptor.Happy {
		t.Errorf("expected happy (first of tie), got %q", e)
	}

	if _, ok := (&Analysis{}).DominantEmotion(); ok {
		t.Error("expected no emotion when mood absent")
	}
}
