// Package result holds the display shapes returned to search clients.
package result

import "github.com/kailas-cloud/audiodex/internal/domain/descriptor"

// Key is the displayed best-matching key.
type Key struct {
	Key        string  `json:"key"`
	Confidence float64 `json:"confidence"`
}

// Chords is the displayed chord descriptor without internal statistics.
type Chords struct {
	Confidence    float64                   `json:"confidence"`
	ChordSequence []descriptor.ChordSegment `json:"chordSequence"`
}

// Row is one search hit: the id plus the requested descriptors.
type Row struct {
	ID        string                `json:"id"`
	Tempo     *float64              `json:"tempo,omitempty"`
	Tuning    *float64              `json:"tuning,omitempty"`
	Duration  *float64              `json:"duration,omitempty"`
	GlobalKey *Key                  `json:"global-key,omitempty"`
	Chords    *Chords               `json:"chords,omitempty"`
	Mood      *descriptor.MoodScore `json:"mood,omitempty"`
}

// Document is the display form of a stored descriptor document.
type Document struct {
	ID        string                         `json:"id"`
	Tempo     *float64                       `json:"tempo,omitempty"`
	Tuning    *float64                       `json:"tuning,omitempty"`
	Duration  *float64                       `json:"duration,omitempty"`
	GlobalKey *Key                           `json:"global-key,omitempty"`
	Chords    *Chords                        `json:"chords,omitempty"`
	Mood      map[descriptor.Emotion]float64 `json:"mood,omitempty"`
}
