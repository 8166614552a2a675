// Package projector shapes executed pipeline rows into client-facing results.
package projector

import (
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/domain/search/result"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

// Project keeps the id and the requested descriptors of every row, in row order.
// It never filters: one output per input row.
func Project(rows []pipeline.Row, projection []descriptor.Name) []result.Row {
	out := make([]result.Row, len(rows))
	for i := range rows {
		out[i] = projectRow(&rows[i], projection)
	}
	return out
}

func projectRow(r *pipeline.Row, projection []descriptor.Name) result.Row {
	row := result.Row{ID: r.Doc.ID}
	for _, name := range projection {
		switch name {
		case descriptor.Tempo:
			row.Tempo = r.Doc.Tempo
		case descriptor.Tuning:
			row.Tuning = r.Doc.Tuning
		case descriptor.Duration:
			row.Duration = r.Doc.Duration
		case descriptor.GlobalKey:
			if r.BestKey != nil {
				row.GlobalKey = keyView(*r.BestKey)
			}
		case descriptor.Chords:
			row.Chords = chordsView(r.Doc.Chords)
		case descriptor.Mood:
			if r.MoodDominant != nil {
				m := *r.MoodDominant
				row.Mood = &m
			}
		}
	}
	return row
}

// Display renders a stored document: the strongest key overall, per-emotion
// mood scores and chords without internal statistics.
func Display(doc descriptor.Document) result.Document {
	out := result.Document{
		ID:       doc.ID,
		Tempo:    doc.Tempo,
		Tuning:   doc.Tuning,
		Duration: doc.Duration,
		Chords:   chordsView(doc.Chords),
	}
	if doc.Key != nil {
		if best, ok := doc.Key.BestKey("", ""); ok {
			out.GlobalKey = keyView(best)
		}
	}
	if scores := descriptor.MoodScores(doc.Mood); len(scores) > 0 {
		out.Mood = scores
	}
	return out
}

func keyView(k descriptor.KeyEstimate) *result.Key {
	return &result.Key{Key: k.Label(), Confidence: k.Strength}
}

func chordsView(c *descriptor.ChordInfo) *result.Chords {
	if c == nil {
		return nil
	}
	return &result.Chords{Confidence: c.Confidence, ChordSequence: c.ChordSequence}
}
