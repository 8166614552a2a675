package pipeline

import "github.com/kailas-cloud/audiodex/internal/domain/descriptor"

// Row is one document produced by executing a plan, with its derived fields.
type Row struct {
	Doc           descriptor.Document
	Distances     map[string]float64
	Coverage      *float64
	CoveredChords *int
	BestKey       *descriptor.KeyEstimate
	MoodDominant  *descriptor.MoodScore
}

// Number resolves a numeric logical field, stored or derived.
func (r *Row) Number(field string) (float64, bool) {
	switch field {
	case FieldCoverage:
		if r.Coverage == nil {
			return 0, false
		}
		return *r.Coverage, true
	case FieldCoveredChords:
		if r.CoveredChords == nil {
			return 0, false
		}
		return float64(*r.CoveredChords), true
	case FieldBestKeyStrength:
		if r.BestKey == nil {
			return 0, false
		}
		return r.BestKey.Strength, true
	case FieldMoodScore:
		if r.MoodDominant == nil {
			return 0, false
		}
		return r.MoodDominant.Score, true
	}
	if v, ok := r.Distances[field]; ok {
		return v, true
	}
	return r.Doc.Number(field)
}

// Text resolves a string logical field.
func (r *Row) Text(field string) (string, bool) {
	switch field {
	case FieldID:
		return r.Doc.ID, true
	case FieldMoodEmotion:
		if r.MoodDominant == nil {
			return "", false
		}
		return string(r.MoodDominant.Emotion), true
	}
	return "", false
}
