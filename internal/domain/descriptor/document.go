package descriptor

import (
	"fmt"
	"strings"
)

// KeyEstimate is one key-estimation algorithm's output.
type KeyEstimate struct {
	Key      string  `json:"key" bson:"key"`
	Scale    string  `json:"scale" bson:"scale"`
	Strength float64 `json:"strength" bson:"strength"`
}

// Label renders the estimate as "<tonic> <scale>".
func (k KeyEstimate) Label() string { return k.Key + " " + k.Scale }

// KeyEstimates holds the three independent key estimates.
type KeyEstimates struct {
	EDMA      *KeyEstimate `json:"edma,omitempty" bson:"edma,omitempty"`
	Krumhansl *KeyEstimate `json:"krumhansl,omitempty" bson:"krumhansl,omitempty"`
	Temperley *KeyEstimate `json:"temperley,omitempty" bson:"temperley,omitempty"`
}

// ChordSegment is one labelled span of the chord sequence. Label "N" is silence.
type ChordSegment struct {
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`
	Label string  `json:"label" bson:"label"`
}

// ChordInfo is the stored chord descriptor.
type ChordInfo struct {
	Confidence     float64            `json:"confidence" bson:"confidence"`
	ChordSequence  []ChordSegment     `json:"chordSequence" bson:"chordSequence"`
	ChordRatio     map[string]float64 `json:"chordRatio,omitempty" bson:"chordRatio,omitempty"`
	DistinctChords int                `json:"distinctChords,omitempty" bson:"distinctChords,omitempty"`
}

// Document is the stored descriptor document for one content id.
type Document struct {
	ID       string               `json:"id" bson:"_id"`
	Tempo    *float64             `json:"tempo,omitempty" bson:"tempo,omitempty"`
	Tuning   *float64             `json:"tuning,omitempty" bson:"tuning,omitempty"`
	Duration *float64             `json:"duration,omitempty" bson:"duration,omitempty"`
	Key      *KeyEstimates        `json:"key,omitempty" bson:"key,omitempty"`
	Chords   *ChordInfo           `json:"chords,omitempty" bson:"chords,omitempty"`
	Mood     map[string][]float64 `json:"mood,omitempty" bson:"mood,omitempty"`
}

// Number returns the scalar value of a numeric descriptor field.
func (d *Document) Number(field string) (float64, bool) {
	var p *float64
	switch field {
	case "tempo":
		p = d.Tempo
	case "tuning":
		p = d.Tuning
	case "duration":
		p = d.Duration
	case "chords.confidence":
		if d.Chords == nil {
			return 0, false
		}
		return d.Chords.Confidence, true
	case "chords.distinctChords":
		if d.Chords == nil {
			return 0, false
		}
		return float64(d.Chords.DistinctChords), true
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Namespace returns the id prefix before the first ':'.
func (d *Document) Namespace() string {
	ns, _, ok := strings.Cut(d.ID, ":")
	if !ok {
		return ""
	}
	return ns
}

// Normalize rewrites key tonics to sharps and fills derived chord statistics
// when only the chord sequence was supplied.
func (d *Document) Normalize() {
	if d.Key != nil {
		for _, v := range d.Key.Variants() {
			if t, ok := NormalizeTonic(v.Estimate.Key); ok {
				v.Estimate.Key = t
			}
		}
	}
	if d.Chords != nil {
		if d.Chords.ChordRatio == nil && len(d.Chords.ChordSequence) > 0 {
			d.Chords.ChordRatio = ChordRatio(d.Chords.ChordSequence)
		}
		if d.Chords.DistinctChords == 0 {
			d.Chords.DistinctChords = len(d.Chords.ChordRatio)
		}
	}
}

// Validate checks the document for ingestion. An empty namespaces list accepts any id.
func (d *Document) Validate(namespaces []string) error {
	if d.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(namespaces) > 0 {
		ns := d.Namespace()
		if ns == "" {
			return fmt.Errorf("id %q must have the form <namespace>:<provider-id>", d.ID)
		}
		found := false
		for _, allowed := range namespaces {
			if ns == allowed {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("namespace %q is not one of %s", ns, strings.Join(namespaces, ", "))
		}
	}
	if d.Tempo != nil && *d.Tempo <= 0 {
		return fmt.Errorf("tempo must be > 0, got %v", *d.Tempo)
	}
	if d.Duration != nil && *d.Duration <= 0 {
		return fmt.Errorf("duration must be > 0, got %v", *d.Duration)
	}
	if d.Tuning != nil && *d.Tuning <= 0 {
		return fmt.Errorf("tuning must be > 0, got %v", *d.Tuning)
	}
	if d.Key != nil {
		for _, v := range d.Key.Variants() {
			if err := v.Estimate.validate(); err != nil {
				return fmt.Errorf("key.%s: %w", v.Name, err)
			}
		}
	}
	if d.Chords != nil {
		if d.Chords.Confidence < 0 || d.Chords.Confidence > 1 {
			return fmt.Errorf("chords.confidence must be within [0,1], got %v", d.Chords.Confidence)
		}
		var sum float64
		for label, r := range d.Chords.ChordRatio {
			if label == SilenceLabel {
				return fmt.Errorf("chords.chordRatio must not contain the silence label")
			}
			sum += r
		}
		if sum > 1+1e-6 {
			return fmt.Errorf("chords.chordRatio sums to %v, must be <= 1", sum)
		}
	}
	for key, values := range d.Mood {
		if _, ok := ParseMoodKey(key); !ok {
			return fmt.Errorf("mood key %q does not name a known emotion", key)
		}
		if len(values) != 2 {
			return fmt.Errorf("mood.%s must hold two probabilities, got %d", key, len(values))
		}
	}
	return nil
}

func (k *KeyEstimate) validate() error {
	if _, ok := NormalizeTonic(k.Key); !ok {
		return fmt.Errorf("unknown tonic %q", k.Key)
	}
	if k.Scale != ScaleMajor && k.Scale != ScaleMinor {
		return fmt.Errorf("scale must be major or minor, got %q", k.Scale)
	}
	if k.Strength < 0 || k.Strength > 1 {
		return fmt.Errorf("strength must be within [0,1], got %v", k.Strength)
	}
	return nil
}
