// Package pipeline defines the backend-neutral query stage IR and compiles
// search criteria into it.
package pipeline

import (
	"fmt"
	"strings"
)

// Logical field paths addressable by stages.
const (
	FieldID               = "id"
	FieldChordsConfidence = "chords.confidence"
	FieldChordsRatio      = "chords.chordRatio"
	FieldChordsDistinct   = "chords.distinctChords"
	FieldCoverage         = "coverage"
	FieldCoveredChords    = "coveredChords"
	FieldBestKey          = "keyBestMatching"
	FieldBestKeyStrength  = "keyBestMatching.strength"
	FieldMoodDominant     = "moodDominant"
	FieldMoodEmotion      = "moodDominant.emotion"
	FieldMoodScore        = "moodDominant.score"
)

// DistanceField names the derived absolute-distance field for a numeric field.
func DistanceField(field string) string { return field + "Distance" }

// Stage is one pipeline operation: Match, AddFields, Sort, Project, Skip or Limit.
type Stage interface {
	stage()
	String() string
}

// Match keeps documents satisfying the predicate.
type Match struct{ Predicate Predicate }

// AddFields attaches a derived value to every document.
type AddFields struct{ Derivation Derivation }

// SortKey orders by one field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders documents by keys, in priority order.
type Sort struct{ Keys []SortKey }

// Project removes internal fields from the output.
type Project struct{ Exclude []string }

// Skip drops the first N documents.
type Skip struct{ N int }

// Limit keeps at most N documents.
type Limit struct{ N int }

func (Match) stage()     {}
func (AddFields) stage() {}
func (Sort) stage()      {}
func (Project) stage()   {}
func (Skip) stage()      {}
func (Limit) stage()     {}

func (s Match) String() string     { return "match " + s.Predicate.String() }
func (s AddFields) String() string { return "addFields " + s.Derivation.String() }
func (s Project) String() string   { return "project -" + strings.Join(s.Exclude, " -") }
func (s Skip) String() string      { return fmt.Sprintf("skip %d", s.N) }
func (s Limit) String() string     { return fmt.Sprintf("limit %d", s.N) }

func (s Sort) String() string {
	parts := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts[i] = k.Field + " " + dir
	}
	return "sort " + strings.Join(parts, ", ")
}

// Predicate is a Match condition: Range, IDPrefix, KeyMatch or Equals.
type Predicate interface {
	predicate()
	String() string
}

// Bound is one side of a Range.
type Bound struct {
	Value     float64
	Inclusive bool
}

// Range bounds a numeric field. Documents without the field never match.
type Range struct {
	Field string
	Lower *Bound
	Upper *Bound
}

// IDPrefix requires the id to start with one of the prefixes.
type IDPrefix struct{ Prefixes []string }

// KeyMatch requires at least one key variant to agree with the non-empty parts.
type KeyMatch struct {
	Tonic string
	Scale string
}

// Equals requires a string field to equal Value.
type Equals struct {
	Field string
	Value string
}

func (Range) predicate()    {}
func (IDPrefix) predicate() {}
func (KeyMatch) predicate() {}
func (Equals) predicate()   {}

func (p Range) String() string {
	lo, hi := "(-inf", "+inf)"
	if p.Lower != nil {
		lo = "(" + formatFloat(p.Lower.Value)
		if p.Lower.Inclusive {
			lo = "[" + formatFloat(p.Lower.Value)
		}
	}
	if p.Upper != nil {
		hi = formatFloat(p.Upper.Value) + ")"
		if p.Upper.Inclusive {
			hi = formatFloat(p.Upper.Value) + "]"
		}
	}
	return fmt.Sprintf("%s in %s, %s", p.Field, lo, hi)
}

func (p IDPrefix) String() string { return "id prefix " + strings.Join(p.Prefixes, "|") }

func (p KeyMatch) String() string {
	return fmt.Sprintf("any key variant tonic=%q scale=%q", p.Tonic, p.Scale)
}

func (p Equals) String() string { return fmt.Sprintf("%s == %q", p.Field, p.Value) }

// Contains reports whether v satisfies the range.
func (p Range) Contains(v float64) bool {
	if p.Lower != nil {
		if v < p.Lower.Value || (!p.Lower.Inclusive && v == p.Lower.Value) {
			return false
		}
	}
	if p.Upper != nil {
		if v > p.Upper.Value || (!p.Upper.Inclusive && v == p.Upper.Value) {
			return false
		}
	}
	return true
}

// Derivation computes a derived field: Distance, ChordCoverage, BestKey or DominantMood.
type Derivation interface {
	derivation()
	// Outputs lists the fields the derivation writes.
	Outputs() []string
	String() string
}

// Distance writes |Field - Target| to DistanceField(Field).
type Distance struct {
	Field  string
	Target float64
}

// ChordCoverage writes coverage and coveredChords for the requested labels.
type ChordCoverage struct{ Labels []string }

// BestKey writes keyBestMatching, the strongest variant agreeing with the request.
type BestKey struct {
	Tonic string
	Scale string
}

// DominantMood writes moodDominant, the argmax emotion and its score.
type DominantMood struct{}

func (Distance) derivation()      {}
func (ChordCoverage) derivation() {}
func (BestKey) derivation()       {}
func (DominantMood) derivation()  {}

// Outputs implements Derivation.
func (d Distance) Outputs() []string { return []string{DistanceField(d.Field)} }

// Outputs implements Derivation.
func (ChordCoverage) Outputs() []string { return []string{FieldCoverage, FieldCoveredChords} }

// Outputs implements Derivation.
func (BestKey) Outputs() []string { return []string{FieldBestKey} }

// Outputs implements Derivation.
func (DominantMood) Outputs() []string { return []string{FieldMoodDominant} }

func (d Distance) String() string {
	return fmt.Sprintf("%s = |%s - %s|", DistanceField(d.Field), d.Field, formatFloat(d.Target))
}

func (d ChordCoverage) String() string {
	return "coverage, coveredChords over " + strings.Join(d.Labels, "-")
}

func (d BestKey) String() string {
	return fmt.Sprintf("keyBestMatching tonic=%q scale=%q", d.Tonic, d.Scale)
}

func (DominantMood) String() string { return "moodDominant = argmax emotion" }
