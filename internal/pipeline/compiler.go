package pipeline

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/criteria"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// Input is everything the compiler needs for one request.
type Input struct {
	Criteria   criteria.Set
	IDPrefixes []string
	Offset     int
	Limit      int
}

// Plan is a compiled, immutable stage list plus the descriptors to project.
type Plan struct {
	Stages     []Stage
	Projection []descriptor.Name
}

// String renders one stage per line.
func (p Plan) String() string {
	lines := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		lines[i] = strconv.Itoa(i+1) + ". " + s.String()
	}
	return strings.Join(lines, "\n")
}

// Compile turns criteria into an ordered stage list.
// Each sort ends with id ascending so pages are stable; pagination comes last.
func Compile(in Input) (Plan, error) {
	if in.Limit < 1 {
		return Plan{}, domain.NewValidationError("limit must be >= 1, got %d", in.Limit)
	}
	if in.Offset < 0 {
		return Plan{}, domain.NewValidationError("offset must be >= 0, got %d", in.Offset)
	}

	b := &builder{}
	if len(in.IDPrefixes) > 0 {
		b.add(Match{Predicate: IDPrefix{Prefixes: in.IDPrefixes}})
	}

	for _, c := range in.Criteria {
		switch c := c.(type) {
		case criteria.Numeric:
			b.numeric(c)
		case criteria.Key:
			b.key(c)
		case criteria.Chords:
			b.chords(c)
		case criteria.Mood:
			b.mood(c)
		}
	}

	if !b.sorted {
		b.sort()
	}
	b.add(Skip{N: in.Offset}, Limit{N: in.Limit})

	return Plan{Stages: b.stages, Projection: in.Criteria.Names()}, nil
}

type builder struct {
	stages []Stage
	sorted bool
}

func (b *builder) add(stages ...Stage) { b.stages = append(b.stages, stages...) }

func (b *builder) sort(keys ...SortKey) {
	keys = append(keys, SortKey{Field: FieldID})
	b.add(Sort{Keys: keys})
	b.sorted = true
}

func (b *builder) numeric(c criteria.Numeric) {
	if c.IsAny() {
		return
	}
	field := c.Field.Field()
	b.add(Match{Predicate: Range{Field: field, Lower: toBound(c.Lower), Upper: toBound(c.Upper)}})

	if c.IsInequality() {
		b.sort(SortKey{Field: field, Desc: c.Descending()})
		return
	}
	b.add(AddFields{Derivation: Distance{Field: field, Target: c.Target}})
	b.sort(SortKey{Field: DistanceField(field)})
}

func (b *builder) key(c criteria.Key) {
	if !c.IsAny() {
		b.add(Match{Predicate: KeyMatch{Tonic: c.Tonic, Scale: c.Scale}})
	}
	b.add(AddFields{Derivation: BestKey{Tonic: c.Tonic, Scale: c.Scale}})
	b.sort(SortKey{Field: FieldBestKeyStrength, Desc: true})
}

func (b *builder) chords(c criteria.Chords) {
	if !c.IsAny() {
		b.add(
			AddFields{Derivation: ChordCoverage{Labels: c.Labels}},
			Match{Predicate: Range{Field: FieldCoverage, Lower: &Bound{Value: c.Coverage, Inclusive: true}}},
		)
		b.sort(
			SortKey{Field: FieldCoveredChords, Desc: true},
			SortKey{Field: FieldChordsConfidence, Desc: true},
		)
	}
	b.add(Project{Exclude: []string{FieldChordsDistinct, FieldChordsRatio}})
}

func (b *builder) mood(c criteria.Mood) {
	b.add(AddFields{Derivation: DominantMood{}})
	if !c.IsAny() {
		b.add(Match{Predicate: Equals{Field: FieldMoodEmotion, Value: string(c.Emotion)}})
	}
	b.sort(SortKey{Field: FieldMoodScore, Desc: true})
}

func toBound(b *criteria.Bound) *Bound {
	if b == nil {
		return nil
	}
	return &Bound{Value: b.Value, Inclusive: b.Inclusive}
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
