package criteria

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

const (
	numericGrammar = `expected "<V", "<=V", ">V", ">=V", "<V~D" (within D of V), ` +
		`"lower-upper" or "target-tolerance%" with tolerance in [0,100]`
	keyGrammar = `expected an optional tonic (A, A#, B, C, C#, D, D#, E, F, F#, G, G#) ` +
		`followed by an optional "major" or "minor", e.g. "C#minor"`
	chordsGrammar = `expected "-"-joined chords of a pitch class and a quality ` +
		`(maj, min, 7, maj7, min7) with an optional ",<coverage>%" suffix, e.g. "Cmaj-Dmin,50%"`
	moodGrammar = `expected one of aggressive, happy, relaxed, sad or empty`
)

var (
	keyRegex   = regexp.MustCompile(`^(A#|C#|D#|F#|G#|[A-G])?(major|minor)?$`)
	chordRegex = regexp.MustCompile(`^([A-G](?:#|b)?)(` + alternation(descriptor.ChordQualities) + `)$`)
)

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// ParseParams parses descriptor parameters into a Set ordered by descriptor.Names.
// Unknown parameter names are rejected.
func ParseParams(params map[string]string) (Set, error) {
	for name := range params {
		if _, ok := descriptor.ParseName(name); !ok {
			return nil, domain.NewValidationError(
				"unknown descriptor %q, expected one of: %s", name, descriptor.NameList(),
			)
		}
	}
	var set Set
	for _, name := range descriptor.Names {
		raw, ok := params[string(name)]
		if !ok {
			continue
		}
		c, err := Parse(name, raw)
		if err != nil {
			return nil, err
		}
		set = append(set, c)
	}
	return set, nil
}

// Parse parses one descriptor's criterion text. Empty text means "match any".
func Parse(name descriptor.Name, raw string) (Criterion, error) {
	raw = strings.TrimSpace(raw)
	if name.IsNumeric() {
		return ParseNumeric(name, raw)
	}
	switch name {
	case descriptor.GlobalKey:
		return ParseKey(raw)
	case descriptor.Chords:
		return ParseChords(raw)
	case descriptor.Mood:
		return ParseMood(raw)
	default:
		return nil, domain.NewValidationError(
			"unknown descriptor %q, expected one of: %s", name, descriptor.NameList(),
		)
	}
}

// ParseNumeric parses the numeric grammar for tempo, tuning and duration.
func ParseNumeric(field descriptor.Name, raw string) (Numeric, error) {
	if !field.IsNumeric() {
		return Numeric{}, domain.NewValidationError("descriptor %q is not numeric", field)
	}
	n := Numeric{Field: field}
	if raw == "" {
		return n, nil
	}

	if form, rest, ok := cutComparator(raw); ok {
		return parseInequality(n, form, rest, raw)
	}

	first, second, ok := strings.Cut(raw, "-")
	if !ok {
		return Numeric{}, numericError(field, raw)
	}

	if tol, isTolerance := strings.CutSuffix(second, "%"); isTolerance {
		target, err := parseNumber(first)
		if err != nil {
			return Numeric{}, numericError(field, raw)
		}
		t, err := parseNumber(tol)
		if err != nil || t < 0 || t > 100 {
			return Numeric{}, numericError(field, raw)
		}
		n.Form = FormTolerance
		n.Tolerance = t
		n.Lower = &Bound{Value: target * (100 - t) / 100, Inclusive: true}
		n.Upper = &Bound{Value: target * (100 + t) / 100}
		n.Target = (n.Lower.Value + n.Upper.Value) / 2
		return n, nil
	}

	lower, err := parseNumber(first)
	if err != nil {
		return Numeric{}, numericError(field, raw)
	}
	upper, err := parseNumber(second)
	if err != nil || lower > upper {
		return Numeric{}, numericError(field, raw)
	}
	n.Form = FormRange
	n.Lower = &Bound{Value: lower, Inclusive: true}
	n.Upper = &Bound{Value: upper}
	n.Target = (lower + upper) / 2
	return n, nil
}

func cutComparator(raw string) (Form, string, bool) {
	for _, c := range []struct {
		prefix string
		form   Form
	}{{"<=", FormLTE}, {">=", FormGTE}, {"<", FormLT}, {">", FormGT}} {
		if rest, ok := strings.CutPrefix(raw, c.prefix); ok {
			return c.form, rest, true
		}
	}
	return FormAny, "", false
}

func parseInequality(n Numeric, form Form, rest, raw string) (Numeric, error) {
	valueText, windowText, hasWindow := strings.Cut(rest, "~")
	v, err := parseNumber(valueText)
	if err != nil {
		return Numeric{}, numericError(n.Field, raw)
	}
	n.Form = form
	n.Target = v

	inclusive := form == FormLTE || form == FormGTE
	if n.Descending() {
		n.Upper = &Bound{Value: v, Inclusive: inclusive}
	} else {
		n.Lower = &Bound{Value: v, Inclusive: inclusive}
	}

	if !hasWindow {
		return n, nil
	}
	d, err := parseNumber(windowText)
	if err != nil || d < 0 {
		return Numeric{}, numericError(n.Field, raw)
	}
	n.Window = &d
	if n.Descending() {
		n.Lower = &Bound{Value: v - d, Inclusive: true}
	} else {
		n.Upper = &Bound{Value: v + d, Inclusive: true}
	}
	return n, nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func numericError(field descriptor.Name, raw string) error {
	return domain.NewValidationError("invalid %s criterion %q: %s", field, raw, numericGrammar)
}

// ParseKey parses a compact key such as "C#minor", "A", "major" or "".
func ParseKey(raw string) (Key, error) {
	m := keyRegex.FindStringSubmatch(raw)
	if m == nil {
		return Key{}, domain.NewValidationError("invalid global-key criterion %q: %s", raw, keyGrammar)
	}
	return Key{Tonic: m[1], Scale: m[2]}, nil
}

// ParseChords parses "Cmaj-Dmin,50%". Sharp roots are rewritten to the stored flat spelling.
func ParseChords(raw string) (Chords, error) {
	c := Chords{Coverage: 1}
	if raw == "" {
		return c, nil
	}

	list := raw
	if i := strings.LastIndex(raw, ","); i >= 0 {
		list = raw[:i]
		cov, ok := strings.CutSuffix(strings.TrimSpace(raw[i+1:]), "%")
		if !ok {
			return Chords{}, chordsError(raw)
		}
		v, err := parseNumber(cov)
		if err != nil || v < 0 || v > 100 {
			return Chords{}, chordsError(raw)
		}
		c.Coverage = v / 100
	}

	seen := make(map[string]bool)
	for _, token := range strings.Split(list, "-") {
		m := chordRegex.FindStringSubmatch(strings.TrimSpace(token))
		if m == nil {
			return Chords{}, chordsError(raw)
		}
		root, ok := descriptor.FlatSpelling(m[1])
		if !ok {
			return Chords{}, chordsError(raw)
		}
		label := root + m[2]
		if seen[label] {
			continue
		}
		seen[label] = true
		c.Labels = append(c.Labels, label)
	}
	return c, nil
}

func chordsError(raw string) error {
	return domain.NewValidationError("invalid chords criterion %q: %s", raw, chordsGrammar)
}

// ParseMood parses an emotion name or "".
func ParseMood(raw string) (Mood, error) {
	if raw == "" {
		return Mood{}, nil
	}
	e, ok := descriptor.ParseEmotion(raw)
	if !ok {
		return Mood{}, domain.NewValidationError("invalid mood criterion %q: %s", raw, moodGrammar)
	}
	return Mood{Emotion: e}, nil
}
