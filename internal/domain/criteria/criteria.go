// Package criteria parses per-descriptor query text into typed search criteria.
package criteria

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

// Criterion is one parsed descriptor constraint. The concrete types are
// Numeric, Key, Chords and Mood.
type Criterion interface {
	Descriptor() descriptor.Name
	// IsAny reports whether the criterion only asks for the field to be projected.
	IsAny() bool
	String() string
	criterion()
}

// Form is the shape of a numeric criterion.
type Form int

// Numeric forms.
const (
	FormAny Form = iota
	FormLT
	FormLTE
	FormGT
	FormGTE
	FormRange
	FormTolerance
)

var formPrefix = map[Form]string{FormLT: "<", FormLTE: "<=", FormGT: ">", FormGTE: ">="}

// Bound is one side of a numeric interval.
type Bound struct {
	Value     float64
	Inclusive bool
}

// Numeric constrains tempo, tuning or duration.
type Numeric struct {
	Field  descriptor.Name
	Form   Form
	Lower  *Bound
	Upper  *Bound
	Target float64
	// Window restricts an inequality form to within Window of Target.
	Window *float64
	// Tolerance is the percentage of a tolerance form.
	Tolerance float64
}

func (Numeric) criterion() {}

// Descriptor returns the constrained field.
func (n Numeric) Descriptor() descriptor.Name { return n.Field }

// IsAny reports an unconstrained numeric criterion.
func (n Numeric) IsAny() bool { return n.Form == FormAny }

// IsInequality reports the half-bounded forms, ranked on the field itself.
func (n Numeric) IsInequality() bool {
	return n.Form == FormLT || n.Form == FormLTE || n.Form == FormGT || n.Form == FormGTE
}

// Descending reports the sort direction implied by an inequality.
func (n Numeric) Descending() bool { return n.Form == FormLT || n.Form == FormLTE }

func (n Numeric) String() string {
	switch {
	case n.Form == FormAny:
		return ""
	case n.IsInequality() && n.Window != nil:
		return formPrefix[n.Form] + formatFloat(n.Target) + "~" + formatFloat(*n.Window)
	case n.IsInequality():
		return formPrefix[n.Form] + formatFloat(n.Target)
	case n.Form == FormTolerance:
		return formatFloat(n.Target) + "-" + formatFloat(n.Tolerance) + "%"
	default:
		return formatFloat(n.Lower.Value) + "-" + formatFloat(n.Upper.Value)
	}
}

// Key constrains the musical key. Empty fields match anything.
type Key struct {
	Tonic string
	Scale string
}

func (Key) criterion() {}

// Descriptor returns descriptor.GlobalKey.
func (Key) Descriptor() descriptor.Name { return descriptor.GlobalKey }

// IsAny reports an unconstrained key criterion.
func (k Key) IsAny() bool { return k.Tonic == "" && k.Scale == "" }

func (k Key) String() string { return k.Tonic + k.Scale }

// Chords requires the listed chord labels to cover at least Coverage of the
// non-silent duration.
type Chords struct {
	Labels   []string
	Coverage float64
}

func (Chords) criterion() {}

// Descriptor returns descriptor.Chords.
func (Chords) Descriptor() descriptor.Name { return descriptor.Chords }

// IsAny reports a chord criterion without labels.
func (c Chords) IsAny() bool { return len(c.Labels) == 0 }

func (c Chords) String() string {
	if c.IsAny() {
		return ""
	}
	s := strings.Join(c.Labels, "-")
	if c.Coverage != 1 {
		s += "," + formatFloat(c.Coverage*100) + "%"
	}
	return s
}

// Mood requires a dominant emotion. Empty Emotion ranks by any dominant emotion.
type Mood struct {
	Emotion descriptor.Emotion
}

func (Mood) criterion() {}

// Descriptor returns descriptor.Mood.
func (Mood) Descriptor() descriptor.Name { return descriptor.Mood }

// IsAny reports a mood criterion without an emotion.
func (m Mood) IsAny() bool { return m.Emotion == "" }

func (m Mood) String() string { return string(m.Emotion) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Set is an ordered collection of criteria, at most one per descriptor.
type Set []Criterion

// Get returns the criterion for a descriptor.
func (s Set) Get(name descriptor.Name) (Criterion, bool) {
	for _, c := range s {
		if c.Descriptor() == name {
			return c, true
		}
	}
	return nil, false
}

// Names lists the requested descriptors in order.
func (s Set) Names() []descriptor.Name {
	out := make([]descriptor.Name, len(s))
	for i, c := range s {
		out[i] = c.Descriptor()
	}
	return out
}

// String renders the set as name=value pairs for logs.
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = fmt.Sprintf("%s=%q", c.Descriptor(), c.String())
	}
	return strings.Join(parts, " ")
}
