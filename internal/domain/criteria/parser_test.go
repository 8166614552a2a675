package criteria

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/audiodex/internal/domain"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
)

func bound(v float64, inclusive bool) *Bound { return &Bound{Value: v, Inclusive: inclusive} }

func sameBound(a, b *Bound) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		raw        string
		form       Form
		lower      *Bound
		upper      *Bound
		target     float64
		descending bool
	}{
		{"", FormAny, nil, nil, 0, false},
		{"<=120", FormLTE, nil, bound(120, true), 120, true},
		{">=120", FormGTE, bound(120, true), nil, 120, false},
		{"<120", FormLT, nil, bound(120, false), 120, true},
		{">120", FormGT, bound(120, false), nil, 120, false},
		{"120-5%", FormTolerance, bound(114, true), bound(126, false), 120, false},
		{"100-200", FormRange, bound(100, true), bound(200, false), 150, false},
		{"120-0%", FormTolerance, bound(120, true), bound(120, false), 120, false},
		{"440.5-441.5", FormRange, bound(440.5, true), bound(441.5, false), 441, false},
		{"<128~5", FormLT, bound(123, true), bound(128, false), 128, true},
		{"<=128~5", FormLTE, bound(123, true), bound(128, true), 128, true},
		{">128~5", FormGT, bound(128, false), bound(133, true), 128, false},
		{">=128~0", FormGTE, bound(128, true), bound(128, true), 128, false},
		{" 100 - 200 ", FormRange, bound(100, true), bound(200, false), 150, false},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			c, err := Parse(descriptor.Tempo, tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			n, ok := c.(Numeric)
			if !ok {
				t.Fatalf("expected Numeric, got %T", c)
			}
			if n.Form != tc.form {
				t.Errorf("form = %v, want %v", n.Form, tc.form)
			}
			if !sameBound(n.Lower, tc.lower) {
				t.Errorf("lower = %+v, want %+v", n.Lower, tc.lower)
			}
			if !sameBound(n.Upper, tc.upper) {
				t.Errorf("upper = %+v, want %+v", n.Upper, tc.upper)
			}
			if n.Target != tc.target {
				t.Errorf("target = %v, want %v", n.Target, tc.target)
			}
			if n.IsInequality() && n.Descending() != tc.descending {
				t.Errorf("descending = %v, want %v", n.Descending(), tc.descending)
			}
		})
	}
}

func TestParseNumeric_Invalid(t *testing.T) {
	for _, raw := range []string{
		"fast", "120", "<", "<abc", "120-", "-5", "120-105%", "120--5%", "120-x%",
		"200-100", "<128~", "<128~-1", "<128~x", "NaN-1", "1-Inf",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseNumeric(descriptor.Tuning, raw)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), "lower-upper") {
				t.Errorf("expected grammar in message, got %q", err.Error())
			}
		})
	}
}

func TestParseNumeric_RejectsNonNumericDescriptor(t *testing.T) {
	for _, name := range []descriptor.Name{descriptor.GlobalKey, descriptor.Chords, descriptor.Mood} {
		if _, err := ParseNumeric(name, "<3"); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		raw, tonic, scale string
	}{
		{"", "", ""},
		{"C#minor", "C#", "minor"},
		{"A", "A", ""},
		{"major", "", "major"},
		{"Gmajor", "G", "major"},
		{"F#", "F#", ""},
	}
	for _, tc := range tests {
		k, err := ParseKey(tc.raw)
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", tc.raw, err)
		}
		if k.Tonic != tc.tonic || k.Scale != tc.scale {
			t.Errorf("ParseKey(%q) = %+v", tc.raw, k)
		}
	}
	if k, _ := ParseKey(""); !k.IsAny() {
		t.Error("expected empty key to match any")
	}
}

func TestParseKey_Invalid(t *testing.T) {
	for _, raw := range []string{"Dbmajor", "H", "C# minor", "Cdorian", "minorC", "E#"} {
		if _, err := ParseKey(raw); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("ParseKey(%q): expected validation error, got %v", raw, err)
		}
	}
}

func TestParseChords(t *testing.T) {
	tests := []struct {
		raw      string
		labels   string
		coverage float64
	}{
		{"", "", 1},
		{"Cmaj-Dmin,50%", "Cmaj-Dmin", 0.5},
		{"Cmaj", "Cmaj", 1},
		{"C#min-Ebmaj7-G7", "Dbmin-Ebmaj7-G7", 1},
		{"Amin7-Amin7,0%", "Amin7", 0},
		{"Bbmaj,100%", "Bbmaj", 1},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			c, err := ParseChords(tc.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.Join(c.Labels, "-"); got != tc.labels {
				t.Errorf("labels = %s, want %s", got, tc.labels)
			}
			if c.Coverage != tc.coverage {
				t.Errorf("coverage = %v, want %v", c.Coverage, tc.coverage)
			}
		})
	}
}

func TestParseChords_EveryQuality(t *testing.T) {
	for _, q := range descriptor.ChordQualities {
		c, err := ParseChords("A" + q)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", q, err)
		}
		if len(c.Labels) != 1 || c.Labels[0] != "A"+q {
			t.Errorf("%s: labels = %v", q, c.Labels)
		}
	}
}

func TestParseChords_Invalid(t *testing.T) {
	for _, raw := range []string{
		"Cmajor", "H7", "Cmaj-", "Cmaj,50", "Cmaj,150%", "Cmaj,-1%", ",50%", "Cbmaj", "Cmaj,x%",
	} {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseChords(raw); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestParseMood(t *testing.T) {
	m, err := ParseMood("happy")
	if err != nil || m.Emotion != descriptor.Happy {
		t.Fatalf("ParseMood(happy) = %+v, %v", m, err)
	}
	if m, _ := ParseMood(""); !m.IsAny() {
		t.Error("expected empty mood to match any")
	}
	if _, err := ParseMood("angry"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParseParams_OrderAndUnknown(t *testing.T) {
	set, err := ParseParams(map[string]string{
		"mood":       "",
		"tempo":      ">100",
		"global-key": "Aminor",
		"duration":   "",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]string, 0, len(set))
	for _, n := range set.Names() {
		got = append(got, string(n))
	}
	if strings.Join(got, ",") != "duration,tempo,global-key,mood" {
		t.Errorf("unexpected order %v", got)
	}
	if _, ok := set.Get(descriptor.Chords); ok {
		t.Error("chords should be absent")
	}

	_, err = ParseParams(map[string]string{"loudness": "1-2"})
	if !errors.Is(err, domain.ErrValidation) || !strings.Contains(err.Error(), "global-key") {
		t.Errorf("expected validation error listing descriptors, got %v", err)
	}
}

func TestCriterion_String(t *testing.T) {
	tests := []struct {
		name descriptor.Name
		raw  string
		want string
	}{
		{descriptor.Tempo, "<128~5", "<128~5"},
		{descriptor.Tempo, "120-5%", "120-5%"},
		{descriptor.Tempo, "100-200", "100-200"},
		{descriptor.GlobalKey, "C#minor", "C#minor"},
		{descriptor.Chords, "C#min-Emaj,50%", "Dbmin-Emaj,50%"},
		{descriptor.Mood, "sad", "sad"},
	}
	for _, tc := range tests {
		c, err := Parse(tc.name, tc.raw)
		if err != nil {
			t.Fatalf("Parse(%s, %q): %v", tc.name, tc.raw, err)
		}
		if c.String() != tc.want {
			t.Errorf("String() = %q, want %q", c.String(), tc.want)
		}
	}
}
