// Package descriptor defines the audio descriptor vocabulary and the stored document model.
package descriptor

import "strings"

// Name identifies a searchable descriptor.
type Name string

// Searchable descriptors.
const (
	Tempo     Name = "tempo"
	Tuning    Name = "tuning"
	Duration  Name = "duration"
	GlobalKey Name = "global-key"
	Chords    Name = "chords"
	Mood      Name = "mood"
)

// Names lists descriptors in compilation order.
var Names = []Name{Duration, Tempo, Tuning, GlobalKey, Chords, Mood}

// ParseName resolves a request parameter name to a descriptor.
func ParseName(s string) (Name, bool) {
	for _, n := range Names {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// IsNumeric reports whether the descriptor is a scalar numeric field.
func (n Name) IsNumeric() bool {
	return n == Tempo || n == Tuning || n == Duration
}

// Field returns the stored document field backing the descriptor.
func (n Name) Field() string {
	if n == GlobalKey {
		return "key"
	}
	return string(n)
}

// NameList joins descriptor names for error messages.
func NameList() string {
	parts := make([]string, len(Names))
	for i, n := range Names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
