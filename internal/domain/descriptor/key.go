package descriptor

// Key scales.
const (
	ScaleMajor = "major"
	ScaleMinor = "minor"
)

// PitchClasses are the twelve tonics in sharp spelling, as stored by the key estimators.
var PitchClasses = []string{"A", "A#", "B", "C", "C#", "D", "D#", "E", "F", "F#", "G", "G#"}

// KeyVariants are the stored key estimators in tie-breaking order.
var KeyVariants = []string{"edma", "krumhansl", "temperley"}

var flatToSharp = map[string]string{
	"Ab": "G#", "Bb": "A#", "Db": "C#", "Eb": "D#", "Gb": "F#",
}

var sharpToFlat = map[string]string{
	"G#": "Ab", "A#": "Bb", "C#": "Db", "D#": "Eb", "F#": "Gb",
}

// NormalizeTonic returns the sharp spelling of a pitch class.
func NormalizeTonic(s string) (string, bool) {
	if sharp, ok := flatToSharp[s]; ok {
		return sharp, true
	}
	for _, pc := range PitchClasses {
		if pc == s {
			return s, true
		}
	}
	return "", false
}

// FlatSpelling returns the flat spelling used by chord labels.
func FlatSpelling(s string) (string, bool) {
	if flat, ok := sharpToFlat[s]; ok {
		return flat, true
	}
	if _, ok := flatToSharp[s]; ok {
		return s, true
	}
	for _, pc := range PitchClasses {
		if pc == s {
			return s, true
		}
	}
	return "", false
}

// Variant is a named key estimate.
type Variant struct {
	Name     string
	Estimate *KeyEstimate
}

// Variants returns the present estimates in KeyVariants order.
func (k *KeyEstimates) Variants() []Variant {
	if k == nil {
		return nil
	}
	all := []Variant{
		{Name: KeyVariants[0], Estimate: k.EDMA},
		{Name: KeyVariants[1], Estimate: k.Krumhansl},
		{Name: KeyVariants[2], Estimate: k.Temperley},
	}
	out := all[:0]
	for _, v := range all {
		if v.Estimate != nil {
			out = append(out, v)
		}
	}
	return out
}

// Matches reports whether the estimate agrees with the requested tonic and scale.
// Empty tonic or scale matches anything.
func (k *KeyEstimate) Matches(tonic, scale string) bool {
	if tonic != "" && k.Key != tonic {
		return false
	}
	if scale != "" && k.Scale != scale {
		return false
	}
	return true
}

// BestKey selects the strongest estimate consistent with the request.
// Ties resolve to the earliest variant.
func (k *KeyEstimates) BestKey(tonic, scale string) (KeyEstimate, bool) {
	var best *KeyEstimate
	for _, v := range k.Variants() {
		if !v.Estimate.Matches(tonic, scale) {
			continue
		}
		if best == nil || v.Estimate.Strength > best.Strength {
			best = v.Estimate
		}
	}
	if best == nil {
		return KeyEstimate{}, false
	}
	return *best, true
}
