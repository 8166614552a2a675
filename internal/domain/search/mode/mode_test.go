package mode

import "testing"

func TestIsValid(t *testing.T) {
	for _, m := range []Mode{Text, Example} {
		if !m.IsValid() {
			t.Errorf("%q should be valid", m)
		}
	}
	if Mode("semantic").IsValid() {
		t.Error("semantic should be invalid")
	}
}
