package db

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

func TestPushdownFilter(t *testing.T) {
	preds := []pipeline.Predicate{
		pipeline.IDPrefix{Prefixes: []string{"deezer:", "wasabi:"}},
		pipeline.Range{
			Field: "tempo",
			Lower: &pipeline.Bound{Value: 118, Inclusive: true},
			Upper: &pipeline.Bound{Value: 138},
		},
	}

	expr, err := PushdownFilter(preds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	conds := expr.Must()
	if len(conds) != 2 {
		t.Fatalf("conditions = %d, want 2", len(conds))
	}
	if !conds[0].IsPrefix() || conds[0].Key() != "id" || len(conds[0].Prefixes()) != 2 {
		t.Errorf("unexpected prefix condition: %+v", conds[0])
	}
	r := conds[1].Range()
	if r == nil {
		t.Fatal("expected range condition")
	}
	if r.GTE() == nil || *r.GTE() != 118 || r.GT() != nil {
		t.Errorf("lower bound not inclusive 118")
	}
	if r.LT() == nil || *r.LT() != 138 || r.LTE() != nil {
		t.Errorf("upper bound not exclusive 138")
	}
}

func TestPushdownFilter_RejectsResidualPredicates(t *testing.T) {
	_, err := PushdownFilter([]pipeline.Predicate{pipeline.KeyMatch{Tonic: "C"}})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestPushdownFilter_Empty(t *testing.T) {
	expr, err := PushdownFilter(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !expr.IsEmpty() {
		t.Error("expected empty expression")
	}
}
