package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

func f64(v float64) *float64 { return &v }

func TestStore_UpsertGetCount(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := s.Upsert(ctx, "deezer", descriptor.Document{ID: "deezer:1", Tempo: f64(100)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, "deezer", descriptor.Document{ID: "deezer:1", Tempo: f64(110)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	doc, err := s.Get(ctx, "deezer", "deezer:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if *doc.Tempo != 110 {
		t.Errorf("tempo = %v, want 110 after replace", *doc.Tempo)
	}

	n, _ := s.Count(ctx, "deezer")
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	if _, err := s.Get(ctx, "deezer", "deezer:2"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestStore_ExecuteCompiledPlan(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for _, d := range []descriptor.Document{
		{ID: "jamendo-tracks:1", Tempo: f64(90)},
		{ID: "jamendo-tracks:2", Tempo: f64(125)},
		{ID: "freesound-sounds:3", Tempo: f64(127)},
		{ID: "europeana-res:4"},
	} {
		if err := s.Upsert(ctx, "audiocommons", d); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	stages := []pipeline.Stage{
		pipeline.Match{Predicate: pipeline.IDPrefix{Prefixes: []string{"jamendo-tracks:", "freesound-sounds:"}}},
		pipeline.Match{Predicate: pipeline.Range{Field: "tempo", Lower: &pipeline.Bound{Value: 100, Inclusive: true}}},
		pipeline.Sort{Keys: []pipeline.SortKey{{Field: "tempo", Desc: true}, {Field: pipeline.FieldID}}},
		pipeline.Limit{N: 5},
	}

	rows, err := s.Execute(ctx, "audiocommons", stages)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Doc.ID != "freesound-sounds:3" || rows[1].Doc.ID != "jamendo-tracks:2" {
		t.Errorf("unexpected order: %s, %s", rows[0].Doc.ID, rows[1].Doc.ID)
	}
}

func TestStore_ExecuteUnknownCollection(t *testing.T) {
	rows, err := NewStore().Execute(context.Background(), "missing", []pipeline.Stage{pipeline.Limit{N: 1}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestStore_ExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStore().Execute(ctx, "deezer", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
