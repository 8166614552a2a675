package audiodex

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func ptr(v float64) *float64 { return &v }

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(WithMemory(), WithCollection("deezer", "deezer", "wasabi"), WithBatchWorkers(2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)

	ctx := context.Background()
	docs := c.Documents("deezer")
	for _, d := range []Document{
		{ID: "deezer:1", Tempo: ptr(120)},
		{ID: "deezer:2", Tempo: ptr(125)},
		{ID: "wasabi:3", Tempo: ptr(118)},
	} {
		if err := docs.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert %s: %v", d.ID, err)
		}
	}
	return c
}

func ids(rows []Row) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return strings.Join(out, ",")
}

func TestNew_NoStore(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error when no store option provided")
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	_, err := createStore(context.Background(), &clientConfig{driver: "cassandra"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithValkey("localhost:6379", "secret")(cfg)
	if cfg.driver != "valkey" || cfg.addrs[0] != "localhost:6379" || cfg.password != "secret" {
		t.Errorf("unexpected valkey config: %+v", cfg)
	}

	WithMongo("mongodb://db", "music")(cfg)
	if cfg.driver != "mongo" || cfg.uri != "mongodb://db" || cfg.database != "music" {
		t.Errorf("unexpected mongo config: %+v", cfg)
	}

	WithCollection("local", "lib")(cfg)
	WithCollection("other")(cfg)
	if len(cfg.collections) != 2 || cfg.collections["local"][0] != "lib" {
		t.Errorf("unexpected collections: %v", cfg.collections)
	}

	WithMaxBatchSize(500)(cfg)
	if cfg.maxBatchSize != 500 {
		t.Errorf("maxBatchSize = %d, want 500", cfg.maxBatchSize)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{}
	c.Close()
}

func TestSearch_Tempo(t *testing.T) {
	c := newMemoryClient(t)

	rows, err := c.Search("deezer").Tempo("120-5%").Limit(10).Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := ids(rows); got != "deezer:1,wasabi:3,deezer:2" {
		t.Errorf("unexpected order: %s", got)
	}
	if rows[0].Tempo == nil || *rows[0].Tempo != 120 {
		t.Errorf("expected tempo projected, got %+v", rows[0])
	}
}

func TestSearch_NamespaceAndPaging(t *testing.T) {
	c := newMemoryClient(t)

	rows, err := c.Search("deezer").Tempo(">100").In("deezer").Limit(1).Offset(1).Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got := ids(rows); got != "deezer:2" {
		t.Errorf("expected deezer:2, got %s", got)
	}
}

func TestSearch_Errors(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	_, err := c.Search("deezer").Tempo("fast").Do(ctx)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	_, err = c.Search("nope").Tempo("120").Do(ctx)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSearch_Explain(t *testing.T) {
	c := newMemoryClient(t)

	plan, err := c.Search("deezer").Mood("happy").Limit(5).Explain(context.Background())
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if !strings.HasSuffix(plan, ". limit 5") {
		t.Errorf("expected plan to end with limit, got:\n%s", plan)
	}
}

func TestDocuments_GetAndBatch(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	docs := c.Documents("deezer")

	got, err := docs.Get(ctx, "wasabi:3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Tempo == nil || *got.Tempo != 118 {
		t.Errorf("unexpected document: %+v", got)
	}

	if _, err := docs.Get(ctx, "deezer:404"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("expected document not found, got %v", err)
	}

	results := docs.UpsertBatch(ctx, []Document{
		{ID: "deezer:5", Tempo: ptr(99)},
		{ID: "spotify:6", Tempo: ptr(99)},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "deezer:5" || results[0].Err != nil {
		t.Errorf("expected first item stored, got %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrValidation) {
		t.Errorf("expected validation error for foreign namespace, got %v", results[1].Err)
	}

	infos := c.Collections(ctx)
	if len(infos) != 1 || infos[0].Name != "deezer" || infos[0].Documents != 4 {
		t.Errorf("unexpected collections: %+v", infos)
	}
}
