package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/audiodex/internal/db"
	"github.com/kailas-cloud/audiodex/internal/domain/descriptor"
	"github.com/kailas-cloud/audiodex/internal/domain/search/filter"
	"github.com/kailas-cloud/audiodex/internal/pipeline"
)

const testPrefix = "audiodex:"

func f64(v float64) *float64 { return &v }

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, testPrefix)
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c, testPrefix)
	err := s.WaitForReady(context.Background(), 150*time.Millisecond)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpWaitReady {
		t.Fatalf("expected wait_ready error, got %v", err)
	}
}

// --- json.go tests ---

func TestJSONGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.JSONGet(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestJSONGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.GET", "mykey")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.JSONGet(context.Background(), "mykey")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, db.ErrKeyNotFound) {
		t.Error("should not be ErrKeyNotFound for network errors")
	}
}

// --- kv.go tests ---

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c, testPrefix)
	data, err := s.KV().Get(context.Background(), "mykey")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "value" {
		t.Errorf("unexpected data: %s", data)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.KV().Get(context.Background(), "mykey")
	if !errors.Is(err, db.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return len(cmd) == 5 && cmd[0] == "SET" && cmd[1] == "mykey" && cmd[2] == "myvalue" && cmd[3] == "EX"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.KV().SetWithTTL(context.Background(), "mykey", []byte("myvalue"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetWithTTL_NoExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "myvalue")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.KV().SetWithTTL(context.Background(), "mykey", []byte("myvalue"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- index.go tests ---

func TestEnsureCollection_CreatesMissingIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "audiodex:idx:deezer")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "audiodex:idx:deezer", "ON", "JSON",
			"PREFIX", "1", "audiodex:deezer:doc:",
			"SCHEMA",
			"$.id", "AS", "id", "TAG", "CASESENSITIVE", "SORTABLE",
			"$.tempo", "AS", "tempo", "NUMERIC",
			"$.tuning", "AS", "tuning", "NUMERIC",
			"$.duration", "AS", "duration", "NUMERIC",
			"$.chords.confidence", "AS", "chords_confidence", "NUMERIC",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, testPrefix)
	if err := s.EnsureCollection(context.Background(), "deezer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureCollection_ExistingIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "audiodex:idx:deezer")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("audiodex:idx:deezer"))))

	s := NewStoreForTest(c, testPrefix)
	if err := s.EnsureCollection(context.Background(), "deezer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c, testPrefix)
	idx := &db.IndexDefinition{
		Name:   "test:idx",
		Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	_, err := buildCreateArgs(&db.IndexDefinition{Name: "", Fields: []db.IndexField{{Name: "f", Type: db.IndexFieldTag}}})
	if err == nil {
		t.Error("expected error for empty name")
	}

	_, err = buildCreateArgs(&db.IndexDefinition{Name: "test"})
	if err == nil {
		t.Error("expected error for empty fields")
	}

	_, err = buildFieldArgs(&db.IndexField{Name: "f", Type: db.IndexFieldType(99)})
	if err == nil {
		t.Error("expected error for unknown field type")
	}
}

// --- search.go tests ---

func TestBuildFilter(t *testing.T) {
	prefix, _ := filter.NewPrefix("id", "jamendo-tracks:", "europeana-res:")
	lower, _ := filter.NewRangeFilter(nil, f64(118), f64(138), nil)
	tempo, _ := filter.NewRange("tempo", lower)
	conf, _ := filter.NewRangeFilter(f64(0.5), nil, nil, nil)
	chords, _ := filter.NewRange("chords.confidence", conf)

	tests := []struct {
		name  string
		conds []filter.Condition
		want  string
	}{
		{"empty", nil, "*"},
		{"prefix", []filter.Condition{prefix}, `@id:{jamendo\-tracks\:* | europeana\-res\:*}`},
		{"range", []filter.Condition{tempo}, "@tempo:[118 (138]"},
		{"aliased field", []filter.Condition{chords}, "@chords_confidence:[(0.5 +inf]"},
		{"conjunction", []filter.Condition{prefix, tempo},
			`@id:{jamendo\-tracks\:* | europeana\-res\:*} @tempo:[118 (138]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := filter.NewExpression(tt.conds...)
			if err != nil {
				t.Fatalf("NewExpression: %v", err)
			}
			if got := buildFilter(expr); got != tt.want {
				t.Errorf("buildFilter() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- descriptors.go tests ---

func searchReply(docs ...string) rueidis.RedisMessage {
	items := []rueidis.RedisMessage{mock.RedisInt64(int64(len(docs)))}
	for i, d := range docs {
		items = append(items,
			mock.RedisBlobString("doc:"+string(rune('a'+i))),
			mock.RedisArray(mock.RedisBlobString("$"), mock.RedisBlobString(d)),
		)
	}
	return mock.RedisArray(items...)
}

func TestExecute_PushesRangesAndPrefixes(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "audiodex:idx:deezer", `@id:{deezer\:*} @tempo:[118 (138]`,
			"RETURN", "1", "$", "SORTBY", "id", "ASC", "LIMIT", "0", "1000", "DIALECT", "2",
		)).
		Return(mock.Result(searchReply(
			`{"id":"deezer:1","tempo":120}`,
			`{"id":"deezer:2","tempo":130}`,
			`{"id":"deezer:3","tempo":126}`,
		)))

	stages := []pipeline.Stage{
		pipeline.Match{Predicate: pipeline.IDPrefix{Prefixes: []string{"deezer:"}}},
		pipeline.Match{Predicate: pipeline.Range{
			Field: "tempo",
			Lower: &pipeline.Bound{Value: 118, Inclusive: true},
			Upper: &pipeline.Bound{Value: 138},
		}},
		pipeline.AddFields{Derivation: pipeline.Distance{Field: "tempo", Target: 128}},
		pipeline.Sort{Keys: []pipeline.SortKey{{Field: "tempoDistance"}, {Field: pipeline.FieldID}}},
		pipeline.Skip{N: 0},
		pipeline.Limit{N: 2},
	}

	s := NewStoreForTest(c, testPrefix)
	rows, err := s.Execute(context.Background(), "deezer", stages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.Doc.ID
	}
	if !slices.Equal(ids, []string{"deezer:2", "deezer:3"}) {
		t.Errorf("ids = %v, want [deezer:2 deezer:3]", ids)
	}
}

func TestExecute_PagesInIDOrderServerSide(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "audiodex:idx:deezer", `@id:{deezer\:*}`,
			"RETURN", "1", "$", "SORTBY", "id", "ASC", "LIMIT", "20", "2", "DIALECT", "2",
		)).
		Return(mock.Result(searchReply(
			`{"id":"deezer:21","tempo":120}`,
			`{"id":"deezer:22","tempo":130}`,
		)))

	stages := []pipeline.Stage{
		pipeline.Match{Predicate: pipeline.IDPrefix{Prefixes: []string{"deezer:"}}},
		pipeline.Sort{Keys: []pipeline.SortKey{{Field: pipeline.FieldID}}},
		pipeline.Skip{N: 20},
		pipeline.Limit{N: 2},
	}

	s := NewStoreForTest(c, testPrefix)
	rows, err := s.Execute(context.Background(), "deezer", stages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || rows[0].Doc.ID != "deezer:21" || rows[1].Doc.ID != "deezer:22" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestScan_SkipsDocumentsRepeatedAcrossPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	first := []rueidis.RedisMessage{mock.RedisInt64(scanBatch + 1)}
	for i := 0; i < scanBatch; i++ {
		first = append(first,
			mock.RedisBlobString("doc"),
			mock.RedisArray(mock.RedisBlobString("$"), mock.RedisBlobString(fmt.Sprintf(`{"id":"deezer:%04d"}`, i))),
		)
	}
	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match(
				"FT.SEARCH", "audiodex:idx:deezer", "*",
				"RETURN", "1", "$", "SORTBY", "id", "ASC", "LIMIT", "0", "1000", "DIALECT", "2",
			)).
			Return(mock.Result(mock.RedisArray(first...))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match(
				"FT.SEARCH", "audiodex:idx:deezer", "*",
				"RETURN", "1", "$", "SORTBY", "id", "ASC", "LIMIT", "1000", "1000", "DIALECT", "2",
			)).
			Return(mock.Result(searchReply(`{"id":"deezer:0999"}`, `{"id":"deezer:1000"}`))),
	)

	s := NewStoreForTest(c, testPrefix)
	docs, err := s.scan(context.Background(), "audiodex:idx:deezer", "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != scanBatch+1 {
		t.Fatalf("docs = %d, want %d", len(docs), scanBatch+1)
	}
	if docs[scanBatch].ID != "deezer:1000" {
		t.Errorf("last doc = %s, want deezer:1000", docs[scanBatch].ID)
	}
}

func TestExecute_ResidualKeyMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" && cmd[2] == "*"
		})).
		Return(mock.Result(searchReply(
			`{"id":"deezer:1","key":{"edma":{"key":"C","scale":"major","strength":0.9}}}`,
			`{"id":"deezer:2","key":{"edma":{"key":"A","scale":"minor","strength":0.7}}}`,
		)))

	stages := []pipeline.Stage{
		pipeline.Match{Predicate: pipeline.KeyMatch{Tonic: "A", Scale: "minor"}},
		pipeline.Sort{Keys: []pipeline.SortKey{{Field: pipeline.FieldID}}},
		pipeline.Limit{N: 10},
	}

	s := NewStoreForTest(c, testPrefix)
	rows, err := s.Execute(context.Background(), "deezer", stages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Doc.ID != "deezer:2" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestExecute_SearchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool { return cmd[0] == "FT.SEARCH" })).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	s := NewStoreForTest(c, testPrefix)
	_, err := s.Execute(context.Background(), "deezer", []pipeline.Stage{pipeline.Limit{N: 1}})
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpSearch {
		t.Fatalf("expected FT.SEARCH error, got %v", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.SET", "audiodex:deezer:doc:deezer:1", "$", `{"id":"deezer:1","tempo":120}`)).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("JSON.GET", "audiodex:deezer:doc:deezer:1")).
		Return(mock.Result(mock.RedisBlobString(`{"id":"deezer:1","tempo":120}`)))

	s := NewStoreForTest(c, testPrefix)
	ctx := context.Background()
	if err := s.Upsert(ctx, "deezer", descriptor.Document{ID: "deezer:1", Tempo: f64(120)}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	doc, err := s.Get(ctx, "deezer", "deezer:1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Tempo == nil || *doc.Tempo != 120 {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.SEARCH", "audiodex:idx:deezer", "*", "LIMIT", "0", "0", "DIALECT", "2")).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(42))))

	s := NewStoreForTest(c, testPrefix)
	n, err := s.Count(context.Background(), "deezer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}
