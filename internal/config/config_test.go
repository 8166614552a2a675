package config

import (
	"strings"
	"testing"
)

func TestValidate_InvalidCacheDriver(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		Database:    DatabaseConfig{Driver: "memory"},
		Analysis:    AnalysisConfig{Cache: CacheConfig{Driver: "memcached"}},
		Collections: DefaultCollections(),
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid cache driver")
	}

	expected := `analysis.cache.driver must be "redis", "badger" or "none", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_RedisCacheRequiresRedisStore(t *testing.T) {
	cfg := Config{
		HTTP:        HTTPConfig{Port: 8080},
		Database:    DatabaseConfig{Driver: "mongo", URI: "mongodb://localhost:27017"},
		Analysis:    AnalysisConfig{Cache: CacheConfig{Driver: "redis"}},
		Collections: DefaultCollections(),
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis cache on mongo store")
	}

	cfg.Database = DatabaseConfig{Driver: "valkey", Addrs: []string{"localhost:6379"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DriverRequirements(t *testing.T) {
	tests := []struct {
		name    string
		db      DatabaseConfig
		wantErr bool
	}{
		{"mongo without uri", DatabaseConfig{Driver: "mongo"}, true},
		{"mongo with uri", DatabaseConfig{Driver: "mongo", URI: "mongodb://db"}, false},
		{"redis without addrs", DatabaseConfig{Driver: "redis"}, true},
		{"valkey with addrs", DatabaseConfig{Driver: "valkey", Addrs: []string{"kv:6379"}}, false},
		{"sqlite without path", DatabaseConfig{Driver: "sqlite"}, true},
		{"sqlite with path", DatabaseConfig{Driver: "sqlite", Path: "/tmp/a.db"}, false},
		{"memory", DatabaseConfig{Driver: "memory"}, false},
		{"unknown", DatabaseConfig{Driver: "cassandra"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{
				HTTP:        HTTPConfig{Port: 8080},
				Database:    tc.db,
				Analysis:    AnalysisConfig{Cache: CacheConfig{Driver: "none"}},
				Collections: DefaultCollections(),
				Search:      SearchConfig{DefaultLimit: 1, MaxLimit: 100},
			}
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 0},
		Database: DatabaseConfig{Driver: "memory"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_DefaultLimitAboveMax(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: "memory"}}
	cfg.ApplyDefaults()
	cfg.Search.DefaultLimit = 500

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for default_limit above max_limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "mongo" {
		t.Errorf("expected Driver=mongo, got %q", cfg.Database.Driver)
	}
	if cfg.Database.ReadinessTimeout != 10 {
		t.Errorf("expected ReadinessTimeout=10, got %d", cfg.Database.ReadinessTimeout)
	}
	if cfg.Search.DefaultLimit != 1 {
		t.Errorf("expected DefaultLimit=1, got %d", cfg.Search.DefaultLimit)
	}
	if cfg.Search.MaxLimit != 100 {
		t.Errorf("expected MaxLimit=100, got %d", cfg.Search.MaxLimit)
	}
	if cfg.Analysis.Cache.Driver != "none" {
		t.Errorf("expected cache driver none, got %q", cfg.Analysis.Cache.Driver)
	}
	if cfg.Analysis.Burst != 1 {
		t.Errorf("expected Burst=1, got %d", cfg.Analysis.Burst)
	}
	if cfg.HTTP.MaxAudioBytes != 32<<20 {
		t.Errorf("expected MaxAudioBytes=32MiB, got %d", cfg.HTTP.MaxAudioBytes)
	}
	if got := cfg.Collections["audiocommons"]; len(got) != 3 {
		t.Errorf("expected default audiocommons namespaces, got %v", got)
	}
}

func TestApplyDefaults_KeepsExplicitCollections(t *testing.T) {
	cfg := Config{Collections: map[string][]string{"local": {"lib"}}}
	cfg.ApplyDefaults()

	if len(cfg.Collections) != 1 {
		t.Fatalf("expected explicit collections kept, got %v", cfg.Collections)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("AUDIODEX_TEST_PORT", "9191")

	data := []byte(`
http:
  port: ${AUDIODEX_TEST_PORT}
database:
  driver: ${AUDIODEX_TEST_DRIVER:-memory}
collections:
  demo: [a, b]
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("expected default driver memory, got %q", cfg.Database.Driver)
	}
	if got := strings.Join(cfg.Collections["demo"], ","); got != "a,b" {
		t.Errorf("expected namespaces a,b, got %q", got)
	}
}

func TestCollectionNames_Sorted(t *testing.T) {
	cfg := Config{Collections: DefaultCollections()}
	got := strings.Join(cfg.CollectionNames(), ",")
	if got != "audiocommons,deezer,ilikemusic" {
		t.Errorf("unexpected order: %s", got)
	}
}
