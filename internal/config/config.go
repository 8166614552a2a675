package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the audiodex service configuration.
type Config struct {
	HTTP        HTTPConfig          `yaml:"http"`
	Database    DatabaseConfig      `yaml:"database"`
	Analysis    AnalysisConfig      `yaml:"analysis"`
	Collections map[string][]string `yaml:"collections"` // collection name -> id namespaces
	Search      SearchConfig        `yaml:"search"`
	Index       IndexConfig         `yaml:"index"`
	Import      ImportConfig        `yaml:"import"`
	ObjectStore ObjectStoreConfig   `yaml:"object_store"`
	Auth        AuthConfig          `yaml:"auth"`
	Logging     LoggingConfig       `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxAudioBytes   int64 `yaml:"max_audio_bytes"`
}

// DatabaseConfig holds descriptor store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // mongo, redis, valkey, sqlite, memory (default: mongo)
	URI              string   `yaml:"uri"`    // mongo
	Name             string   `yaml:"name"`   // mongo database
	Addrs            []string `yaml:"addrs"`  // redis/valkey
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	Path             string   `yaml:"path"` // sqlite file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AnalysisConfig holds settings for the descriptor computation service.
type AnalysisConfig struct {
	BaseURL    string      `yaml:"base_url"`
	TimeoutSec int         `yaml:"timeout_sec"`
	RateLimit  float64     `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst      int         `yaml:"burst"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig holds analysis result cache settings.
type CacheConfig struct {
	Driver string `yaml:"driver"` // redis, badger, none (default: none)
	TTLSec int    `yaml:"ttl_sec"`
	Path   string `yaml:"path"` // badger directory, empty = in-memory
}

// SearchConfig holds pagination settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// IndexConfig holds document ingestion settings.
type IndexConfig struct {
	MaxBatchSize int `yaml:"max_batch_size"`
	BatchWorkers int `yaml:"batch_workers"`
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	Concurrency int `yaml:"concurrency"`
	BatchSize   int `yaml:"batch_size"`
}

// ObjectStoreConfig holds S3-compatible object store settings used by the importer.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// DefaultCollections mirrors the collections served by the public deployment.
func DefaultCollections() map[string][]string {
	return map[string][]string{
		"audiocommons": {"jamendo-tracks", "freesound-sounds", "europeana-res"},
		"deezer":       {"deezer", "wasabi"},
		"ilikemusic":   {},
	}
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxAudioBytes <= 0 {
		c.HTTP.MaxAudioBytes = 32 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mongo"
	}
	if c.Database.Name == "" {
		c.Database.Name = "audiodex"
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "audiodex:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Analysis.TimeoutSec <= 0 {
		c.Analysis.TimeoutSec = 120
	}
	if c.Analysis.Burst <= 0 {
		c.Analysis.Burst = 1
	}
	if c.Analysis.Cache.Driver == "" {
		c.Analysis.Cache.Driver = "none"
	}
	if c.Analysis.Cache.TTLSec <= 0 {
		c.Analysis.Cache.TTLSec = 24 * 3600
	}
	if c.Collections == nil {
		c.Collections = DefaultCollections()
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 1
	}
	if c.Search.MaxLimit <= 0 {
		c.Search.MaxLimit = 100
	}
	if c.Index.MaxBatchSize <= 0 {
		c.Index.MaxBatchSize = 100
	}
	if c.Index.BatchWorkers <= 0 {
		c.Index.BatchWorkers = 8
	}
	if c.Import.Concurrency <= 0 {
		c.Import.Concurrency = 4
	}
	if c.Import.BatchSize <= 0 {
		c.Import.BatchSize = 50
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "mongo":
		if c.Database.URI == "" {
			return fmt.Errorf("database.uri is required for driver mongo")
		}
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %s", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver sqlite")
		}
	case "memory":
	default:
		return fmt.Errorf(
			"database.driver must be one of mongo, redis, valkey, sqlite, memory, got %q",
			c.Database.Driver,
		)
	}
	switch c.Analysis.Cache.Driver {
	case "none", "badger":
	case "redis":
		if c.Database.Driver != "redis" && c.Database.Driver != "valkey" {
			return fmt.Errorf("analysis.cache.driver redis requires database.driver redis or valkey")
		}
	default:
		return fmt.Errorf(
			"analysis.cache.driver must be \"redis\", \"badger\" or \"none\", got %q",
			c.Analysis.Cache.Driver,
		)
	}
	if c.Analysis.RateLimit < 0 {
		return fmt.Errorf("analysis.rate_limit must be >= 0, got %v", c.Analysis.RateLimit)
	}
	if len(c.Collections) == 0 {
		return fmt.Errorf("collections must name at least one collection")
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		return fmt.Errorf("search.default_limit (%d) exceeds search.max_limit (%d)",
			c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	return nil
}

// CollectionNames returns configured collection names in sorted order.
func (c *Config) CollectionNames() []string {
	names := make([]string, 0, len(c.Collections))
	for name := range c.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
