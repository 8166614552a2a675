package audiodex

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver       string
	uri          string
	database     string
	addrs        []string
	password     string
	path         string
	collections  map[string][]string
	batchWorkers int
	maxBatchSize int
}

// WithMongo stores descriptors in MongoDB.
func WithMongo(uri, database string) Option {
	return func(c *clientConfig) {
		c.driver = "mongo"
		c.uri = uri
		c.database = database
	}
}

// WithRedis stores descriptors in Redis Stack (RediSearch + RedisJSON).
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithValkey stores descriptors in Valkey with the search and JSON modules.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithSQLite stores descriptors in a SQLite file. ":memory:" keeps them in process.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	}
}

// WithMemory keeps descriptors in process memory. Intended for tests and demos.
func WithMemory() Option {
	return func(c *clientConfig) {
		c.driver = "memory"
	}
}

// WithCollection registers a collection and its namespaces.
// Without any WithCollection the built-in collection set is used.
func WithCollection(name string, namespaces ...string) Option {
	return func(c *clientConfig) {
		if c.collections == nil {
			c.collections = make(map[string][]string)
		}
		c.collections[name] = namespaces
	}
}

// WithBatchWorkers bounds concurrent upserts inside a batch.
func WithBatchWorkers(n int) Option {
	return func(c *clientConfig) {
		c.batchWorkers = n
	}
}

// WithMaxBatchSize caps the number of documents accepted per batch.
func WithMaxBatchSize(n int) Option {
	return func(c *clientConfig) {
		c.maxBatchSize = n
	}
}
