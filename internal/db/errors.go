package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	ErrUnsupported   = errors.New("db: unsupported pipeline stage")
)

// Op names attached to backend failures. Redis ops carry the command name.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpJSONSet     = "JSON.SET"
	OpJSONGet     = "JSON.GET"
	OpGet         = "GET"
	OpSet         = "SET"

	OpAggregate     = "aggregate"
	OpCreateIndexes = "createIndexes"
	OpReplace       = "replace"
	OpFind          = "find"
	OpCount         = "count"
	OpMigrate       = "migrate"
	OpQuery         = "query"
	OpDecode        = "decode"
	OpExecute       = "execute"
	OpWaitReady     = "wait_ready"
	OpOpen          = "open"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
