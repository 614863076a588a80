// Package db defines the storage contract implemented by the Redis store.
// The corpus lives in hashes under a configurable key prefix with one FT
// vector index over them; the same store doubles as the embedding cache KV
// and the duplicate-audit stream sink.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Op identifies the failed storage operation for error reporting.
type Op string

// Storage operations.
const (
	OpPing        Op = "ping"
	OpCreateIndex Op = "create_index"
	OpSearch      Op = "search"
	OpHSet        Op = "hset"
	OpHGetAll     Op = "hgetall"
	OpScan        Op = "scan"
	OpGet         Op = "get"
	OpSet         Op = "set"
	OpXAdd        Op = "xadd"
)

// ErrKeyNotFound signals a missing key.
var ErrKeyNotFound = errors.New("key not found")

// Error wraps a storage error with the operation that produced it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("db %s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// SearchEntry is a single FT.SEARCH hit.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is a parsed FT.SEARCH response.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// KNNQuery is a vector similarity search request.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// VectorIndexSpec describes the single FT index over the corpus hashes.
type VectorIndexSpec struct {
	Name       string
	Prefix     string
	Dimensions int
}

// Store is the full storage contract consumed by the repositories.
type Store interface {
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()

	EnsureVectorIndex(ctx context.Context, spec VectorIndexSpec) error
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)

	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	ScanKeys(ctx context.Context, match string) ([]string, error)

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	XAdd(ctx context.Context, stream string, fields map[string]string) error
}
