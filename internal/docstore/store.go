// Package docstore is a schemaless JSON document store with dot-path
// partial updates and atomically committed mutation batches, backed by a
// single PostgreSQL JSONB table.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// MaxBatchOps is the hard ceiling on mutations per atomic commit. A batch
// writer flushes automatically every time this many operations have
// accumulated. This is an external contract, not a tunable.
const MaxBatchOps = 400

// Document is one stored record. Key is the storage key within its
// collection; Data is the decoded JSON body.
type Document struct {
	Key  string
	Data map[string]interface{}
}

// Filter is a dot-path equality predicate for Query.
type Filter struct {
	Path  string
	Value interface{}
}

// BatchWriter accumulates document mutations and commits them in atomic
// chunks of at most MaxBatchOps operations. Queue methods may flush
// eagerly, so they can fail with storage errors.
type BatchWriter interface {
	Set(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
	// Commit flushes any remaining operations and returns the total
	// number of commits performed across the writer's lifetime.
	Commit(ctx context.Context) (int, error)
}

// Store is the document database contract.
type Store interface {
	// Get retrieves a document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Set writes the full document, overwriting any existing body.
	Set(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Update merges fields into an existing document. Keys may use
	// dot-path addressing (e.g. "mutations.cured"). ErrNotFound when the
	// document does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Query returns every document in the collection matching all
	// filters, ordered by key.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Batch returns a new mutation batch accumulator.
	Batch() BatchWriter
}
