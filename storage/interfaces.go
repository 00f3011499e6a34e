package storage

import (
	"context"

	"github.com/poiesic/contexture/core"
)

// Query is a similarity search request.
type Query struct {
	// Embedding is the query vector.
	Embedding []float32

	// TopK is the maximum number of results.
	TopK int

	// Scope narrows the search to chunks whose SourceId starts with
	// Scope.SourceId. An empty scope searches everything.
	Scope core.RetrieveScope
}

// UpsertResult reports the canonical document identity after an upsert.
// The store may return a pre-existing documentId when the sourceId was
// already stored, overriding the newly generated one.
type UpsertResult struct {
	DocumentId string
}

// VectorStore is the three-operation persistence contract consumed by the
// context engine. Implementations must be thread-safe and support
// concurrent access.
type VectorStore interface {
	// Upsert stores the chunks, first removing every previously stored
	// chunk for the same sourceId. The replace happens as one atomic
	// unit: readers never observe a mix of old and new chunks. All
	// chunks must belong to the same sourceId.
	Upsert(ctx context.Context, chunks []*core.Chunk) (*UpsertResult, error)

	// Query returns up to TopK stored chunks ranked by descending
	// similarity to the query embedding.
	Query(ctx context.Context, query Query) ([]core.ScoredChunk, error)

	// Delete removes chunks by exact sourceId or by sourceId prefix,
	// exactly one of which must be set. Deleting a sourceId with no
	// stored chunks is not an error.
	Delete(ctx context.Context, input core.DeleteInput) error

	// Close closes the storage backend and releases resources.
	Close() error
}
