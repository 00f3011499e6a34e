// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/storage"
)

// Store implements storage.VectorStore for BadgerDB.
//
// Similarity search is a brute-force scan over stored chunks. Vectors are
// normalized before storage, so cosine similarity reduces to a dot product.
type Store struct {
	backend *Backend
}

var _ storage.VectorStore = (*Store)(nil)

// NewStore creates a vector store over the given backend.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Upsert stores the chunks, replacing every previously stored chunk for
// the same sourceId in one transaction. When the sourceId already has a
// documentId on record, that id wins over the one carried by the chunks.
func (s *Store) Upsert(ctx context.Context, chunks []*core.Chunk) (*storage.UpsertResult, error) {
	if len(chunks) == 0 {
		return nil, storage.ErrEmptyUpsert
	}
	sourceId := chunks[0].SourceId
	for _, chunk := range chunks {
		if chunk.SourceId != sourceId {
			return nil, storage.ErrMixedSources
		}
	}

	documentId := chunks[0].DocumentId
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		// A pre-existing documentId for this sourceId is canonical.
		existing, err := readSourceDocumentId(tx, sourceId)
		if err != nil {
			return err
		}
		if existing != "" {
			documentId = existing
		}

		if err := deleteByPrefix(tx, makeChunkScanPrefix(sourceId)); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, chunk := range chunks {
			chunk.DocumentId = documentId
			if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = now
			}
			key := makeChunkKey(sourceId, chunk.Index)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeSourceKey(sourceId), []byte(documentId)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return &storage.UpsertResult{DocumentId: documentId}, nil
}

// Query scans stored chunks and returns the TopK most similar.
func (s *Store) Query(ctx context.Context, query storage.Query) ([]core.ScoredChunk, error) {
	if len(query.Embedding) == 0 || query.TopK < 1 {
		return nil, storage.ErrInvalidQuery
	}

	var results []core.ScoredChunk
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefixScanPrefix(query.Scope.SourceId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Embedding) == 0 {
				continue
			}

			// Cosine similarity via dot product on normalized vectors
			score := dotProduct(query.Embedding, chunk.Embedding)
			results = append(results, core.ScoredChunk{Chunk: chunk, Score: score})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > query.TopK {
		results = results[:query.TopK]
	}
	return results, nil
}

// Delete removes chunks by exact sourceId or by sourceId prefix.
func (s *Store) Delete(ctx context.Context, input core.DeleteInput) error {
	if err := core.ValidateDeleteInput(&input); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if input.SourceId != "" {
			if err := deleteByPrefix(tx, makeChunkScanPrefix(input.SourceId)); err != nil {
				return err
			}
			if err := tx.Delete(makeSourceKey(input.SourceId)); err != nil {
				return err
			}
		} else {
			if err := deleteByPrefix(tx, makeChunkPrefixScanPrefix(input.SourceIdPrefix)); err != nil {
				return err
			}
			if err := deleteByPrefix(tx, makeSourcePrefixScanPrefix(input.SourceIdPrefix)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// readSourceDocumentId returns the documentId on record for a sourceId,
// or "" when the sourceId is unknown.
func readSourceDocumentId(tx *badger.Txn, sourceId string) (string, error) {
	item, err := tx.Get(makeSourceKey(sourceId))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return "", nil
		}
		return "", err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// deleteByPrefix removes every key with the given prefix within the
// transaction. Keys are collected first; badger forbids deleting under an
// open iterator.
func deleteByPrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
