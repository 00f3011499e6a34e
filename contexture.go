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


package contexture

import (
	"context"
	"log/slog"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/ai/openai"
	"github.com/poiesic/contexture/chunker"
	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/engine"
	"github.com/poiesic/contexture/rerank"
	"github.com/poiesic/contexture/storage"
	"github.com/poiesic/contexture/storage/badger"
)

// DB bundles a badger-backed vector store, an AI provider, and the
// context engine into one openable unit.
type DB struct {
	backend  *badger.Backend
	store    storage.VectorStore
	provider ai.AIProvider
	engine   *engine.Engine
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	aiConfig   *ai.Config
	provider   ai.AIProvider
	method     string
	custom     chunker.Chunker
	inMemory   bool
	engineOpts []engine.Option
}

// WithAIConfig replaces the default AI provider configuration.
func WithAIConfig(config *ai.Config) Option {
	return func(o *openOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the default
// openai-compatible one. The DB takes ownership and closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *openOptions) {
		o.provider = provider
	}
}

// WithChunkingMethod selects a registered chunking method. Method
// "custom" requires the accompanying chunker.
func WithChunkingMethod(method string, custom chunker.Chunker) Option {
	return func(o *openOptions) {
		o.method = method
		o.custom = custom
	}
}

// WithInMemory opens the store in memory, discarding data on close.
func WithInMemory() Option {
	return func(o *openOptions) {
		o.inMemory = true
	}
}

// WithEngineOptions forwards options to the engine constructor.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *openOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// Open creates the storage backend, the AI provider, and the engine.
// filePath is the badger directory; it is ignored with WithInMemory.
func Open(filePath string, opts ...Option) (*DB, error) {
	options := &openOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}
	store := badger.NewStore(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	chunk, err := chunker.Resolve(options.method, options.custom)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	eng, err := engine.New(chunk, provider, store, options.engineOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &DB{
		backend:  backend,
		store:    store,
		provider: provider,
		engine:   eng,
		logger:   slog.Default(),
	}, nil
}

// Engine exposes the context engine for direct use.
func (db *DB) Engine() *engine.Engine {
	return db.engine
}

// Ingest chunks, extracts, embeds, and stores one document.
func (db *DB) Ingest(ctx context.Context, input *core.IngestInput) (*core.IngestResult, error) {
	return db.engine.Ingest(ctx, input)
}

// PlanIngest classifies every asset without network calls.
func (db *DB) PlanIngest(input *core.IngestInput) (*core.IngestPlanResult, error) {
	return db.engine.PlanIngest(input)
}

// Retrieve runs a similarity query over the stored chunks.
func (db *DB) Retrieve(ctx context.Context, input *core.RetrieveInput) (*core.RetrieveResult, error) {
	return db.engine.Retrieve(ctx, input)
}

// Delete removes stored chunks by exact sourceId or prefix.
func (db *DB) Delete(ctx context.Context, input core.DeleteInput) error {
	return db.engine.Delete(ctx, input)
}

// NewRerankPipeline builds a rerank pipeline over the provider's
// reranker, which may be absent; the per-call policy decides whether
// that skips or fails.
func (db *DB) NewRerankPipeline(opts ...rerank.Option) *rerank.Pipeline {
	return rerank.New(db.provider.Reranker(), opts...)
}

// Close tears down the engine, the AI provider, and the backend, in
// that order. Provider close errors are logged, not returned; storage
// close errors are returned.
func (db *DB) Close() error {
	db.engine.Release()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing storage backend", "err", err)
		return err
	}
	return nil
}
