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


package engine

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/chunker"
	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/embed"
	"github.com/poiesic/contexture/extract"
	"github.com/poiesic/contexture/storage"
)

// Engine is the facade coordinating chunking, asset extraction,
// embedding, and storage. It is safe for concurrent use; per-call
// overrides never mutate the engine's resolved defaults.
type Engine struct {
	chunker  chunker.Chunker
	provider ai.AIProvider
	store    storage.VectorStore

	router   *extract.Router
	embedder *embed.Orchestrator

	// assetPool bounds simultaneous asset processing across all ingest
	// calls sharing this engine.
	assetPool *ants.Pool

	chunking  core.ChunkingOptions
	assets    core.AssetProcessingConfig
	embedOpts []embed.Option

	sessionId string
	sink      core.EventSink
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithChunkingOptions replaces the default chunking settings.
func WithChunkingOptions(opts core.ChunkingOptions) Option {
	return func(e *Engine) error {
		if err := opts.Validate(); err != nil {
			return err
		}
		e.chunking = opts
		return nil
	}
}

// WithAssetProcessingConfig replaces the default asset processing
// settings. Per-call overrides are merged on top of these.
func WithAssetProcessingConfig(cfg core.AssetProcessingConfig) Option {
	return func(e *Engine) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		e.assets = cfg
		return nil
	}
}

// WithEmbeddingBatchSize sets the maximum units per provider batch
// call in the embedding phase.
func WithEmbeddingBatchSize(size int) Option {
	return func(e *Engine) error {
		e.embedOpts = append(e.embedOpts, embed.WithBatchSize(size))
		return nil
	}
}

// WithEmbeddingConcurrency bounds simultaneous in-flight embedding
// provider calls.
func WithEmbeddingConcurrency(n int) Option {
	return func(e *Engine) error {
		e.embedOpts = append(e.embedOpts, embed.WithConcurrency(n))
		return nil
	}
}

// WithEventSink installs an observer for pipeline lifecycle events.
// The sink is shared with the router and the embedding orchestrator.
func WithEventSink(sink core.EventSink) Option {
	return func(e *Engine) error {
		e.sink = sink
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates an engine over the given chunker, provider, and store.
// Whether image assets are embedded directly is detected from the
// provider's embedding capability, not configured.
func New(chunk chunker.Chunker, provider ai.AIProvider, store storage.VectorStore, opts ...Option) (*Engine, error) {
	if chunk == nil {
		return nil, ErrChunkerRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	e := &Engine{
		chunker:   chunk,
		provider:  provider,
		store:     store,
		chunking:  core.DefaultChunkingOptions(),
		assets:    core.DefaultAssetProcessingConfig(),
		sessionId: uuid.New().String(),
		logger:    slog.Default().With("component", "engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	_, multimodal := provider.EmbeddingProvider().(ai.ImageEmbedder)

	router, err := extract.NewRouter(provider.AssetExtractors(),
		extract.WithMultimodal(multimodal),
		extract.WithEventSink(e.sink),
		extract.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	e.router = router

	embedOpts := append([]embed.Option{
		embed.WithEventSink(e.sink),
		embed.WithLogger(e.logger),
	}, e.embedOpts...)
	embedder, err := embed.New(provider.EmbeddingProvider(), embedOpts...)
	if err != nil {
		return nil, err
	}
	e.embedder = embedder

	pool, err := ants.NewPool(e.assets.Concurrency)
	if err != nil {
		embedder.Release()
		return nil, err
	}
	e.assetPool = pool

	return e, nil
}

// Release releases the engine's worker pools. The injected provider and
// store are not closed; their lifecycle belongs to the caller.
func (e *Engine) Release() {
	if e.assetPool != nil {
		e.assetPool.Release()
	}
	if e.embedder != nil {
		e.embedder.Release()
	}
}

// newScope starts a fresh operation scope for one engine call.
func (e *Engine) newScope() core.EventScope {
	return core.EventScope{
		SessionId:   e.sessionId,
		OperationId: uuid.New().String(),
	}
}
