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

package openai

import (
	"log/slog"

	"github.com/poiesic/contexture/ai"
)

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages embedder, extractor, and reranker instances.
type Provider struct {
	config    *ai.Config
	embedder  *Embedder
	extractor *DescriptionExtractor
	reranker  *Reranker
	logger    *slog.Logger
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use. A reranker is only
// created when the config names a rerank model.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create embedder (using internal constructor for concrete type)
	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	// Create asset extractor (using internal constructor for concrete type)
	extractor, err := newDescriptionExtractor(config)
	if err != nil {
		return nil, err
	}

	var reranker *Reranker
	if config.RerankModel != "" {
		reranker, err = newReranker(config)
		if err != nil {
			return nil, err
		}
	}

	return &Provider{
		config:    config,
		embedder:  embedder,
		extractor: extractor,
		reranker:  reranker,
		logger:    slog.Default().With("component", "openai-provider"),
	}, nil
}

// EmbeddingProvider returns the text embedding service.
func (p *Provider) EmbeddingProvider() ai.EmbeddingProvider {
	return p.embedder
}

// AssetExtractors returns the asset extraction services in registration order.
func (p *Provider) AssetExtractors() []ai.AssetExtractor {
	return []ai.AssetExtractor{p.extractor}
}

// Reranker returns the reranking service, or nil when no rerank model is
// configured.
func (p *Provider) Reranker() ai.Reranker {
	if p.reranker == nil {
		return nil
	}
	return p.reranker
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
