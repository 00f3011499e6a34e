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

package mock

import "github.com/poiesic/contexture/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, extractor, and reranker instances.
type MockProvider struct {
	embedder   ai.EmbeddingProvider
	extractors []ai.AssetExtractor
	reranker   ai.Reranker
}

// NewMockProvider creates a new mock provider with default mock services.
// The embedder is multimodal and batch capable, there is one extractor
// supporting every asset kind, and the reranker preserves input order.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockExtractor()/GetMockReranker() to access concrete
// types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:   NewMockImageEmbedder(),
		extractors: []ai.AssetExtractor{NewMockExtractor()},
		reranker:   NewMockReranker(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom services.
// This allows full control over the capability surface of each service,
// including passing a nil reranker or an embedder without batch support.
func NewMockProviderWithServices(embedder ai.EmbeddingProvider, extractors []ai.AssetExtractor, reranker ai.Reranker) ai.AIProvider {
	return &MockProvider{
		embedder:   embedder,
		extractors: extractors,
		reranker:   reranker,
	}
}

// EmbeddingProvider returns the mock embedding provider.
func (p *MockProvider) EmbeddingProvider() ai.EmbeddingProvider {
	return p.embedder
}

// AssetExtractors returns the mock asset extractors.
func (p *MockProvider) AssetExtractors() []ai.AssetExtractor {
	return p.extractors
}

// Reranker returns the mock reranker, or nil when reranking is disabled.
func (p *MockProvider) Reranker() ai.Reranker {
	return p.reranker
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// Returns nil when a custom embedder of another type was installed.
func (p *MockProvider) GetMockEmbedder() *MockImageEmbedder {
	e, _ := p.embedder.(*MockImageEmbedder)
	return e
}

// GetMockExtractor returns the first mock extractor for test assertions.
// Returns nil when a custom extractor of another type was installed.
func (p *MockProvider) GetMockExtractor() *MockExtractor {
	if len(p.extractors) == 0 {
		return nil
	}
	e, _ := p.extractors[0].(*MockExtractor)
	return e
}

// GetMockReranker returns the underlying mock reranker for test assertions.
// Returns nil when a custom reranker of another type was installed.
func (p *MockProvider) GetMockReranker() *MockReranker {
	r, _ := p.reranker.(*MockReranker)
	return r
}
