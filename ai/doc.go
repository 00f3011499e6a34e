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


// Package ai provides abstractions for the AI services used by the
// context engine.
//
// This package defines interfaces for embedding, asset extraction, and
// reranking. It follows the dependency inversion principle: the engine
// depends on these abstractions, never on concrete implementations.
//
// # Interfaces
//
//   - EmbeddingProvider: generates vector embeddings from text, with the
//     optional BatchEmbedder and ImageEmbedder capabilities discovered by
//     type assertion
//   - AssetExtractor: converts an asset into zero or more text items
//   - Reranker: reorders candidate documents by relevance to a query
//   - AIProvider: aggregates the services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes two implementation sub-packages:
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.)
// return INTERFACE types to enforce abstraction. Test utility
// constructors (mock.NewMockEmbedder and friends) return CONCRETE types
// to enable behavior injection via func fields and call-count assertions.
package ai
