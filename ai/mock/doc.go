// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.EmbeddingProvider,
// ai.AssetExtractor, ai.Reranker, and ai.AIProvider for use in unit tests.
// The mocks allow tests to run without external AI service dependencies and
// enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	embedding, err := provider.EmbeddingProvider().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
//	// Check call counts
//	count := embedder.CallCount()
//
// # Capability Tiers
//
// The embedding mocks come in three tiers so tests can exercise the
// capability detection done by the embedding orchestrator:
//
//   - MockEmbedder: single-text embedding only
//   - MockBatchEmbedder: adds EmbedTexts (ai.BatchEmbedder)
//   - MockImageEmbedder: adds EmbedImage (ai.ImageEmbedder)
package mock
