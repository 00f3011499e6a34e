package mock

import (
	"context"
	"hash/fnv"
	"sync/atomic"

	"github.com/poiesic/contexture/ai"
)

// DefaultDimensions is the vector width of the deterministic mock embeddings.
const DefaultDimensions = 384

// MockEmbedder is a test double for ai.EmbeddingProvider.
// It allows custom behavior injection via function fields.
//
// MockEmbedder deliberately implements only the base interface. Use
// MockBatchEmbedder or MockImageEmbedder when a test needs the optional
// batch or image capabilities to be discoverable by type assertion.
type MockEmbedder struct {
	// NameValue overrides the reported model name if set.
	NameValue string

	// DimensionsValue overrides the reported vector width if set.
	DimensionsValue int

	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	callCount atomic.Int64
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// Name returns the mock model identifier.
func (m *MockEmbedder) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock-embedder"
}

// Dimensions returns the vector width of produced embeddings.
func (m *MockEmbedder) Dimensions() int {
	if m.DimensionsValue > 0 {
		return m.DimensionsValue
	}
	return DefaultDimensions
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return generateDeterministicVector(text, m.Dimensions()), nil
}

// CallCount returns the number of times any embed method was called.
func (m *MockEmbedder) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockEmbedder) Reset() {
	m.callCount.Store(0)
	m.EmbedTextFunc = nil
}

// MockBatchEmbedder extends MockEmbedder with the ai.BatchEmbedder capability.
type MockBatchEmbedder struct {
	MockEmbedder

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

// NewMockBatchEmbedder creates a batch-capable mock embedder.
func NewMockBatchEmbedder() *MockBatchEmbedder {
	return &MockBatchEmbedder{}
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockBatchEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount.Add(1)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = generateDeterministicVector(text, m.Dimensions())
	}
	return embeddings, nil
}

// Reset clears the call count and custom functions.
func (m *MockBatchEmbedder) Reset() {
	m.MockEmbedder.Reset()
	m.EmbedTextsFunc = nil
}

// MockImageEmbedder extends MockBatchEmbedder with the ai.ImageEmbedder
// capability.
type MockImageEmbedder struct {
	MockBatchEmbedder

	// EmbedImageFunc is called by EmbedImage if set.
	// If nil, uses default deterministic behavior.
	EmbedImageFunc func(ctx context.Context, image ai.ImageInput) ([]float32, error)
}

// NewMockImageEmbedder creates a multimodal-capable mock embedder.
func NewMockImageEmbedder() *MockImageEmbedder {
	return &MockImageEmbedder{}
}

// EmbedImage generates a deterministic embedding from the image bytes or URL.
func (m *MockImageEmbedder) EmbedImage(ctx context.Context, image ai.ImageInput) ([]float32, error) {
	m.callCount.Add(1)

	if m.EmbedImageFunc != nil {
		return m.EmbedImageFunc(ctx, image)
	}

	seed := image.URL
	if len(image.Data) > 0 {
		seed = string(image.Data)
	}
	return generateDeterministicVector(seed, m.Dimensions()), nil
}

// Reset clears the call count and custom functions.
func (m *MockImageEmbedder) Reset() {
	m.MockBatchEmbedder.Reset()
	m.EmbedImageFunc = nil
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit vector
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	norm := float32(1.0)
	if sumSquares > 0 {
		norm = float32(1.0) / float32(sumSquares)
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
