package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/contexture/ai"
)

// MockReranker is a test double for ai.Reranker.
// It allows custom behavior injection via function fields.
type MockReranker struct {
	// NameValue overrides the reported model name if set.
	NameValue string

	// RerankFunc is called by Rerank if set.
	// If nil, returns the identity ordering with linearly decaying scores.
	RerankFunc func(ctx context.Context, query string, documents []string) (*ai.RerankOutput, error)

	callCount atomic.Int64
}

// NewMockReranker creates a mock reranker with identity-order default behavior.
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

// Name returns the mock model identifier.
func (m *MockReranker) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock-reranker"
}

// Rerank returns the documents in their original order by default.
func (m *MockReranker) Rerank(ctx context.Context, query string, documents []string) (*ai.RerankOutput, error) {
	m.callCount.Add(1)

	if m.RerankFunc != nil {
		return m.RerankFunc(ctx, query, documents)
	}

	order := make([]int, len(documents))
	scores := make([]float64, len(documents))
	for i := range documents {
		order[i] = i
		scores[i] = 1.0 / float64(i+1)
	}
	return &ai.RerankOutput{Order: order, Scores: scores, Model: m.Name()}, nil
}

// CallCount returns the number of times Rerank was called.
func (m *MockReranker) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockReranker) Reset() {
	m.callCount.Store(0)
	m.RerankFunc = nil
}
