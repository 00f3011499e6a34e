package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
)

// MockExtractor is a test double for ai.AssetExtractor.
// It allows custom behavior injection via function fields.
type MockExtractor struct {
	// NameValue overrides the reported extractor name if set.
	NameValue string

	// Kinds restricts which asset kinds the extractor claims to support.
	// If empty, all kinds are supported.
	Kinds []core.AssetKind

	// SupportsFunc is called by Supports if set.
	SupportsFunc func(asset *core.AssetInput, ectx ai.ExtractionContext) bool

	// ExtractFunc is called by Extract if set.
	// If nil, returns a single deterministic text describing the asset.
	ExtractFunc func(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error)

	callCount atomic.Int64
}

// NewMockExtractor creates a mock extractor supporting all asset kinds.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Name returns the mock extractor identifier.
func (m *MockExtractor) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock-extractor"
}

// Supports reports whether the extractor handles the asset.
func (m *MockExtractor) Supports(asset *core.AssetInput, ectx ai.ExtractionContext) bool {
	if m.SupportsFunc != nil {
		return m.SupportsFunc(asset, ectx)
	}
	if len(m.Kinds) == 0 {
		return true
	}
	for _, k := range m.Kinds {
		if k == asset.Kind {
			return true
		}
	}
	return false
}

// Extract produces a deterministic single-text extraction result.
func (m *MockExtractor) Extract(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
	m.callCount.Add(1)

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, asset, ectx)
	}

	return &ai.ExtractionResult{
		Texts: []core.ExtractedText{
			{
				Label:   m.Name(),
				Content: fmt.Sprintf("extracted text for %s asset %s", asset.Kind, asset.AssetId),
			},
		},
	}, nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockExtractor) Reset() {
	m.callCount.Store(0)
	m.SupportsFunc = nil
	m.ExtractFunc = nil
}
