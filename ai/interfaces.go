package ai

import (
	"context"

	"github.com/poiesic/contexture/core"
)

// EmbeddingProvider generates vector embeddings for semantic similarity
// search. Implementations must be thread-safe for concurrent use.
//
// Providers may additionally implement BatchEmbedder and ImageEmbedder;
// callers discover those capabilities by type assertion.
type EmbeddingProvider interface {
	// Name identifies the provider and model, e.g. "openai/text-embedding-3-small".
	Name() string

	// Dimensions returns the embedding vector size, or 0 when unknown.
	Dimensions() int

	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is the optional multi-input embedding capability.
// The returned slice contains embeddings in the same order as the input
// texts, one vector per text.
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageInput is the payload for direct image embedding. Exactly one of
// Data or URL carries the image.
type ImageInput struct {
	Data      []byte
	URL       string
	MediaType string
	Caption   string // Optional accompanying text
}

// ImageEmbedder is the optional multimodal embedding capability.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, image ImageInput) ([]float32, error)
}

// ExtractionContext carries the resolved per-kind settings into an
// extractor call.
type ExtractionContext struct {
	Config core.AssetKindConfig
}

// ExtractionResult is the outcome of one extractor invocation.
type ExtractionResult struct {
	// Texts holds zero or more extracted text items. An empty slice is a
	// legal outcome and routes the asset to the next extractor in the chain.
	Texts []core.ExtractedText

	// Metadata is merged into the metadata of every chunk derived from
	// this extraction.
	Metadata map[string]string
}

// AssetExtractor converts an asset into zero or more text items.
// Implementations must be thread-safe for concurrent use.
type AssetExtractor interface {
	// Name identifies the extractor; it is recorded in chunk metadata.
	Name() string

	// Supports reports whether this extractor can handle the asset.
	// It must be cheap and perform no network calls: ingest planning
	// relies on it.
	Supports(asset *core.AssetInput, ectx ExtractionContext) bool

	// Extract produces text items from the asset. Returning an empty
	// result is not an error; the router tries the next extractor.
	Extract(ctx context.Context, asset *core.AssetInput, ectx ExtractionContext) (*ExtractionResult, error)
}

// RerankOutput is a reranker's verdict over a document list: an index
// permutation into the input documents, most relevant first, plus
// optional per-document scores aligned with Order.
type RerankOutput struct {
	Order  []int
	Scores []float64
	Model  string
}

// Reranker reorders candidate documents by relevance to a query.
// Implementations must be thread-safe for concurrent use.
type Reranker interface {
	// Name identifies the reranker.
	Name() string

	// Rerank receives the resolved document strings and returns an index
	// permutation over them.
	Rerank(ctx context.Context, query string, documents []string) (*RerankOutput, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages the embedding
// provider, asset extractors, and reranker, ensuring they share
// configuration and resources appropriately.
type AIProvider interface {
	// EmbeddingProvider returns the embedding service.
	EmbeddingProvider() EmbeddingProvider

	// AssetExtractors returns the extractors in registration order.
	// May be empty.
	AssetExtractors() []AssetExtractor

	// Reranker returns the reranking service, or nil when none is
	// configured.
	Reranker() Reranker

	// Close releases resources held by the provider and its services.
	Close() error
}
