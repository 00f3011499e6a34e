package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// AssetKind classifies an attached asset.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindPdf   AssetKind = "pdf"
	AssetKindAudio AssetKind = "audio"
	AssetKindVideo AssetKind = "video"
	AssetKindFile  AssetKind = "file"
)

// Valid reports whether the kind is one of the known asset kinds.
func (k AssetKind) Valid() bool {
	switch k {
	case AssetKindImage, AssetKindPdf, AssetKindAudio, AssetKindVideo, AssetKindFile:
		return true
	}
	return false
}

// Chunk is a token-bounded slice of text tied to a document and source,
// enriched with an embedding before it reaches storage.
//
// Index values are unique and contiguous per document: base-text chunks
// occupy [0, N), asset-derived chunks continue from N. SourceId is the
// caller-defined logical document identity; DocumentId is assigned per
// ingest call (the store may return a pre-existing DocumentId when the
// SourceId already exists).
type Chunk struct {
	Id              ID
	DocumentId      string
	SourceId        string
	Index           int
	Content         string
	TokenCount      int
	Metadata        map[string]string
	Embedding       []float32
	DocumentContent string // Optional full document content, used by rerank text resolution
	InsertedAt      time.Time
}

// ChunkText is the chunker's output: a piece of text with its position
// and token count. It carries no document identity.
type ChunkText struct {
	Index      int
	Content    string
	TokenCount int
}

// AssetInput describes a rich-media attachment to an ingested document.
// Exactly one of Data or URL should carry the asset payload.
// AssetId must be stable across re-ingests of the same logical asset.
type AssetInput struct {
	AssetId  string
	Kind     AssetKind
	Data     []byte
	URL      string
	URI      string // Display URI for warnings and events
	Text     string // Caption or alt text, used for images without multimodal embedding
	Metadata map[string]string
}

// ExtractedText is a single text item produced by an asset extractor.
type ExtractedText struct {
	Label        string
	Content      string
	Confidence   float64
	PageRange    string
	TimeRangeSec [2]float64
}

// IngestInput is the request for a single ingest call.
type IngestInput struct {
	SourceId                 string
	Content                  string
	Metadata                 map[string]string
	ChunkingOverrides        *ChunkingOverrides
	Assets                   []AssetInput
	AssetProcessingOverrides *AssetProcessingOverrides
}

// IngestDurations breaks down where ingest time was spent.
type IngestDurations struct {
	Total     time.Duration
	Chunking  time.Duration
	Embedding time.Duration
	Storage   time.Duration
}

// IngestResult summarizes a completed ingest call.
type IngestResult struct {
	DocumentId     string
	ChunkCount     int
	EmbeddingModel string
	Warnings       []IngestWarning
	Durations      IngestDurations
}

// AssetDecision is the dry-run classification for a single asset.
type AssetDecision string

const (
	AssetWillProcess AssetDecision = "will_process"
	AssetWillSkip    AssetDecision = "will_skip"
)

// AssetPlan describes how one asset would be handled by ingest.
type AssetPlan struct {
	AssetId        string
	Kind           AssetKind
	Decision       AssetDecision
	Reason         string
	WarningCode    WarningCode // Set when Decision is AssetWillSkip
	Extractors     []string    // Names of matching extractors, in invocation order
	ImageEmbedding bool        // Image will be embedded directly by the provider
	CaptionText    bool        // Caption text will be chunked and embedded
}

// IngestPlanResult is the dry-run counterpart of IngestResult.
// It classifies every asset without performing any network calls.
type IngestPlanResult struct {
	SourceId       string
	BaseChunkCount int
	Assets         []AssetPlan
}

// RetrieveScope narrows a retrieve call to a logical sub-namespace.
// SourceId is interpreted as a prefix filter over stored chunk SourceIds.
type RetrieveScope struct {
	SourceId string
}

// RetrieveInput is the request for a similarity query.
type RetrieveInput struct {
	Query string
	TopK  int
	Scope *RetrieveScope
}

// ScoredChunk pairs a stored chunk with its relevance score.
// Higher scores indicate higher relevance; the metric is backend-defined.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// RetrieveDurations breaks down where retrieve time was spent.
type RetrieveDurations struct {
	Total     time.Duration
	Embedding time.Duration
	Query     time.Duration
}

// RetrieveResult is the ranked outcome of a similarity query.
type RetrieveResult struct {
	Chunks    []ScoredChunk
	Durations RetrieveDurations
}

// DeleteInput identifies the documents to remove. Exactly one of SourceId
// (exact match) or SourceIdPrefix (prefix match) must be set.
type DeleteInput struct {
	SourceId       string
	SourceIdPrefix string
}
