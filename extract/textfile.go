package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
)

// TextFileExtractor handles file assets whose payload is plain UTF-8 text.
// It is the built-in tail of the file fallback chain; LLM-backed extractors
// registered ahead of it take priority.
type TextFileExtractor struct{}

// NewTextFileExtractor creates the plain-text file extractor.
func NewTextFileExtractor() *TextFileExtractor {
	return &TextFileExtractor{}
}

// Name identifies the extractor in chunk metadata.
func (e *TextFileExtractor) Name() string {
	return "text-file"
}

// Supports accepts file assets that carry text, bytes, or a URL. URL-only
// assets are accepted optimistically; the payload is validated in Extract
// after the router has fetched it.
func (e *TextFileExtractor) Supports(asset *core.AssetInput, ectx ai.ExtractionContext) bool {
	if asset.Kind != core.AssetKindFile {
		return false
	}
	return asset.Text != "" || len(asset.Data) > 0 || asset.URL != ""
}

// Extract returns the asset's payload as a single text item. Non-UTF-8
// payloads yield an empty result so the chain can fall through.
func (e *TextFileExtractor) Extract(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
	content := asset.Text
	if content == "" && len(asset.Data) > 0 && utf8.Valid(asset.Data) {
		content = string(asset.Data)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return &ai.ExtractionResult{}, nil
	}
	return &ai.ExtractionResult{
		Texts: []core.ExtractedText{
			{Label: "file_text", Content: content},
		},
	}, nil
}
