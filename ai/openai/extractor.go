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
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// DescriptionExtractor implements ai.AssetExtractor using OpenAI-compatible
// multimodal chat APIs. It handles image and pdf assets by asking the model
// for a searchable description or a full text transcription.
type DescriptionExtractor struct {
	client llms.Model
	logger *slog.Logger
}

// newDescriptionExtractor is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newDescriptionExtractor(config *ai.Config) (*DescriptionExtractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for multimodal chat
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ExtractionModel),
	)
	if err != nil {
		return nil, err
	}

	return &DescriptionExtractor{
		client: client,
		logger: slog.Default().With("component", "openai-extractor"),
	}, nil
}

// NewDescriptionExtractor creates a new LLM-backed extractor using the
// provided configuration.
//
// Returns ai.AssetExtractor interface to enforce abstraction.
func NewDescriptionExtractor(config *ai.Config) (ai.AssetExtractor, error) {
	return newDescriptionExtractor(config)
}

// Name identifies the extractor in chunk metadata.
func (e *DescriptionExtractor) Name() string {
	return "llm-description"
}

// Supports reports whether the extractor handles the asset. It accepts
// image and pdf assets that carry bytes or a URL; no network calls are made.
func (e *DescriptionExtractor) Supports(asset *core.AssetInput, ectx ai.ExtractionContext) bool {
	if asset.Kind != core.AssetKindImage && asset.Kind != core.AssetKindPdf {
		return false
	}
	return len(asset.Data) > 0 || asset.URL != ""
}

// Extract asks the chat model to describe or transcribe the asset and
// returns the response as a single text item. An empty model response
// yields an empty result, not an error.
func (e *DescriptionExtractor) Extract(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
	prompt := ectx.Config.Prompt
	label := "description"
	if prompt == "" {
		switch asset.Kind {
		case core.AssetKindPdf:
			prompt = defaultPdfPrompt
		default:
			prompt = defaultImagePrompt
		}
	}
	if asset.Kind == core.AssetKindPdf {
		label = "document_text"
	}

	parts := []llms.ContentPart{llms.TextPart(prompt)}
	switch {
	case len(asset.Data) > 0:
		parts = append(parts, llms.BinaryPart(mediaTypeFor(asset), asset.Data))
	case asset.URL != "":
		parts = append(parts, llms.ImageURLPart(asset.URL))
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: parts,
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(0.0)}
	if ectx.Config.Model != "" {
		opts = append(opts, llms.WithModel(ectx.Config.Model))
	}

	response, err := e.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		e.logger.Error("failed to generate content", "assetId", asset.AssetId, "kind", asset.Kind, "err", err)
		return nil, err
	}

	if len(response.Choices) < 1 {
		e.logger.Debug("no choices returned from model", "assetId", asset.AssetId)
		return &ai.ExtractionResult{}, nil
	}

	text := strings.TrimSpace(response.Choices[0].Content)
	if text == "" {
		return &ai.ExtractionResult{}, nil
	}

	e.logger.Debug("extracted text from asset",
		"assetId", asset.AssetId,
		"kind", asset.Kind,
		"length", len(text))

	return &ai.ExtractionResult{
		Texts: []core.ExtractedText{
			{Label: label, Content: text},
		},
	}, nil
}

// mediaTypeFor resolves the asset's MIME type from its metadata, falling
// back to a kind-based default.
func mediaTypeFor(asset *core.AssetInput) string {
	if mt := asset.Metadata["media_type"]; mt != "" {
		return mt
	}
	if asset.Kind == core.AssetKindPdf {
		return "application/pdf"
	}
	return "image/png"
}
