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

package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
)

// CaptionSource is the extractor name recorded on chunks produced from an
// image's caption text rather than from a registered extractor.
const CaptionSource = "caption"

// TextItem is one extracted text together with its provenance.
type TextItem struct {
	// Extractor is the name of the extractor that produced the text, or
	// CaptionSource for image caption text.
	Extractor string
	Text      core.ExtractedText

	// Metadata is the extractor-supplied metadata, merged into every
	// chunk derived from this item.
	Metadata map[string]string
}

// ImageUnit is an asset payload forwarded for direct multimodal embedding,
// bypassing the extractor chain.
type ImageUnit struct {
	Data      []byte
	URL       string
	MediaType string
	Caption   string
}

// Output is the routing result for a single asset. An asset may yield
// text items, an image unit, warnings, or any mix of the three.
type Output struct {
	AssetId  string
	Texts    []TextItem
	Image    *ImageUnit
	Warnings []core.IngestWarning
}

// Router classifies assets and executes extractor fallback chains.
type Router struct {
	extractors []ai.AssetExtractor
	multimodal bool
	fetcher    Fetcher
	sink       core.EventSink
	logger     *slog.Logger
}

// Option configures a Router.
type Option func(*Router) error

// WithMultimodal declares whether the embedding provider supports direct
// image embedding. When true, image assets bypass the extractor chain.
func WithMultimodal(enabled bool) Option {
	return func(r *Router) error {
		r.multimodal = enabled
		return nil
	}
}

// WithFetcher replaces the default HTTP fetcher for URL-sourced payloads.
func WithFetcher(f Fetcher) Option {
	return func(r *Router) error {
		if f == nil {
			return fmt.Errorf("fetcher cannot be nil")
		}
		r.fetcher = f
		return nil
	}
}

// WithEventSink installs an observer for extractor lifecycle events.
func WithEventSink(sink core.EventSink) Option {
	return func(r *Router) error {
		r.sink = sink
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// NewRouter creates a router over the given extractors. Extractors are
// invoked in slice order; that order defines the fallback chain.
func NewRouter(extractors []ai.AssetExtractor, opts ...Option) (*Router, error) {
	r := &Router{
		extractors: extractors,
		fetcher:    NewHTTPFetcher(),
		logger:     slog.Default().With("component", "extract-router"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Process routes one asset. The returned Output carries everything the
// asset produced plus any skip warnings; a non-nil error means a warning's
// governing policy resolved to fail and the whole ingest must abort.
func (r *Router) Process(ctx context.Context, asset *core.AssetInput, cfg *core.AssetProcessingConfig, scope core.EventScope) (*Output, error) {
	out := &Output{AssetId: asset.AssetId}

	if !asset.Kind.Valid() {
		return r.finish(out, cfg, newWarning(asset, core.WarnUnsupportedKind,
			fmt.Sprintf("unknown asset kind %q", asset.Kind)))
	}

	kindCfg := cfg.Kind(asset.Kind)
	if !kindCfg.Enabled {
		code := core.WarnExtractionDisabled
		if asset.Kind == core.AssetKindPdf {
			code = core.WarnPdfExtractionDisabled
		}
		return r.finish(out, cfg, newWarning(asset, code, "extraction disabled by config"))
	}

	if kindCfg.MaxBytes > 0 && int64(len(asset.Data)) > kindCfg.MaxBytes {
		w := newWarning(asset, core.WarnProcessingError,
			fmt.Sprintf("inline payload of %d bytes exceeds cap of %d", len(asset.Data), kindCfg.MaxBytes))
		w.Stage = core.StageFetch
		return r.finish(out, cfg, w)
	}

	if kindCfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, kindCfg.Timeout)
		defer cancel()
	}

	if asset.Kind == core.AssetKindImage {
		return r.processImage(ctx, asset, cfg, kindCfg, scope, out)
	}
	return r.processChain(ctx, asset, cfg, kindCfg, scope, out)
}

// processImage handles the image-specific routing rules. Direct multimodal
// embedding takes priority; caption text is chunked when it is unavailable.
// Supporting extractors run additively in both cases.
func (r *Router) processImage(ctx context.Context, asset *core.AssetInput, cfg *core.AssetProcessingConfig, kindCfg core.AssetKindConfig, scope core.EventScope, out *Output) (*Output, error) {
	if r.multimodal {
		out.Image = &ImageUnit{
			Data:      asset.Data,
			URL:       asset.URL,
			MediaType: assetMediaType(asset),
			Caption:   asset.Text,
		}
	} else if strings.TrimSpace(asset.Text) != "" {
		out.Texts = append(out.Texts, TextItem{
			Extractor: CaptionSource,
			Text:      core.ExtractedText{Label: "caption", Content: asset.Text},
		})
	}

	// All supporting extractors run and their outputs are appended.
	ectx := ai.ExtractionContext{Config: kindCfg}
	for _, ex := range r.extractors {
		if !ex.Supports(asset, ectx) {
			continue
		}
		res, failErr := r.runExtractor(ctx, ex, asset, cfg, ectx, scope, out)
		if failErr != nil {
			return nil, failErr
		}
		if res != nil {
			for _, t := range res.Texts {
				out.Texts = append(out.Texts, TextItem{Extractor: ex.Name(), Text: t, Metadata: res.Metadata})
			}
		}
	}

	if out.Image == nil && len(out.Texts) == 0 {
		return r.finish(out, cfg, newWarning(asset, core.WarnImageNoMultimodalNoCaption,
			"provider cannot embed images and no caption text was supplied"))
	}
	return out, nil
}

// processChain runs the fallback chain for pdf, audio, video, and file
// assets: extractors are tried in registration order and the chain stops
// at the first non-empty result.
func (r *Router) processChain(ctx context.Context, asset *core.AssetInput, cfg *core.AssetProcessingConfig, kindCfg core.AssetKindConfig, scope core.EventScope, out *Output) (*Output, error) {
	// URL-sourced payloads are fetched up front so extractors see bytes.
	// The response Content-Type fills in the media type when the caller
	// did not supply one.
	work := *asset
	if len(work.Data) == 0 && work.URL != "" {
		data, contentType, err := r.fetcher.Fetch(ctx, work.URL, kindCfg.MaxBytes)
		if err != nil {
			w := newWarning(asset, core.WarnProcessingError, err.Error())
			w.Stage = core.StageFetch
			return r.finish(out, cfg, w)
		}
		work.Data = data
		if contentType != "" && work.Metadata["media_type"] == "" {
			meta := make(map[string]string, len(work.Metadata)+1)
			for k, v := range work.Metadata {
				meta[k] = v
			}
			meta["media_type"] = contentType
			work.Metadata = meta
		}
	}

	ectx := ai.ExtractionContext{Config: kindCfg}
	matching := make([]ai.AssetExtractor, 0, len(r.extractors))
	for _, ex := range r.extractors {
		if ex.Supports(&work, ectx) {
			matching = append(matching, ex)
		}
	}
	if len(matching) == 0 {
		return r.finish(out, cfg, newWarning(asset, core.WarnUnsupportedKind,
			fmt.Sprintf("no installed extractor supports kind %q", asset.Kind)))
	}

	completed := false
	for _, ex := range matching {
		res, failErr := r.runExtractor(ctx, ex, &work, cfg, ectx, scope, out)
		if failErr != nil {
			return nil, failErr
		}
		if res == nil {
			continue // extractor errored under skip policy
		}
		completed = true
		if len(res.Texts) > 0 {
			// Stop on first non-empty.
			for _, t := range res.Texts {
				out.Texts = append(out.Texts, TextItem{Extractor: ex.Name(), Text: t, Metadata: res.Metadata})
			}
			return out, nil
		}
	}

	if completed {
		code := core.WarnExtractionEmpty
		if asset.Kind == core.AssetKindPdf {
			code = core.WarnPdfEmptyExtraction
		}
		return r.finish(out, cfg, newWarning(asset, code, "all matching extractors returned empty text"))
	}
	// Every matching extractor errored; the processing-error warnings
	// already account for the skip.
	return out, nil
}

// runExtractor invokes one extractor with timing and event reporting.
// A nil result with a nil error means the extractor failed under skip
// policy and the warning was already recorded.
func (r *Router) runExtractor(ctx context.Context, ex ai.AssetExtractor, asset *core.AssetInput, cfg *core.AssetProcessingConfig, ectx ai.ExtractionContext, scope core.EventScope, out *Output) (*ai.ExtractionResult, error) {
	spanId := asset.AssetId
	core.Emit(r.sink, scope.NewEvent("extractor:start", spanId, map[string]any{
		"extractor": ex.Name(),
		"assetId":   asset.AssetId,
		"kind":      string(asset.Kind),
	}))

	start := time.Now()
	res, err := ex.Extract(ctx, asset, ectx)
	duration := time.Since(start)

	if err != nil {
		core.Emit(r.sink, scope.NewEvent("extractor:error", spanId, map[string]any{
			"extractor": ex.Name(),
			"assetId":   asset.AssetId,
			"duration":  duration,
			"error":     err.Error(),
		}))
		r.logger.Warn("extractor failed",
			"extractor", ex.Name(),
			"assetId", asset.AssetId,
			"err", err)

		w := newWarning(asset, core.WarnProcessingError,
			fmt.Sprintf("extractor %s: %v", ex.Name(), err))
		w.Stage = core.StageExtract
		if core.ShouldFail(w.Code, cfg) {
			return nil, failWith(w)
		}
		out.Warnings = append(out.Warnings, w)
		return nil, nil
	}

	items := 0
	if res != nil {
		items = len(res.Texts)
	}
	core.Emit(r.sink, scope.NewEvent("extractor:success", spanId, map[string]any{
		"extractor": ex.Name(),
		"assetId":   asset.AssetId,
		"duration":  duration,
		"items":     items,
	}))
	if res == nil {
		res = &ai.ExtractionResult{}
	}
	return res, nil
}

// PlanAsset classifies one asset without any network calls. It mirrors
// Process's routing decisions using only Supports predicates and config.
func (r *Router) PlanAsset(asset *core.AssetInput, cfg *core.AssetProcessingConfig) core.AssetPlan {
	plan := core.AssetPlan{AssetId: asset.AssetId, Kind: asset.Kind}

	if !asset.Kind.Valid() {
		plan.Decision = core.AssetWillSkip
		plan.WarningCode = core.WarnUnsupportedKind
		plan.Reason = fmt.Sprintf("unknown asset kind %q", asset.Kind)
		return plan
	}

	kindCfg := cfg.Kind(asset.Kind)
	if !kindCfg.Enabled {
		plan.Decision = core.AssetWillSkip
		plan.WarningCode = core.WarnExtractionDisabled
		if asset.Kind == core.AssetKindPdf {
			plan.WarningCode = core.WarnPdfExtractionDisabled
		}
		plan.Reason = "extraction disabled by config"
		return plan
	}

	ectx := ai.ExtractionContext{Config: kindCfg}
	for _, ex := range r.extractors {
		if ex.Supports(asset, ectx) {
			plan.Extractors = append(plan.Extractors, ex.Name())
		}
	}

	if asset.Kind == core.AssetKindImage {
		plan.ImageEmbedding = r.multimodal
		plan.CaptionText = !r.multimodal && strings.TrimSpace(asset.Text) != ""
		if plan.ImageEmbedding || plan.CaptionText || len(plan.Extractors) > 0 {
			plan.Decision = core.AssetWillProcess
			switch {
			case plan.ImageEmbedding:
				plan.Reason = "image will be embedded directly by the provider"
			case plan.CaptionText:
				plan.Reason = "caption text will be chunked and embedded"
			default:
				plan.Reason = "image extractors will run"
			}
			return plan
		}
		plan.Decision = core.AssetWillSkip
		plan.WarningCode = core.WarnImageNoMultimodalNoCaption
		plan.Reason = "provider cannot embed images and no caption text was supplied"
		return plan
	}

	if len(plan.Extractors) == 0 {
		plan.Decision = core.AssetWillSkip
		plan.WarningCode = core.WarnUnsupportedKind
		plan.Reason = fmt.Sprintf("no installed extractor supports kind %q", asset.Kind)
		return plan
	}
	plan.Decision = core.AssetWillProcess
	plan.Reason = fmt.Sprintf("extractor chain: %s", strings.Join(plan.Extractors, ", "))
	return plan
}

// finish records the warning on the output or converts it into the error
// that aborts the ingest, per the governing policy.
func (r *Router) finish(out *Output, cfg *core.AssetProcessingConfig, w core.IngestWarning) (*Output, error) {
	if core.ShouldFail(w.Code, cfg) {
		return nil, failWith(w)
	}
	r.logger.Debug("asset skipped", "assetId", w.AssetId, "code", string(w.Code), "message", w.Message)
	out.Warnings = append(out.Warnings, w)
	return out, nil
}

func failWith(w core.IngestWarning) error {
	return fmt.Errorf("%w: %v", ErrAssetFailed, w.Error())
}

func newWarning(asset *core.AssetInput, code core.WarningCode, message string) core.IngestWarning {
	return core.IngestWarning{
		Code:           code,
		Message:        message,
		AssetId:        asset.AssetId,
		AssetKind:      asset.Kind,
		AssetURI:       asset.URI,
		AssetMediaType: assetMediaType(asset),
	}
}

// assetMediaType resolves the asset's MIME type from its metadata.
func assetMediaType(asset *core.AssetInput) string {
	return asset.Metadata["media_type"]
}
