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


package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/embed"
	"github.com/poiesic/contexture/extract"
	"github.com/poiesic/contexture/storage"
)

// chunkSpec is an embeddable chunk before identity and vector
// assignment. Exactly one of content or image carries the payload;
// an image spec's content is its caption, possibly empty.
type chunkSpec struct {
	content    string
	tokenCount int
	metadata   map[string]string
	image      *extract.ImageUnit
}

// Ingest chunks, extracts, embeds, and stores one document. Warnings
// whose policy resolves to skip are accumulated on the result; a fail
// policy aborts the call before anything reaches the store.
//
// Chunk indexes are contiguous: base-text chunks first, then each
// asset's chunks in asset input order. Ingesting a document that
// produces zero chunks removes any previously stored chunks for the
// sourceId instead of writing.
func (e *Engine) Ingest(ctx context.Context, input *core.IngestInput) (*core.IngestResult, error) {
	if err := core.ValidateIngestInput(input); err != nil {
		return nil, err
	}

	cfg := e.assets.Merge(input.AssetProcessingOverrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chunkOpts := e.chunking.Merge(input.ChunkingOverrides)
	if err := chunkOpts.Validate(); err != nil {
		return nil, err
	}

	scope := e.newScope()
	totalStart := time.Now()
	core.Emit(e.sink, scope.NewEvent("ingest:start", "", map[string]any{
		"sourceId":   input.SourceId,
		"assetCount": len(input.Assets),
	}))

	result := &core.IngestResult{EmbeddingModel: e.provider.EmbeddingProvider().Name()}

	// Chunking phase covers both the base text and asset-derived text.
	chunkingStart := time.Now()
	specs, err := e.baseSpecs(input, chunkOpts)
	if err != nil {
		return nil, err
	}
	baseCount := len(specs)

	outputs, err := e.processAssets(ctx, input.Assets, &cfg, scope)
	if err != nil {
		return nil, err
	}
	for _, out := range outputs {
		result.Warnings = append(result.Warnings, out.Warnings...)
		assetSpecs, err := e.assetSpecs(input, out, chunkOpts)
		if err != nil {
			return nil, err
		}
		specs = append(specs, assetSpecs...)
	}
	result.Durations.Chunking = time.Since(chunkingStart)
	core.Emit(e.sink, scope.NewEvent("ingest:chunking-complete", "", map[string]any{
		"baseChunks":  baseCount,
		"totalChunks": len(specs),
		"durationMs":  result.Durations.Chunking.Milliseconds(),
	}))

	if len(specs) == 0 {
		// Replace semantics still apply: an ingest that yields nothing
		// clears whatever the sourceId held before.
		if err := e.clearSource(ctx, input.SourceId); err != nil {
			return nil, err
		}
		result.Durations.Total = time.Since(totalStart)
		core.Emit(e.sink, scope.NewEvent("ingest:complete", "", map[string]any{
			"sourceId":   input.SourceId,
			"chunkCount": 0,
			"durationMs": result.Durations.Total.Milliseconds(),
		}))
		return result, nil
	}

	embeddingStart := time.Now()
	vectors, err := e.embedder.Embed(ctx, specUnits(specs), scope)
	if err != nil {
		return nil, err
	}
	result.Durations.Embedding = time.Since(embeddingStart)

	documentId := uuid.New().String()
	chunks := make([]*core.Chunk, len(specs))
	for i, spec := range specs {
		chunks[i] = &core.Chunk{
			Id:         chunkID(input.SourceId, i, spec.content),
			DocumentId: documentId,
			SourceId:   input.SourceId,
			Index:      i,
			Content:    spec.content,
			TokenCount: spec.tokenCount,
			Metadata:   spec.metadata,
			Embedding:  vectors[i],
		}
	}

	storageStart := time.Now()
	upserted, err := e.store.Upsert(ctx, chunks)
	if err != nil {
		return nil, err
	}
	result.Durations.Storage = time.Since(storageStart)
	core.Emit(e.sink, scope.NewEvent("ingest:storage-complete", "", map[string]any{
		"documentId": upserted.DocumentId,
		"chunkCount": len(chunks),
		"durationMs": result.Durations.Storage.Milliseconds(),
	}))

	result.DocumentId = upserted.DocumentId
	result.ChunkCount = len(chunks)
	result.Durations.Total = time.Since(totalStart)
	core.Emit(e.sink, scope.NewEvent("ingest:complete", "", map[string]any{
		"sourceId":     input.SourceId,
		"documentId":   result.DocumentId,
		"chunkCount":   result.ChunkCount,
		"warningCount": len(result.Warnings),
		"durationMs":   result.Durations.Total.Milliseconds(),
	}))
	e.logger.Info("ingest complete",
		"sourceId", input.SourceId,
		"documentId", result.DocumentId,
		"chunks", result.ChunkCount,
		"warnings", len(result.Warnings))
	return result, nil
}

// PlanIngest classifies every asset without performing network calls.
// The base content is chunked for the count, which is pure.
func (e *Engine) PlanIngest(input *core.IngestInput) (*core.IngestPlanResult, error) {
	if err := core.ValidateIngestInput(input); err != nil {
		return nil, err
	}
	cfg := e.assets.Merge(input.AssetProcessingOverrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chunkOpts := e.chunking.Merge(input.ChunkingOverrides)
	if err := chunkOpts.Validate(); err != nil {
		return nil, err
	}

	plan := &core.IngestPlanResult{SourceId: input.SourceId}
	specs, err := e.baseSpecs(input, chunkOpts)
	if err != nil {
		return nil, err
	}
	plan.BaseChunkCount = len(specs)

	for i := range input.Assets {
		plan.Assets = append(plan.Assets, e.router.PlanAsset(&input.Assets[i], &cfg))
	}
	return plan, nil
}

// processAssets routes every asset through the extraction router under
// the configured concurrency bound. Outputs come back in asset input
// order so the accumulated warnings are deterministic.
func (e *Engine) processAssets(ctx context.Context, assets []core.AssetInput, cfg *core.AssetProcessingConfig, scope core.EventScope) ([]*extract.Output, error) {
	if len(assets) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outputs := make([]*extract.Output, len(assets))
	var cursor atomic.Int64
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	// The engine-level pool is the hard parallelism bound. A per-call
	// concurrency override can lower it but never raise it.
	workers := cfg.Concurrency
	if poolCap := e.assetPool.Cap(); workers > poolCap {
		workers = poolCap
	}
	if workers > len(assets) {
		workers = len(assets)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		submitErr := e.assetPool.Submit(func() {
			defer wg.Done()
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(assets) || ctx.Err() != nil {
					return
				}
				asset := &assets[i]
				core.Emit(e.sink, scope.NewEvent("asset:start", asset.AssetId, map[string]any{
					"assetId": asset.AssetId,
					"kind":    string(asset.Kind),
				}))
				out, err := e.router.Process(ctx, asset, cfg, scope)
				if err != nil {
					fail(err)
					return
				}
				outputs[i] = out
				core.Emit(e.sink, scope.NewEvent("asset:complete", asset.AssetId, map[string]any{
					"assetId":  asset.AssetId,
					"texts":    len(out.Texts),
					"image":    out.Image != nil,
					"warnings": len(out.Warnings),
				}))
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return outputs, nil
}

// baseSpecs chunks the base content. Empty content yields no specs.
func (e *Engine) baseSpecs(input *core.IngestInput, opts core.ChunkingOptions) ([]chunkSpec, error) {
	if input.Content == "" {
		return nil, nil
	}
	texts, err := e.chunker.Chunk(input.Content, opts)
	if err != nil {
		return nil, fmt.Errorf("chunking base content: %w", err)
	}
	specs := make([]chunkSpec, 0, len(texts))
	for _, t := range texts {
		specs = append(specs, chunkSpec{
			content:    t.Content,
			tokenCount: t.TokenCount,
			metadata:   mergeMetadata(input.Metadata, nil),
		})
	}
	return specs, nil
}

// assetSpecs converts one asset's routing output into chunk specs:
// every text item is re-chunked with provenance metadata, and a direct
// image unit becomes a single image spec carrying its caption.
func (e *Engine) assetSpecs(input *core.IngestInput, out *extract.Output, opts core.ChunkingOptions) ([]chunkSpec, error) {
	if out == nil {
		return nil, nil
	}
	var specs []chunkSpec
	for _, item := range out.Texts {
		texts, err := e.chunker.Chunk(item.Text.Content, opts)
		if err != nil {
			return nil, fmt.Errorf("chunking asset %s text: %w", out.AssetId, err)
		}
		meta := textItemMetadata(input.Metadata, out.AssetId, item)
		for _, t := range texts {
			specs = append(specs, chunkSpec{
				content:    t.Content,
				tokenCount: t.TokenCount,
				metadata:   meta,
			})
		}
	}
	if out.Image != nil {
		meta := mergeMetadata(input.Metadata, map[string]string{
			"assetId":   out.AssetId,
			"embedding": "image",
		})
		if out.Image.MediaType != "" {
			meta["media_type"] = out.Image.MediaType
		}
		specs = append(specs, chunkSpec{
			content:  out.Image.Caption,
			metadata: meta,
			image:    out.Image,
		})
	}
	return specs, nil
}

// textItemMetadata builds the chunk metadata for one extracted text
// item: document metadata, extractor metadata, then provenance fields.
func textItemMetadata(docMeta map[string]string, assetId string, item extract.TextItem) map[string]string {
	meta := mergeMetadata(docMeta, item.Metadata)
	if meta == nil {
		meta = make(map[string]string, 4)
	}
	meta["assetId"] = assetId
	meta["extractor"] = item.Extractor
	if item.Text.Label != "" {
		meta["label"] = item.Text.Label
	}
	if item.Text.Confidence > 0 {
		meta["confidence"] = strconv.FormatFloat(item.Text.Confidence, 'f', -1, 64)
	}
	if item.Text.PageRange != "" {
		meta["page_range"] = item.Text.PageRange
	}
	if tr := item.Text.TimeRangeSec; tr != [2]float64{} {
		meta["time_range_sec"] = fmt.Sprintf("%g-%g", tr[0], tr[1])
	}
	return meta
}

func specUnits(specs []chunkSpec) []embed.Unit {
	units := make([]embed.Unit, len(specs))
	for i, spec := range specs {
		if spec.image != nil {
			units[i] = embed.Unit{Image: &ai.ImageInput{
				Data:      spec.image.Data,
				URL:       spec.image.URL,
				MediaType: spec.image.MediaType,
				Caption:   spec.image.Caption,
			}}
			continue
		}
		units[i] = embed.Unit{Text: spec.content}
	}
	return units
}

// chunkID derives a stable identity from the chunk's position and
// content, so re-ingesting identical content reproduces identical ids.
func chunkID(sourceId string, index int, content string) core.ID {
	return core.IDFromContent(fmt.Sprintf("%s\x00%d\x00%s", sourceId, index, content))
}

// clearSource removes prior chunks for the sourceId, tolerating a
// store that has never seen it.
func (e *Engine) clearSource(ctx context.Context, sourceId string) error {
	err := e.store.Delete(ctx, core.DeleteInput{SourceId: sourceId})
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

func mergeMetadata(base, extra map[string]string) map[string]string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	meta := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		meta[k] = v
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}
