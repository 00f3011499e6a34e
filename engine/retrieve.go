package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/contexture/core"
	"github.com/poiesic/contexture/embed"
	"github.com/poiesic/contexture/storage"
)

// Retrieve embeds the query text with a single provider call and runs
// a similarity query against the store. Scope.SourceId, when present,
// narrows the search to sourceIds carrying it as a prefix.
func (e *Engine) Retrieve(ctx context.Context, input *core.RetrieveInput) (*core.RetrieveResult, error) {
	if err := core.ValidateRetrieveInput(input); err != nil {
		return nil, err
	}

	scope := e.newScope()
	totalStart := time.Now()
	core.Emit(e.sink, scope.NewEvent("retrieve:start", "", map[string]any{
		"topK": input.TopK,
	}))

	embeddingStart := time.Now()
	vector, err := e.provider.EmbeddingProvider().EmbedText(ctx, input.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	vector = embed.NormalizeVector(vector)
	embeddingDur := time.Since(embeddingStart)

	query := storage.Query{Embedding: vector, TopK: input.TopK}
	if input.Scope != nil {
		query.Scope = *input.Scope
	}

	queryStart := time.Now()
	chunks, err := e.store.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	queryDur := time.Since(queryStart)

	result := &core.RetrieveResult{
		Chunks: chunks,
		Durations: core.RetrieveDurations{
			Total:     time.Since(totalStart),
			Embedding: embeddingDur,
			Query:     queryDur,
		},
	}
	core.Emit(e.sink, scope.NewEvent("retrieve:complete", "", map[string]any{
		"results":    len(chunks),
		"durationMs": result.Durations.Total.Milliseconds(),
	}))
	return result, nil
}

// Delete removes stored chunks by exact sourceId or sourceId prefix.
// Exactly one selector must be set; anything else is rejected before
// the store is touched.
func (e *Engine) Delete(ctx context.Context, input core.DeleteInput) error {
	if err := core.ValidateDeleteInput(&input); err != nil {
		return err
	}

	scope := e.newScope()
	core.Emit(e.sink, scope.NewEvent("delete:start", "", map[string]any{
		"sourceId":       input.SourceId,
		"sourceIdPrefix": input.SourceIdPrefix,
	}))
	if err := e.store.Delete(ctx, input); err != nil {
		return err
	}
	core.Emit(e.sink, scope.NewEvent("delete:complete", "", nil))
	e.logger.Debug("delete complete", "sourceId", input.SourceId, "prefix", input.SourceIdPrefix)
	return nil
}
