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

package rerank

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
)

// Input is one rerank request over retrieved candidates.
type Input struct {
	Query      string
	Candidates []core.ScoredChunk

	// TopK truncates the returned chunk list. Zero means all candidates;
	// any value is clamped to [1, len(Candidates)].
	TopK int

	// OnMissingReranker decides between passthrough and error when no
	// reranker is configured.
	OnMissingReranker core.FailurePolicy

	// OnMissingText decides between tail-exclusion and error for
	// candidates whose text cannot be resolved.
	OnMissingText core.FailurePolicy

	// ResolveText supplies document text for candidates whose content was
	// not persisted. Optional.
	ResolveText func(chunk *core.Chunk) string
}

// RankEntry is one position in the full ranking.
type RankEntry struct {
	// CandidateIndex points into Input.Candidates.
	CandidateIndex int

	// Score is the reranker's relevance score, or zero for candidates the
	// reranker never saw.
	Score float64

	// Reranked is false for passthrough results and tail-appended
	// candidates without text.
	Reranked bool
}

// Result carries the reranked chunks plus the full ranking for auditing.
type Result struct {
	// Chunks is the reranked candidate list truncated to TopK.
	Chunks []core.ScoredChunk

	// Ranking covers every candidate, including those beyond TopK and
	// those excluded for missing text.
	Ranking []RankEntry

	Model    string
	Duration time.Duration
	Warnings []string
}

// Pipeline maps reranker permutations back onto retrieved candidates.
type Pipeline struct {
	reranker ai.Reranker // nil when reranking is not configured
	sink     core.EventSink
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithEventSink installs an observer for rerank lifecycle events.
func WithEventSink(sink core.EventSink) Option {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline. A nil reranker is legal; whether that skips or
// fails is decided per call by Input.OnMissingReranker.
func New(reranker ai.Reranker, opts ...Option) *Pipeline {
	p := &Pipeline{
		reranker: reranker,
		logger:   slog.Default().With("component", "rerank-pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Rerank executes one rerank pass over the input candidates.
func (p *Pipeline) Rerank(ctx context.Context, input Input, scope core.EventScope) (*Result, error) {
	start := time.Now()
	result := &Result{}

	if len(input.Candidates) == 0 {
		return result, nil
	}

	topK := clampTopK(input.TopK, len(input.Candidates))

	core.Emit(p.sink, scope.NewEvent("rerank:start", "", map[string]any{
		"candidates": len(input.Candidates),
		"topK":       topK,
	}))

	if p.reranker == nil {
		if input.OnMissingReranker == core.PolicyFail {
			return nil, ErrNoReranker
		}
		p.passthrough(input, topK, result)
		result.Warnings = append(result.Warnings, "no reranker configured; candidates returned unmodified")
		result.Duration = time.Since(start)
		core.Emit(p.sink, scope.NewEvent("rerank:skip", "", map[string]any{
			"reason": "no reranker configured",
		}))
		return result, nil
	}

	// Resolve document text per candidate. Candidates without text are
	// excluded and appended at the tail of the ranking in original order.
	var documents []string
	var docToCandidate []int
	var tail []int
	for i := range input.Candidates {
		text := p.resolveText(&input, i)
		if text == "" {
			if input.OnMissingText == core.PolicyFail {
				return nil, fmt.Errorf("%w: candidate %d", ErrMissingText, i)
			}
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("candidate %d has no resolvable text; excluded from reranking", i))
			tail = append(tail, i)
			continue
		}
		documents = append(documents, text)
		docToCandidate = append(docToCandidate, i)
	}

	if len(documents) > 0 {
		output, err := p.reranker.Rerank(ctx, input.Query, documents)
		if err != nil {
			return nil, fmt.Errorf("reranking %d documents: %w", len(documents), err)
		}
		result.Model = output.Model

		entries, err := p.mapPermutation(output, docToCandidate)
		if err != nil {
			return nil, err
		}
		result.Ranking = entries
	}

	for _, i := range tail {
		result.Ranking = append(result.Ranking, RankEntry{CandidateIndex: i})
	}

	// The chunk list follows the ranking, truncated to topK. The chunk
	// score becomes the reranker's relevance where one exists.
	for _, entry := range result.Ranking {
		if len(result.Chunks) >= topK {
			break
		}
		sc := input.Candidates[entry.CandidateIndex]
		if entry.Reranked {
			sc.Score = float32(entry.Score)
		}
		result.Chunks = append(result.Chunks, sc)
	}

	result.Duration = time.Since(start)
	core.Emit(p.sink, scope.NewEvent("rerank:complete", "", map[string]any{
		"candidates": len(input.Candidates),
		"returned":   len(result.Chunks),
		"model":      result.Model,
		"duration":   result.Duration,
	}))
	return result, nil
}

// passthrough fills the result with the candidates in their original order.
func (p *Pipeline) passthrough(input Input, topK int, result *Result) {
	for i := range input.Candidates {
		result.Ranking = append(result.Ranking, RankEntry{
			CandidateIndex: i,
			Score:          float64(input.Candidates[i].Score),
		})
	}
	end := topK
	if end > len(input.Candidates) {
		end = len(input.Candidates)
	}
	result.Chunks = append(result.Chunks, input.Candidates[:end]...)
}

// resolveText returns the candidate's document text: the chunk content,
// then the stored full-document text, then the ResolveText hook.
func (p *Pipeline) resolveText(input *Input, i int) string {
	chunk := input.Candidates[i].Chunk
	if chunk == nil {
		return ""
	}
	if chunk.Content != "" {
		return chunk.Content
	}
	if chunk.DocumentContent != "" {
		return chunk.DocumentContent
	}
	if input.ResolveText != nil {
		return input.ResolveText(chunk)
	}
	return ""
}

// mapPermutation converts the reranker's document-index permutation into
// candidate-index rank entries. Out-of-range or duplicate indexes are a
// contract violation; omitted documents keep their relative input order
// at the end.
func (p *Pipeline) mapPermutation(output *ai.RerankOutput, docToCandidate []int) ([]RankEntry, error) {
	entries := make([]RankEntry, 0, len(docToCandidate))
	seen := make([]bool, len(docToCandidate))

	for pos, docIdx := range output.Order {
		if docIdx < 0 || docIdx >= len(docToCandidate) {
			return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrBadPermutation, docIdx, len(docToCandidate))
		}
		if seen[docIdx] {
			return nil, fmt.Errorf("%w: index %d appears twice", ErrBadPermutation, docIdx)
		}
		seen[docIdx] = true

		entry := RankEntry{CandidateIndex: docToCandidate[docIdx], Reranked: true}
		if pos < len(output.Scores) {
			entry.Score = output.Scores[pos]
		}
		entries = append(entries, entry)
	}

	for docIdx, wasSeen := range seen {
		if !wasSeen {
			entries = append(entries, RankEntry{CandidateIndex: docToCandidate[docIdx]})
		}
	}
	return entries, nil
}

// clampTopK applies the [1, count] clamp; zero means all candidates.
func clampTopK(topK, count int) int {
	if topK < 1 {
		return count
	}
	if topK > count {
		return count
	}
	return topK
}
