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
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/poiesic/contexture/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Reranker implements ai.Reranker using OpenAI-compatible chat APIs.
// The model receives the query and a numbered document list and returns
// a JSON permutation with relevance scores.
type Reranker struct {
	client llms.Model
	model  string
	logger *slog.Logger
}

// rankedDoc is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type rankedDoc struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// ranking is the wrapper structure for the LLM's JSON response.
type ranking struct {
	Ranking []rankedDoc `json:"ranking"`
}

// newReranker is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newReranker(config *ai.Config) (*Reranker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/ranking
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.RerankModel),
	)
	if err != nil {
		return nil, err
	}

	return &Reranker{
		client: client,
		model:  config.RerankModel,
		logger: slog.Default().With("component", "openai-reranker"),
	}, nil
}

// NewReranker creates a new reranker using the provided configuration.
//
// Returns ai.Reranker interface to enforce abstraction.
func NewReranker(config *ai.Config) (ai.Reranker, error) {
	return newReranker(config)
}

// Name identifies the reranking model in use.
func (r *Reranker) Name() string {
	return r.model
}

// Rerank asks the model to order the documents by relevance to the query.
// The returned permutation always covers every input document: indexes the
// model omitted are appended in original order with zero scores.
func (r *Reranker) Rerank(ctx context.Context, query string, documents []string) (*ai.RerankOutput, error) {
	if len(documents) == 0 {
		return &ai.RerankOutput{Model: r.model}, nil
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRerankSystemPrompt()),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(buildRerankUserPrompt(query, documents)),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result ranking
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := r.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			r.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			r.logger.Debug("no choices returned from model")
			return identityOutput(len(documents), r.model), nil
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			r.logger.Warn("error parsing reranker response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		r.logger.Error("failed to parse reranker response after retries", "err", lastErr)
		return nil, lastErr
	}

	// Discard out-of-range and duplicate indexes, keeping first occurrence
	order := make([]int, 0, len(documents))
	scores := make([]float64, 0, len(documents))
	seen := make(map[int]bool, len(documents))
	for _, d := range result.Ranking {
		if d.Index < 0 || d.Index >= len(documents) || seen[d.Index] {
			continue
		}
		seen[d.Index] = true
		order = append(order, d.Index)
		scores = append(scores, d.Score)
	}

	// Append omitted documents in original order
	for i := range documents {
		if !seen[i] {
			order = append(order, i)
			scores = append(scores, 0)
		}
	}

	r.logger.Debug("reranked documents", "count", len(documents), "returned", len(result.Ranking))

	return &ai.RerankOutput{Order: order, Scores: scores, Model: r.model}, nil
}

// identityOutput builds a passthrough permutation for n documents.
func identityOutput(n int, model string) *ai.RerankOutput {
	order := make([]int, n)
	scores := make([]float64, n)
	for i := range order {
		order[i] = i
	}
	return &ai.RerankOutput{Order: order, Scores: scores, Model: model}
}
