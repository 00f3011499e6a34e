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

package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/core"
)

const (
	// DefaultBatchSize is the number of text units per batch call when the
	// provider exposes a multi-input API.
	DefaultBatchSize = 16

	// DefaultConcurrency bounds simultaneous in-flight provider calls.
	DefaultConcurrency = 4
)

// Unit is the smallest item submitted to the embedding provider: either a
// text string or an image payload.
type Unit struct {
	Text  string
	Image *ai.ImageInput // nil for text units
}

// Orchestrator converts embedding units into vectors under bounded
// concurrency, preserving the input order in its output.
type Orchestrator struct {
	provider    ai.EmbeddingProvider
	pool        *ants.Pool
	batchSize   int
	concurrency int
	sink        core.EventSink
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithBatchSize sets the maximum units per batch call.
func WithBatchSize(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		o.batchSize = size
		return nil
	}
}

// WithConcurrency sets the worker pool width.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) error {
		if n < 1 {
			return fmt.Errorf("concurrency must be at least 1, got %d", n)
		}
		o.concurrency = n
		return nil
	}
}

// WithEventSink installs an observer for embedding progress events.
func WithEventSink(sink core.EventSink) Option {
	return func(o *Orchestrator) error {
		o.sink = sink
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// New creates an orchestrator over the given provider. Batch and image
// capabilities are discovered from the provider by type assertion at
// embed time.
func New(provider ai.EmbeddingProvider, opts ...Option) (*Orchestrator, error) {
	if provider == nil {
		return nil, ErrProviderRequired
	}

	o := &Orchestrator{
		provider:    provider,
		batchSize:   DefaultBatchSize,
		concurrency: DefaultConcurrency,
		logger:      slog.Default().With("component", "embed-orchestrator"),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(o.concurrency)
	if err != nil {
		return nil, err
	}
	o.pool = pool
	return o, nil
}

// job is one worker task: a batch of text unit indexes or a single image
// unit index.
type job struct {
	indexes []int
	image   bool
}

// Embed produces one vector per unit, in unit order. A batch call
// returning the wrong vector count, a missing image capability, or any
// provider error fails the whole run; there is no partial result.
func (o *Orchestrator) Embed(ctx context.Context, units []Unit, scope core.EventScope) ([][]float32, error) {
	if len(units) == 0 {
		return nil, nil
	}

	batcher, hasBatch := o.provider.(ai.BatchEmbedder)
	imager, hasImage := o.provider.(ai.ImageEmbedder)

	var textIdx, imageIdx []int
	for i := range units {
		if units[i].Image != nil {
			imageIdx = append(imageIdx, i)
		} else {
			textIdx = append(textIdx, i)
		}
	}
	if len(imageIdx) > 0 && !hasImage {
		return nil, fmt.Errorf("%w: %s", ErrNoImageSupport, o.provider.Name())
	}

	var jobs []job
	if hasBatch {
		for start := 0; start < len(textIdx); start += o.batchSize {
			end := start + o.batchSize
			if end > len(textIdx) {
				end = len(textIdx)
			}
			jobs = append(jobs, job{indexes: textIdx[start:end]})
		}
	} else {
		for _, i := range textIdx {
			jobs = append(jobs, job{indexes: []int{i}})
		}
	}
	// Images never batch.
	for _, i := range imageIdx {
		jobs = append(jobs, job{indexes: []int{i}, image: true})
	}

	core.Emit(o.sink, scope.NewEvent("embedding:start", "", map[string]any{
		"units":   len(units),
		"batches": len(jobs),
		"model":   o.provider.Name(),
	}))
	phaseStart := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]float32, len(units))

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
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	// Pull-based distribution: each worker claims the next unprocessed
	// job until the list is exhausted.
	var cursor atomic.Int64
	var wg sync.WaitGroup

	workers := o.concurrency
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		err := o.pool.Submit(func() {
			defer wg.Done()
			for {
				n := int(cursor.Add(1)) - 1
				if n >= len(jobs) || failed() {
					return
				}
				o.runJob(ctx, jobs[n], n, batcher, imager, units, results, fail, scope)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// Every index must have received a vector.
	for i := range results {
		if len(results[i]) == 0 {
			return nil, fmt.Errorf("%w: index %d", ErrMissingVector, i)
		}
	}

	core.Emit(o.sink, scope.NewEvent("embedding:complete", "", map[string]any{
		"units":    len(units),
		"duration": time.Since(phaseStart),
	}))
	return results, nil
}

// runJob executes one job and records its vectors. Workers write to
// disjoint result indexes, so no lock is needed around the writes.
func (o *Orchestrator) runJob(ctx context.Context, j job, jobIdx int, batcher ai.BatchEmbedder, imager ai.ImageEmbedder, units []Unit, results [][]float32, fail func(error), scope core.EventScope) {
	start := time.Now()

	if j.image {
		i := j.indexes[0]
		vec, err := imager.EmbedImage(ctx, *units[i].Image)
		if err != nil {
			fail(fmt.Errorf("embedding image unit %d: %w", i, err))
			return
		}
		results[i] = NormalizeVector(vec)
	} else if batcher != nil {
		texts := make([]string, len(j.indexes))
		for k, i := range j.indexes {
			texts[k] = units[i].Text
		}
		vecs, err := batcher.EmbedTexts(ctx, texts)
		if err != nil {
			fail(fmt.Errorf("embedding batch %d: %w", jobIdx, err))
			return
		}
		if len(vecs) != len(texts) {
			fail(fmt.Errorf("%w: batch %d returned %d vectors for %d inputs",
				ErrCountMismatch, jobIdx, len(vecs), len(texts)))
			return
		}
		for k, i := range j.indexes {
			results[i] = NormalizeVector(vecs[k])
		}
	} else {
		i := j.indexes[0]
		vec, err := o.provider.EmbedText(ctx, units[i].Text)
		if err != nil {
			fail(fmt.Errorf("embedding unit %d: %w", i, err))
			return
		}
		results[i] = NormalizeVector(vec)
	}

	core.Emit(o.sink, scope.NewEvent("embedding:batch", strconv.Itoa(jobIdx), map[string]any{
		"batch":    jobIdx,
		"size":     len(j.indexes),
		"duration": time.Since(start),
	}))
}

// Release shuts down the worker pool. The orchestrator must not be used
// after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
