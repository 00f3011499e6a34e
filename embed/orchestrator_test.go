package embed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/ai/mock"
	"github.com/poiesic/contexture/core"
)

func textUnits(n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{Text: fmt.Sprintf("unit %d", i)}
	}
	return units
}

func TestEmbedEmptyInput(t *testing.T) {
	o, err := New(mock.NewMockEmbedder())
	require.NoError(t, err)
	defer o.Release()

	vectors, err := o.Embed(context.Background(), nil, core.EventScope{})
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedPreservesUnitOrder(t *testing.T) {
	embedder := mock.NewMockBatchEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vecs := make([][]float32, len(texts))
		for i, text := range texts {
			// Vector encodes the unit number so order is checkable.
			var n int
			fmt.Sscanf(text, "unit %d", &n)
			vecs[i] = []float32{float32(n), 1}
		}
		return vecs, nil
	}

	o, err := New(embedder, WithBatchSize(4), WithConcurrency(3))
	require.NoError(t, err)
	defer o.Release()

	units := textUnits(25)
	vectors, err := o.Embed(context.Background(), units, core.EventScope{})
	require.NoError(t, err)
	require.Len(t, vectors, len(units))

	for i, vec := range vectors {
		want := NormalizeVector([]float32{float32(i), 1})
		assert.InDeltaSlice(t, want, vec, 1e-6, "vector %d out of order", i)
	}
}

func TestEmbedFallsBackToSingleCalls(t *testing.T) {
	// The base mock has no EmbedTexts method, so the orchestrator must
	// use one-at-a-time calls.
	embedder := mock.NewMockEmbedder()
	o, err := New(embedder, WithConcurrency(2))
	require.NoError(t, err)
	defer o.Release()

	units := textUnits(7)
	vectors, err := o.Embed(context.Background(), units, core.EventScope{})
	require.NoError(t, err)
	require.Len(t, vectors, 7)
	assert.Equal(t, 7, embedder.CallCount())
}

func TestEmbedBatchCountMismatchIsFatal(t *testing.T) {
	embedder := mock.NewMockBatchEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil // always one vector, regardless of input
	}

	o, err := New(embedder, WithBatchSize(4))
	require.NoError(t, err)
	defer o.Release()

	_, err = o.Embed(context.Background(), textUnits(4), core.EventScope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestEmbedImageWithoutSupportIsFatal(t *testing.T) {
	o, err := New(mock.NewMockBatchEmbedder())
	require.NoError(t, err)
	defer o.Release()

	units := []Unit{
		{Text: "some text"},
		{Image: &ai.ImageInput{Data: []byte{1, 2}}},
	}
	_, err = o.Embed(context.Background(), units, core.EventScope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoImageSupport)
}

func TestEmbedImageUnits(t *testing.T) {
	embedder := mock.NewMockImageEmbedder()
	embedder.EmbedImageFunc = func(ctx context.Context, image ai.ImageInput) ([]float32, error) {
		return []float32{0, 2}, nil
	}

	o, err := New(embedder)
	require.NoError(t, err)
	defer o.Release()

	units := []Unit{
		{Text: "some text"},
		{Image: &ai.ImageInput{Data: []byte{1, 2}, MediaType: "image/png"}},
	}
	vectors, err := o.Embed(context.Background(), units, core.EventScope{})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.InDeltaSlice(t, []float32{0, 1}, vectors[1], 1e-6)
}

func TestEmbedProviderErrorFailsRun(t *testing.T) {
	embedder := mock.NewMockBatchEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	o, err := New(embedder)
	require.NoError(t, err)
	defer o.Release()

	_, err = o.Embed(context.Background(), textUnits(3), core.EventScope{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestEmbedConcurrencyBound(t *testing.T) {
	const limit = 3

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return []float32{1, 0}, nil
	}

	o, err := New(embedder, WithConcurrency(limit))
	require.NoError(t, err)
	defer o.Release()

	_, err = o.Embed(context.Background(), textUnits(30), core.EventScope{})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight, limit)
	assert.Positive(t, maxInFlight)
}

func TestEmbedEmitsProgressEvents(t *testing.T) {
	var mu sync.Mutex
	var names []string
	sink := sinkFunc(func(e core.Event) {
		mu.Lock()
		names = append(names, e.Name)
		mu.Unlock()
	})

	o, err := New(mock.NewMockBatchEmbedder(), WithBatchSize(2), WithEventSink(sink))
	require.NoError(t, err)
	defer o.Release()

	_, err = o.Embed(context.Background(), textUnits(5), core.EventScope{OperationId: "op"})
	require.NoError(t, err)

	assert.Equal(t, "embedding:start", names[0])
	assert.Equal(t, "embedding:complete", names[len(names)-1])
	batches := 0
	for _, n := range names {
		if n == "embedding:batch" {
			batches++
		}
	}
	assert.Equal(t, 3, batches) // 5 units in batches of 2
}

type sinkFunc func(core.Event)

func (f sinkFunc) OnEvent(e core.Event) { f(e) }
