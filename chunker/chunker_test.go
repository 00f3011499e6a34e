package chunker

import (
	"strings"
	"testing"

	"github.com/poiesic/contexture/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeTokenizer treats every rune as one token. It is exactly invertible,
// which makes chunk boundaries deterministic in tests.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = int(r)
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

func testOptions(size, overlap, minSize int, separators []string) core.ChunkingOptions {
	if separators == nil {
		separators = core.DefaultChunkingOptions().Separators
	}
	return core.ChunkingOptions{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		MinChunkSize: minSize,
		Separators:   separators,
	}
}

func newTestChunker(t *testing.T) *Recursive {
	t.Helper()
	r, err := NewRecursive(runeTokenizer{})
	require.NoError(t, err)
	return r
}

func TestRecursiveEmptyInput(t *testing.T) {
	r := newTestChunker(t)

	for _, content := range []string{"", "   ", "\n\n\t"} {
		chunks, err := r.Chunk(content, testOptions(10, 0, 0, nil))
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestRecursiveSingleChunk(t *testing.T) {
	r := newTestChunker(t)

	chunks, err := r.Chunk("hello", testOptions(10, 2, 0, nil))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "hello", chunks[0].Content)
	assert.Equal(t, 5, chunks[0].TokenCount)
}

func TestRecursiveCoverage(t *testing.T) {
	// With zero overlap, concatenating all chunks reconstructs the
	// original content exactly: no token is dropped or duplicated.
	r := newTestChunker(t)

	content := "First paragraph with some words.\n\n" +
		"Second paragraph, a little longer than the first one.\n\n" +
		"Third. Short. Sentences. Here.\n" +
		"And a trailing line without punctuation"

	chunks, err := r.Chunk(content, testOptions(20, 0, 0, nil))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var joined strings.Builder
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, chunk.TokenCount, 20)
		joined.WriteString(chunk.Content)
	}
	assert.Equal(t, content, joined.String())
}

func TestRecursiveOverlapSeeding(t *testing.T) {
	r := newTestChunker(t)

	content := "aaaa bbbb cccc dddd eeee"
	chunks, err := r.Chunk(content, testOptions(10, 3, 0, []string{" "}))
	require.NoError(t, err)

	expected := []string{"aaaa bbbb ", "bb cccc ", "cc dddd ", "dd eeee"}
	require.Len(t, chunks, len(expected))
	for i, chunk := range chunks {
		assert.Equal(t, expected[i], chunk.Content)
		assert.Equal(t, i, chunk.Index)
		assert.LessOrEqual(t, chunk.TokenCount, 10)
	}

	// Every chunk starts with the trailing overlap of its predecessor.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		seed := string(prev[len(prev)-3:])
		assert.True(t, strings.HasPrefix(chunks[i].Content, seed),
			"chunk %d should start with %q", i, seed)
	}
}

func TestRecursiveForceSplit(t *testing.T) {
	// No separator occurs in the text, so the splitter falls back to raw
	// token windows.
	r := newTestChunker(t)

	content := strings.Repeat("x", 26)
	chunks, err := r.Chunk(content, testOptions(10, 2, 0, nil))
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.TokenCount, 10)
	}
	// Stride is chunkSize - overlap = 8 new tokens per chunk.
	assert.Equal(t, 8, chunks[0].TokenCount)
	assert.Equal(t, 10, chunks[1].TokenCount)
	assert.Equal(t, 10, chunks[2].TokenCount)
}

func TestRecursiveMinChunkSize(t *testing.T) {
	// A trailing piece below the minimum merges into the previous chunk.
	r := newTestChunker(t)

	chunks, err := r.Chunk("aaaa bbbb cc", testOptions(10, 0, 4, []string{" "}))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "aaaa bbbb cc", chunks[0].Content)
}

func TestRecursiveInvalidOptions(t *testing.T) {
	r := newTestChunker(t)

	_, err := r.Chunk("hello world", testOptions(10, 10, 0, nil))
	assert.Error(t, err)

	_, err = r.Chunk("hello world", testOptions(0, 0, 0, nil))
	assert.Error(t, err)
}

func TestNewRecursiveRequiresTokenizer(t *testing.T) {
	_, err := NewRecursive(nil)
	assert.ErrorIs(t, err, ErrTokenizerRequired)
}
