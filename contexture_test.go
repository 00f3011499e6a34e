package contexture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/contexture/ai/mock"
	"github.com/poiesic/contexture/chunker"
	"github.com/poiesic/contexture/core"
)

// lineChunker keeps tests independent of tokenizer data files.
type lineChunker struct{}

func (lineChunker) Chunk(content string, opts core.ChunkingOptions) ([]core.ChunkText, error) {
	var chunks []core.ChunkText
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		chunks = append(chunks, core.ChunkText{
			Index:      len(chunks),
			Content:    line,
			TokenCount: len(strings.Fields(line)),
		})
	}
	return chunks, nil
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open("",
		WithInMemory(),
		WithProvider(mock.NewMockProvider()),
		WithChunkingMethod(chunker.MethodCustom, lineChunker{}))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen(t *testing.T) {
	t.Run("in memory", func(t *testing.T) {
		db := openTestDB(t)
		assert.NotNil(t, db.Engine())
		assert.NotNil(t, db.NewRerankPipeline())
	})

	t.Run("filesystem", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "ctx_db")
		db, err := Open(dir,
			WithProvider(mock.NewMockProvider()),
			WithChunkingMethod(chunker.MethodCustom, lineChunker{}))
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("invalid path", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

		db, err := Open(file)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("unknown chunking method", func(t *testing.T) {
		db, err := Open("",
			WithInMemory(),
			WithProvider(mock.NewMockProvider()),
			WithChunkingMethod("semantic", nil))
		assert.ErrorIs(t, err, chunker.ErrNotInstalled)
		assert.Nil(t, db)
	})
}

func TestIngestRetrieveDeleteRoundtrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	result, err := db.Ingest(ctx, &core.IngestInput{
		SourceId: "docs:a",
		Content:  "the first line\nthe second line",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Empty(t, result.Warnings)

	retrieved, err := db.Retrieve(ctx, &core.RetrieveInput{
		Query: "the first line",
		TopK:  10,
	})
	require.NoError(t, err)
	assert.Len(t, retrieved.Chunks, 2)

	require.NoError(t, db.Delete(ctx, core.DeleteInput{SourceId: "docs:a"}))
	retrieved, err = db.Retrieve(ctx, &core.RetrieveInput{Query: "anything", TopK: 10})
	require.NoError(t, err)
	assert.Empty(t, retrieved.Chunks)
}

func TestReingestReplacesContent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Ingest(ctx, &core.IngestInput{
		SourceId: "docs:a",
		Content:  "old line one\nold line two\nold line three",
	})
	require.NoError(t, err)

	_, err = db.Ingest(ctx, &core.IngestInput{
		SourceId: "docs:a",
		Content:  "new line",
	})
	require.NoError(t, err)

	retrieved, err := db.Retrieve(ctx, &core.RetrieveInput{Query: "line", TopK: 10})
	require.NoError(t, err)
	require.Len(t, retrieved.Chunks, 1)
	assert.Equal(t, "new line", retrieved.Chunks[0].Chunk.Content)
}

func TestPlanIngest(t *testing.T) {
	db := openTestDB(t)

	plan, err := db.PlanIngest(&core.IngestInput{
		SourceId: "docs:a",
		Content:  "one line",
		Assets: []core.AssetInput{
			{AssetId: "pdf-1", Kind: core.AssetKindPdf, Data: []byte("%PDF")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, plan.BaseChunkCount)
	require.Len(t, plan.Assets, 1)
	assert.Equal(t, core.AssetWillProcess, plan.Assets[0].Decision)
}
