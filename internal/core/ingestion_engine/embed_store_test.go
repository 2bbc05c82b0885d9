package ingestion_engine

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsora/ai-service/internal/models"
)

func makeChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		// Distinct lengths let the fake embedder encode chunk identity into
		// the vector: vec[0] == len(text).
		chunks[i] = models.Chunk{
			Text:           strings.Repeat("x", i+1),
			SourceDocument: "doc.pdf",
			Position:       i,
		}
	}
	return chunks
}

func TestEmbedChunksPreservesOrderAcrossBatches(t *testing.T) {
	store := NewEmbedStore(&fakeIndex{}, &fakeEmbedder{}, "docs", 3)

	chunks := makeChunks(40) // several batches, run on the worker pool
	vectors, err := store.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, vectors, 40)

	for i, vec := range vectors {
		assert.Equal(t, float32(i+1), vec[0], "vector %d out of order", i)
	}
}

func TestEmbedChunksEmpty(t *testing.T) {
	store := NewEmbedStore(&fakeIndex{}, &fakeEmbedder{}, "docs", 3)
	vectors, err := store.EmbedChunks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedChunksEmbedderFailure(t *testing.T) {
	store := NewEmbedStore(&fakeIndex{}, &fakeEmbedder{err: assert.AnError}, "docs", 3)
	_, err := store.EmbedChunks(context.Background(), makeChunks(3))
	require.Error(t, err)
}

func TestStoreEmbeddedEnsuresCollectionAndInserts(t *testing.T) {
	index := &fakeIndex{}
	store := NewEmbedStore(index, &fakeEmbedder{}, "docs", 768)

	chunks := makeChunks(3)
	vectors := [][]float32{{1}, {2}, {3}}
	require.NoError(t, store.StoreEmbedded(context.Background(), chunks, vectors))

	require.Len(t, index.ensured, 1)
	assert.Equal(t, "docs", index.ensured[0].name)
	assert.Equal(t, 768, index.ensured[0].dim)

	recs := index.inserted["docs"]
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, chunks[i].Text, rec.Content)
		assert.Equal(t, "doc.pdf", rec.Source)
		assert.Equal(t, vectors[i], rec.Vector)
	}
}

func TestStoreEmbeddedDimensionFallback(t *testing.T) {
	index := &fakeIndex{}
	store := NewEmbedStore(index, &fakeEmbedder{}, "docs", 0)

	chunks := makeChunks(1)
	require.NoError(t, store.StoreEmbedded(context.Background(), chunks, [][]float32{{1, 2, 3, 4}}))

	require.Len(t, index.ensured, 1)
	assert.Equal(t, 4, index.ensured[0].dim, "dimension must fall back to the first vector's length")
}

func TestStoreEmbeddedLengthMismatch(t *testing.T) {
	store := NewEmbedStore(&fakeIndex{}, &fakeEmbedder{}, "docs", 3)
	err := store.StoreEmbedded(context.Background(), makeChunks(2), [][]float32{{1}})
	require.Error(t, err)
}

func TestEmbedAndStore(t *testing.T) {
	index := &fakeIndex{}
	store := NewEmbedStore(index, &fakeEmbedder{}, "docs", 3)

	n, err := store.EmbedAndStore(context.Background(), makeChunks(5))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, index.inserted["docs"], 5)
}

func TestSaveArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	chunks := makeChunks(2)
	vectors := [][]float32{{1, 2}, {3, 4}}
	meta := models.ArtifactMetadata{
		TotalChunks:    2,
		EmbeddingModel: "fake-embedder",
		MaxTokens:      512,
		CollectionName: "docs",
	}

	require.NoError(t, SaveArtifacts(dir, chunks, vectors, meta))

	raw, err := os.ReadFile(filepath.Join(dir, "chunks.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "--- Chunk 0 ---")
	assert.Contains(t, string(raw), chunks[1].Text)

	var embedded []models.EmbeddedChunk
	raw, err = os.ReadFile(filepath.Join(dir, "embeddings.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &embedded))
	require.Len(t, embedded, 2)
	assert.Equal(t, vectors[0], embedded[0].Vector)

	var gotMeta models.ArtifactMetadata
	raw, err = os.ReadFile(filepath.Join(dir, "metadata.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &gotMeta))
	assert.Equal(t, meta, gotMeta)
}

func TestSaveArtifactsNoOutputDir(t *testing.T) {
	require.NoError(t, SaveArtifacts("", makeChunks(1), nil, models.ArtifactMetadata{}))
}
