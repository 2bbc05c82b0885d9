package ingestion_engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/models"
)

// embedBatchSize is how many chunk texts go into one embedding request.
const embedBatchSize = 16

// embedWorkers bounds concurrent embedding requests.
const embedWorkers = 4

// EmbedStore computes embeddings for chunks and persists them into a vector
// index collection.
type EmbedStore struct {
	index      core.VectorIndex
	embedder   core.EmbeddingProvider
	collection string
	dimension  int
}

func NewEmbedStore(index core.VectorIndex, embedder core.EmbeddingProvider, collection string, dimension int) *EmbedStore {
	return &EmbedStore{index: index, embedder: embedder, collection: collection, dimension: dimension}
}

func (s *EmbedStore) Collection() string { return s.collection }

// EmbedChunks embeds all chunks, batching requests and running batches on a
// bounded worker pool. Results land at their chunk's index, so output order
// never depends on completion order.
func (s *EmbedStore) EmbedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedWorkers)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		start, end := start, end

		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, ch := range chunks[start:end] {
				texts = append(texts, ch.Text)
			}
			vecs, err := s.embedder.EmbedTexts(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embed size mismatch: got %d want %d", len(vecs), end-start)
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedAndStore embeds every chunk and inserts the records into the target
// collection, creating the collection first if needed. Returns the number of
// records stored.
func (s *EmbedStore) EmbedAndStore(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := s.EmbedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := s.StoreEmbedded(ctx, chunks, vectors); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// StoreEmbedded writes pre-computed (chunk, vector) pairs into the index.
func (s *EmbedStore) StoreEmbedded(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	dim := s.dimension
	if dim <= 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if err := s.index.EnsureCollection(ctx, s.collection, dim); err != nil {
		return fmt.Errorf("ensure collection %s: %w", s.collection, err)
	}

	for i := range chunks {
		if _, err := s.index.Insert(ctx, s.collection, core.VectorRecord{
			Content: chunks[i].Text,
			Source:  chunks[i].SourceDocument,
			Vector:  vectors[i],
		}); err != nil {
			return fmt.Errorf("store chunk %d: %w", chunks[i].Position, err)
		}
	}
	return nil
}

// SaveArtifacts dumps chunks, embeddings and a metadata summary under
// outputDir for debugging. Best effort: callers must treat a returned error
// as a warning, never as an ingestion failure.
func SaveArtifacts(outputDir string, chunks []models.Chunk, vectors [][]float32, meta models.ArtifactMetadata) error {
	if outputDir == "" {
		return nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	chunksFile := filepath.Join(outputDir, "chunks.txt")
	var buf []byte
	for i, ch := range chunks {
		buf = append(buf, fmt.Sprintf("--- Chunk %d ---\n%s\n\n", i, ch.Text)...)
	}
	if err := os.WriteFile(chunksFile, buf, 0o644); err != nil {
		return fmt.Errorf("write chunks.txt: %w", err)
	}
	log.Printf("ingest: %d chunks saved to %s", len(chunks), chunksFile)

	if len(vectors) == len(chunks) {
		embedded := make([]models.EmbeddedChunk, 0, len(chunks))
		for i := range chunks {
			embedded = append(embedded, models.EmbeddedChunk{
				Text:           chunks[i].Text,
				SourceDocument: chunks[i].SourceDocument,
				Vector:         vectors[i],
			})
		}
		if err := writeJSON(filepath.Join(outputDir, "embeddings.json"), embedded); err != nil {
			return err
		}
	}

	return writeJSON(filepath.Join(outputDir, "metadata.json"), meta)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
