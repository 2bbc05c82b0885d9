package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/models"
)

// progressEvery is the embedding-stage event cadence: one event per this many
// chunks, plus always one for the final chunk.
const progressEvery = 5

// ProgressPipeline runs the interactive single-document flow: download from
// object storage, extract, chunk, embed, store, reporting staged progress on
// a channel. Stages own fixed percent bands (download 0-10, load 10-20, chunk
// 20-30, embed 30-90, store 90-100).
type ProgressPipeline struct {
	storage    core.ObjectClient
	ingestor   *DocumentIngestor
	chunker    *SemanticChunker
	embedder   core.EmbeddingProvider
	index      core.VectorIndex
	collection string
	dimension  int
}

func NewProgressPipeline(
	storage core.ObjectClient,
	ingestor *DocumentIngestor,
	chunker *SemanticChunker,
	embedder core.EmbeddingProvider,
	index core.VectorIndex,
	collection string,
	dimension int,
) *ProgressPipeline {
	return &ProgressPipeline{
		storage:    storage,
		ingestor:   ingestor,
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		collection: collection,
		dimension:  dimension,
	}
}

// Run starts the pipeline for one stored object and returns its event stream.
// The channel closes after the terminal event (completed or error). Producer
// work stops promptly once ctx is cancelled, e.g. when the consuming client
// disconnects.
func (p *ProgressPipeline) Run(ctx context.Context, storageKey, collection string) <-chan models.ProgressEvent {
	events := make(chan models.ProgressEvent, 8)
	go func() {
		defer close(events)
		p.run(ctx, storageKey, collection, events)
	}()
	return events
}

func (p *ProgressPipeline) run(ctx context.Context, storageKey, collection string, events chan<- models.ProgressEvent) {
	if collection == "" {
		collection = p.collection
	}
	documentID := uuid.NewString()

	var (
		lastPercent int
		tempPath    string
	)
	defer func() {
		// The temp copy goes away on every exit path, success or failure.
		if tempPath != "" {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				log.Printf("embed pipeline: failed to clean up temp file %s: %v", tempPath, err)
			}
		}
	}()

	// emit delivers one event unless the consumer is gone. Percent is clamped
	// to be non-decreasing within the run.
	emit := func(ev models.ProgressEvent) bool {
		if ev.ProgressPercent < lastPercent {
			ev.ProgressPercent = lastPercent
		}
		lastPercent = ev.ProgressPercent
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(stage models.Stage, code string, err error) {
		log.Printf("embed pipeline: %s failed for %s: %v", stage, storageKey, err)
		emit(models.ProgressEvent{
			Stage:           models.StageError,
			ProgressPercent: lastPercent,
			Message:         err.Error(),
			ErrorCode:       code,
		})
	}

	// Stage 1: downloading (0-10%).
	if !emit(models.ProgressEvent{Stage: models.StageDownloading, ProgressPercent: 0, Message: "Downloading document from object storage..."}) {
		return
	}
	path, err := p.storage.DownloadToTemp(ctx, storageKey)
	if err != nil {
		fail(models.StageDownloading, models.ErrCodeStorageDownload, err)
		return
	}
	tempPath = path
	if !emit(models.ProgressEvent{Stage: models.StageDownloading, ProgressPercent: 10, Message: "Document downloaded successfully"}) {
		return
	}

	// Stage 2: loading (10-20%).
	if !emit(models.ProgressEvent{Stage: models.StageLoading, ProgressPercent: 10, Message: "Loading and parsing document..."}) {
		return
	}
	units, err := p.ingestor.IngestFile(ctx, tempPath)
	if err != nil {
		code := models.ErrCodeEmbed
		if errors.Is(err, core.ErrUnsupportedFileType) {
			code = models.ErrCodeUnsupportedFile
		}
		fail(models.StageLoading, code, err)
		return
	}
	sourceName := filepath.Base(storageKey)
	for idx := range units {
		units[idx].SourceDocument = sourceName
	}
	if !emit(models.ProgressEvent{Stage: models.StageLoading, ProgressPercent: 20, Message: fmt.Sprintf("Loaded %d content units", len(units))}) {
		return
	}

	// Stage 3: chunking (20-30%).
	if !emit(models.ProgressEvent{Stage: models.StageChunking, ProgressPercent: 20, Message: "Splitting document into semantic chunks..."}) {
		return
	}
	chunks, err := p.chunker.Chunk(units)
	if err != nil {
		fail(models.StageChunking, models.ErrCodeEmbed, err)
		return
	}
	totalChunks := len(chunks)
	if totalChunks == 0 {
		fail(models.StageChunking, models.ErrCodeEmbed, fmt.Errorf("no text content extracted from %s", sourceName))
		return
	}
	if !emit(models.ProgressEvent{
		Stage:           models.StageChunking,
		ProgressPercent: 30,
		Message:         fmt.Sprintf("Created %d chunks", totalChunks),
		TotalChunks:     totalChunks,
	}) {
		return
	}

	// Stage 4: embedding (30-90%).
	if !emit(models.ProgressEvent{Stage: models.StageEmbedding, ProgressPercent: 30, Message: "Generating embeddings...", TotalChunks: totalChunks}) {
		return
	}
	vectors := make([][]float32, 0, totalChunks)
	for i, ch := range chunks {
		vecs, err := p.embedder.EmbedTexts(ctx, []string{ch.Text})
		if err != nil || len(vecs) != 1 {
			if err == nil {
				err = fmt.Errorf("embedding returned %d vectors for one text", len(vecs))
			}
			fail(models.StageEmbedding, models.ErrCodeEmbed, err)
			return
		}
		vectors = append(vectors, vecs[0])

		done := i + 1
		if done%progressEvery == 0 || done == totalChunks {
			percent := 30 + done*60/totalChunks
			if !emit(models.ProgressEvent{
				Stage:           models.StageEmbedding,
				ProgressPercent: percent,
				Message:         fmt.Sprintf("Generated embeddings for %d/%d chunks", done, totalChunks),
				ChunksProcessed: done,
				TotalChunks:     totalChunks,
			}) {
				return
			}
		}
	}

	// Stage 5: storing (90-100%). Records inserted before a failure stay;
	// there is no cross-document rollback at this layer.
	if !emit(models.ProgressEvent{
		Stage:           models.StageStoring,
		ProgressPercent: 90,
		Message:         "Storing embeddings in vector database...",
		ChunksProcessed: totalChunks,
		TotalChunks:     totalChunks,
	}) {
		return
	}
	store := NewEmbedStore(p.index, p.embedder, collection, p.dimension)
	if err := store.StoreEmbedded(ctx, chunks, vectors); err != nil {
		fail(models.StageStoring, models.ErrCodeVectorStore, err)
		return
	}

	emit(models.ProgressEvent{
		Stage:           models.StageCompleted,
		ProgressPercent: 100,
		Message:         "Document embedded successfully",
		ChunksProcessed: totalChunks,
		TotalChunks:     totalChunks,
		DocumentID:      documentID,
	})
}
