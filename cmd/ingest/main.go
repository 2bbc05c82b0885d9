package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/efsora/ai-service/internal/app"
	"github.com/efsora/ai-service/internal/config"
	"github.com/efsora/ai-service/internal/core/ingestion_engine"
	"github.com/efsora/ai-service/internal/core/llm"
	"github.com/efsora/ai-service/internal/core/vectorindex"
	"github.com/efsora/ai-service/internal/models"
)

var (
	dataDir    string
	collection string
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Batch-ingest a directory of documents into the vector store",
	Long: `Extracts text, tables and images from every supported document in a
directory, chunks and embeds the content, and stores the vectors in the
configured collection. Optionally dumps chunk and embedding artifacts for
inspection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runIngest(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVar(&dataDir, "data-dir", "", "directory of documents to ingest (default DATA_DIR)")
	rootCmd.Flags().StringVar(&collection, "collection", "", "target collection name (default COLLECTION_NAME)")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for debug artifacts (default OUTPUT_DIR; empty disables)")
}

func runIngest(ctx context.Context) error {
	cfg := config.LoadConfig()
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if collection == "" {
		collection = cfg.CollectionName
	}
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}

	index, err := vectorindex.NewPgVectorIndex(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer index.Close()

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	vision, err := llm.NewGeminiVision(ctx, cfg.AIAPIKey, cfg.VisionModel)
	if err != nil {
		return fmt.Errorf("couldn't initialize the vision model, %w", err)
	}

	ingestor, err := app.BuildIngestor(cfg, vision)
	if err != nil {
		return err
	}
	chunker := ingestion_engine.NewSemanticChunker(cfg.SemanticMaxTokens)

	log.Printf("Ingesting documents from %s into collection %q", dataDir, collection)
	report, units, err := ingestor.IngestDir(ctx, dataDir)
	if err != nil {
		return err
	}
	log.Printf("Extracted %d content units from %d documents (%d failed)", report.Units, report.Processed, report.Failed)

	chunks, err := chunker.Chunk(units)
	if err != nil {
		return err
	}
	log.Printf("Created %d chunks", len(chunks))

	store := ingestion_engine.NewEmbedStore(index, embedder, collection, cfg.EmbedDim)
	vectors, err := store.EmbedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	if err := store.StoreEmbedded(ctx, chunks, vectors); err != nil {
		return err
	}
	log.Printf("Stored %d embeddings in %q", len(vectors), collection)

	if outputDir != "" {
		meta := models.ArtifactMetadata{
			TotalChunks:    len(chunks),
			EmbeddingModel: embedder.ModelName(),
			MaxTokens:      chunker.MaxTokens(),
			CollectionName: collection,
		}
		if err := ingestion_engine.SaveArtifacts(outputDir, chunks, vectors, meta); err != nil {
			log.Printf("WARN: failed to save artifacts: %v", err)
		} else {
			log.Printf("Artifacts written to %s", outputDir)
		}
	}

	fmt.Printf("processed=%d failed=%d units=%d chunks=%d\n", report.Processed, report.Failed, report.Units, len(chunks))
	for _, doc := range report.FailedDocs {
		fmt.Printf("failed: %s\n", doc)
	}
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}
}
