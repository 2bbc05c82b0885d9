package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/efsora/ai-service/internal/config"
	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/core/ingestion_engine"
	"github.com/efsora/ai-service/internal/core/llm"
	"github.com/efsora/ai-service/internal/core/objectclient"
	"github.com/efsora/ai-service/internal/core/pdfdoc"
	"github.com/efsora/ai-service/internal/core/vectorindex"
)

type App struct {
	Index        core.VectorIndex
	ObjectClient core.ObjectClient
	Pipeline     *ingestion_engine.ProgressPipeline
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	index, err := vectorindex.NewPgVectorIndex(appCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Println("Vector index initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	visionModel, err := llm.NewGeminiVision(appCtx, cfg.AIAPIKey, cfg.VisionModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the vision model, %w", err)
	}

	ingestor, err := BuildIngestor(cfg, visionModel)
	if err != nil {
		return nil, err
	}
	chunker := ingestion_engine.NewSemanticChunker(cfg.SemanticMaxTokens)

	pipeline := ingestion_engine.NewProgressPipeline(
		objClient, ingestor, chunker, geminiEmbedder, index, cfg.CollectionName, cfg.EmbedDim,
	)

	server := NewServer(cfg, objClient, pipeline, index, geminiEmbedder, llmProvider)

	return &App{Index: index, ObjectClient: objClient, Pipeline: pipeline, Server: server}, nil
}

// BuildIngestor assembles the document extraction stack: PDF engine, layout
// table detector, vision captioner, table and image extractors. Shared by the
// API server and the batch CLI.
func BuildIngestor(cfg *config.Config, vision core.VisionModel) (*ingestion_engine.DocumentIngestor, error) {
	captioner := ingestion_engine.NewCaptioner(vision)
	detector := pdfdoc.NewLayoutTableDetector()

	tables := ingestion_engine.NewTableTextExtractor(captioner, detector, cfg.PageBatchSize, cfg.Zoom, cfg.ReconstructTables)

	images, err := ingestion_engine.NewImageExtractor(captioner, cfg.ImageOutputDir, cfg.SnippetLimit)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the image extractor, %w", err)
	}

	return ingestion_engine.NewDocumentIngestor(pdfdoc.NewEngine(), tables, images), nil
}

func (a *App) Close() {
	if a.Index != nil {
		_ = a.Index.Close()
	}
}
