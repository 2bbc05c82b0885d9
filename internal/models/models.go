package models

// UnitKind classifies an extracted ContentUnit.
type UnitKind string

const (
	UnitPageText UnitKind = "page"
	UnitTable    UnitKind = "table"
	UnitImage    UnitKind = "image"
)

// ContentUnit is one atomic piece of extracted document content: the prose of
// a single page, the reconstructed tables of a page batch, or the caption of a
// unique embedded image. Units are immutable once emitted and are consumed by
// the chunker; they are never persisted standalone.
//
// Order is a document-wide reading-order key assigned by the orchestrator:
// page and table units interleave in page order, image units follow (images
// are discovered in a second pass over the document).
type ContentUnit struct {
	Kind           UnitKind `json:"kind"`
	Text           string   `json:"text"`
	SourceDocument string   `json:"source_document"`
	Order          int      `json:"order"`

	// Page-text units.
	Page int `json:"page,omitempty"`

	// Table units: inclusive 1-based page range of the rendered batch.
	PageStart int `json:"page_start,omitempty"`
	PageEnd   int `json:"page_end,omitempty"`
	BatchSize int `json:"batch_size,omitempty"`

	// Image units.
	ImagePath       string `json:"image_path,omitempty"`
	ImageHash       string `json:"image_hash,omitempty"`
	ImageWidth      int    `json:"image_width,omitempty"`
	ImageHeight     int    `json:"image_height,omitempty"`
	PageTextSnippet string `json:"page_text_snippet,omitempty"`
}

// Chunk is a token-bounded span of text cut from a single ContentUnit. The
// source is always the owning document; chunks never mix content across units.
type Chunk struct {
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
	Position       int    `json:"position"`
	TokenCount     int    `json:"token_count"`
}

// EmbeddedChunk pairs a chunk with its embedding vector; it is the record
// written to the vector index.
type EmbeddedChunk struct {
	Text           string    `json:"text"`
	SourceDocument string    `json:"source_document"`
	Vector         []float32 `json:"embedding"`
}

// IngestReport summarizes a batch ingestion run over many documents.
type IngestReport struct {
	Processed  int      `json:"processed"`
	Failed     int      `json:"failed"`
	FailedDocs []string `json:"failed_docs,omitempty"`
	Units      int      `json:"units"`
}

// Stage identifies a phase of the streaming single-document embed pipeline.
type Stage string

const (
	StageDownloading Stage = "downloading"
	StageLoading     Stage = "loading"
	StageChunking    Stage = "chunking"
	StageEmbedding   Stage = "embedding"
	StageStoring     Stage = "storing"
	StageCompleted   Stage = "completed"
	StageError       Stage = "error"
)

// Error codes carried by the terminal error ProgressEvent.
const (
	ErrCodeStorageDownload = "STORAGE_DOWNLOAD_ERROR"
	ErrCodeUnsupportedFile = "UNSUPPORTED_FILE_TYPE"
	ErrCodeVectorStore     = "VECTOR_STORE_ERROR"
	ErrCodeEmbed           = "EMBED_ERROR"
)

// ProgressEvent is one update on the embed-document progress stream. Percent
// is monotonically non-decreasing for a successful run and ends at 100 with
// StageCompleted; a failing run ends with exactly one StageError event
// reporting the progress reached so far.
type ProgressEvent struct {
	Stage           Stage  `json:"stage"`
	ProgressPercent int    `json:"progress_percent"`
	Message         string `json:"message"`
	ChunksProcessed int    `json:"chunks_processed"`
	TotalChunks     int    `json:"total_chunks"`
	DocumentID      string `json:"document_id,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
}

// ArtifactMetadata is the summary written next to the debug chunk/embedding
// dumps after a batch run.
type ArtifactMetadata struct {
	TotalChunks    int    `json:"total_chunks"`
	EmbeddingModel string `json:"embedding_model"`
	MaxTokens      int    `json:"max_tokens"`
	CollectionName string `json:"collection_name"`
}
