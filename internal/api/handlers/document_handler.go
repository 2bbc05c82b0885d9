package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/efsora/ai-service/internal/config"
	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/core/ingestion_engine"
)

type DocumentHandler struct {
	objectclient core.ObjectClient
	pipeline     *ingestion_engine.ProgressPipeline
	cfg          *config.Config
}

func NewDocumentHandler(obj core.ObjectClient, pipeline *ingestion_engine.ProgressPipeline, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{objectclient: obj, pipeline: pipeline, cfg: cfg}
}

// UploadDocument stores an uploaded file in object storage and returns its key.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {

	r.ParseMultipartForm(52 << 20)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusInternalServerError)
		return
	}

	// Sanitize filename to prevent path traversal or invalid characters
	cleanFilename := filepath.Base(header.Filename)
	docID := uuid.NewString()
	s3Key := fmt.Sprintf("uploads/%s/%s", docID, cleanFilename)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	url, err := h.objectclient.UploadFile(uploadctx, s3Key, data, contentType)
	if err != nil {
		http.Error(w, fmt.Sprintf("upload failed: %v", err), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"document_id": docID,
		"s3_key":      s3Key,
		"file_name":   cleanFilename,
		"storage_url": url,
	})
}

type EmbedDocumentRequest struct {
	S3Key          string `json:"s3_key"`
	CollectionName string `json:"collection_name"`
}

// EmbedDocument runs the full extract-chunk-embed-store pipeline for one
// stored document, streaming progress as server-sent events. The stream ends
// with a single completed or error event.
func (h *DocumentHandler) EmbedDocument(w http.ResponseWriter, r *http.Request) {
	var req EmbedDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.S3Key == "" {
		http.Error(w, "s3_key is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range h.pipeline.Run(r.Context(), req.S3Key, req.CollectionName) {
		payload, err := json.Marshal(ev)
		if err != nil {
			log.Printf("embed document: failed to marshal progress event: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			// Client went away; the pipeline stops via r.Context().
			return
		}
		flusher.Flush()
	}
}
