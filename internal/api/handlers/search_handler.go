package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/efsora/ai-service/internal/core"
)

type SearchHandler struct {
	embedder          core.EmbeddingProvider
	index             core.VectorIndex
	defaultCollection string
}

func NewSearchHandler(emb core.EmbeddingProvider, index core.VectorIndex, defaultCollection string) *SearchHandler {
	return &SearchHandler{embedder: emb, index: index, defaultCollection: defaultCollection}
}

type SearchRequest struct {
	Query          string `json:"query"`
	CollectionName string `json:"collection_name"`
	Limit          int    `json:"limit"`
}

type SearchResponse struct {
	Query   string           `json:"query"`
	Results []core.SearchHit `json:"results"`
}

// SearchChunks embeds the query text and returns the nearest stored chunks.
func (h *SearchHandler) SearchChunks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}
	if req.CollectionName == "" {
		req.CollectionName = h.defaultCollection
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	vecs, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), 500)
		return
	}

	hits, err := h.index.Search(ctx, req.CollectionName, vecs[0], req.Limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), 500)
		return
	}
	if hits == nil {
		hits = []core.SearchHit{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SearchResponse{Query: req.Query, Results: hits})
}

type EmbedTextRequest struct {
	Text           string `json:"text"`
	CollectionName string `json:"collection_name"`
	Source         string `json:"source"`
}

type EmbedTextResponse struct {
	Text       string `json:"text"`
	Collection string `json:"collection"`
	UUID       string `json:"uuid"`
	Source     string `json:"source"`
}

// EmbedText embeds a single text and stores it in the collection.
func (h *SearchHandler) EmbedText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req EmbedTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.CollectionName == "" {
		req.CollectionName = h.defaultCollection
	}
	if req.Source == "" {
		req.Source = "api"
	}

	vecs, err := h.embedder.EmbedTexts(ctx, []string{req.Text})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), 500)
		return
	}

	if err := h.index.EnsureCollection(ctx, req.CollectionName, len(vecs[0])); err != nil {
		http.Error(w, fmt.Sprintf("collection setup failed: %v", err), 500)
		return
	}
	id, err := h.index.Insert(ctx, req.CollectionName, core.VectorRecord{
		Content: req.Text,
		Source:  req.Source,
		Vector:  vecs[0],
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("insert failed: %v", err), 500)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EmbedTextResponse{
		Text:       req.Text,
		Collection: req.CollectionName,
		UUID:       id,
		Source:     req.Source,
	})
}
