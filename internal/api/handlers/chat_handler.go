package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/efsora/ai-service/internal/core"
)

type ChatHandler struct {
	embedder          core.EmbeddingProvider
	index             core.VectorIndex
	llm               core.LLMProvider
	defaultCollection string
}

func NewChatHandler(emb core.EmbeddingProvider, index core.VectorIndex, llm core.LLMProvider, defaultCollection string) *ChatHandler {
	return &ChatHandler{embedder: emb, index: index, llm: llm, defaultCollection: defaultCollection}
}

type ChatRequest struct {
	Query          string `json:"query"`
	CollectionName string `json:"collection_name"`
	TopK           int    `json:"top_k"`
}

type ChatResponse struct {
	Answer  string           `json:"answer"`
	Context []core.SearchHit `json:"context"`
}

// QueryDocuments answers a question grounded in the stored document chunks and
// returns the retrieved context alongside the answer.
func (h *ChatHandler) QueryDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
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
	if req.TopK <= 0 {
		req.TopK = 5
	}

	// Embed the query
	vecs, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil || len(vecs) == 0 {
		http.Error(w, fmt.Sprintf("embedding failed: %v", err), 500)
		return
	}

	// Retrieve top chunks
	hits, err := h.index.Search(ctx, req.CollectionName, vecs[0], req.TopK)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), 500)
		return
	}

	var sb strings.Builder
	for _, hit := range hits {
		sb.WriteString(hit.Text)
		sb.WriteString("\n---\n")
	}

	systemPrompt := "You are an intelligent assistant answering based only on the given document content. If unsure, say 'I cannot find this in the document.'"
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", sb.String(), req.Query)

	answer, err := h.llm.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		http.Error(w, fmt.Sprintf("LLM failed: %v", err), 500)
		return
	}

	if hits == nil {
		hits = []core.SearchHit{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{Answer: answer, Context: hits})
}
