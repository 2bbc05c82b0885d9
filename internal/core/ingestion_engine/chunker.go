package ingestion_engine

import (
	"fmt"
	"log"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/efsora/ai-service/internal/models"
)

// SemanticChunker splits ContentUnits into token-bounded chunks, preferring
// paragraph and sentence boundaries over arbitrary cuts. Each unit is chunked
// on its own, so a chunk's provenance is always exactly one source document
// and content from unrelated units never blends across a boundary.
type SemanticChunker struct {
	maxTokens   int
	splitter    textsplitter.RecursiveCharacter
	countTokens func(string) int
}

func NewSemanticChunker(maxTokens int) *SemanticChunker {
	if maxTokens <= 0 {
		maxTokens = 512
	}

	count := approxTokens
	if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
		count = func(s string) int { return len(enc.Encode(s, nil, nil)) }
	} else {
		log.Printf("chunker: tiktoken encoding unavailable, falling back to estimate: %v", err)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(maxTokens),
		textsplitter.WithChunkOverlap(0),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", " ", ""}),
		textsplitter.WithLenFunc(count),
	)

	return &SemanticChunker{maxTokens: maxTokens, splitter: splitter, countTokens: count}
}

func (c *SemanticChunker) MaxTokens() int { return c.maxTokens }

// Chunk splits every unit's text and tags each resulting chunk with the
// owning unit's source document. Positions are contiguous over the whole
// call, preserving unit order and in-unit order.
func (c *SemanticChunker) Chunk(units []models.ContentUnit) ([]models.Chunk, error) {
	var out []models.Chunk
	pos := 0

	for _, unit := range units {
		text := strings.TrimSpace(unit.Text)
		if text == "" {
			continue
		}

		parts, err := c.splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("split unit %d of %s: %w", unit.Order, unit.SourceDocument, err)
		}

		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, models.Chunk{
				Text:           part,
				SourceDocument: unit.SourceDocument,
				Position:       pos,
				TokenCount:     c.countTokens(part),
			})
			pos++
		}
	}
	return out, nil
}

// approxTokens is a cheap token estimator (~4 chars ≈ 1 token), used when the
// real tokenizer cannot be loaded.
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
