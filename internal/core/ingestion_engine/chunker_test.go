package ingestion_engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsora/ai-service/internal/models"
)

func TestChunkerKeepsProvenancePerUnit(t *testing.T) {
	c := NewSemanticChunker(512)

	units := []models.ContentUnit{
		{Kind: models.UnitPageText, Text: "alpha content", SourceDocument: "a.pdf"},
		{Kind: models.UnitTable, Text: "| x | y |", SourceDocument: "b.pdf"},
	}

	chunks, err := c.Chunk(units)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a.pdf", chunks[0].SourceDocument)
	assert.Equal(t, "b.pdf", chunks[1].SourceDocument)
}

func TestChunkerPositionsAreContiguous(t *testing.T) {
	c := NewSemanticChunker(32)

	para := strings.Repeat("one sentence here. ", 40)
	units := []models.ContentUnit{
		{Text: para, SourceDocument: "long.pdf"},
		{Text: "short trailing unit", SourceDocument: "long.pdf"},
	}

	chunks, err := c.Chunk(units)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2, "a long unit must split into several chunks")

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Position)
		assert.NotEmpty(t, ch.Text)
		assert.Equal(t, ch.Text, strings.TrimSpace(ch.Text))
		assert.Positive(t, ch.TokenCount)
	}
}

func TestChunkerSkipsEmptyUnits(t *testing.T) {
	c := NewSemanticChunker(512)

	chunks, err := c.Chunk([]models.ContentUnit{
		{Text: "   ", SourceDocument: "a.pdf"},
		{Text: "", SourceDocument: "a.pdf"},
		{Text: "real content", SourceDocument: "a.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "real content", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Position)
}

func TestChunkerNoUnits(t *testing.T) {
	c := NewSemanticChunker(512)
	chunks, err := c.Chunk(nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestApproxTokens(t *testing.T) {
	assert.Equal(t, 0, approxTokens(""))
	assert.Equal(t, 1, approxTokens("abc"))
	assert.Equal(t, 1, approxTokens("abcd"))
	assert.Equal(t, 2, approxTokens("abcde"))
}
