package ingestion_engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsora/ai-service/internal/core"
)

func TestDescribeImageTrimsOutput(t *testing.T) {
	vision := &fakeVision{reply: "  a bar chart of revenue \n"}
	c := NewCaptioner(vision)

	out, err := c.DescribeImage(context.Background(), []byte("img"), "png")
	require.NoError(t, err)
	assert.Equal(t, "a bar chart of revenue", out)

	require.Len(t, vision.calls, 1)
	require.Len(t, vision.calls[0].images, 1)
	assert.Equal(t, "png", vision.calls[0].images[0].Format)
}

func TestReconstructTablesEmptyBatch(t *testing.T) {
	vision := &fakeVision{reply: "never called"}
	c := NewCaptioner(vision)

	out, err := c.ReconstructTables(context.Background(), nil, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, vision.calls)
}

func TestReconstructTablesPromptCarriesPageRange(t *testing.T) {
	vision := &fakeVision{reply: "## Table: X (Pages: 6-10)"}
	c := NewCaptioner(vision)

	pages := [][]byte{[]byte("p6"), []byte("p7")}
	out, err := c.ReconstructTables(context.Background(), pages, 6, 10)
	require.NoError(t, err)
	assert.Equal(t, "## Table: X (Pages: 6-10)", out)

	require.Len(t, vision.calls, 1)
	assert.Contains(t, vision.calls[0].prompt, "(Pages: 6-10)")
	require.Len(t, vision.calls[0].images, 2)
	for _, img := range vision.calls[0].images {
		assert.Equal(t, "png", img.Format)
	}
}

func TestReconstructTablesError(t *testing.T) {
	c := NewCaptioner(&fakeVision{err: assert.AnError})
	_, err := c.ReconstructTables(context.Background(), [][]byte{[]byte("p")}, 1, 1)
	require.Error(t, err)
}

var _ core.VisionModel = (*fakeVision)(nil)
