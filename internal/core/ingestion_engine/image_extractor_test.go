package ingestion_engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/models"
)

func newImageExtractor(t *testing.T, vision *fakeVision) (*ImageExtractor, string) {
	t.Helper()
	dir := t.TempDir()
	ex, err := NewImageExtractor(NewCaptioner(vision), dir, 300)
	require.NoError(t, err)
	return ex, dir
}

func TestNewImageExtractorRejectsRelativeDir(t *testing.T) {
	_, err := NewImageExtractor(NewCaptioner(&fakeVision{}), "relative/dir", 300)
	require.Error(t, err)

	_, err = NewImageExtractor(NewCaptioner(&fakeVision{}), "", 300)
	require.Error(t, err)
}

func TestImageExtractorDeduplicatesAcrossPages(t *testing.T) {
	logo := []byte("logo-bytes")
	chart := []byte("chart-bytes")
	doc := &fakePDF{pages: []fakePage{
		{text: "first page", images: []core.EmbeddedImage{
			{Data: logo, Ext: "png", Width: 10, Height: 10},
			{Data: chart, Ext: "jpg", Width: 20, Height: 30},
		}},
		{text: "second page", images: []core.EmbeddedImage{
			{Data: logo, Ext: "png", Width: 10, Height: 10},
		}},
	}}

	vision := &fakeVision{reply: "a description"}
	ex, dir := newImageExtractor(t, vision)

	units, err := ex.Extract(context.Background(), doc, "/docs/report.pdf")
	require.NoError(t, err)
	require.Len(t, units, 2, "repeated logo on page 2 must be skipped")

	assert.Equal(t, models.UnitImage, units[0].Kind)
	assert.Equal(t, "a description", units[0].Text)
	assert.Equal(t, 1, units[0].Page)
	assert.Equal(t, filepath.Join(dir, "report_p1_img1.png"), units[0].ImagePath)
	assert.Equal(t, filepath.Join(dir, "report_p1_img2.jpg"), units[1].ImagePath)
	assert.NotEqual(t, units[0].ImageHash, units[1].ImageHash)
	assert.Equal(t, 20, units[1].ImageWidth)
	assert.Equal(t, 30, units[1].ImageHeight)

	// Only the unique images hit the vision model.
	assert.Len(t, vision.calls, 2)

	saved, err := os.ReadFile(units[0].ImagePath)
	require.NoError(t, err)
	assert.Equal(t, logo, saved)
}

func TestImageExtractorSkipsEmptyImageData(t *testing.T) {
	doc := &fakePDF{pages: []fakePage{
		{images: []core.EmbeddedImage{{Data: nil, Ext: "png"}}},
	}}
	vision := &fakeVision{reply: "unused"}
	ex, _ := newImageExtractor(t, vision)

	units, err := ex.Extract(context.Background(), doc, "/docs/empty.pdf")
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.Empty(t, vision.calls)
}

func TestImageExtractorSnippetIsCapped(t *testing.T) {
	long := strings.Repeat("a", 1000)
	doc := &fakePDF{pages: []fakePage{
		{text: long, images: []core.EmbeddedImage{{Data: []byte("img"), Ext: "png"}}},
	}}
	ex, _ := newImageExtractor(t, &fakeVision{reply: "desc"})

	units, err := ex.Extract(context.Background(), doc, "/docs/long.pdf")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Len(t, units[0].PageTextSnippet, 300)
}

func TestImageExtractorCaptionFailureAborts(t *testing.T) {
	doc := &fakePDF{pages: []fakePage{
		{images: []core.EmbeddedImage{{Data: []byte("img"), Ext: "png"}}},
	}}
	ex, _ := newImageExtractor(t, &fakeVision{err: assert.AnError})

	_, err := ex.Extract(context.Background(), doc, "/docs/fail.pdf")
	require.Error(t, err)
}
