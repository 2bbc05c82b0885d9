package ingestion_engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/efsora/ai-service/internal/core"
)

const describeImagePrompt = "You are an expert technical document explainer. " +
	"Describe this image in detail. " +
	"Explain what is shown, the structure, any diagrams, tables, " +
	"axes, legends, and the main message. " +
	"Focus on what is actually visible; do not invent content."

const reconstructTablesPrompt = `You are an expert data extraction system that identifies and converts tables and chart-like data
from visual page images into clean Markdown tables.

GOAL:
- Find ALL tables in the provided page images.
- Convert these tables into Markdown table format.
- If a table is split across multiple pages, merge all parts into a SINGLE logical table.

RULES:
- Your output must be PLAIN TEXT containing ONLY Markdown headings and tables.
- For each table, use the following structure:

## Table: <short title> (Pages: %d-%d)

| Column 1 | Column 2 | Column 3 |
|----------|----------|----------|
| ...      | ...      | ...      |

- If identical or very similar column headers appear again on later pages,
  treat those as CONTINUATIONS of the same table.
- In that case:
  - Merge all rows into a SINGLE Markdown table.
  - Write the header row (column names) ONLY ONCE at the top.
  - Ignore repeated header rows on subsequent pages.
- Preserve the visual row order across pages.
- If there are multiple independent tables, create a separate "## Table: ..." heading and Markdown table for each.
- If there is chart-like data that can be tabularized, convert it into a Markdown table if possible.
  If not, you may use:

## Chart: <short title> (Pages: %d-%d)
- Item 1: ...
- Item 2: ...

CONSTRAINTS:
- Do NOT output explanations, reasoning, or natural language commentary.
- Do NOT output JSON.
- Output ONLY Markdown headings, Markdown tables, and (if needed) bullet lists for charts.`

// Captioner exposes the two narrow vision operations the extractors need:
// describing a single image and reconstructing tables from a batch of page
// images. Stateless besides the model it wraps; one instance is shared by all
// extractors of an ingestion run.
type Captioner struct {
	vision core.VisionModel
}

func NewCaptioner(vision core.VisionModel) *Captioner {
	return &Captioner{vision: vision}
}

// DescribeImage returns a natural-language description of one image. Any
// backend error propagates as a captioning failure; the caller decides
// whether to skip or abort.
func (c *Captioner) DescribeImage(ctx context.Context, imageBytes []byte, ext string) (string, error) {
	out, err := c.vision.GenerateVision(ctx, describeImagePrompt, []core.ImageInput{
		{Data: imageBytes, Format: ext},
	})
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ReconstructTables sends a whole batch of rendered page images in one call
// and returns the model's markdown, or "" when it found nothing to extract.
// Batching is what makes cross-page table continuation detectable; it cannot
// be done per page in isolation.
func (c *Captioner) ReconstructTables(ctx context.Context, pageImages [][]byte, pageStart, pageEnd int) (string, error) {
	if len(pageImages) == 0 {
		return "", nil
	}
	images := make([]core.ImageInput, 0, len(pageImages))
	for _, img := range pageImages {
		images = append(images, core.ImageInput{Data: img, Format: "png"})
	}
	prompt := fmt.Sprintf(reconstructTablesPrompt, pageStart, pageEnd, pageStart, pageEnd)

	out, err := c.vision.GenerateVision(ctx, prompt, images)
	if err != nil {
		return "", fmt.Errorf("reconstruct tables for pages %d-%d: %w", pageStart, pageEnd, err)
	}
	return strings.TrimSpace(out), nil
}
