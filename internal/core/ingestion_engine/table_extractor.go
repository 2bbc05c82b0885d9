package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/models"
)

// TableTextExtractor walks a PDF in fixed-size page batches, emitting one
// prose unit per page (with table regions cut out) and one markdown table
// unit per batch when the vision model reconstructs anything. Units are
// returned in reading order: the batch's page texts first, then its table.
type TableTextExtractor struct {
	captioner   *Captioner
	detector    core.TableDetector
	batchSize   int
	zoom        float64
	reconstruct bool
}

func NewTableTextExtractor(captioner *Captioner, detector core.TableDetector, batchSize int, zoom float64, reconstruct bool) *TableTextExtractor {
	if batchSize <= 0 {
		batchSize = 5
	}
	if zoom <= 0 {
		zoom = 3
	}
	return &TableTextExtractor{
		captioner:   captioner,
		detector:    detector,
		batchSize:   batchSize,
		zoom:        zoom,
		reconstruct: reconstruct,
	}
}

func (e *TableTextExtractor) Extract(ctx context.Context, doc core.PDFDocument, sourcePath string) ([]models.ContentUnit, error) {
	totalPages := doc.NumPages()

	// Render every page up front; the batch reconstruction calls need the
	// rasters later regardless.
	rendered := make([][]byte, 0, totalPages)
	if e.reconstruct {
		for page := 0; page < totalPages; page++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			img, err := doc.RenderPage(page, e.zoom)
			if err != nil {
				return nil, fmt.Errorf("render page %d: %w", page+1, err)
			}
			rendered = append(rendered, img)
		}
	}

	var units []models.ContentUnit

	for batchStart := 0; batchStart < totalPages; batchStart += e.batchSize {
		batchEnd := batchStart + e.batchSize
		if batchEnd > totalPages {
			batchEnd = totalPages
		}

		for page := batchStart; page < batchEnd; page++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			text, err := e.pageTextExcludingTables(ctx, doc, page)
			if err != nil {
				return nil, err
			}
			if text == "" {
				continue
			}
			units = append(units, models.ContentUnit{
				Kind:           models.UnitPageText,
				Text:           text,
				SourceDocument: sourcePath,
				Page:           page + 1,
			})
		}

		if !e.reconstruct {
			continue
		}
		markdown, err := e.captioner.ReconstructTables(ctx, rendered[batchStart:batchEnd], batchStart+1, batchEnd)
		if err != nil {
			// One failed batch must not sink the rest of the document; its
			// page-text units above already carry the prose.
			log.Printf("table extractor: reconstruction failed for pages %d-%d of %s: %v",
				batchStart+1, batchEnd, sourcePath, err)
			continue
		}
		if markdown == "" {
			continue
		}
		units = append(units, models.ContentUnit{
			Kind:           models.UnitTable,
			Text:           markdown,
			SourceDocument: sourcePath,
			PageStart:      batchStart + 1,
			PageEnd:        batchEnd,
			BatchSize:      e.batchSize,
		})
	}

	return units, nil
}

// pageTextExcludingTables concatenates the page's prose blocks, discarding a
// block whenever its center falls inside a detected table region so table
// content is never duplicated into the prose unit. Detector failure is
// fail-open: the whole page text survives.
func (e *TableTextExtractor) pageTextExcludingTables(ctx context.Context, doc core.PDFDocument, page int) (string, error) {
	blocks, err := doc.PageBlocks(page)
	if err != nil {
		return "", fmt.Errorf("page %d blocks: %w", page+1, err)
	}

	var tableRects []core.Rect
	if e.detector != nil {
		lines, err := doc.PageLines(page)
		if err == nil {
			tableRects, err = e.detector.DetectTables(ctx, lines)
		}
		if err != nil {
			log.Printf("table extractor: table detection failed on page %d, keeping full text: %v", page+1, err)
			tableRects = nil
		}
	}

	var kept []string
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		if blockInsideAny(b.Rect, tableRects) {
			continue
		}
		kept = append(kept, text)
	}
	return strings.Join(kept, "\n"), nil
}

func blockInsideAny(r core.Rect, regions []core.Rect) bool {
	cx, cy := r.Center()
	for _, region := range regions {
		if region.Contains(cx, cy) {
			return true
		}
	}
	return false
}
