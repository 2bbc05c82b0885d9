package ingestion_engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/models"
)

// ImageExtractor pulls embedded raster images from a PDF, deduplicates them
// by content hash, persists unique images to the output directory and turns
// each into an image ContentUnit captioned by the vision model.
type ImageExtractor struct {
	captioner    *Captioner
	outputDir    string
	snippetLimit int
}

// NewImageExtractor validates the output directory up front: it must be
// absolute and creatable, otherwise ingestion fails immediately rather than
// half way through a document.
func NewImageExtractor(captioner *Captioner, outputDir string, snippetLimit int) (*ImageExtractor, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("image output dir is empty")
	}
	if !filepath.IsAbs(outputDir) {
		return nil, fmt.Errorf("image output dir must be an absolute path (got %q)", outputDir)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create image output dir %q: %w", outputDir, err)
	}
	if snippetLimit <= 0 {
		snippetLimit = 300
	}
	return &ImageExtractor{captioner: captioner, outputDir: outputDir, snippetLimit: snippetLimit}, nil
}

// Extract walks the document page by page and returns one unit per unique
// image. The dedup set lives for this call only: the same bytes repeated on
// later pages of this document are skipped, while other documents are
// unaffected.
func (e *ImageExtractor) Extract(ctx context.Context, doc core.PDFDocument, sourcePath string) ([]models.ContentUnit, error) {
	seen := make(map[string]struct{})
	var units []models.ContentUnit

	for page := 0; page < doc.NumPages(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		snippet := e.pageSnippet(doc, page)

		images, err := doc.PageImages(page)
		if err != nil {
			return nil, fmt.Errorf("page %d images: %w", page+1, err)
		}

		for idx, img := range images {
			if len(img.Data) == 0 {
				// Corrupted or empty stream: skip silently.
				continue
			}

			hash := sha256.Sum256(img.Data)
			hashHex := hex.EncodeToString(hash[:])
			if _, dup := seen[hashHex]; dup {
				continue
			}
			seen[hashHex] = struct{}{}

			imagePath := filepath.Join(e.outputDir, imageName(sourcePath, page, idx, img.Ext))
			if err := os.WriteFile(imagePath, img.Data, 0o644); err != nil {
				return nil, fmt.Errorf("save image %s: %w", imagePath, err)
			}

			caption, err := e.captioner.DescribeImage(ctx, img.Data, img.Ext)
			if err != nil {
				return nil, fmt.Errorf("caption image on page %d: %w", page+1, err)
			}

			units = append(units, models.ContentUnit{
				Kind:            models.UnitImage,
				Text:            caption,
				SourceDocument:  sourcePath,
				Page:            page + 1,
				ImagePath:       imagePath,
				ImageHash:       hashHex,
				ImageWidth:      img.Width,
				ImageHeight:     img.Height,
				PageTextSnippet: snippet,
			})
		}
	}
	return units, nil
}

// pageSnippet is auxiliary cross-reference context only; the page's full
// prose is carried by the page-text unit, not here.
func (e *ImageExtractor) pageSnippet(doc core.PDFDocument, page int) string {
	text, err := doc.PageText(page)
	if err != nil {
		return ""
	}
	text = strings.TrimSpace(text)
	if len(text) > e.snippetLimit {
		return text[:e.snippetLimit]
	}
	return text
}

func imageName(sourcePath string, pageIdx, imageIdx int, ext string) string {
	if ext == "" {
		ext = "png"
	}
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return fmt.Sprintf("%s_p%d_img%d.%s", stem, pageIdx+1, imageIdx+1, ext)
}
