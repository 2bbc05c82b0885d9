package pdfdoc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"

	_ "image/jpeg"

	"github.com/gen2brain/go-fitz"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/efsora/ai-service/internal/core"
)

// Engine opens PDFs with the MuPDF-backed renderer plus a content-stream
// reader for positioned text.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) Open(path string) (core.PDFDocument, error) {
	return OpenDocument(path)
}

var _ core.PDFEngine = (*Engine)(nil)

// Document combines three views over one PDF file: MuPDF for rendering and
// plain text, the content-stream reader for positioned spans, and pdfcpu for
// embedded raster images.
type Document struct {
	fitzDoc *fitz.Document
	reader  *lpdf.Reader
	file    *os.File
	raw     []byte

	imagesByPage map[int][]core.EmbeddedImage
}

func OpenDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", path, err)
	}

	fitzDoc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	file, reader, err := lpdf.Open(path)
	if err != nil {
		_ = fitzDoc.Close()
		return nil, fmt.Errorf("parse pdf %s: %w", path, err)
	}

	return &Document{fitzDoc: fitzDoc, reader: reader, file: file, raw: raw}, nil
}

func (d *Document) Close() error {
	var firstErr error
	if d.fitzDoc != nil {
		if err := d.fitzDoc.Close(); err != nil {
			firstErr = err
		}
	}
	if d.file != nil {
		if err := d.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (d *Document) NumPages() int { return d.fitzDoc.NumPage() }

func (d *Document) PageText(page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}
	text, err := d.fitzDoc.Text(page)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", page+1, err)
	}
	return text, nil
}

func (d *Document) PageLines(page int) ([]core.TextLine, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	p := d.reader.Page(page + 1) // content-stream reader is 1-based
	if p.V.IsNull() {
		return nil, nil
	}

	content := p.Content()
	spans := make([]Span, 0, len(content.Text))
	for _, t := range content.Text {
		spans = append(spans, Span{
			X:        t.X,
			Y:        t.Y,
			W:        t.W,
			FontSize: t.FontSize,
			Text:     t.S,
		})
	}
	return BuildLines(spans), nil
}

func (d *Document) PageBlocks(page int) ([]core.TextBlock, error) {
	lines, err := d.PageLines(page)
	if err != nil {
		return nil, err
	}
	return BuildBlocks(lines), nil
}

// RenderPage rasterizes the page to PNG. zoom 1 is 72 dpi.
func (d *Document) RenderPage(page int, zoom float64) ([]byte, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if zoom <= 0 {
		zoom = 1
	}
	img, err := d.fitzDoc.ImageDPI(page, 72*zoom)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", page+1, err)
	}
	return buf.Bytes(), nil
}

func (d *Document) PageImages(page int) ([]core.EmbeddedImage, error) {
	if err := d.checkPage(page); err != nil {
		return nil, err
	}
	if d.imagesByPage == nil {
		if err := d.extractAllImages(); err != nil {
			return nil, err
		}
	}
	return d.imagesByPage[page], nil
}

// extractAllImages walks the whole file once and caches embedded raster
// images per page.
func (d *Document) extractAllImages() error {
	d.imagesByPage = make(map[int][]core.EmbeddedImage)

	pageImages, err := api.ExtractImagesRaw(bytes.NewReader(d.raw), nil, model.NewDefaultConfiguration())
	if err != nil {
		return fmt.Errorf("extract embedded images: %w", err)
	}

	for _, byObj := range pageImages {
		for _, img := range byObj {
			data, err := io.ReadAll(img)
			if err != nil {
				// Corrupt stream is not a hard failure; skip the image.
				log.Printf("pdfdoc: skipping unreadable image %s on page %d: %v", img.Name, img.PageNr, err)
				continue
			}
			width, height := imageDims(data)
			pageIdx := img.PageNr - 1
			d.imagesByPage[pageIdx] = append(d.imagesByPage[pageIdx], core.EmbeddedImage{
				Data:   data,
				Ext:    img.FileType,
				Width:  width,
				Height: height,
			})
		}
	}
	return nil
}

func imageDims(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

func (d *Document) checkPage(page int) error {
	if page < 0 || page >= d.NumPages() {
		return fmt.Errorf("page %d out of range (document has %d pages)", page+1, d.NumPages())
	}
	return nil
}

var _ core.PDFDocument = (*Document)(nil)
