package ingestion_engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"code.sajari.com/docconv"

	"github.com/efsora/ai-service/internal/core"
	"github.com/efsora/ai-service/internal/models"
)

// DocumentIngestor turns one document into its ordered ContentUnit list. For
// PDFs it runs the table/text extractor and then the image extractor over the
// same open document with one shared captioner; plain-text and office formats
// collapse to a single page-text unit.
type DocumentIngestor struct {
	engine core.PDFEngine
	tables *TableTextExtractor
	images *ImageExtractor
}

func NewDocumentIngestor(engine core.PDFEngine, tables *TableTextExtractor, images *ImageExtractor) *DocumentIngestor {
	return &DocumentIngestor{engine: engine, tables: tables, images: images}
}

// IngestFile extracts all content units of a single document. Order is
// assigned here, once, over the concatenated result: page and table units in
// reading order first, image units appended after (images are a second
// discovery pass; only within-kind ordering matters for retrieval).
func (i *DocumentIngestor) IngestFile(ctx context.Context, path string) ([]models.ContentUnit, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("document not found at %q: %w", path, err)
	}

	var (
		units []models.ContentUnit
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		units, err = i.ingestPDF(ctx, path)
	case ".txt":
		units, err = ingestPlainText(path)
	case ".docx", ".doc", ".odt", ".rtf", ".html", ".htm":
		units, err = ingestWithDocconv(path)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return nil, err
	}

	for idx := range units {
		units[idx].Order = idx
	}
	return units, nil
}

func (i *DocumentIngestor) ingestPDF(ctx context.Context, path string) ([]models.ContentUnit, error) {
	doc, err := i.engine.Open(path)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	units, err := i.tables.Extract(ctx, doc, path)
	if err != nil {
		return nil, fmt.Errorf("extract text/tables: %w", err)
	}

	imageUnits, err := i.images.Extract(ctx, doc, path)
	if err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	return append(units, imageUnits...), nil
}

func ingestPlainText(path string) ([]models.ContentUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []models.ContentUnit{{
		Kind:           models.UnitPageText,
		Text:           text,
		SourceDocument: path,
		Page:           1,
	}}, nil
}

func ingestWithDocconv(path string) ([]models.ContentUnit, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: docconv cannot parse %s: %v", core.ErrUnsupportedFileType, filepath.Ext(path), err)
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return nil, nil
	}
	return []models.ContentUnit{{
		Kind:           models.UnitPageText,
		Text:           text,
		SourceDocument: path,
		Page:           1,
	}}, nil
}

// IngestDir ingests every supported document under dir. Documents fail
// independently: an error is logged, counted, and the batch continues with an
// empty contribution from that document.
func (i *DocumentIngestor) IngestDir(ctx context.Context, dir string) (models.IngestReport, []models.ContentUnit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return models.IngestReport{}, nil, fmt.Errorf("read data dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt", ".docx", ".doc", ".odt", ".rtf", ".html", ".htm":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	var (
		report models.IngestReport
		all    []models.ContentUnit
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, all, err
		}
		units, err := i.IngestFile(ctx, path)
		if err != nil {
			log.Printf("ingest: document %s failed, continuing batch: %v", path, err)
			report.Failed++
			report.FailedDocs = append(report.FailedDocs, path)
			continue
		}
		report.Processed++
		report.Units += len(units)
		all = append(all, units...)
	}

	log.Printf("ingest: batch done, %d processed, %d failed, %d units", report.Processed, report.Failed, report.Units)
	return report, all, nil
}
