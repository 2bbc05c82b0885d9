package ingestion_engine

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/efsora/ai-service/internal/core"
)

// fakePage is the per-page content served by fakePDF.
type fakePage struct {
	text   string
	lines  []core.TextLine
	blocks []core.TextBlock
	images []core.EmbeddedImage
}

type fakePDF struct {
	pages  []fakePage
	closed bool
}

func (f *fakePDF) NumPages() int { return len(f.pages) }

func (f *fakePDF) PageText(page int) (string, error) {
	return f.pages[page].text, nil
}

func (f *fakePDF) PageLines(page int) ([]core.TextLine, error) {
	return f.pages[page].lines, nil
}

func (f *fakePDF) PageBlocks(page int) ([]core.TextBlock, error) {
	return f.pages[page].blocks, nil
}

func (f *fakePDF) RenderPage(page int, zoom float64) ([]byte, error) {
	return []byte(fmt.Sprintf("render-%d", page)), nil
}

func (f *fakePDF) PageImages(page int) ([]core.EmbeddedImage, error) {
	return f.pages[page].images, nil
}

func (f *fakePDF) Close() error {
	f.closed = true
	return nil
}

type fakeEngine struct {
	docs map[string]*fakePDF
}

func (e *fakeEngine) Open(path string) (core.PDFDocument, error) {
	doc, ok := e.docs[path]
	if !ok {
		return nil, fmt.Errorf("no such document %s", path)
	}
	return doc, nil
}

type visionCall struct {
	prompt string
	images []core.ImageInput
}

// fakeVision answers every call with reply (or err) and records the calls.
type fakeVision struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []visionCall
}

func (v *fakeVision) GenerateVision(_ context.Context, prompt string, images []core.ImageInput) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, visionCall{prompt: prompt, images: images})
	if v.err != nil {
		return "", v.err
	}
	return v.reply, nil
}

// fakeEmbedder derives each vector from its text's length, so result order is
// checkable regardless of batch completion order.
type fakeEmbedder struct {
	err error
	dim int
}

func (e *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	dim := e.dim
	if dim <= 0 {
		dim = 3
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec := make([]float32, dim)
		vec[0] = float32(len(t))
		out[i] = vec
	}
	return out, nil
}

func (e *fakeEmbedder) ModelName() string { return "fake-embedder" }

type ensuredCollection struct {
	name string
	dim  int
}

type fakeIndex struct {
	mu        sync.Mutex
	ensureErr error
	insertErr error
	ensured   []ensuredCollection
	inserted  map[string][]core.VectorRecord
	hits      []core.SearchHit
}

func (f *fakeIndex) CollectionExists(context.Context, string) (bool, error) { return false, nil }

func (f *fakeIndex) EnsureCollection(_ context.Context, name string, dim int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, ensuredCollection{name: name, dim: dim})
	return nil
}

func (f *fakeIndex) Insert(_ context.Context, collection string, rec core.VectorRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	if f.inserted == nil {
		f.inserted = make(map[string][]core.VectorRecord)
	}
	f.inserted[collection] = append(f.inserted[collection], rec)
	return fmt.Sprintf("id-%d", len(f.inserted[collection])), nil
}

func (f *fakeIndex) Search(context.Context, string, []float32, int) ([]core.SearchHit, error) {
	return f.hits, nil
}

func (f *fakeIndex) Close() error { return nil }

// fakeStorage materializes a canned payload as a real temp file so download
// consumers and cleanup paths run against the filesystem.
type fakeStorage struct {
	content     []byte
	ext         string
	downloadErr error
	tempPath    string
}

func (s *fakeStorage) UploadFile(context.Context, string, []byte, string) (string, error) {
	return "https://storage.example/fake", nil
}

func (s *fakeStorage) GetFile(context.Context, string) ([]byte, error) {
	return s.content, nil
}

func (s *fakeStorage) DownloadToTemp(_ context.Context, key string) (string, error) {
	if s.downloadErr != nil {
		return "", s.downloadErr
	}
	f, err := os.CreateTemp("", "fake_download_*"+s.ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(s.content); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	s.tempPath = f.Name()
	return f.Name(), nil
}
