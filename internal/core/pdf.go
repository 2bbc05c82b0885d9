package core

import "context"

// Rect is an axis-aligned bounding box in page coordinates. The origin
// convention is whatever the producing PDFDocument uses; consumers only ever
// compare geometry coming from the same document.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether the point (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return minf(r.X0, r.X1) <= x && x <= maxf(r.X0, r.X1) &&
		minf(r.Y0, r.Y1) <= y && y <= maxf(r.Y0, r.Y1)
}

// Center returns the midpoint of r.
func (r Rect) Center() (float64, float64) {
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// Union returns the smallest rect covering r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: minf(r.X0, o.X0),
		Y0: minf(r.Y0, o.Y0),
		X1: maxf(r.X1, o.X1),
		Y1: maxf(r.Y1, o.Y1),
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// TextSpan is a horizontally contiguous run of text within a line. Spans on
// the same line are separated by significant whitespace (column gaps).
type TextSpan struct {
	Rect Rect
	Text string
}

// TextLine is one visual line of page text with its column spans.
type TextLine struct {
	Rect  Rect
	Spans []TextSpan
}

// TextBlock is one layout-detected block of page text with its bounding box.
type TextBlock struct {
	Rect Rect
	Text string
}

// EmbeddedImage is one raster image embedded in a page.
type EmbeddedImage struct {
	Data   []byte
	Ext    string // file extension without dot, e.g. "png"
	Width  int
	Height int
}

// PDFDocument is a page-addressable view over one open PDF. Pages are
// zero-based. Implementations are not required to be safe for concurrent use.
type PDFDocument interface {
	NumPages() int
	PageText(page int) (string, error)
	PageLines(page int) ([]TextLine, error)
	PageBlocks(page int) ([]TextBlock, error)
	RenderPage(page int, zoom float64) ([]byte, error) // PNG bytes
	PageImages(page int) ([]EmbeddedImage, error)
	Close() error
}

// PDFEngine opens PDF files.
type PDFEngine interface {
	Open(path string) (PDFDocument, error)
}

// TableDetector locates table regions on a page given its layout lines.
// Detection failure is fail-open: callers treat an error as "no tables".
type TableDetector interface {
	DetectTables(ctx context.Context, lines []TextLine) ([]Rect, error)
}
