package pdfdoc

import (
	"sort"
	"strings"

	"github.com/efsora/ai-service/internal/core"
)

// Span is one positioned run of glyphs as reported by the PDF content stream.
// Y is the text baseline; the page origin is bottom-left.
type Span struct {
	X        float64
	Y        float64
	W        float64
	FontSize float64
	Text     string
}

const (
	// yTolerance groups spans whose baselines differ by less than this many
	// points onto the same visual line.
	yTolerance = 2.0

	// columnGapFactor times the font size is the horizontal gap that splits a
	// line into separate column spans.
	columnGapFactor = 1.5

	// wordGapFactor times the font size is the gap treated as a word space
	// inside one span.
	wordGapFactor = 0.2

	// blockGapFactor times the line height is the vertical gap that splits
	// consecutive lines into separate blocks.
	blockGapFactor = 1.8
)

// BuildLines groups raw spans into visual lines ordered top to bottom, and
// splits each line into column spans on significant horizontal gaps.
func BuildLines(spans []Span) []core.TextLine {
	var in []Span
	for _, s := range spans {
		if strings.TrimSpace(s.Text) != "" {
			in = append(in, s)
		}
	}
	if len(in) == 0 {
		return nil
	}

	// Top of page first: PDF y grows upward.
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Y != in[j].Y {
			return in[i].Y > in[j].Y
		}
		return in[i].X < in[j].X
	})

	var lines []core.TextLine
	var current []Span
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, buildLine(current))
			current = nil
		}
	}
	for _, s := range in {
		if len(current) > 0 && current[0].Y-s.Y > yTolerance {
			flush()
		}
		current = append(current, s)
	}
	flush()
	return lines
}

func buildLine(spans []Span) core.TextLine {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].X < spans[j].X })

	fs := spans[0].FontSize
	if fs <= 0 {
		fs = 10
	}

	var (
		line  core.TextLine
		b     strings.Builder
		rect  core.Rect
		start = true
	)
	flushSpan := func() {
		if b.Len() == 0 {
			return
		}
		line.Spans = append(line.Spans, core.TextSpan{Rect: rect, Text: b.String()})
		b.Reset()
	}

	var prevEnd float64
	for _, s := range spans {
		r := spanRect(s, fs)
		gap := s.X - prevEnd
		switch {
		case start:
			rect = r
			start = false
		case gap > columnGapFactor*fs:
			flushSpan()
			rect = r
		default:
			if gap > wordGapFactor*fs {
				b.WriteByte(' ')
			}
			rect = rect.Union(r)
		}
		b.WriteString(s.Text)
		prevEnd = s.X + s.W
	}
	flushSpan()

	line.Rect = line.Spans[0].Rect
	for _, sp := range line.Spans[1:] {
		line.Rect = line.Rect.Union(sp.Rect)
	}
	return line
}

func spanRect(s Span, fallbackFS float64) core.Rect {
	fs := s.FontSize
	if fs <= 0 {
		fs = fallbackFS
	}
	return core.Rect{
		X0: s.X,
		Y0: s.Y - 0.25*fs,
		X1: s.X + s.W,
		Y1: s.Y + fs,
	}
}

// BuildBlocks merges consecutive lines into paragraph blocks, breaking on
// vertical gaps larger than blockGapFactor line heights.
func BuildBlocks(lines []core.TextLine) []core.TextBlock {
	if len(lines) == 0 {
		return nil
	}

	var blocks []core.TextBlock
	var (
		texts []string
		rect  core.Rect
	)
	flush := func() {
		if len(texts) > 0 {
			blocks = append(blocks, core.TextBlock{Rect: rect, Text: strings.Join(texts, "\n")})
			texts = nil
		}
	}

	var prev core.TextLine
	for i, ln := range lines {
		if i > 0 {
			height := prev.Rect.Y1 - prev.Rect.Y0
			gap := prev.Rect.Y0 - ln.Rect.Y1
			if gap > blockGapFactor*height {
				flush()
			}
		}
		if len(texts) == 0 {
			rect = ln.Rect
		} else {
			rect = rect.Union(ln.Rect)
		}
		texts = append(texts, lineText(ln))
		prev = ln
	}
	flush()
	return blocks
}

func lineText(ln core.TextLine) string {
	parts := make([]string, 0, len(ln.Spans))
	for _, sp := range ln.Spans {
		parts = append(parts, sp.Text)
	}
	return strings.Join(parts, " ")
}
