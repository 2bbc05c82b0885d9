package pdfdoc

import (
	"context"
	"math"

	"github.com/efsora/ai-service/internal/core"
)

// LayoutTableDetector finds table-like regions from line geometry alone: runs
// of consecutive multi-column lines whose columns line up vertically. It is a
// layout heuristic, not a parser; the reconstructed table content itself comes
// from the vision model. Detection never duplicates page prose: callers use
// the returned rects only to exclude blocks from the page-text unit.
type LayoutTableDetector struct {
	// MinLines is the minimum run of aligned multi-column lines forming a
	// table region.
	MinLines int
	// MinColumns is the minimum span count for a line to look tabular.
	MinColumns int
	// AlignTolerance is the max horizontal drift (points) between column
	// starts of consecutive rows.
	AlignTolerance float64
}

func NewLayoutTableDetector() *LayoutTableDetector {
	return &LayoutTableDetector{MinLines: 2, MinColumns: 3, AlignTolerance: 6}
}

func (d *LayoutTableDetector) DetectTables(ctx context.Context, lines []core.TextLine) ([]core.Rect, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		regions []core.Rect
		run     []core.TextLine
	)
	flush := func() {
		if len(run) >= d.MinLines {
			regions = append(regions, unionRect(run))
		}
		run = nil
	}

	for _, ln := range lines {
		if len(ln.Spans) < d.MinColumns {
			flush()
			continue
		}
		if len(run) > 0 && d.alignedColumns(run[len(run)-1], ln) < 2 {
			flush()
		}
		run = append(run, ln)
	}
	flush()
	return regions, nil
}

// alignedColumns counts column starts shared by two lines within tolerance.
func (d *LayoutTableDetector) alignedColumns(a, b core.TextLine) int {
	n := 0
	for _, sa := range a.Spans {
		for _, sb := range b.Spans {
			if math.Abs(sa.Rect.X0-sb.Rect.X0) <= d.AlignTolerance {
				n++
				break
			}
		}
	}
	return n
}

func unionRect(lines []core.TextLine) core.Rect {
	r := lines[0].Rect
	for _, ln := range lines[1:] {
		r = r.Union(ln.Rect)
	}
	return r
}

var _ core.TableDetector = (*LayoutTableDetector)(nil)
