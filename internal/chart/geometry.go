package chart

import (
	"github.com/seenimoa/skillchart/pkg/models"
	"github.com/seenimoa/skillchart/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Canvas
// ════════════════════════════════════════════════════════════════════

// Canvas holds the fixed dimensions of a progress chart.
type Canvas struct {
	Width        int
	Height       int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	MarginLeft   int
}

// ProgressCanvas is the canvas every progress chart is laid out on.
var ProgressCanvas = Canvas{
	Width:        600,
	Height:       240,
	MarginTop:    12,
	MarginRight:  12,
	MarginBottom: 28,
	MarginLeft:   40,
}

// plotArea returns the usable drawing area.
func (c Canvas) plotArea() (x, y, w, h float64) {
	return float64(c.MarginLeft), float64(c.MarginTop),
		float64(c.Width - c.MarginLeft - c.MarginRight),
		float64(c.Height - c.MarginTop - c.MarginBottom)
}

// Left, Right, Top and Bottom are the plot area edges in pixels.
func (c Canvas) Left() float64   { x, _, _, _ := c.plotArea(); return x }
func (c Canvas) Right() float64  { x, _, w, _ := c.plotArea(); return x + w }
func (c Canvas) Top() float64    { _, y, _, _ := c.plotArea(); return y }
func (c Canvas) Bottom() float64 { _, y, _, h := c.plotArea(); return y + h }

// yFor maps a percentage to a y pixel: 0 at the bottom, 100 at the top.
func (c Canvas) yFor(pct float64) float64 {
	_, _, _, h := c.plotArea()
	return c.Bottom() - pct/100*h
}

// xFor returns the x pixel of index i out of n points.
// A lone point sits at the right edge, where the most recent value belongs.
func (c Canvas) xFor(i, n int) float64 {
	x, _, w, _ := c.plotArea()
	if n <= 1 {
		return x + w
	}
	return x + float64(i)*w/float64(n-1)
}

// ════════════════════════════════════════════════════════════════════
// Geometry
// ════════════════════════════════════════════════════════════════════

// gridPercents are the horizontal gridline positions.
var gridPercents = []float64{0, 20, 40, 60, 80, 100}

// Point is the pixel position of one progress update. Invalid points keep
// their slot so neighbours stay at the right x.
type Point struct {
	X     float64
	Y     float64
	Valid bool
}

// GridLine is a horizontal gridline and its percentage label.
type GridLine struct {
	Y     float64
	Label string
}

// TargetLine is the dashed reference line for the most recent known target.
type TargetLine struct {
	Y       float64
	Percent float64
	Label   string
}

// Geometry is the renderer-agnostic layout of one chart.
// Empty is set when no update has a plottable score; nothing else is
// populated in that case.
type Geometry struct {
	Canvas     Canvas
	Grid       []GridLine
	Points     []Point
	Target     *TargetLine
	FirstLabel string
	LastLabel  string
	Empty      bool
}

// ValidPoints returns the plottable points in index order.
func (g Geometry) ValidPoints() []Point {
	pts := make([]Point, 0, len(g.Points))
	for _, p := range g.Points {
		if p.Valid {
			pts = append(pts, p)
		}
	}
	return pts
}

// Layout maps updates onto the progress canvas.
func Layout(updates []models.ProgressUpdate, mode Mode) Geometry {
	c := ProgressCanvas
	n := len(updates)

	points := make([]Point, n)
	valid := 0
	for i, u := range updates {
		points[i].X = c.xFor(i, n)
		pct, ok := Normalize(u.RawScore, mode)
		if !ok {
			continue
		}
		points[i].Y = c.yFor(pct)
		points[i].Valid = true
		valid++
	}
	if valid == 0 {
		return Geometry{Canvas: c, Empty: true}
	}

	g := Geometry{
		Canvas:     c,
		Grid:       make([]GridLine, len(gridPercents)),
		Points:     points,
		Target:     latestTarget(c, updates, mode),
		FirstLabel: utils.FormatDate(updates[0].RecordedAt),
		LastLabel:  utils.FormatDate(updates[n-1].RecordedAt),
	}
	for i, p := range gridPercents {
		g.Grid[i] = GridLine{Y: c.yFor(p), Label: FormatPercent(p) + "%"}
	}
	return g
}

// latestTarget scans from the newest update back and returns the first
// target that normalizes.
func latestTarget(c Canvas, updates []models.ProgressUpdate, mode Mode) *TargetLine {
	for i := len(updates) - 1; i >= 0; i-- {
		pct, ok := Normalize(updates[i].RawTarget, mode)
		if !ok {
			continue
		}
		return &TargetLine{
			Y:       c.yFor(pct),
			Percent: pct,
			Label:   "Target " + FormatPercent(pct) + "%",
		}
	}
	return nil
}

