package chart

import (
	"fmt"
	"strings"
)

// Palette used by every progress chart.
const (
	bgColor     = "#ffffff"
	gridColor   = "#e8e8e8"
	textColor   = "#333333"
	axisColor   = "#999999"
	lineColor   = "#2196f3"
	areaColor   = "#2196f3"
	targetColor = "#ef5350"
	fontSize    = 11
)

// Serialize writes g as a standalone SVG element. It returns "" for empty
// geometry, and for any geometry without a valid point. The output has no
// external references and no scripts, and is byte-identical for identical
// geometry.
func Serialize(g Geometry) string {
	pts := g.ValidPoints()
	if g.Empty || len(pts) == 0 {
		return ""
	}

	c := g.Canvas
	left, right, top, bottom := c.Left(), c.Right(), c.Top(), c.Bottom()

	var sb strings.Builder
	sb.WriteString(svgHeader(c))

	// Background
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		c.Width, c.Height, bgColor))

	// Gridlines
	for _, gl := range g.Grid {
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
			left, gl.Y, right, gl.Y, gridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			left-5, gl.Y+4, fontSize-1, textColor, escapeXML(gl.Label)))
	}

	// Target
	if t := g.Target; t != nil {
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5" stroke-dasharray="6,4"/>`,
			left, t.Y, right, t.Y, targetColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			right-4, t.Y-4, fontSize-1, targetColor, escapeXML(t.Label)))
	}

	// Area under the series, closed down to the baseline
	area := make([]string, 0, len(pts)+2)
	area = append(area, coord(pts[0].X, bottom))
	for _, p := range pts {
		area = append(area, coord(p.X, p.Y))
	}
	area = append(area, coord(pts[len(pts)-1].X, bottom))
	sb.WriteString(fmt.Sprintf(`<polygon points="%s" fill="%s" fill-opacity="0.15" stroke="none"/>`,
		strings.Join(area, " "), areaColor))

	// Series line
	line := make([]string, len(pts))
	for i, p := range pts {
		line[i] = coord(p.X, p.Y)
	}
	sb.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round"/>`,
		strings.Join(line, " "), lineColor))

	// Markers
	for _, p := range pts {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s" stroke="%s" stroke-width="1.5"/>`,
			p.X, p.Y, bgColor, lineColor))
	}

	// Axes
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
		left, top, left, bottom, axisColor))
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1"/>`,
		left, bottom, right, bottom, axisColor))

	// First and last date only; anything in between would crowd the axis.
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="start">%s</text>`,
		left, bottom+18, fontSize-1, textColor, escapeXML(g.FirstLabel)))
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
		right, bottom+18, fontSize-1, textColor, escapeXML(g.LastLabel)))

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(c Canvas) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" role="img">`,
		c.Width, c.Height, c.Width, c.Height)
}

func coord(x, y float64) string {
	return fmt.Sprintf("%.1f,%.1f", x, y)
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
