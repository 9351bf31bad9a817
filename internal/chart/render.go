package chart

import "github.com/seenimoa/skillchart/pkg/models"

// Render lays out updates and serializes the chart. It returns "" when no
// update has a plottable score; callers fall back to a stored image or a
// "no chart" notice.
func Render(updates []models.ProgressUpdate, mode Mode) string {
	g := Layout(updates, mode)
	if g.Empty {
		return ""
	}
	return Serialize(g)
}

// Renderer renders charts with a fixed mode. The zero value uses
// NumericPreferred.
type Renderer struct {
	Mode Mode
}

// Render renders one skill's updates.
func (r Renderer) Render(updates []models.ProgressUpdate) string {
	return Render(updates, r.Mode)
}
