// Package renderadapter is the narrow boundary between a cell grid and
// whatever draws it: it hands back rows as plain UTF-8 text and the
// pending dirty interval, and imports neither a font, a glyph atlas,
// nor a window toolkit.
package renderadapter

import (
	"strings"

	"github.com/corvidterm/termcore/cellgrid"
	"github.com/corvidterm/termcore/dirty"
)

// RowAsUTF8 renders grid row y as a single UTF-8 string, one rune per
// cell, trailing spaces included.
func RowAsUTF8(g *cellgrid.Grid, y int) string {
	var b strings.Builder
	cols := g.Cols()
	b.Grow(cols)
	for x := 0; x < cols; x++ {
		b.WriteRune(g.CellAt(x, y).Codepoint)
	}
	return b.String()
}

// DirtyInterval drains tracker's pending interval, reporting whether
// any rows were dirty.
func DirtyInterval(tracker *dirty.Tracker) (lo, hi int, ok bool) {
	iv := tracker.Consume()
	if iv.Empty() {
		return 0, 0, false
	}
	return *iv.Smallest, *iv.Largest, true
}
