package renderadapter

import (
	"testing"

	"github.com/corvidterm/termcore/cellgrid"
	"github.com/corvidterm/termcore/dirty"
)

func TestRowAsUTF8(t *testing.T) {
	g := cellgrid.New(5, 2)
	for i, c := range "Hi" {
		g.SetCell(i, 0, cellgrid.Cell{Codepoint: c, Fg: cellgrid.ColorWhite, Bg: cellgrid.ColorBlack})
	}
	got := RowAsUTF8(g, 0)
	want := "Hi   "
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDirtyIntervalDrainsTracker(t *testing.T) {
	tr := dirty.New()
	tr.Widen(2)
	tr.Widen(4)
	lo, hi, ok := DirtyInterval(tr)
	if !ok || lo != 2 || hi != 4 {
		t.Errorf("expected (2,4,true), got (%d,%d,%v)", lo, hi, ok)
	}
	_, _, ok = DirtyInterval(tr)
	if ok {
		t.Errorf("expected second drain to report no pending rows")
	}
}
