package cellgrid

import "testing"

func small(cols, rows int) *Grid {
	return NewWithScrollback(cols, rows, 100)
}

// place mimics the GROUND printable path a vtparser would drive: place the
// glyph, then advance or defer-wrap.
func place(g *Grid, cp rune, w int) {
	g.PlaceGlyph(Cell{Codepoint: cp, Fg: ColorWhite, Bg: ColorBlack}, w)
	g.AdvanceOrWrap(w)
}

func TestNewGridDefaultCell(t *testing.T) {
	g := small(10, 5)
	c := g.CellAt(0, 0)
	if c.Codepoint != ' ' || c.Fg != ColorWhite || c.Bg != ColorBlack {
		t.Errorf("expected default cell, got %+v", c)
	}
}

func TestPlaceGlyphAdvancesCursor(t *testing.T) {
	g := small(10, 5)
	place(g, 'A', 1)
	x, y, onWrap := g.CursorXY()
	if x != 1 || y != 0 || onWrap {
		t.Errorf("expected cursor (1,0) no-wrap, got (%d,%d,%v)", x, y, onWrap)
	}
	if g.CellAt(0, 0).Codepoint != 'A' {
		t.Errorf("expected 'A' at (0,0)")
	}
}

func TestPlaceGlyphAtLastColumnSetsOnWrap(t *testing.T) {
	g := small(5, 3)
	for i := 0; i < 5; i++ {
		place(g, rune('a'+i), 1)
	}
	x, y, onWrap := g.CursorXY()
	if x != 4 || y != 0 || !onWrap {
		t.Errorf("expected cursor (4,0) onWrap=true, got (%d,%d,%v)", x, y, onWrap)
	}
}

func TestWideCharWritesSpacerCell(t *testing.T) {
	g := small(10, 3)
	place(g, 0x4E2D, 2)
	if g.CellAt(0, 0).Codepoint != 0x4E2D {
		t.Fatal("expected wide char at col 0")
	}
	if g.CellAt(1, 0).Codepoint != ' ' {
		t.Error("expected spacer space at col 1")
	}
	x, _, _ := g.CursorXY()
	if x != 2 {
		t.Errorf("expected cursor at col 2, got %d", x)
	}
}

func TestClampToLastColumnDoesNotSetOnWrap(t *testing.T) {
	g := small(5, 3)
	g.MoveTo(4, 0)
	g.ClampToLastColumn(2)
	x, _, onWrap := g.CursorXY()
	if x != 3 || onWrap {
		t.Errorf("expected clamp to col 3 with no wrap flag, got (%d,%v)", x, onWrap)
	}
}

func TestMoveToClampsBounds(t *testing.T) {
	g := small(10, 5)
	g.MoveTo(100, 100)
	x, y, _ := g.CursorXY()
	if x != 9 || y != 4 {
		t.Errorf("expected clamp to (9,4), got (%d,%d)", x, y)
	}
	g.MoveTo(-5, -5)
	x, y, _ = g.CursorXY()
	if x != 0 || y != 0 {
		t.Errorf("expected clamp to (0,0), got (%d,%d)", x, y)
	}
}

func TestNewlineScrollsAtBottom(t *testing.T) {
	g := small(5, 3)
	place(g, 'A', 1)
	g.MoveTo(0, 2)
	g.Newline(true)
	if g.CellAt(0, 0).Codepoint == 'A' {
		t.Error("expected row 0 to have scrolled away")
	}
	_, y, _ := g.CursorXY()
	if y != 2 {
		t.Errorf("expected cursor to remain on scrollBottom row 2, got %d", y)
	}
}

func TestScrollUpFillsBlankAtBottom(t *testing.T) {
	g := small(5, 3)
	g.ScrollUp(1)
	for col := 0; col < 5; col++ {
		if g.CellAt(col, 2).Codepoint != ' ' {
			t.Errorf("expected blank at bottom row after scroll, got %q", g.CellAt(col, 2).Codepoint)
		}
	}
}

func TestScrollRegionScopesNewlineScroll(t *testing.T) {
	g := small(5, 5)
	g.SetScrollRegion(1, 3) // 0-based, inclusive
	g.MoveTo(0, 0)
	place(g, 'X', 1)
	g.MoveTo(0, 3)
	g.Newline(true)
	// Row 0 (outside the scroll region) must be untouched.
	if g.CellAt(0, 0).Codepoint != 'X' {
		t.Error("expected row outside scroll region to be unaffected by scroll")
	}
}

func TestClearAllBlanksEveryCell(t *testing.T) {
	g := small(5, 3)
	place(g, 'A', 1)
	g.ClearAll()
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if g.CellAt(x, y).Codepoint != ' ' {
				t.Fatalf("expected all-blank grid after ClearAll, found %q at (%d,%d)", g.CellAt(x, y).Codepoint, x, y)
			}
		}
	}
}

func TestClearAllTwiceIsIdempotent(t *testing.T) {
	g := small(5, 3)
	g.ClearAll()
	first := g.VisibleText()
	g.ClearAll()
	second := g.VisibleText()
	if first != second {
		t.Errorf("expected idempotent ClearAll, got %q then %q", first, second)
	}
}

func TestStoreRestoreCursorRoundTrip(t *testing.T) {
	g := small(10, 5)
	g.MoveTo(3, 2)
	g.StoreCursor()
	g.MoveTo(9, 4)
	g.SetScrollRegion(1, 3)
	g.RestoreCursor()
	x, y, _ := g.CursorXY()
	if x != 3 || y != 2 {
		t.Errorf("expected restored cursor (3,2), got (%d,%d)", x, y)
	}
	top, bottom := g.ScrollRegion()
	if top != 0 || bottom != 4 {
		t.Errorf("expected restored scroll region (0,4), got (%d,%d)", top, bottom)
	}
}

func TestInsertDeleteCellsRoundTrip(t *testing.T) {
	g := small(6, 2)
	for i, c := range "ABCDEF" {
		g.SetCell(i, 0, Cell{Codepoint: c, Fg: ColorWhite, Bg: ColorBlack})
	}
	g.MoveTo(2, 0)
	g.InsertBlank(2)
	if got := g.VisibleText(); got != "AB  CD" {
		t.Errorf("expected \"AB  CD\" after insert, got %q", got)
	}
	g.DeleteCells(2)
	if got := g.VisibleText(); got != "ABCD" {
		t.Errorf("expected \"ABCD\" after delete, got %q", got)
	}
}

func TestResizePreservesOverlap(t *testing.T) {
	g := small(5, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			g.SetCell(x, y, Cell{Codepoint: rune('0' + y), Fg: ColorWhite, Bg: ColorBlack})
		}
	}
	g.Resize(3, 2)
	if g.Cols() != 3 || g.Rows() != 2 {
		t.Fatalf("expected (3,2) after resize, got (%d,%d)", g.Cols(), g.Rows())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want := rune('0' + y)
			if got := g.CellAt(x, y).Codepoint; got != want {
				t.Errorf("expected preserved cell %q at (%d,%d), got %q", want, x, y, got)
			}
		}
	}
}

func TestTabForwardDefaultStops(t *testing.T) {
	g := small(40, 3)
	g.TabForward(1)
	x, _, _ := g.CursorXY()
	if x != DefaultTabWidth {
		t.Errorf("expected first tab stop at col %d, got %d", DefaultTabWidth, x)
	}
}

func TestSetTabStopAndClear(t *testing.T) {
	g := small(20, 3)
	g.ClearAllTabStops()
	g.MoveTo(5, 0)
	g.SetTabStop()
	g.MoveTo(0, 0)
	g.TabForward(1)
	x, _, _ := g.CursorXY()
	if x != 5 {
		t.Errorf("expected custom tab stop at col 5, got %d", x)
	}
}

func TestOriginModeClampsToScrollRegion(t *testing.T) {
	g := small(10, 10)
	g.SetScrollRegion(2, 6)
	g.SetOriginMode(true)
	g.MoveToOrigin(0, 0)
	_, y, _ := g.CursorXY()
	if y != 2 {
		t.Errorf("expected origin-mode home at scrollTop 2, got %d", y)
	}
	g.MoveToOrigin(0, 100)
	_, y, _ = g.CursorXY()
	if y != 6 {
		t.Errorf("expected origin-mode clamp to scrollBottom 6, got %d", y)
	}
}

func TestMoveToClampsToScrollRegionUnderOrigin(t *testing.T) {
	g := small(10, 10)
	g.SetScrollRegion(2, 6)
	g.SetOriginMode(true)
	g.MoveTo(0, 0)
	_, y, _ := g.CursorXY()
	if y != 2 {
		t.Errorf("expected MoveTo to clamp to scrollTop 2 under origin mode, got %d", y)
	}
	g.MoveTo(0, 100)
	_, y, _ = g.CursorXY()
	if y != 6 {
		t.Errorf("expected MoveTo to clamp to scrollBottom 6 under origin mode, got %d", y)
	}
}

func TestRepeatCharUsesLastWritten(t *testing.T) {
	g := small(10, 3)
	place(g, 'Z', 1)
	g.RepeatChar(3)
	if got := g.VisibleText(); got != "ZZZZ" {
		t.Errorf("expected \"ZZZZ\", got %q", got)
	}
}

func TestWouldOverflowAtLastColumn(t *testing.T) {
	g := small(5, 3)
	g.MoveTo(4, 0)
	if g.WouldOverflow(1) {
		t.Error("width-1 glyph at col 4 of 5 should fit exactly")
	}
	if !g.WouldOverflow(2) {
		t.Error("width-2 glyph at col 4 of 5 should overflow")
	}
}
