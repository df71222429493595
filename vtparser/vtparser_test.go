package vtparser

import (
	"testing"

	"github.com/corvidterm/termcore/cellgrid"
)

func row(t *Terminal, y int) string {
	g := t.Grid()
	var s []rune
	for x := 0; x < g.Cols(); x++ {
		s = append(s, g.CellAt(x, y).Codepoint)
	}
	return string(s)
}

func TestCarriageReturnOverwrites(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("A\rB"))
	if got := row(term, 0)[:1]; got != "B" {
		t.Errorf("expected B to overwrite A at col 0, got row %q", row(term, 0))
	}
}

func TestLineFeedWrapsAtLastColumn(t *testing.T) {
	term := New(3, 3)
	term.Feed([]byte("ABC\nDEF"))
	if got := row(term, 0); got != "ABC" {
		t.Errorf("expected row 0 'ABC', got %q", got)
	}
	// LF keeps the column (no CR), so D lands in the last column of row 1
	// and E wraps to row 2.
	if got := row(term, 1); got != "  D" {
		t.Errorf("expected row 1 '  D', got %q", got)
	}
	if got := row(term, 2); got != "EF " {
		t.Errorf("expected row 2 'EF ', got %q", got)
	}
}

func TestAutoWrapAt80Columns(t *testing.T) {
	term := New(80, 5)
	line := make([]byte, 80)
	for i := range line {
		line[i] = 'x'
	}
	term.Feed(line)
	term.Feed([]byte("y"))
	x, y, _ := term.Grid().CursorXY()
	if y != 1 || x != 1 {
		t.Errorf("expected wrap to row 1 col 1, got (%d,%d)", x, y)
	}
	if term.Grid().CellAt(0, 1).Codepoint != 'y' {
		t.Errorf("expected 'y' at start of row 1")
	}
}

func TestEraseDisplayThenHome(t *testing.T) {
	term := New(5, 3)
	term.Feed([]byte("hello"))
	term.Feed([]byte("\x1B[2J\x1B[H"))
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if term.Grid().CellAt(x, y).Codepoint != ' ' {
				t.Fatalf("expected blank grid after CSI 2J, found %q at (%d,%d)", term.Grid().CellAt(x, y).Codepoint, x, y)
			}
		}
	}
	x, y, _ := term.Grid().CursorXY()
	if x != 0 || y != 0 {
		t.Errorf("expected cursor home after CSI H, got (%d,%d)", x, y)
	}
}

func TestCursorPositionReportReply(t *testing.T) {
	term := New(10, 5)
	var got []byte
	term.SetResponseWriter(func(b []byte) { got = append(got, b...) })
	term.Feed([]byte("\x1B[3;4H"))
	term.Feed([]byte("\x1B[6n"))
	want := "\x1B[3;4R"
	if string(got) != want {
		t.Errorf("expected reply %q, got %q", want, got)
	}
}

func TestDECSpecialGraphicsRoundTrip(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B(0qqqq\x1B(B" + "X"))
	g := term.Grid()
	for x := 0; x < 4; x++ {
		if g.CellAt(x, 0).Codepoint != 0x2500 {
			t.Errorf("expected horizontal-line glyph at col %d, got %q", x, g.CellAt(x, 0).Codepoint)
		}
	}
	if g.CellAt(4, 0).Codepoint != 'X' {
		t.Errorf("expected ASCII 'X' after charset revert, got %q", g.CellAt(4, 0).Codepoint)
	}
}

func TestInvalidUTF8ByteYieldsReplacementAndAdvancesOne(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte{0xFF, 'A'})
	g := term.Grid()
	if g.CellAt(0, 0).Codepoint != 0xFFFD {
		t.Errorf("expected U+FFFD at col 0, got %q", g.CellAt(0, 0).Codepoint)
	}
	if g.CellAt(1, 0).Codepoint != 'A' {
		t.Errorf("expected 'A' at col 1, got %q", g.CellAt(1, 0).Codepoint)
	}
	if term.StatsSnapshot().InvalidUTF8 != 1 {
		t.Errorf("expected InvalidUTF8 stat incremented once")
	}
}

func TestMultiByteUTF8SplitAcrossFeeds(t *testing.T) {
	term := New(10, 3)
	euroBytes := []byte{0xE2, 0x82, 0xAC} // €
	term.Feed(euroBytes[:1])
	term.Feed(euroBytes[1:])
	if got := term.Grid().CellAt(0, 0).Codepoint; got != 0x20AC {
		t.Errorf("expected euro sign decoded across feeds, got %q", got)
	}
}

func TestSGRColorsAndReset(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B[31;1mA\x1B[0mB"))
	g := term.Grid()
	a := g.CellAt(0, 0)
	if a.Fg != cellgrid.Color16(1) || a.Style&cellgrid.StyleBold == 0 {
		t.Errorf("expected red bold 'A', got %+v", a)
	}
	b := g.CellAt(1, 0)
	if b.Fg != cellgrid.ColorWhite || b.Style != cellgrid.StyleNormal {
		t.Errorf("expected reset rendition for 'B', got %+v", b)
	}
}

func TestRepeatCharCSIb(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("Z\x1B[3b"))
	if got := row(term, 0)[:4]; got != "ZZZZ" {
		t.Errorf("expected 'ZZZZ', got %q", got)
	}
}

func TestAltScreenSwapAndRestore(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("main"))
	term.Feed([]byte("\x1B[?1049h"))
	if term.Grid().CellAt(0, 0).Codepoint != ' ' {
		t.Errorf("expected blank alt screen on entry")
	}
	term.Feed([]byte("alt"))
	term.Feed([]byte("\x1B[?1049l"))
	if got := row(term, 0)[:4]; got != "main" {
		t.Errorf("expected primary screen content restored, got %q", got)
	}
}

func TestAltScreenBlankOnSecondEntry(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B[?1049h"))
	term.Feed([]byte("stale"))
	term.Feed([]byte("\x1B[?1049l"))
	term.Feed([]byte("\x1B[?1049h"))
	if got := row(term, 0)[:5]; got != "     " {
		t.Errorf("expected blank alt screen on second entry, got %q", got)
	}
}

func TestOSCStringDiscardedUntilBEL(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B]0;some title\x07X"))
	if term.Grid().CellAt(0, 0).Codepoint != 'X' {
		t.Errorf("expected OSC body fully consumed, 'X' printed at col 0, got %q", term.Grid().CellAt(0, 0).Codepoint)
	}
}

func TestOSCStringTerminatedByST(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B]0;title\x1B\\X"))
	if term.Grid().CellAt(0, 0).Codepoint != 'X' {
		t.Errorf("expected OSC terminated by ST, 'X' printed at col 0, got %q", term.Grid().CellAt(0, 0).Codepoint)
	}
}

func TestPrivateModeUnknownCounted(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B[?99999h"))
	if term.StatsSnapshot().UnknownMode != 1 {
		t.Errorf("expected unknown private mode counted")
	}
}

func TestUnknownCSIFinalCounted(t *testing.T) {
	term := New(10, 3)
	term.Feed([]byte("\x1B[5~")) // not a final byte we dispatch
	if term.StatsSnapshot().UnknownCSI != 1 {
		t.Errorf("expected unknown CSI final counted")
	}
}

func TestDeviceAttributesReply(t *testing.T) {
	term := New(10, 3)
	var got []byte
	term.SetResponseWriter(func(b []byte) { got = append(got, b...) })
	term.Feed([]byte("\x1B[c"))
	if string(got) != "\x1B[?6c" {
		t.Errorf("expected DA reply, got %q", got)
	}
}
