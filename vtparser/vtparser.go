// Package vtparser turns a raw PTY byte stream into cellgrid mutations
// and PTY replies: the escape-sequence state machine, SGR rendition
// tracking, terminal modes, and the primary/alternate grid switch all
// live here, separated from the grid's own cell primitives.
package vtparser

import (
	"fmt"
	"sync"

	"github.com/corvidterm/termcore/cellgrid"
	"github.com/corvidterm/termcore/codec"
)

// ParserState is the state machine's current mode.
type ParserState int

const (
	StateGround ParserState = iota
	StateEscape
	StateCSI
	StateStr
	StateAltCharset
	StateTest
	StateUTF8Designate
)

// TermMode is a bitset of terminal behavior flags. CRAndLF and UTF8 get
// disjoint bits here, unlike the source this is ported from, where both
// collide at the same bit value.
type TermMode uint32

const (
	ModeCursorKeys TermMode = 1 << iota
	ModeReverseVideo
	ModeAutoWrap
	ModeHideCursor
	ModeMouse
	ModeMouseX10
	ModeMouseReportBtn
	ModeMouseReportMotion
	ModeMouseReportAllEvents
	ModeMouseReportSGR
	ModeReportFocus
	Mode8Bit
	ModeAltScreen
	ModeBracketedPaste
	ModeInsert
	ModeLockKeyboard
	ModeEcho
	ModeCRAndLF
	ModeUTF8
)

// DefaultMode matches the terminal's startup mode: UTF-8 decoding and
// auto-wrap both on.
const DefaultMode = ModeUTF8 | ModeAutoWrap

// Charset selects which glyph table GROUND printable bytes map through.
type Charset int

const (
	CharsetASCII Charset = iota
	CharsetAlt           // DEC Special Graphics, designated via ESC ( 0
)

// Stats counts recovered parser anomalies, useful for tests and
// diagnostics without surfacing through the normal render path.
type Stats struct {
	UnknownESC  int
	UnknownCSI  int
	UnknownMode int
	EscOverflow int
	InvalidUTF8 int
}

const maxEscBuf = 512
const maxCSIParams = 16

// Terminal is the escape-sequence state machine: it owns the active
// cell grid (primary or alternate), current SGR rendition, mode bits,
// and the in-flight escape-sequence buffer.
type Terminal struct {
	mu sync.Mutex

	primary *cellgrid.Grid
	alt     *cellgrid.Grid
	active  *cellgrid.Grid

	mode    TermMode
	charset Charset

	fg    cellgrid.Color16
	bg    cellgrid.Color16
	style cellgrid.StyleFlags

	state ParserState

	csiPrefix  byte
	csiParams  []int
	curParam   int
	haveDigits bool
	escBytes   int

	strBuf        []byte
	strEscPending bool

	utf8Buf []byte

	responseWriter func([]byte)
	dirtyHook      func(row int)

	Stats Stats
}

// New creates a Terminal driving a cols×rows primary grid.
func New(cols, rows int) *Terminal {
	g := cellgrid.New(cols, rows)
	return &Terminal{
		primary: g,
		active:  g,
		mode:    DefaultMode,
		fg:      cellgrid.ColorWhite,
		bg:      cellgrid.ColorBlack,
	}
}

// Grid returns the currently active grid (primary or alternate).
func (t *Terminal) Grid() *cellgrid.Grid {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// PrimaryGrid returns the primary grid regardless of which is active.
func (t *Terminal) PrimaryGrid() *cellgrid.Grid {
	return t.primary
}

// ModeEnabled reports whether the given mode bit is currently set.
func (t *Terminal) ModeEnabled(bit TermMode) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode&bit != 0
}

// StatsSnapshot returns a copy of the anomaly counters.
func (t *Terminal) StatsSnapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Stats
}

// SetResponseWriter installs the callback used to write bit-exact
// replies (DA, DSR) back to the PTY.
func (t *Terminal) SetResponseWriter(w func([]byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responseWriter = w
}

func (t *Terminal) reply(s string) {
	if t.responseWriter != nil {
		t.responseWriter([]byte(s))
	}
}

// SetDirtyHook installs the callback invoked for every row a grid
// mutation touches, applying it to the primary grid immediately and to
// the alternate grid once it's allocated.
func (t *Terminal) SetDirtyHook(fn func(row int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dirtyHook = fn
	t.primary.SetDirtyHook(fn)
	if t.alt != nil {
		t.alt.SetDirtyHook(fn)
	}
}

// Resize resizes the primary grid, and the alternate grid if one has
// been allocated.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primary.Resize(cols, rows)
	if t.alt != nil {
		t.alt.Resize(cols, rows)
	}
}

// Feed processes a chunk of raw PTY bytes, advancing the state machine
// byte by byte.
func (t *Terminal) Feed(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, b := range data {
		t.feedByte(b)
	}
}

func (t *Terminal) feedByte(b byte) {
	switch t.state {
	case StateGround:
		t.ground(b)
	case StateEscape:
		t.escape(b)
	case StateCSI:
		t.csi(b)
	case StateStr:
		t.str(b)
	case StateAltCharset:
		t.altCharset(b)
	case StateTest:
		t.test(b)
	case StateUTF8Designate:
		t.utf8Designate(b)
	}
}

func isC0(b byte) bool {
	return b <= 0x1F || b == 0x7F
}

// ground implements the GROUND state: classify a fresh byte as the
// start of an escape sequence, a C0/C1 control, or the first byte of a
// UTF-8 scalar, unless utf8Buf already holds a pending sequence, in
// which case b is first appended to that sequence; if it does not
// continue it, resolveUTF8 feeds it back through ground on its own.
func (t *Terminal) ground(b byte) {
	if len(t.utf8Buf) > 0 {
		t.continueUTF8(b)
		return
	}
	if b == 0x1B {
		t.enterEscape()
		return
	}
	if isC0(b) {
		t.handleC0(b)
		return
	}
	if b >= 0x80 && b <= 0x9F {
		// C1 control, silently ignored.
		return
	}
	t.startUTF8(b)
}

func (t *Terminal) enterEscape() {
	t.csiPrefix = 0
	t.csiParams = t.csiParams[:0]
	t.curParam = 0
	t.haveDigits = false
	t.escBytes = 0
	t.state = StateEscape
}

func (t *Terminal) startUTF8(b byte) {
	t.utf8Buf = append(t.utf8Buf[:0], b)
	t.resolveUTF8()
}

func (t *Terminal) continueUTF8(b byte) {
	t.utf8Buf = append(t.utf8Buf, b)
	t.resolveUTF8()
}

// resolveUTF8 tries to decode utf8Buf. On Invalid it emits U+FFFD for
// exactly the leading byte and re-feeds any bytes buffered after it
// through ground() individually, so a byte that looked like a
// continuation but wasn't still gets its own classification.
func (t *Terminal) resolveUTF8() {
	r, _, status := codec.Decode(t.utf8Buf)
	switch status {
	case codec.Incomplete:
		return
	case codec.Ok:
		t.utf8Buf = t.utf8Buf[:0]
		t.printable(r)
	case codec.Invalid:
		t.Stats.InvalidUTF8++
		rest := append([]byte(nil), t.utf8Buf[1:]...)
		t.utf8Buf = t.utf8Buf[:0]
		t.printable(codec.ReplacementChar)
		for _, rb := range rest {
			t.ground(rb)
		}
	}
}

// printable implements the GROUND printable path: deferred wrap, width
// overflow handling, charset substitution, and placing the glyph.
func (t *Terminal) printable(r rune) {
	g := t.active
	w := codec.RuneWidth(r)
	if w < 0 {
		w = 1
	}

	_, _, onWrap := g.CursorXY()
	if onWrap && t.mode&ModeAutoWrap != 0 {
		g.Newline(true)
	}
	if g.WouldOverflow(w) {
		if t.mode&ModeAutoWrap != 0 {
			g.Newline(true)
		} else {
			g.ClampToLastColumn(w)
		}
	}

	cp := r
	if t.charset == CharsetAlt && r >= 0x20 && r <= 0x7E {
		if mapped, ok := decSpecialGraphics[r]; ok {
			cp = mapped
		}
	}

	cell := cellgrid.Cell{Codepoint: cp, Fg: t.fg, Bg: t.bg, Style: t.style}
	g.PlaceGlyph(cell, w)
	g.AdvanceOrWrap(w)
}

// handleC0 dispatches a C0 control byte reached in GROUND state.
func (t *Terminal) handleC0(b byte) {
	g := t.active
	switch b {
	case 0x07: // BEL, ignored in GROUND
	case 0x08: // BS
		g.Backspace()
	case 0x09: // HT
		g.TabForward(1)
	case 0x0A, 0x0B, 0x0C: // LF, VT, FF
		g.Newline(t.mode&ModeCRAndLF != 0)
	case 0x0D: // CR
		g.CarriageReturn()
	case 0x1A: // SUB: replace the cell under the cursor, cursor unmoved
		x, y, _ := g.CursorXY()
		g.SetCell(x, y, cellgrid.Cell{Codepoint: '?', Fg: t.fg, Bg: t.bg, Style: t.style})
	case 0x85: // NEL
		g.Newline(true)
	case 0x88: // HTS
		g.SetTabStop()
	}
}

// escape dispatches the byte following a lone ESC.
func (t *Terminal) escape(b byte) {
	t.escBytes++
	if t.escBytes > maxEscBuf {
		t.Stats.EscOverflow++
		t.state = StateGround
		return
	}

	switch b {
	case '[':
		t.state = StateCSI
		return
	case '#':
		t.state = StateTest
		return
	case '%':
		t.state = StateUTF8Designate
		return
	case ']', '_', '^', 'P', 'k':
		t.strBuf = t.strBuf[:0]
		t.strEscPending = false
		t.state = StateStr
		return
	case '(', ')', '*', '+':
		t.state = StateAltCharset
		return
	case 'D': // IND
		g := t.active
		_, y, _ := g.CursorXY()
		_, bottom := g.ScrollRegion()
		if y == bottom {
			g.ScrollUp(1)
		} else {
			x, _, _ := g.CursorXY()
			g.MoveTo(x, y+1)
		}
	case 'E': // NEL
		t.active.Newline(true)
	case 'H': // HTS
		t.active.SetTabStop()
	case 'M': // RI
		g := t.active
		x, y, _ := g.CursorXY()
		top, _ := g.ScrollRegion()
		if y == top {
			g.ScrollDown(1)
		} else {
			g.MoveTo(x, y-1)
		}
	case 'Z': // DA reply
		t.reply("\x1B[?6c")
	case '7': // DECSC
		t.active.StoreCursor()
	case '8': // DECRC
		t.active.RestoreCursor()
	case '\\':
		// string terminator with no preceding STR state: no-op
	default:
		t.Stats.UnknownESC++
	}
	t.state = StateGround
}

func (t *Terminal) altCharset(b byte) {
	switch b {
	case '0':
		t.charset = CharsetAlt
	case 'B':
		t.charset = CharsetASCII
	default:
		t.Stats.UnknownESC++
	}
	t.state = StateGround
}

// test consumes the byte following ESC #; no DEC test sequence carries
// grid-visible behavior here.
func (t *Terminal) test(b byte) {
	t.state = StateGround
}

// utf8Designate consumes the byte following ESC %; UTF-8 is always on,
// so the select/revert designators are no-ops.
func (t *Terminal) utf8Designate(b byte) {
	t.state = StateGround
}

// str accumulates an OSC/DCS/PM/APC string body until BEL or ESC \.
// The content itself is discarded; only the terminator matters.
func (t *Terminal) str(b byte) {
	if b == 0x07 {
		t.state = StateGround
		return
	}
	if t.strEscPending {
		t.strEscPending = false
		if b == '\\' {
			t.state = StateGround
			return
		}
		// Not a valid ST: the ESC wasn't a terminator. Fall through and
		// keep accumulating from this byte.
	}
	if b == 0x1B {
		t.strEscPending = true
		return
	}
	if len(t.strBuf) < maxEscBuf {
		t.strBuf = append(t.strBuf, b)
	}
}

// csi collects CSI parameter bytes and dispatches on the final byte.
func (t *Terminal) csi(b byte) {
	t.escBytes++
	if t.escBytes > maxEscBuf {
		t.Stats.EscOverflow++
		t.state = StateGround
		return
	}

	switch {
	case (b == '?' || b == '>' || b == '!') && t.csiPrefix == 0 && !t.haveDigits && len(t.csiParams) == 0:
		t.csiPrefix = b
	case b >= '0' && b <= '9':
		t.curParam = t.curParam*10 + int(b-'0')
		t.haveDigits = true
	case b == ';':
		if len(t.csiParams) < maxCSIParams {
			t.csiParams = append(t.csiParams, t.curParam)
		}
		t.curParam = 0
		t.haveDigits = false
	case b >= 0x40 && b <= 0x7E:
		if t.haveDigits && len(t.csiParams) < maxCSIParams {
			t.csiParams = append(t.csiParams, t.curParam)
		}
		t.dispatchCSI(b)
		t.state = StateGround
	default:
		// Intermediate bytes (0x20-0x2F) and sub-parameter separators
		// are accepted but carry no dedicated semantics here.
	}
}

func (t *Terminal) param(idx, def int) int {
	if idx < len(t.csiParams) && t.csiParams[idx] > 0 {
		return t.csiParams[idx]
	}
	return def
}

func (t *Terminal) paramRaw(idx, def int) int {
	if idx < len(t.csiParams) {
		return t.csiParams[idx]
	}
	return def
}

func (t *Terminal) dispatchCSI(final byte) {
	g := t.active
	dp := t.param(0, 1)

	switch final {
	case '@': // ICH
		g.InsertBlank(dp)
	case 'A': // CUU
		x, y, _ := g.CursorXY()
		g.MoveTo(x, y-dp)
	case 'B', 'e': // CUD
		x, y, _ := g.CursorXY()
		g.MoveTo(x, y+dp)
	case 'C', 'a': // CUF
		x, y, _ := g.CursorXY()
		g.MoveTo(x+dp, y)
	case 'D': // CUB
		x, y, _ := g.CursorXY()
		g.MoveTo(x-dp, y)
	case 'E': // CNL
		_, y, _ := g.CursorXY()
		g.MoveTo(0, y+dp)
	case 'F': // CPL
		_, y, _ := g.CursorXY()
		g.MoveTo(0, y-dp)
	case 'G', '`': // CHA
		_, y, _ := g.CursorXY()
		g.MoveTo(dp-1, y)
	case 'H', 'f': // CUP
		row := t.param(0, 1)
		col := t.param(1, 1)
		g.MoveToOrigin(col-1, row-1)
	case 'I': // CHT
		g.TabForward(dp)
	case 'J': // ED
		switch t.paramRaw(0, 0) {
		case 0:
			g.ClearToEnd()
		case 1:
			g.ClearToStart()
		case 2, 3:
			g.ClearAll()
		}
	case 'K': // EL
		switch t.paramRaw(0, 0) {
		case 0:
			g.ClearLineToEnd()
		case 1:
			g.ClearLineToStart()
		case 2:
			g.ClearLine()
		}
	case 'L': // IL
		g.InsertLines(dp)
	case 'M': // DL
		g.DeleteLines(dp)
	case 'P': // DCH
		g.DeleteCells(dp)
	case 'S': // SU
		if t.csiPrefix != '?' {
			g.ScrollUp(dp)
		}
	case 'T': // SD
		g.ScrollDown(dp)
	case 'X': // ECH
		g.EraseChars(dp)
	case 'Z': // CBT
		g.TabBackward(dp)
	case 'b': // REP
		g.RepeatChar(dp)
	case 'c': // DA
		if t.paramRaw(0, 0) == 0 {
			t.reply("\x1B[?6c")
		}
	case 'd': // VPA
		x, _, _ := g.CursorXY()
		g.MoveToOrigin(x, dp-1)
	case 'g': // TBC
		switch t.paramRaw(0, 0) {
		case 0:
			g.ClearTabStop()
		case 3:
			g.ClearAllTabStops()
		}
	case 'h': // SM
		t.setMode(true)
	case 'l': // RM
		t.setMode(false)
	case 'n': // DSR
		switch t.paramRaw(0, 0) {
		case 5:
			t.reply("\x1B[0n")
		case 6:
			x, y, _ := g.CursorXY()
			t.reply(fmt.Sprintf("\x1B[%d;%dR", y+1, x+1))
		}
	case 'r': // DECSTBM
		if t.csiPrefix != '?' {
			top := t.param(0, 1)
			bottom := t.param(1, g.Rows())
			g.SetScrollRegion(top-1, bottom-1)
			g.MoveToOrigin(0, 0)
		}
	case 's': // SCP
		g.StoreCursor()
	case 'u': // RCP
		g.RestoreCursor()
	case 'm': // SGR
		t.sgr()
	default:
		t.Stats.UnknownCSI++
	}
}

// sgr applies Select Graphic Rendition parameters against the 16-color
// semantic palette; extended 256-color/RGB sub-parameters are
// recognized only enough to skip past them.
func (t *Terminal) sgr() {
	params := t.csiParams
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			t.fg = cellgrid.ColorWhite
			t.bg = cellgrid.ColorBlack
			t.style = cellgrid.StyleNormal
		case p == 1:
			t.style |= cellgrid.StyleBold
		case p == 2:
			t.style |= cellgrid.StyleDim
		case p == 3:
			t.style |= cellgrid.StyleItalic
		case p == 4:
			t.style |= cellgrid.StyleUnderline
		case p == 5:
			t.style |= cellgrid.StyleBlink
		case p == 7:
			t.style |= cellgrid.StyleReverse
		case p == 8:
			t.style |= cellgrid.StyleHidden
		case p == 22:
			t.style &^= cellgrid.StyleBold | cellgrid.StyleDim
		case p == 23:
			t.style &^= cellgrid.StyleItalic
		case p == 24:
			t.style &^= cellgrid.StyleUnderline
		case p == 25:
			t.style &^= cellgrid.StyleBlink
		case p == 27:
			t.style &^= cellgrid.StyleReverse
		case p == 28:
			t.style &^= cellgrid.StyleHidden
		case p >= 30 && p <= 37:
			t.fg = cellgrid.Color16(p - 30)
		case p == 38:
			i += extendedColorParamCount(params, i)
		case p == 39:
			t.fg = cellgrid.ColorWhite
		case p >= 40 && p <= 47:
			t.bg = cellgrid.Color16(p - 40)
		case p == 48:
			i += extendedColorParamCount(params, i)
		case p == 49:
			t.bg = cellgrid.ColorBlack
		case p >= 90 && p <= 97:
			t.fg = cellgrid.Color16(p - 90 + 8)
		case p >= 100 && p <= 107:
			t.bg = cellgrid.Color16(p - 100 + 8)
		}
	}
}

func extendedColorParamCount(params []int, i int) int {
	if i+1 >= len(params) {
		return 0
	}
	switch params[i+1] {
	case 5:
		return 2 // mode + palette index
	case 2:
		return 4 // mode + r + g + b
	default:
		return 1
	}
}

func (t *Terminal) setMode(set bool) {
	if t.csiPrefix == '?' {
		for _, p := range t.csiParams {
			t.setPrivateMode(p, set)
		}
		return
	}
	for _, p := range t.csiParams {
		t.setPublicMode(p, set)
	}
}

func (t *Terminal) toggle(bit TermMode, set bool) {
	if set {
		t.mode |= bit
	} else {
		t.mode &^= bit
	}
}

func (t *Terminal) setPrivateMode(p int, set bool) {
	switch p {
	case 1:
		t.toggle(ModeCursorKeys, set)
	case 5:
		t.toggle(ModeReverseVideo, set)
	case 6: // DECOM
		t.active.SetOriginMode(set)
		t.active.MoveToOrigin(0, 0)
	case 7:
		t.toggle(ModeAutoWrap, set)
	case 0, 2, 3, 4, 8, 12, 18, 19, 42:
		// explicitly ignored
	case 9:
		t.toggle(ModeMouse, set)
		t.toggle(ModeMouseX10, set)
	case 25:
		t.toggle(ModeHideCursor, set)
	case 47, 1047:
		t.toggleAltScreenBare(set)
	case 1000:
		t.toggle(ModeMouse, set)
		t.toggle(ModeMouseReportBtn, set)
	case 1002:
		t.toggle(ModeMouse, set)
		t.toggle(ModeMouseReportMotion, set)
	case 1003:
		t.toggle(ModeMouse, set)
		t.toggle(ModeMouseReportAllEvents, set)
	case 1004:
		t.toggle(ModeReportFocus, set)
	case 1006:
		t.toggle(ModeMouseReportSGR, set)
	case 1034:
		t.toggle(Mode8Bit, set)
	case 1048:
		t.handleAltCursor(set)
	case 1049:
		t.toggleAltScreen1049(set)
	case 2004:
		t.toggle(ModeBracketedPaste, set)
	default:
		t.Stats.UnknownMode++
	}
}

func (t *Terminal) setPublicMode(p int, set bool) {
	switch p {
	case 2:
		t.toggle(ModeLockKeyboard, set)
	case 4:
		t.toggle(ModeInsert, set)
	case 12:
		t.toggle(ModeEcho, set)
	case 20:
		t.toggle(ModeCRAndLF, set)
	default:
		t.Stats.UnknownMode++
	}
}

func (t *Terminal) handleAltCursor(set bool) {
	if set {
		t.active.StoreCursor()
	} else {
		t.active.RestoreCursor()
	}
}

func (t *Terminal) enterAltScreen() {
	if t.mode&ModeAltScreen != 0 {
		return
	}
	if t.alt == nil {
		t.alt = cellgrid.New(t.primary.Cols(), t.primary.Rows())
		t.alt.SetDirtyHook(t.dirtyHook)
	} else {
		t.alt.ClearAll()
	}
	t.active = t.alt
	t.mode |= ModeAltScreen
	t.active.MarkAllDirty()
}

func (t *Terminal) exitAltScreen() {
	if t.mode&ModeAltScreen == 0 {
		return
	}
	t.active = t.primary
	t.mode &^= ModeAltScreen
	t.active.MarkAllDirty()
}

func (t *Terminal) toggleAltScreenBare(set bool) {
	if set {
		t.enterAltScreen()
	} else {
		t.exitAltScreen()
	}
}

func (t *Terminal) toggleAltScreen1049(set bool) {
	if set {
		t.primary.StoreCursor()
		t.enterAltScreen()
	} else {
		t.exitAltScreen()
		t.primary.RestoreCursor()
	}
}
