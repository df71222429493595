// Package cellgrid implements the ring-buffered cell matrix the parser
// drives: cursor, scroll region, alternate screen, tab stops, and the
// primitives every escape sequence ultimately bottoms out in.
package cellgrid

import (
	"strings"
	"sync"
)

// DefaultScrollback is the number of extra rows kept above the visible
// viewport, standardized the same way the xterm default tab width is
// (see DefaultTabWidth): the teacher oscillated on this value across its
// own config surface, so SPEC_FULL pins it to the teacher's own
// MaxScrollback constant.
const DefaultScrollback = 10000

// DefaultTabWidth is the distance between default tab stops. Resolves
// the spec's open question in favor of the xterm default of 8.
const DefaultTabWidth = 8

// StyleFlags is a bitmask of cell text attributes.
type StyleFlags uint8

const (
	StyleBold StyleFlags = 1 << iota
	StyleDim
	StyleItalic
	StyleUnderline
	StyleBlink
	StyleReverse
	StyleHidden
)

// StyleNormal is the zero value: no attributes set.
const StyleNormal StyleFlags = 0

// Color16 is the 16-color semantic enum cells render through.
type Color16 uint8

const (
	ColorBlack Color16 = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightBlack
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
)

// Cell is a single terminal grid position.
type Cell struct {
	Codepoint rune
	Fg        Color16
	Bg        Color16
	Style     StyleFlags
}

// NewCell returns the default cell: space, white on black, no attributes.
func NewCell() Cell {
	return Cell{Codepoint: ' ', Fg: ColorWhite, Bg: ColorBlack, Style: StyleNormal}
}

// CursorFlags marks transient cursor state that isn't a coordinate.
type CursorFlags uint8

const (
	// CursorOnWrap marks deferred wrap: the last printable filled the
	// final column but the cursor has not advanced past it yet.
	CursorOnWrap CursorFlags = 1 << iota
	// CursorOrigin mirrors DECOM (origin mode): when set, row moves are
	// relative to the scroll region.
	CursorOrigin
)

// Cursor is the grid's active write position.
type Cursor struct {
	X, Y  int
	State CursorFlags
}

func (c *Cursor) hasOrigin() bool { return c.State&CursorOrigin != 0 }

// savedState is the unit saved/restored by DECSC/DECRC, CSI s/u, and the
// 1049/1048 alt-screen toggle.
type savedState struct {
	cursor       Cursor
	scrollTop    int
	scrollBottom int
	head         int
	valid        bool
}

// Grid is a ring buffer of maxRows rows by cols cells. Logical row y in
// [0, rows) is physical row (head+y) mod maxRows; rows beyond the
// viewport, down to -(maxRows-rows), are scrollback history.
type Grid struct {
	mu sync.RWMutex

	cells   []Cell
	maxRows int
	cols    int
	rows    int
	head    int

	cursor       Cursor
	scrollTop    int
	scrollBottom int
	tabStops     []bool

	saved savedState

	lastCell Cell // full rendition of the last glyph placed, for REP (CSI b)

	onDirty func(row int)
}

// New creates a grid with the given viewport size and default scrollback.
func New(cols, rows int) *Grid {
	return NewWithScrollback(cols, rows, DefaultScrollback)
}

// NewWithScrollback creates a grid whose ring buffer holds rows+scrollback
// physical rows.
func NewWithScrollback(cols, rows, scrollback int) *Grid {
	maxRows := rows + scrollback
	if maxRows < rows {
		maxRows = rows
	}
	g := &Grid{
		cells:        make([]Cell, maxRows*cols),
		maxRows:      maxRows,
		cols:         cols,
		rows:         rows,
		scrollTop:    0,
		scrollBottom: rows - 1,
		tabStops:     defaultTabStops(cols),
		lastCell:     NewCell(),
	}
	g.clearAllLocked()
	return g
}

// SetDirtyHook installs a callback invoked whenever a row is mutated.
// Used by dirty.Tracker. Most mutators invoke it after releasing the grid
// lock; scrolling (including a scroll caused by Newline or RepeatChar),
// InsertLines and DeleteLines invoke it with the lock still held.
func (g *Grid) SetDirtyHook(fn func(row int)) {
	g.mu.Lock()
	g.onDirty = fn
	g.mu.Unlock()
}

func (g *Grid) markDirty(row int) {
	if g.onDirty != nil {
		g.onDirty(row)
	}
}

// MarkAllDirty marks every visible row dirty. Used when a grid becomes
// active after an alt-screen swap, since the swap itself touches no
// cells and would otherwise leave the renderer unaware the whole
// viewport changed.
func (g *Grid) MarkAllDirty() {
	g.mu.RLock()
	rows := g.rows
	g.mu.RUnlock()
	for y := 0; y < rows; y++ {
		g.markDirty(y)
	}
}

func defaultTabStops(cols int) []bool {
	stops := make([]bool, cols)
	for i := DefaultTabWidth; i < cols; i += DefaultTabWidth {
		stops[i] = true
	}
	return stops
}

func (g *Grid) physicalRow(y int) int {
	r := (g.head + y) % g.maxRows
	if r < 0 {
		r += g.maxRows
	}
	return r
}

func (g *Grid) index(col, physRow int) int {
	return physRow*g.cols + col
}

// Cols returns the grid's column count.
func (g *Grid) Cols() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cols
}

// Rows returns the viewport's row count.
func (g *Grid) Rows() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rows
}

// CellAt returns the cell at logical (x,y). Out-of-range coordinates
// return the default cell.
func (g *Grid) CellAt(x, y int) Cell {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cellAtLocked(x, y)
}

func (g *Grid) cellAtLocked(x, y int) Cell {
	if x < 0 || x >= g.cols || y < -(g.maxRows-g.rows) || y >= g.rows {
		return NewCell()
	}
	return g.cells[g.index(x, g.physicalRow(y))]
}

// SetCell writes a cell at logical (x,y) and marks the row dirty.
func (g *Grid) SetCell(x, y int, c Cell) {
	g.mu.Lock()
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		g.mu.Unlock()
		return
	}
	g.cells[g.index(x, g.physicalRow(y))] = c
	g.mu.Unlock()
	g.markDirty(y)
}

// Cursor returns a copy of the current cursor state.
func (g *Grid) Cursor() Cursor {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cursor
}

// ScrollRegion returns the current [top,bottom] scroll region, inclusive.
func (g *Grid) ScrollRegion() (top, bottom int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scrollTop, g.scrollBottom
}

// clampY clamps y to [0, rows-1], or to [scrollTop, scrollBottom] when
// origin mode is active.
func (g *Grid) clampY(y int) int {
	lo, hi := 0, g.rows-1
	if g.cursor.hasOrigin() {
		lo, hi = g.scrollTop, g.scrollBottom
	}
	if y < lo {
		return lo
	}
	if y > hi {
		return hi
	}
	return y
}

func clampX(x, cols int) int {
	if x < 0 {
		return 0
	}
	if x >= cols {
		return cols - 1
	}
	return x
}

// MoveTo clamps x to [0,cols-1] and y to [0,rows-1], or to
// [scrollTop, scrollBottom] when origin mode is active, and clears
// deferred wrap.
func (g *Grid) MoveTo(x, y int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.X = clampX(x, g.cols)
	g.cursor.Y = g.clampY(y)
	g.cursor.State &^= CursorOnWrap
}

// MoveToOrigin is MoveTo, but y is relative to scrollTop when origin
// mode (DECOM) is active on the cursor.
func (g *Grid) MoveToOrigin(x, y int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor.hasOrigin() {
		y += g.scrollTop
	}
	g.cursor.X = clampX(x, g.cols)
	g.cursor.Y = g.clampY(y)
	g.cursor.State &^= CursorOnWrap
}

// SetOriginMode sets or clears DECOM on the cursor.
func (g *Grid) SetOriginMode(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if on {
		g.cursor.State |= CursorOrigin
	} else {
		g.cursor.State &^= CursorOrigin
	}
}

// Newline moves the cursor down one line, scrolling the region if the
// cursor sits on scrollBottom. If resetX, the column resets to 0 (LF,
// VT and FF under CRAndLF mode, and NEL, behave this way per spec.md).
func (g *Grid) Newline(resetX bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.newlineLocked(resetX)
}

func (g *Grid) newlineLocked(resetX bool) {
	if g.cursor.Y == g.scrollBottom {
		g.scrollUpLocked(g.scrollTop, 1)
	} else if g.cursor.Y < g.rows-1 {
		g.cursor.Y++
	}
	if resetX {
		g.cursor.X = 0
	}
	g.cursor.State &^= CursorOnWrap
}

// CarriageReturn moves the cursor to column 0 on the current row.
func (g *Grid) CarriageReturn() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cursor.X = 0
	g.cursor.State &^= CursorOnWrap
}

// Backspace moves the cursor left one column, stopping at column 0.
func (g *Grid) Backspace() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor.X > 0 {
		g.cursor.X--
	}
	g.cursor.State &^= CursorOnWrap
}

// TabForward moves the cursor to the next tab stop, or the last column
// if none remain.
func (g *Grid) TabForward(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		next := -1
		for x := g.cursor.X + 1; x < g.cols; x++ {
			if g.tabStops[x] {
				next = x
				break
			}
		}
		if next == -1 {
			g.cursor.X = g.cols - 1
			break
		}
		g.cursor.X = next
	}
}

// TabBackward moves the cursor to the previous tab stop, or column 0.
func (g *Grid) TabBackward(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < n; i++ {
		prev := -1
		for x := g.cursor.X - 1; x >= 0; x-- {
			if g.tabStops[x] {
				prev = x
				break
			}
		}
		if prev == -1 {
			g.cursor.X = 0
			break
		}
		g.cursor.X = prev
	}
}

// SetTabStop sets a tab stop at the cursor's column (HTS).
func (g *Grid) SetTabStop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tabStops[g.cursor.X] = true
}

// ClearTabStop clears the tab stop at the cursor's column (TBC 0).
func (g *Grid) ClearTabStop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tabStops[g.cursor.X] = false
}

// ClearAllTabStops clears every tab stop (TBC 3).
func (g *Grid) ClearAllTabStops() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.tabStops {
		g.tabStops[i] = false
	}
}

// PlaceGlyph writes cell at the cursor's current column, and for a
// wide glyph (w==2) also writes a space spacer cell to its right when
// room allows. It does not move the cursor or touch ONWRAP: the
// GROUND printable path (vtparser) decides wrapping before calling
// this, per spec.md step order.
func (g *Grid) PlaceGlyph(cell Cell, w int) {
	g.mu.Lock()
	row := g.physicalRow(g.cursor.Y)
	g.cells[g.index(g.cursor.X, row)] = cell
	if w == 2 && g.cursor.X+1 < g.cols {
		spacer := cell
		spacer.Codepoint = ' '
		g.cells[g.index(g.cursor.X+1, row)] = spacer
	}
	g.lastCell = cell
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

// RepeatChar writes the last-placed cell n times starting at the
// cursor, wrapping to the next line when a row fills (REP / CSI b).
func (g *Grid) RepeatChar(n int) {
	g.mu.Lock()
	touched := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		if g.cursor.X >= g.cols {
			g.newlineLocked(true)
		}
		row := g.physicalRow(g.cursor.Y)
		g.cells[g.index(g.cursor.X, row)] = g.lastCell
		touched[g.cursor.Y] = true
		g.cursor.X++
	}
	g.mu.Unlock()
	for y := range touched {
		g.markDirty(y)
	}
}

// AdvanceOrWrap implements spec.md's GROUND step 5: if the glyph just
// placed fits before the last column, the cursor moves past it;
// otherwise the cursor stays and ONWRAP is set.
func (g *Grid) AdvanceOrWrap(w int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cursor.X+w < g.cols {
		g.cursor.X += w
		g.cursor.State &^= CursorOnWrap
	} else {
		g.cursor.State |= CursorOnWrap
	}
}

// ClampToLastColumn implements spec.md's GROUND step 2 non-auto-wrap
// branch: clamp the cursor's column so the glyph fits, without
// touching ONWRAP.
func (g *Grid) ClampToLastColumn(w int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	x := g.cols - w
	if x < 0 {
		x = 0
	}
	g.cursor.X = x
}

// CursorXY returns the cursor's logical coordinates and whether
// deferred wrap is pending.
func (g *Grid) CursorXY() (x, y int, onWrap bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cursor.X, g.cursor.Y, g.cursor.State&CursorOnWrap != 0
}

// WouldOverflow reports whether placing a glyph of width w at the
// cursor's current column would run past the last column.
func (g *Grid) WouldOverflow(w int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cursor.X+w > g.cols
}

// scrollUpLocked shifts rows [start, scrollBottom] up by n, filling the
// vacated bottom rows with blanks. Rotates head when the region spans
// the whole viewport (start==0 && scrollBottom==rows-1); otherwise
// memmoves within the region, per spec.md's tie-break rule.
func (g *Grid) scrollUpLocked(start, n int) {
	bottom := g.scrollBottom
	if n <= 0 {
		return
	}
	if start == 0 && bottom == g.rows-1 {
		for i := 0; i < n; i++ {
			g.head = (g.head + 1) % g.maxRows
			blankPhys := g.physicalRow(g.rows - 1)
			g.clearPhysicalRow(blankPhys)
		}
		for y := 0; y < g.rows; y++ {
			g.markDirty(y)
		}
		return
	}
	for i := 0; i < n; i++ {
		for row := start; row < bottom; row++ {
			src := g.physicalRow(row + 1)
			dst := g.physicalRow(row)
			copy(g.cells[g.index(0, dst):g.index(0, dst)+g.cols], g.cells[g.index(0, src):g.index(0, src)+g.cols])
		}
		g.clearPhysicalRow(g.physicalRow(bottom))
	}
	for y := start; y <= bottom; y++ {
		g.markDirty(y)
	}
}

// ScrollUp scrolls the scroll region up by n lines.
func (g *Grid) ScrollUp(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scrollUpLocked(g.scrollTop, n)
}

// ScrollDown scrolls the scroll region down by n lines (SD / RI at top).
func (g *Grid) ScrollDown(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	top, bottom := g.scrollTop, g.scrollBottom
	for i := 0; i < n; i++ {
		for row := bottom; row > top; row-- {
			src := g.physicalRow(row - 1)
			dst := g.physicalRow(row)
			copy(g.cells[g.index(0, dst):g.index(0, dst)+g.cols], g.cells[g.index(0, src):g.index(0, src)+g.cols])
		}
		g.clearPhysicalRow(g.physicalRow(top))
	}
	for y := top; y <= bottom; y++ {
		g.markDirty(y)
	}
}

func (g *Grid) clearPhysicalRow(phys int) {
	base := g.index(0, phys)
	for i := 0; i < g.cols; i++ {
		g.cells[base+i] = NewCell()
	}
}

func (g *Grid) clearAllLocked() {
	for i := range g.cells {
		g.cells[i] = NewCell()
	}
}

// InsertBlank inserts n blank cells at the cursor, shifting the rest of
// the row right; cells shifted past the last column are discarded.
func (g *Grid) InsertBlank(n int) {
	g.mu.Lock()
	row := g.physicalRow(g.cursor.Y)
	base := g.index(0, row)
	for col := g.cols - 1; col >= g.cursor.X+n; col-- {
		g.cells[base+col] = g.cells[base+col-n]
	}
	for col := g.cursor.X; col < g.cursor.X+n && col < g.cols; col++ {
		g.cells[base+col] = NewCell()
	}
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

// DeleteCells deletes n cells at the cursor, shifting the rest of the
// row left and filling the trailing gap with blanks.
func (g *Grid) DeleteCells(n int) {
	g.mu.Lock()
	row := g.physicalRow(g.cursor.Y)
	base := g.index(0, row)
	for col := g.cursor.X; col < g.cols-n; col++ {
		g.cells[base+col] = g.cells[base+col+n]
	}
	for col := g.cols - n; col < g.cols; col++ {
		if col >= 0 {
			g.cells[base+col] = NewCell()
		}
	}
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

// EraseChars clears n cells starting at the cursor, without moving it.
func (g *Grid) EraseChars(n int) {
	g.mu.Lock()
	row := g.physicalRow(g.cursor.Y)
	base := g.index(0, row)
	for i := 0; i < n && g.cursor.X+i < g.cols; i++ {
		g.cells[base+g.cursor.X+i] = NewCell()
	}
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

// InsertLines inserts n blank lines at the cursor's row, within the
// scroll region, shifting lines below down.
func (g *Grid) InsertLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	top, bottom := g.cursor.Y, g.scrollBottom
	if top < g.scrollTop || top > g.scrollBottom {
		return
	}
	for i := 0; i < n; i++ {
		for row := bottom; row > top; row-- {
			src := g.physicalRow(row - 1)
			dst := g.physicalRow(row)
			copy(g.cells[g.index(0, dst):g.index(0, dst)+g.cols], g.cells[g.index(0, src):g.index(0, src)+g.cols])
		}
		g.clearPhysicalRow(g.physicalRow(top))
	}
	for y := top; y <= bottom; y++ {
		g.markDirty(y)
	}
}

// DeleteLines deletes n lines at the cursor's row, within the scroll
// region, shifting lines below up.
func (g *Grid) DeleteLines(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	top, bottom := g.cursor.Y, g.scrollBottom
	if top < g.scrollTop || top > g.scrollBottom {
		return
	}
	for i := 0; i < n; i++ {
		for row := top; row < bottom; row++ {
			src := g.physicalRow(row + 1)
			dst := g.physicalRow(row)
			copy(g.cells[g.index(0, dst):g.index(0, dst)+g.cols], g.cells[g.index(0, src):g.index(0, src)+g.cols])
		}
		g.clearPhysicalRow(g.physicalRow(bottom))
	}
	for y := top; y <= bottom; y++ {
		g.markDirty(y)
	}
}

// ClearAll clears every cell in the viewport.
func (g *Grid) ClearAll() {
	g.mu.Lock()
	for y := 0; y < g.rows; y++ {
		g.clearPhysicalRow(g.physicalRow(y))
	}
	g.mu.Unlock()
	for y := 0; y < g.rows; y++ {
		g.markDirty(y)
	}
}

// ClearToEnd clears from the cursor to the end of the screen (ED 0).
func (g *Grid) ClearToEnd() {
	g.mu.Lock()
	g.clearLineToEndLocked()
	for row := g.cursor.Y + 1; row < g.rows; row++ {
		g.clearPhysicalRow(g.physicalRow(row))
	}
	y := g.cursor.Y
	g.mu.Unlock()
	for row := y; row < g.rows; row++ {
		g.markDirty(row)
	}
}

// ClearToStart clears from the start of the screen to the cursor (ED 1).
func (g *Grid) ClearToStart() {
	g.mu.Lock()
	for row := 0; row < g.cursor.Y; row++ {
		g.clearPhysicalRow(g.physicalRow(row))
	}
	g.clearLineToStartLocked()
	y := g.cursor.Y
	g.mu.Unlock()
	for row := 0; row <= y; row++ {
		g.markDirty(row)
	}
}

// ClearLine clears the entire current line (EL 2).
func (g *Grid) ClearLine() {
	g.mu.Lock()
	g.clearPhysicalRow(g.physicalRow(g.cursor.Y))
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

func (g *Grid) clearLineToEndLocked() {
	base := g.index(0, g.physicalRow(g.cursor.Y))
	for col := g.cursor.X; col < g.cols; col++ {
		g.cells[base+col] = NewCell()
	}
}

func (g *Grid) clearLineToStartLocked() {
	base := g.index(0, g.physicalRow(g.cursor.Y))
	for col := 0; col <= g.cursor.X && col < g.cols; col++ {
		g.cells[base+col] = NewCell()
	}
}

// ClearLineToEnd clears from the cursor to the end of line (EL 0).
func (g *Grid) ClearLineToEnd() {
	g.mu.Lock()
	g.clearLineToEndLocked()
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

// ClearLineToStart clears from the start of line to the cursor (EL 1).
func (g *Grid) ClearLineToStart() {
	g.mu.Lock()
	g.clearLineToStartLocked()
	y := g.cursor.Y
	g.mu.Unlock()
	g.markDirty(y)
}

// StoreCursor saves cursor+scroll-region+head as a unit (DECSC / CSI s).
func (g *Grid) StoreCursor() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = savedState{
		cursor:       g.cursor,
		scrollTop:    g.scrollTop,
		scrollBottom: g.scrollBottom,
		head:         g.head,
		valid:        true,
	}
}

// RestoreCursor restores the last StoreCursor snapshot (DECRC / CSI u).
// A restore with no matching store is a no-op.
func (g *Grid) RestoreCursor() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.saved.valid {
		return
	}
	g.cursor = g.saved.cursor
	g.scrollTop = g.saved.scrollTop
	g.scrollBottom = g.saved.scrollBottom
	g.head = g.saved.head
}

// SetScrollRegion sets the scroll region (0-based, inclusive), clamped
// to the viewport, and homes the cursor (DECOM-aware per spec.md).
func (g *Grid) SetScrollRegion(top, bottom int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if top < 0 {
		top = 0
	}
	if bottom > g.rows-1 {
		bottom = g.rows - 1
	}
	if top < bottom {
		g.scrollTop = top
		g.scrollBottom = bottom
	} else {
		g.scrollTop = 0
		g.scrollBottom = g.rows - 1
	}
	if g.cursor.hasOrigin() {
		g.cursor.Y = g.scrollTop
	} else {
		g.cursor.Y = 0
	}
	g.cursor.X = 0
	g.cursor.State &^= CursorOnWrap
}

// Resize reallocates the grid, preserving cell contents at
// (min(r,newRows-1), min(c,newCols-1)) and clamping the cursor to the
// new viewport. The scroll region is reset to span the whole new
// viewport.
func (g *Grid) Resize(cols, rows int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	maxRows := rows + (g.maxRows - g.rows)
	if maxRows < rows {
		maxRows = rows
	}
	newCells := make([]Cell, maxRows*cols)
	for i := range newCells {
		newCells[i] = NewCell()
	}

	copyRows := rows
	if g.rows < copyRows {
		copyRows = g.rows
	}
	copyCols := cols
	if g.cols < copyCols {
		copyCols = g.cols
	}
	for row := 0; row < copyRows; row++ {
		srcBase := g.index(0, g.physicalRow(row))
		dstBase := row * cols
		copy(newCells[dstBase:dstBase+copyCols], g.cells[srcBase:srcBase+copyCols])
	}

	g.cells = newCells
	g.maxRows = maxRows
	g.cols = cols
	g.rows = rows
	g.head = 0
	g.scrollTop = 0
	g.scrollBottom = rows - 1
	g.tabStops = defaultTabStops(cols)
	g.saved = savedState{}

	g.cursor.X = clampX(g.cursor.X, cols)
	if g.cursor.Y >= rows {
		g.cursor.Y = rows - 1
	}
	if g.cursor.Y < 0 {
		g.cursor.Y = 0
	}
}

// VisibleText renders the viewport as newline-joined, right-trimmed
// text, for debugging and tests.
func (g *Grid) VisibleText() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	lines := make([]string, g.rows)
	for row := 0; row < g.rows; row++ {
		var b strings.Builder
		for col := 0; col < g.cols; col++ {
			ch := g.cells[g.index(col, g.physicalRow(row))].Codepoint
			if ch == 0 {
				ch = ' '
			}
			b.WriteRune(ch)
		}
		lines[row] = strings.TrimRight(b.String(), " ")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
