package vtparser

// decSpecialGraphics maps the printable ASCII range to the DEC Special
// Graphics glyphs selected by ESC ( 0 (and reverted by ESC ( B). Entries
// absent from this table pass through unchanged.
var decSpecialGraphics = map[rune]rune{
	'.': 0x2022, // bullet
	'0': 0x25C6, // diamond
	'1': 0x2592, // checkerboard
	'2': 0x2409, // HT symbol
	'3': 0x240C, // FF symbol
	'4': 0x240D, // CR symbol
	'5': 0x240A, // LF symbol
	'6': 0x00B0, // degree
	'7': 0x00B1, // plus/minus
	'8': 0x2424, // NL symbol
	'9': 0x240B, // VT symbol
	'<': 0x2264, // less-or-equal
	'=': 0x2260, // not equal
	'>': 0x2265, // greater-or-equal
	'G': 0x03C0, // pi
	'`': 0x25C6, // diamond
	'a': 0x2592, // checkerboard
	'b': 0x2409,
	'c': 0x240C,
	'd': 0x240D,
	'e': 0x240A,
	'f': 0x00B0,
	'g': 0x00B1,
	'h': 0x2424,
	'i': 0x240B,
	'j': 0x2518, // bottom-right corner
	'k': 0x2510, // top-right corner
	'l': 0x250C, // top-left corner
	'm': 0x2514, // bottom-left corner
	'n': 0x253C, // cross
	'o': 0x23BA, // scan line 1
	'p': 0x23BB, // scan line 3
	'q': 0x2500, // horizontal line
	'r': 0x23BC, // scan line 7
	's': 0x23BD, // scan line 9
	't': 0x251C, // left tee
	'u': 0x2524, // right tee
	'v': 0x2534, // bottom tee
	'w': 0x252C, // top tee
	'x': 0x2502, // vertical line
	'y': 0x2264, // less-or-equal
	'z': 0x2265, // greater-or-equal
	'{': 0x03C0, // pi
	'|': 0x2260, // not equal
	'}': 0x00A3, // pound sterling
	'~': 0x00B7, // middle dot
}
