// Package codec implements the incremental UTF-8 decoder/encoder and the
// display-width lookup the terminal grid needs to place glyphs.
package codec

import "github.com/unilibs/uniwidth"

// Status describes the outcome of a single Decode call.
type Status int

const (
	// Ok means r and size are valid: a complete scalar was decoded.
	Ok Status = iota
	// Incomplete means buf holds the start of a multi-byte sequence that
	// may still be completed by more bytes. The caller must retain buf
	// and feed more input before decoding again.
	Incomplete
	// Invalid means buf starts with a byte sequence that can never form
	// a valid scalar value. The caller should substitute U+FFFD and
	// advance by size (always 1 on Invalid).
	Invalid
)

// ReplacementChar is the codepoint substituted for invalid byte sequences.
const ReplacementChar = rune(0xFFFD)

const replacementChar = ReplacementChar

// Decode reads one UTF-8 scalar value from the front of buf.
//
// On Ok, r is the decoded codepoint and size is the number of bytes it
// consumed. On Incomplete, size is 0 and the caller must wait for more
// bytes. On Invalid, r is U+FFFD and size is 1: the caller advances past
// exactly one byte and tries again.
func Decode(buf []byte) (r rune, size int, status Status) {
	if len(buf) == 0 {
		return 0, 0, Incomplete
	}

	b0 := buf[0]
	switch {
	case b0 < 0x80:
		return rune(b0), 1, Ok

	case b0&0xE0 == 0xC0:
		return decodeN(buf, 2, rune(b0&0x1F), 0x80)

	case b0&0xF0 == 0xE0:
		return decodeN(buf, 3, rune(b0&0x0F), 0x800)

	case b0&0xF8 == 0xF0:
		return decodeN(buf, 4, rune(b0&0x07), 0x10000)

	default:
		// Continuation byte or invalid leading byte in this position.
		return replacementChar, 1, Invalid
	}
}

// decodeN decodes the remaining n-1 continuation bytes of an n-byte
// sequence whose leading byte already contributed the high bits in acc,
// rejecting overlong encodings (scalar < min), surrogates, and
// out-of-range codepoints.
func decodeN(buf []byte, n int, acc rune, min rune) (rune, int, Status) {
	if len(buf) < n {
		// Verify what we have so far isn't already malformed, so we
		// don't stall forever on a bad leading byte.
		for i := 1; i < len(buf); i++ {
			if buf[i]&0xC0 != 0x80 {
				return replacementChar, 1, Invalid
			}
		}
		return 0, 0, Incomplete
	}

	cp := acc
	for i := 1; i < n; i++ {
		b := buf[i]
		if b&0xC0 != 0x80 {
			return replacementChar, 1, Invalid
		}
		cp = cp<<6 | rune(b&0x3F)
	}

	if cp < min || cp > 0x10FFFF || (cp >= 0xD800 && cp <= 0xDFFF) {
		return replacementChar, 1, Invalid
	}

	return cp, n, Ok
}

// Encode returns the UTF-8 byte sequence for cp, or nil if cp is not a
// valid Unicode scalar value that UTF-8 can represent.
func Encode(cp rune) []byte {
	switch {
	case cp < 0:
		return nil
	case cp < 0x80:
		return []byte{byte(cp)}
	case cp < 0x800:
		return []byte{
			byte(0xC0 | (cp >> 6)),
			byte(0x80 | (cp & 0x3F)),
		}
	case cp >= 0xD800 && cp <= 0xDFFF:
		return nil
	case cp < 0x10000:
		return []byte{
			byte(0xE0 | (cp >> 12)),
			byte(0x80 | ((cp >> 6) & 0x3F)),
			byte(0x80 | (cp & 0x3F)),
		}
	case cp <= 0x10FFFF:
		return []byte{
			byte(0xF0 | (cp >> 18)),
			byte(0x80 | ((cp >> 12) & 0x3F)),
			byte(0x80 | ((cp >> 6) & 0x3F)),
			byte(0x80 | (cp & 0x3F)),
		}
	default:
		return nil
	}
}

// RuneWidth returns the display width of r: 0 for combining/zero-width
// runes, 1 for most characters, 2 for East-Asian-Wide/Fullwidth runes.
func RuneWidth(r rune) int {
	if r == 0 {
		return 0
	}
	return uniwidth.RuneWidth(r)
}

// StringWidth returns the total display width of s.
func StringWidth(s string) int {
	return uniwidth.StringWidth(s)
}
