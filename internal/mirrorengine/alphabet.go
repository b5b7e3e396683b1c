// Package mirrorengine implements the mirror-field cipher: a self-mutating
// grid of reflective cells surrounded by a rolling permutation of the
// supported alphabet. See the package's engine.go for the traversal and
// mutation rules; this file defines the fixed alphabet and key model.
package mirrorengine

// N is the grid side length. A concrete deployment fixes one value; both
// endpoints of a conversation must agree on N.
const N = 16

// P is the number of perimeter slots: four edges of length N each.
const P = 4 * N

// Cell codes. Mirror "spin" advances 0→1→2→0 (mod 3); empty cells (3) are
// excluded from spin.
const (
	CellForward  int8 = 0 // '/'
	CellStraight int8 = 1 // '-'
	CellBackward int8 = 2 // '\'
	CellEmpty    int8 = 3 // ' '
)

// Alphabet is the ordered set of |P| characters the cipher accepts as
// input and may place on the perimeter: upper- and lower-case letters,
// digits, space, and newline. Its canonical order is the perimeter's
// identity arrangement before any shuffle or roll is applied.
var Alphabet = buildAlphabet()

func buildAlphabet() []byte {
	b := make([]byte, 0, P)
	for c := byte('A'); c <= 'Z'; c++ {
		b = append(b, c)
	}
	for c := byte('a'); c <= 'z'; c++ {
		b = append(b, c)
	}
	for c := byte('0'); c <= '9'; c++ {
		b = append(b, c)
	}
	b = append(b, ' ', '\n')
	return b
}

var supported = buildSupported()

func buildSupported() map[byte]bool {
	m := make(map[byte]bool, len(Alphabet))
	for _, b := range Alphabet {
		m[b] = true
	}
	return m
}

func init() {
	if len(Alphabet) != P {
		panic("mirrorengine: alphabet length does not equal 4N")
	}
}

// IsSupported reports whether ch is one of the cipher's |A| alphabet
// characters.
func IsSupported(ch byte) bool {
	return supported[ch]
}

// IsMirrorGlyph reports whether ch is one of the four grid-cell glyphs
// ('/', '-', '\\', ' ').
func IsMirrorGlyph(ch byte) bool {
	switch ch {
	case '/', '-', '\\', ' ':
		return true
	default:
		return false
	}
}

// GlyphToCellCode maps a grid glyph to its cell code. ok is false for any
// byte that isn't one of the four recognized glyphs.
func GlyphToCellCode(ch byte) (code int8, ok bool) {
	switch ch {
	case '/':
		return CellForward, true
	case '-':
		return CellStraight, true
	case '\\':
		return CellBackward, true
	case ' ':
		return CellEmpty, true
	default:
		return 0, false
	}
}

// CellCodeToGlyph is the inverse of GlyphToCellCode.
func CellCodeToGlyph(code int8) (ch byte, ok bool) {
	switch code {
	case CellForward:
		return '/', true
	case CellStraight:
		return '-', true
	case CellBackward:
		return '\\', true
	case CellEmpty:
		return ' ', true
	default:
		return 0, false
	}
}
