package mirrorengine

import "fmt"

// direction is a ray's current heading while traversing the grid.
type direction int

const (
	dirDown direction = iota + 1
	dirLeft
	dirRight
	dirUp
)

// phase tracks the Engine's position in its FRESH -> READY -> CLOSED
// lifecycle (with a terminal INVALID state reachable from FRESH on bad
// input, or from a Validate call that finds a duplicate perimeter).
type phase int

const (
	phaseFresh phase = iota
	phaseReady
	phaseInvalid
	phaseClosed
)

// TraceStep describes one grid cell visited during a single Crypt call.
// CryptWithTrace invokes a callback with one of these per traversal step,
// the seam an animated debug renderer (out of scope for this package)
// would attach to.
type TraceStep struct {
	Row, Col  int
	Direction int
	CellCode  int8
}

// Engine is a mirror-field cipher instance: an owned grid, perimeter, and
// the cross-character sentinels that make the cipher's substitution
// dynamic. It is a single-threaded, sequential state machine: no method is
// safe to call concurrently on the same Engine, but independent Engines
// with disjoint state may run on separate goroutines freely.
type Engine struct {
	grid    []int8
	perim   []byte
	visited []bool

	setCount int
	phase    phase

	evenodd   int
	lastStart int
	lastEnd   int
}

// NewEngine returns a fresh, unloaded Engine (state FRESH).
func NewEngine() *Engine {
	return &Engine{
		grid:      make([]int8, N*N),
		perim:     make([]byte, P),
		visited:   make([]bool, N*N),
		lastStart: -1,
		lastEnd:   -1,
	}
}

// Set feeds one key byte in serialized order: the first N*N calls populate
// the grid (glyphs '/', '-', '\\', ' '), the next P populate the
// perimeter verbatim. Any unrecognized grid glyph, or any call beyond
// N*N+P bytes, transitions the Engine to a terminal INVALID state and
// returns an error; every subsequent call (including Validate and Crypt)
// will also fail.
func (e *Engine) Set(ch byte) error {
	switch e.phase {
	case phaseClosed:
		return ErrClosed
	case phaseInvalid:
		return fmt.Errorf("%w: engine already invalid", ErrInvalidKeyGlyph)
	}

	if e.setCount >= N*N+P {
		e.phase = phaseInvalid
		return fmt.Errorf("%w: expected %d bytes, got at least %d", ErrOverflowingKey, N*N+P, e.setCount+1)
	}

	if e.setCount < N*N {
		code, ok := GlyphToCellCode(ch)
		if !ok {
			e.phase = phaseInvalid
			return fmt.Errorf("%w: %q at grid cell %d", ErrInvalidKeyGlyph, ch, e.setCount)
		}
		e.grid[e.setCount] = code
	} else {
		e.perim[e.setCount-N*N] = ch
	}

	e.setCount++
	return nil
}

// Validate gates FRESH/LOADED to READY. It requires exactly N*N+P bytes to
// have been fed via Set, every grid cell to hold a recognized code (always
// true given Set's own checks), and every perimeter byte to be unique.
func (e *Engine) Validate() error {
	switch e.phase {
	case phaseClosed:
		return ErrClosed
	case phaseInvalid:
		return fmt.Errorf("%w: engine is invalid", ErrNotReady)
	}

	if e.setCount != N*N+P {
		return fmt.Errorf("%w: loaded %d of %d expected bytes", ErrNotReady, e.setCount, N*N+P)
	}

	seen := make(map[byte]bool, P)
	for _, b := range e.perim {
		if seen[b] {
			e.phase = phaseInvalid
			return ErrDuplicatePerimeter
		}
		seen[b] = true
	}

	e.phase = phaseReady
	return nil
}

// Close releases the Engine's state. Subsequent calls to Set, Validate, or
// Crypt return ErrClosed.
func (e *Engine) Close() {
	e.phase = phaseClosed
	e.grid = nil
	e.perim = nil
	e.visited = nil
}

// Snapshot returns copies of the engine's current grid and perimeter
// state, for callers (such as a debug renderer) that want to inspect
// engine state without risking mutation of the live arrays.
func (e *Engine) Snapshot() (grid []int8, perim []byte) {
	grid = append([]int8(nil), e.grid...)
	perim = append([]byte(nil), e.perim...)
	return grid, perim
}

// Crypt transforms one character by ray-tracing it through the mirror
// field and then mutating the engine's own state (mirror spins and a
// perimeter roll). Encryption and decryption are the same operation: this
// call is its own inverse across two Engines loaded from byte-identical
// keys and fed the state-evolution sequence in the same order.
func (e *Engine) Crypt(ch byte) (byte, error) {
	return e.crypt(ch, nil)
}

// CryptWithTrace behaves like Crypt but additionally invokes trace once
// per grid cell visited during the traversal, before that cell's un-spin
// and reflection are applied.
func (e *Engine) CryptWithTrace(ch byte, trace func(TraceStep)) (byte, error) {
	return e.crypt(ch, trace)
}

func (e *Engine) crypt(ch byte, trace func(TraceStep)) (byte, error) {
	if e.phase == phaseClosed {
		return 0, ErrClosed
	}
	if e.phase != phaseReady {
		return 0, ErrNotReady
	}

	startCharPos := -1
	for i, b := range e.perim {
		if b == ch {
			startCharPos = i
			break
		}
	}
	if startCharPos < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownInput, ch)
	}

	// Parity toggles only once we know the input is acceptable, so a
	// rejected Crypt call leaves every piece of state untouched.
	evenodd := 1 - e.evenodd

	var r, c int
	var dir direction
	switch {
	case startCharPos < N:
		dir, r, c = dirDown, 0, startCharPos
	case startCharPos < 2*N:
		dir, r, c = dirLeft, startCharPos-N, N-1
	case startCharPos < 3*N:
		dir, r, c = dirRight, startCharPos-2*N, 0
	default:
		dir, r, c = dirUp, N-1, startCharPos-3*N
	}

	for i := range e.visited {
		e.visited[i] = false
	}

	endCharPos := -1
	for endCharPos < 0 {
		t := r*N + c

		if trace != nil {
			trace(TraceStep{Row: r, Col: c, Direction: int(dir), CellCode: e.grid[t]})
		}

		// If we already bounced off this cell during this character,
		// un-spin it once before reflecting: we can only spin a mirror
		// once per character. Guarded so an empty cell (which never spins,
		// and so is never marked visited) can never be un-spun into a
		// mirror.
		if e.visited[t] && e.grid[t] != CellEmpty {
			e.grid[t] = (e.grid[t] + 2) % 3
		}

		switch e.grid[t] {
		case CellForward:
			switch dir {
			case dirDown:
				dir = dirLeft
			case dirLeft:
				dir = dirDown
			case dirRight:
				dir = dirUp
			case dirUp:
				dir = dirRight
			}
		case CellBackward:
			switch dir {
			case dirDown:
				dir = dirRight
			case dirLeft:
				dir = dirUp
			case dirRight:
				dir = dirDown
			case dirUp:
				dir = dirLeft
			}
		}
		// CellStraight and CellEmpty leave direction unchanged.

		if e.grid[t] != CellEmpty {
			e.grid[t] = (e.grid[t] + 1) % 3
			e.visited[t] = true
		}

		switch dir {
		case dirDown:
			r++
			if r == N {
				endCharPos = c + 3*N
			}
		case dirLeft:
			c--
			if c == -1 {
				endCharPos = r + 2*N
			}
		case dirRight:
			c++
			if c == N {
				endCharPos = r + N
			}
		case dirUp:
			r--
			if r == -1 {
				endCharPos = c
			}
		}
	}

	ech := e.perim[endCharPos]

	// Fixed-point rule: lets a character whose current slot index equals
	// its own byte value self-encrypt on alternate occurrences without
	// breaking the involution property.
	if int(e.perim[startCharPos]) == startCharPos || int(e.perim[endCharPos]) == endCharPos {
		if evenodd == 1 {
			ech = e.perim[startCharPos]
		}
	}

	e.evenodd = evenodd
	e.roll(startCharPos, endCharPos)

	return ech, nil
}

// roll mutates the perimeter after every character, rolling the start and
// end slots toward two derived destination slots to make the perimeter
// dynamic. The swap order (larger perimeter value first) is a symmetric
// tie-break required for the involution property to hold when the two
// destination slots coincide.
func (e *Engine) roll(s, en int) {
	neigh := func(x int) int {
		if x == 0 {
			return x + 1
		}
		return x - 1
	}

	rs := (s + int(e.perim[s]) + int(e.perim[neigh(s)])) % P
	re := (en + int(e.perim[en]) + int(e.perim[neigh(en)])) % P

	for rs == s || rs == en || rs == e.lastStart || rs == e.lastEnd {
		rs = (rs + N/2) % P
	}
	for re == en || re == s || re == e.lastEnd || re == e.lastStart {
		re = (re + N/2) % P
	}

	if e.perim[s] > e.perim[en] {
		e.perim[s], e.perim[rs] = e.perim[rs], e.perim[s]
		e.perim[en], e.perim[re] = e.perim[re], e.perim[en]
	} else {
		e.perim[en], e.perim[re] = e.perim[re], e.perim[en]
		e.perim[s], e.perim[rs] = e.perim[rs], e.perim[s]
	}

	e.lastStart = s
	e.lastEnd = en
}

// CryptStream runs each byte of in through e.Crypt in order, returning the
// full transformed output or the first error encountered.
func CryptStream(e *Engine, in []byte) ([]byte, error) {
	out := make([]byte, 0, len(in))
	for _, ch := range in {
		o, err := e.Crypt(ch)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// LoadKey feeds each byte of a serialized key (as produced by
// KeyGenerator.Generate, or any compatible N*N+P byte stream) into a fresh
// Engine and validates it, returning the ready Engine.
func LoadKey(key []byte) (*Engine, error) {
	e := NewEngine()
	for _, b := range key {
		if err := e.Set(b); err != nil {
			return nil, err
		}
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
