package ui

import (
	"fmt"
	"io"
	"time"

	"mirrorcrypt/internal/mirrorengine"
)

// GridDrawer redraws the full mirror-field grid to w, highlighting the
// cell at (row, col), mirroring the original mrrcrypt's mirrorfield_draw:
// a full-screen redraw (or cursor-save/restore after the first frame) with
// the perimeter characters framing the grid and the current cell inverted.
type GridDrawer struct {
	w           io.Writer
	resetCursor bool
}

// NewGridDrawer returns a GridDrawer that writes frames to w.
func NewGridDrawer(w io.Writer) *GridDrawer {
	return &GridDrawer{w: w}
}

func glyphForCode(code int8) byte {
	ch, ok := mirrorengine.CellCodeToGlyph(code)
	if !ok {
		return ' '
	}
	return ch
}

// Draw renders one frame of the grid state, highlighting (row, col).
func (d *GridDrawer) Draw(grid []int8, perim []byte, row, col int) {
	n := mirrorengine.N
	if d.resetCursor {
		fmt.Fprint(d.w, "\x1b[s")
	} else {
		fmt.Fprint(d.w, "\x1b[2J")
	}
	fmt.Fprint(d.w, "\x1b[H")

	for r := -1; r <= n; r++ {
		for c := -1; c <= n; c++ {
			highlight := r == row && c == col
			if highlight {
				fmt.Fprint(d.w, "\x1b[30m\x1b[47m")
			}
			switch {
			case r == -1 && c == -1, r == -1 && c == n, r == n && c == -1, r == n && c == n:
				fmt.Fprint(d.w, "  ")
			case r == -1:
				fmt.Fprintf(d.w, "%2c", perim[c])
			case c == n:
				fmt.Fprintf(d.w, "%2c", perim[r+n])
			case r == n:
				fmt.Fprintf(d.w, "%2c", perim[c+3*n])
			case c == -1:
				fmt.Fprintf(d.w, "%2c", perim[r+2*n])
			default:
				fmt.Fprintf(d.w, "%2c", glyphForCode(grid[r*n+c]))
			}
			if highlight {
				fmt.Fprint(d.w, Reset)
			}
		}
		fmt.Fprintln(d.w)
	}
	fmt.Fprintln(d.w)

	if d.resetCursor {
		fmt.Fprint(d.w, "\x1b[u")
	} else {
		d.resetCursor = true
	}
}

// TraceCallback returns a mirrorengine.TraceStep callback that redraws the
// grid (reading live state via snapshot) and sleeps stepDelay between
// frames, the seam the --debug-ms flag attaches to.
func (d *GridDrawer) TraceCallback(snapshot func() ([]int8, []byte), stepDelay time.Duration) func(mirrorengine.TraceStep) {
	return func(step mirrorengine.TraceStep) {
		grid, perim := snapshot()
		d.Draw(grid, perim, step.Row, step.Col)
		if stepDelay > 0 {
			time.Sleep(stepDelay)
		}
	}
}
