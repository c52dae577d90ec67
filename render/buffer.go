// Package render composites the scene graph into a character grid and writes
// only the cells that changed since the previous frame to the terminal.
package render

import (
	"strings"

	"github.com/kungfusheep/cellgraph/scene"
	"github.com/mattn/go-runewidth"
)

// Placeholder marks the second cell of a double-width rune.
const Placeholder rune = 0

// Cell is one terminal cell and the z-level of the region that painted it.
type Cell struct {
	Rune    rune
	Z       scene.ZLevel
	painted bool
}

// EmptyCell returns a blank cell that any region may paint over.
func EmptyCell() Cell {
	return Cell{Rune: ' '}
}

// Buffer is a 2D grid of cells representing one frame.
type Buffer struct {
	cells  []Cell
	width  int
	height int
}

// NewBuffer creates a new blank buffer with the given dimensions.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Width returns the buffer width.
func (b *Buffer) Width() int {
	return b.width
}

// Height returns the buffer height.
func (b *Buffer) Height() int {
	return b.height
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() scene.Size {
	return scene.Size{Width: b.width, Height: b.height}
}

// InBounds returns true if the given coordinates are within the buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer) index(x, y int) int {
	return y*b.width + x
}

// Get returns the cell at the given coordinates.
// Returns an empty cell if out of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// Set overwrites the cell at the given coordinates.
// Does nothing if out of bounds.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	b.cells[b.index(x, y)] = c
}

// Paint writes r at (x, y) unless a region with a higher z-level already
// covers the cell. Equal z-levels are overwritten so later paints win.
func (b *Buffer) Paint(x, y int, r rune, z scene.ZLevel) {
	if !b.InBounds(x, y) {
		return
	}
	c := &b.cells[b.index(x, y)]
	if c.painted && c.Z > z {
		return
	}
	*c = Cell{Rune: r, Z: z, painted: true}
}

// PaintBlock paints a text block with its top-left corner at (x, y). Rows are
// padded with spaces or truncated to the block width in display cells, and
// missing rows are blank. A double-width rune that would be cut by the block
// width or the buffer edge is replaced by spaces.
func (b *Buffer) PaintBlock(x, y int, block scene.TextBlock, z scene.ZLevel) {
	if block.Width <= 0 || block.Height <= 0 {
		return
	}
	for i := 0; i < block.Height; i++ {
		row := ""
		if i < len(block.Rows) {
			row = block.Rows[i]
		}
		col := 0
		for _, r := range row {
			w := runewidth.RuneWidth(r)
			if w == 0 {
				continue
			}
			if col+w > block.Width {
				break
			}
			switch {
			case w == 1:
				b.Paint(x+col, y+i, r, z)
			case b.InBounds(x+col, y+i) && b.InBounds(x+col+1, y+i):
				b.Paint(x+col, y+i, r, z)
				b.Paint(x+col+1, y+i, Placeholder, z)
			default:
				// Half of the rune is off screen.
				b.Paint(x+col, y+i, ' ', z)
				b.Paint(x+col+1, y+i, ' ', z)
			}
			col += w
		}
		for ; col < block.Width; col++ {
			b.Paint(x+col, y+i, ' ', z)
		}
	}
}

// Fill fills the entire buffer with the given cell.
func (b *Buffer) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
}

// Clear clears the buffer to empty cells.
func (b *Buffer) Clear() {
	b.Fill(EmptyCell())
}

// Resize resizes the buffer to new dimensions and blanks it.
func (b *Buffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width*height != len(b.cells) {
		b.cells = make([]Cell, width*height)
	}
	b.width = width
	b.height = height
	b.Clear()
}

// GetLine returns the content of a single line with trailing spaces trimmed.
func (b *Buffer) GetLine(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	var sb strings.Builder
	for x := 0; x < b.width; x++ {
		if r := b.cells[b.index(x, y)].Rune; r != Placeholder {
			sb.WriteRune(r)
		}
	}
	return strings.TrimRight(sb.String(), " ")
}

// String returns the buffer contents as a string (for testing/debugging).
// Each row is separated by a newline. Trailing spaces are preserved.
func (b *Buffer) String() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			if r := b.cells[b.index(x, y)].Rune; r != Placeholder {
				sb.WriteRune(r)
			}
		}
		if y < b.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
