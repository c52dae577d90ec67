package layout

import (
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/kungfusheep/cellgraph/scene"
)

// Box-drawing outlines for Border nodes.
var (
	SingleGlyphs  = GlyphsFrom(lipgloss.NormalBorder())
	RoundedGlyphs = GlyphsFrom(lipgloss.RoundedBorder())
	DoubleGlyphs  = GlyphsFrom(lipgloss.DoubleBorder())
	ThickGlyphs   = GlyphsFrom(lipgloss.ThickBorder())
)

// GlyphsFrom takes the first rune of each edge of a lipgloss border.
// Empty edges fall back to the ASCII outline.
func GlyphsFrom(b lipgloss.Border) scene.BorderGlyphs {
	first := func(s string, fallback rune) rune {
		if r, _ := utf8.DecodeRuneInString(s); r != utf8.RuneError {
			return r
		}
		return fallback
	}
	a := scene.ASCIIGlyphs
	return scene.BorderGlyphs{
		Horizontal:  first(b.Top, a.Horizontal),
		Vertical:    first(b.Left, a.Vertical),
		TopLeft:     first(b.TopLeft, a.TopLeft),
		TopRight:    first(b.TopRight, a.TopRight),
		BottomLeft:  first(b.BottomLeft, a.BottomLeft),
		BottomRight: first(b.BottomRight, a.BottomRight),
	}
}

// PaintBorder renders the outline of a width x height block. Corners are
// drawn only where two enabled edges meet; otherwise the edge glyph runs
// through. Interior cells are spaces.
func PaintBorder(b scene.Border, width, height int) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	g := b.Glyphs
	if g == (scene.BorderGlyphs{}) {
		g = scene.ASCIIGlyphs
	}

	grid := make([][]rune, height)
	for y := range grid {
		row := make([]rune, width)
		for x := range row {
			row[x] = ' '
		}
		grid[y] = row
	}

	if b.Left {
		for y := range grid {
			grid[y][0] = g.Vertical
		}
	}
	if b.Right {
		for y := range grid {
			grid[y][width-1] = g.Vertical
		}
	}
	edge := func(y int, left, right rune) {
		row := grid[y]
		for x := range row {
			row[x] = g.Horizontal
		}
		if b.Left {
			row[0] = left
		}
		if b.Right {
			row[width-1] = right
		}
	}
	if b.Top {
		edge(0, g.TopLeft, g.TopRight)
	}
	if b.Bottom {
		edge(height-1, g.BottomLeft, g.BottomRight)
	}

	rows := make([]string, height)
	for y, row := range grid {
		rows[y] = string(row)
	}
	return rows
}
