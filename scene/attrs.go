package scene

import (
	"slices"
	"time"

	"github.com/mattn/go-runewidth"
)

// Position is a local offset from the parent's origin.
type Position struct {
	X, Y int
}

// Add returns the component-wise sum.
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// GlobalPosition is an absolute screen coordinate. Only the global position
// resolver writes it.
type GlobalPosition struct {
	X, Y int
}

// Size is a width and height in cells.
type Size struct {
	Width, Height int
}

// TextBlock is a rectangle of text. Rows shorter than Width are padded with
// spaces when painted, longer rows are truncated, and missing rows are blank.
type TextBlock struct {
	Width  int
	Height int
	Rows   []string
}

// Size returns the declared dimensions.
func (b TextBlock) Size() Size {
	return Size{Width: b.Width, Height: b.Height}
}

// SameContent reports whether both blocks carry the same rows.
func (b TextBlock) SameContent(o TextBlock) bool {
	return slices.Equal(b.Rows, o.Rows)
}

// SingleRow creates a one-row block sized to the display width of text.
func SingleRow(text string) TextBlock {
	return TextBlock{Width: runewidth.StringWidth(text), Height: 1, Rows: []string{text}}
}

// EmptyBlock creates a block of the given size with no rows.
func EmptyBlock(width, height int) TextBlock {
	return TextBlock{Width: width, Height: height}
}

// Visible is an explicit visibility override. Absent means visible.
type Visible bool

// ZLevel is the paint priority; higher wins where regions overlap.
type ZLevel int

// Direction is the axis a stacking context distributes.
type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// StackingContext marks a layout container.
type StackingContext struct {
	Direction Direction
}

// StackingRule holds one child's constraints inside a stacking context.
// Nil bounds are unconstrained. Flex below 1 is treated as 1.
type StackingRule struct {
	MinWidth, MaxWidth   *int
	MinHeight, MaxHeight *int
	Flex                 int
}

// NewRule returns a rule with flex 1 and no bounds.
func NewRule() StackingRule {
	return StackingRule{Flex: 1}
}

func (r StackingRule) WithMinWidth(v int) StackingRule  { r.MinWidth = &v; return r }
func (r StackingRule) WithMaxWidth(v int) StackingRule  { r.MaxWidth = &v; return r }
func (r StackingRule) WithMinHeight(v int) StackingRule { r.MinHeight = &v; return r }
func (r StackingRule) WithMaxHeight(v int) StackingRule { r.MaxHeight = &v; return r }
func (r StackingRule) WithFlex(v int) StackingRule      { r.Flex = v; return r }

// Weight returns the effective flex weight.
func (r StackingRule) Weight() int {
	if r.Flex < 1 {
		return 1
	}
	return r.Flex
}

// Bounds returns the min and max along the given axis.
func (r StackingRule) Bounds(d Direction) (lo, hi *int) {
	if d == Vertical {
		return r.MinHeight, r.MaxHeight
	}
	return r.MinWidth, r.MaxWidth
}

// Centered positions a node in the middle of its parent on the enabled axes.
type Centered struct {
	Horizontal bool
	Vertical   bool
}

// BorderGlyphs are the runes used to outline a Border node.
type BorderGlyphs struct {
	Horizontal  rune
	Vertical    rune
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
}

// ASCIIGlyphs is the default outline.
var ASCIIGlyphs = BorderGlyphs{
	Horizontal:  '-',
	Vertical:    '|',
	TopLeft:     '+',
	TopRight:    '+',
	BottomLeft:  '+',
	BottomRight: '+',
}

// Border draws an outline on the selected edges of its own TextBlock and
// shrinks its children to fit inside.
type Border struct {
	Left, Right, Top, Bottom bool
	Glyphs                   BorderGlyphs // zero value means ASCIIGlyphs
}

// AllSides returns a border on every edge.
func AllSides() Border {
	return Border{Left: true, Right: true, Top: true, Bottom: true}
}

// VisibleIfChild marks an aggregator whose Visible is derived from its
// direct children.
type VisibleIfChild struct{}

// Blink toggles the node's Visible every Interval of frame time.
type Blink struct {
	Interval time.Duration
}
