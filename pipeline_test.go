package cellgraph

import (
	"bytes"
	"testing"
	"time"

	"github.com/kungfusheep/cellgraph/render"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testTerm struct {
	out  bytes.Buffer
	size scene.Size
}

func newTestPipeline(width, height int, opts ...Option) (*Pipeline, *testTerm) {
	tt := &testTerm{size: scene.Size{Width: width, Height: height}}
	term := render.NewTerminal(&tt.out, render.WithSizeFunc(func() (scene.Size, error) {
		return tt.size, nil
	}))
	return New(scene.NewWorld(), term, opts...), tt
}

type demoScene struct {
	root, header, title, body, text scene.Entity
}

// buildScene makes a vertical layout: a one-row header with a centered title
// above a bordered body holding one line of text.
func buildScene(t *testing.T, w *scene.World) demoScene {
	t.Helper()
	var s demoScene
	var err error
	s.root = w.NewNode()
	require.NoError(t, w.Contexts.Set(s.root, scene.StackingContext{Direction: scene.Vertical}))

	s.header, err = w.NewChild(s.root)
	require.NoError(t, err)
	require.NoError(t, w.Rules.Set(s.header, scene.NewRule().WithMaxHeight(1)))
	s.title, err = w.NewChild(s.header)
	require.NoError(t, err)
	require.NoError(t, w.TextBlocks.Set(s.title, scene.SingleRow("Title")))
	require.NoError(t, w.Centered.Set(s.title, scene.Centered{Horizontal: true}))

	s.body, err = w.NewChild(s.root)
	require.NoError(t, err)
	require.NoError(t, w.Rules.Set(s.body, scene.NewRule()))
	require.NoError(t, w.Borders.Set(s.body, scene.AllSides()))
	s.text, err = w.NewChild(s.body)
	require.NoError(t, err)
	require.NoError(t, w.Positions.Set(s.text, scene.Position{X: 1, Y: 1}))
	require.NoError(t, w.TextBlocks.Set(s.text, scene.SingleRow("hello")))
	return s
}

func TestFrameDrawsScene(t *testing.T) {
	p, _ := newTestPipeline(20, 6)
	buildScene(t, p.World())

	stats, err := p.Frame(0)
	require.NoError(t, err)
	assert.True(t, stats.Render.Cleared)
	assert.Greater(t, stats.SettlePasses, 1)

	front := p.Compositor().Front()
	assert.Equal(t, "       Title", front.GetLine(0))
	assert.Equal(t, "+------------------+", front.GetLine(1))
	assert.Equal(t, "|hello             |", front.GetLine(2))
	assert.Equal(t, "|                  |", front.GetLine(4))
	assert.Equal(t, "+------------------+", front.GetLine(5))
}

func TestFrameIdempotent(t *testing.T) {
	p, tt := newTestPipeline(20, 6)
	buildScene(t, p.World())
	_, err := p.Frame(0)
	require.NoError(t, err)

	tt.out.Reset()
	stats, err := p.Frame(0)
	require.NoError(t, err)
	assert.Zero(t, tt.out.Len(), "second frame must not write")
	assert.Equal(t, 1, stats.SettlePasses)
	assert.Zero(t, stats.Solved)
	assert.False(t, stats.Render.Repainted)
}

func TestFrameIdenticalAttributeRewrite(t *testing.T) {
	p, tt := newTestPipeline(20, 6)
	s := buildScene(t, p.World())
	_, err := p.Frame(0)
	require.NoError(t, err)

	w := p.World()
	require.NoError(t, w.Rules.Set(s.body, scene.NewRule()))
	require.NoError(t, w.Centered.Set(s.title, scene.Centered{Horizontal: true}))
	require.NoError(t, w.Contexts.Set(s.root, scene.StackingContext{Direction: scene.Vertical}))

	tt.out.Reset()
	stats, err := p.Frame(0)
	require.NoError(t, err)
	assert.Zero(t, stats.Solved)
	assert.False(t, stats.Render.Repainted)
	assert.Zero(t, tt.out.Len())
}

func TestFrameSingleCharacterDiff(t *testing.T) {
	p, tt := newTestPipeline(20, 6)
	s := buildScene(t, p.World())
	_, err := p.Frame(0)
	require.NoError(t, err)

	w := p.World()
	block, _ := w.TextBlocks.Get(s.text)
	block.Rows = []string{"hallo"}
	require.NoError(t, w.TextBlocks.Set(s.text, block))

	tt.out.Reset()
	stats, err := p.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Render.Cells)
	assert.Equal(t, "\x1b[3;3Ha", tt.out.String())
	assert.Zero(t, stats.Solved, "content edits do not touch layout")
}

func TestFrameResize(t *testing.T) {
	p, tt := newTestPipeline(20, 6)
	s := buildScene(t, p.World())
	_, err := p.Frame(0)
	require.NoError(t, err)

	tt.size = scene.Size{Width: 30, Height: 8}
	tt.out.Reset()
	stats, err := p.Frame(0)
	require.NoError(t, err)
	assert.True(t, stats.Render.Cleared)
	assert.Equal(t, 1, stats.Solved, "only the screen root is re-solved")
	assert.Contains(t, tt.out.String(), "\x1b[2J")

	w := p.World()
	root, _ := w.TextBlocks.Get(s.root)
	assert.Equal(t, scene.Size{Width: 30, Height: 8}, root.Size())
	inner, _ := w.TextBlocks.Get(s.text)
	assert.Equal(t, scene.Size{Width: 28, Height: 5}, inner.Size())

	front := p.Compositor().Front()
	assert.Equal(t, "            Title", front.GetLine(0))
	assert.Equal(t, "+----------------------------+", front.GetLine(7))
}

func TestFrameBlinks(t *testing.T) {
	p, _ := newTestPipeline(10, 1)
	w := p.World()
	cursor := w.NewNode()
	require.NoError(t, w.TextBlocks.Set(cursor, scene.SingleRow("_")))
	require.NoError(t, w.Blinks.Set(cursor, scene.Blink{Interval: 500 * time.Millisecond}))

	_, err := p.Frame(250 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "_", p.Compositor().Front().GetLine(0))

	stats, err := p.Frame(250 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Toggled)
	assert.Equal(t, "", p.Compositor().Front().GetLine(0))
}

func TestFrameCompactsJournals(t *testing.T) {
	p, _ := newTestPipeline(10, 1)
	w := p.World()
	cursor := w.NewNode()
	require.NoError(t, w.TextBlocks.Set(cursor, scene.SingleRow("_")))
	for i := 0; i < 5000; i++ {
		require.NoError(t, w.Blinks.Set(cursor, scene.Blink{Interval: time.Second}))
		require.NoError(t, w.Positions.Set(cursor, scene.Position{X: i % 3}))
		_, err := p.Frame(10 * time.Millisecond)
		require.NoError(t, err)
	}
	assert.Less(t, w.Blinks.Journaled(), 64)
	assert.Less(t, w.Positions.Journaled(), 64)
	assert.Less(t, w.Visibles.Journaled(), 64)
}

func TestFrameAggregatorHidesEmptyGroup(t *testing.T) {
	p, _ := newTestPipeline(10, 2)
	w := p.World()
	group := w.NewNode()
	require.NoError(t, w.Aggregators.Set(group, scene.VisibleIfChild{}))
	require.NoError(t, w.TextBlocks.Set(group, scene.SingleRow("[group]")))
	item, err := w.NewChild(group)
	require.NoError(t, err)
	require.NoError(t, w.TextBlocks.Set(item, scene.SingleRow("x")))
	require.NoError(t, w.Positions.Set(item, scene.Position{Y: 1}))

	_, err = p.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, "[group]", p.Compositor().Front().GetLine(0))

	require.NoError(t, w.Visibles.Set(item, false))
	_, err = p.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, "", p.Compositor().Front().GetLine(0), "group hides in the same frame")
}

func TestFrameStructuralError(t *testing.T) {
	p, tt := newTestPipeline(10, 3)
	w := p.World()
	box := w.NewNode()
	require.NoError(t, w.TextBlocks.Set(box, scene.EmptyBlock(5, 3)))
	require.NoError(t, w.Borders.Set(box, scene.AllSides()))
	_, err := w.NewChild(box)
	require.NoError(t, err)

	_, err = p.Frame(0)
	require.Error(t, err)
	assert.True(t, eris.Is(err, scene.ErrMissingPosition))
	assert.Contains(t, err.Error(), "border stage")
	assert.Zero(t, tt.out.Len(), "an aborted frame writes nothing")
}

func TestSettleCap(t *testing.T) {
	p, _ := newTestPipeline(20, 6, WithMaxSettle(1))
	buildScene(t, p.World())

	stats, err := p.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SettlePasses)

	// The remaining work finishes on the next frame.
	_, err = p.Frame(0)
	require.NoError(t, err)
	assert.Equal(t, "       Title", p.Compositor().Front().GetLine(0))
}

func TestStartStop(t *testing.T) {
	p, tt := newTestPipeline(4, 1)
	require.NoError(t, p.Start())
	require.NoError(t, p.Stop())
	assert.Equal(t, "\x1b[2J\x1b[?25l\x1b[2J\x1b[H\x1b[?25h", tt.out.String())
}
