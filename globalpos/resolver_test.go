package globalpos

import (
	"testing"

	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	w *scene.World
	n *uievent.Normalizer
	r *Resolver
}

func newFixture() *fixture {
	w := scene.NewWorld()
	n := uievent.NewNormalizer(w, zerolog.Nop())
	return &fixture{w: w, n: n, r: NewResolver(w, n, zerolog.Nop())}
}

func (f *fixture) run(t *testing.T) {
	t.Helper()
	f.n.Normalize()
	require.NoError(t, f.r.Run())
	f.n.Normalize()
}

func (f *fixture) node(t *testing.T, parent scene.Entity, x, y int) scene.Entity {
	t.Helper()
	var e scene.Entity
	if parent.IsNil() {
		e = f.w.NewNode()
	} else {
		var err error
		e, err = f.w.NewChild(parent)
		require.NoError(t, err)
	}
	require.NoError(t, f.w.Positions.Set(e, scene.Position{X: x, Y: y}))
	return e
}

func (f *fixture) global(t *testing.T, e scene.Entity) scene.GlobalPosition {
	t.Helper()
	g, ok := f.w.GlobalPositions.Get(e)
	require.True(t, ok, "no GlobalPosition on %s", e)
	return g
}

func TestChainSumsLocals(t *testing.T) {
	f := newFixture()
	root := f.node(t, scene.Nil, 0, 0)
	a := f.node(t, root, 2, 3)
	b := f.node(t, a, 1, 1)

	f.run(t)
	assert.Equal(t, scene.GlobalPosition{X: 2, Y: 3}, f.global(t, a))
	assert.Equal(t, scene.GlobalPosition{X: 3, Y: 4}, f.global(t, b))
}

func TestMoveRevisitsOnlyTheSubtree(t *testing.T) {
	f := newFixture()
	root := f.node(t, scene.Nil, 0, 0)
	a := f.node(t, root, 2, 3)
	b := f.node(t, a, 1, 1)
	sibling := f.node(t, root, 10, 0)
	leaf := f.node(t, sibling, 1, 0)
	f.run(t)

	require.NoError(t, f.w.Positions.Set(a, scene.Position{X: 5, Y: 5}))
	f.run(t)
	assert.Equal(t, []scene.Entity{a, b}, f.r.Visited(), "ancestor first, sibling subtree untouched")
	assert.Equal(t, scene.GlobalPosition{X: 6, Y: 6}, f.global(t, b))
	assert.Equal(t, scene.GlobalPosition{X: 11, Y: 0}, f.global(t, leaf))

	f.run(t)
	assert.Empty(t, f.r.Visited())
}

func TestDirtyDescendantVisitedOnce(t *testing.T) {
	f := newFixture()
	root := f.node(t, scene.Nil, 1, 1)
	a := f.node(t, root, 1, 1)
	f.run(t)

	require.NoError(t, f.w.Positions.Set(a, scene.Position{X: 2}))
	require.NoError(t, f.w.Positions.Set(root, scene.Position{X: 4}))
	f.run(t)
	assert.Equal(t, []scene.Entity{root, a}, f.r.Visited())
	assert.Equal(t, scene.GlobalPosition{X: 6, Y: 0}, f.global(t, a))
}

func TestReparentAndDefaults(t *testing.T) {
	f := newFixture()
	left := f.node(t, scene.Nil, 0, 0)
	right := f.node(t, scene.Nil, 40, 2)
	item := f.node(t, left, 1, 1)
	bare := f.w.NewNode()
	require.NoError(t, f.w.TextBlocks.Set(bare, scene.SingleRow("x")))
	f.run(t)
	assert.Equal(t, scene.GlobalPosition{}, f.global(t, bare), "content without Position sits at the origin")

	require.NoError(t, f.w.Hierarchy.SetParent(item, right))
	f.run(t)
	assert.Equal(t, scene.GlobalPosition{X: 41, Y: 3}, f.global(t, item))

	require.NoError(t, f.w.Hierarchy.ClearParent(item))
	f.run(t)
	assert.Equal(t, scene.GlobalPosition{X: 1, Y: 1}, f.global(t, item))
}
