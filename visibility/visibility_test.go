package visibility

import (
	"testing"
	"time"

	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settle(t *testing.T, n *uievent.Normalizer, r *Resolver) {
	t.Helper()
	for i := 0; i < 16; i++ {
		emitted := n.Normalize()
		require.NoError(t, r.Run())
		emitted += n.Normalize()
		if emitted == 0 {
			return
		}
	}
	t.Fatal("did not settle")
}

func TestAggregatorFollowsChildren(t *testing.T) {
	w := scene.NewWorld()
	n := uievent.NewNormalizer(w, zerolog.Nop())
	r := NewResolver(w, n, zerolog.Nop())

	group := w.NewNode()
	require.NoError(t, w.Aggregators.Set(group, scene.VisibleIfChild{}))
	var kids []scene.Entity
	for _, v := range []bool{false, false, true} {
		c, err := w.NewChild(group)
		require.NoError(t, err)
		require.NoError(t, w.Visibles.Set(c, scene.Visible(v)))
		kids = append(kids, c)
	}

	settle(t, n, r)
	assert.True(t, w.IsVisible(group))

	require.NoError(t, w.Visibles.Set(kids[2], false))
	settle(t, n, r)
	assert.False(t, w.IsVisible(group))

	require.NoError(t, w.Visibles.Set(kids[0], true))
	settle(t, n, r)
	assert.True(t, w.IsVisible(group))
}

func TestAggregatorDefaultsAndMembership(t *testing.T) {
	w := scene.NewWorld()
	n := uievent.NewNormalizer(w, zerolog.Nop())
	r := NewResolver(w, n, zerolog.Nop())

	group := w.NewNode()
	require.NoError(t, w.Aggregators.Set(group, scene.VisibleIfChild{}))
	settle(t, n, r)
	assert.False(t, w.IsVisible(group), "no children means hidden")

	child, err := w.NewChild(group)
	require.NoError(t, err)
	settle(t, n, r)
	assert.True(t, w.IsVisible(group), "a child without Visible counts as visible")

	w.Delete(child)
	settle(t, n, r)
	assert.False(t, w.IsVisible(group))
}

func TestNestedAggregatorsPropagate(t *testing.T) {
	w := scene.NewWorld()
	n := uievent.NewNormalizer(w, zerolog.Nop())
	r := NewResolver(w, n, zerolog.Nop())

	outer := w.NewNode()
	require.NoError(t, w.Aggregators.Set(outer, scene.VisibleIfChild{}))
	inner, _ := w.NewChild(outer)
	require.NoError(t, w.Aggregators.Set(inner, scene.VisibleIfChild{}))
	leaf, _ := w.NewChild(inner)
	settle(t, n, r)
	require.True(t, w.IsVisible(outer))

	require.NoError(t, w.Visibles.Set(leaf, false))
	settle(t, n, r)
	assert.False(t, w.IsVisible(inner))
	assert.False(t, w.IsVisible(outer))
}

func TestBlinkerToggles(t *testing.T) {
	w := scene.NewWorld()
	b := NewBlinker(w, zerolog.Nop())
	e := w.NewNode()
	require.NoError(t, w.Blinks.Set(e, scene.Blink{Interval: 500 * time.Millisecond}))

	n, err := b.Update(250 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.True(t, w.IsVisible(e))

	n, err = b.Update(250 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, w.IsVisible(e))

	n, _ = b.Update(1250 * time.Millisecond)
	assert.Equal(t, 0, n, "two whole intervals cancel out")
	assert.False(t, w.IsVisible(e))

	_, _ = b.Update(250 * time.Millisecond)
	assert.True(t, w.IsVisible(e), "leftover time carries into the next interval")
}

func TestBlinkerForgetsRemovedNodes(t *testing.T) {
	w := scene.NewWorld()
	b := NewBlinker(w, zerolog.Nop())
	e := w.NewNode()
	require.NoError(t, w.Blinks.Set(e, scene.Blink{Interval: time.Second}))
	_, _ = b.Update(250 * time.Millisecond)
	require.Len(t, b.timers, 1)

	w.Delete(e)
	_, _ = b.Update(250 * time.Millisecond)
	assert.Empty(t, b.timers)
}

func TestBlinkerDrainsJournal(t *testing.T) {
	w := scene.NewWorld()
	b := NewBlinker(w, zerolog.Nop())
	e := w.NewNode()
	for i := 0; i < 5000; i++ {
		require.NoError(t, w.Blinks.Set(e, scene.Blink{Interval: time.Second}))
		_, err := b.Update(10 * time.Millisecond)
		require.NoError(t, err)
	}
	assert.Less(t, w.Blinks.Journaled(), 64, "consumed blink history is compacted")
}
