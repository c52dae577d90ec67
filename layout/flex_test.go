package layout

import (
	"testing"

	"github.com/kungfusheep/cellgraph/scene"
	"github.com/stretchr/testify/assert"
)

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func TestSolveFreezesThenAbsorbs(t *testing.T) {
	rules := []scene.StackingRule{
		scene.NewRule().WithMinWidth(15),
		scene.NewRule().WithMinWidth(50).WithMaxWidth(80).WithFlex(2),
	}
	assert.Equal(t, []int{33, 67}, Solve(100, scene.Horizontal, rules))
}

func TestSolveFloorRemainderGoesLast(t *testing.T) {
	rules := []scene.StackingRule{scene.NewRule(), scene.NewRule(), scene.NewRule()}
	assert.Equal(t, []int{3, 3, 4}, Solve(10, scene.Horizontal, rules))
}

func TestSolveAbsorberKeepsItsMax(t *testing.T) {
	rules := []scene.StackingRule{scene.NewRule(), scene.NewRule().WithMaxWidth(5)}
	assert.Equal(t, []int{6, 5}, Solve(11, scene.Horizontal, rules))
}

func TestSolveUsesAxisBounds(t *testing.T) {
	rules := []scene.StackingRule{
		scene.NewRule().WithMaxHeight(1).WithMaxWidth(100),
		scene.NewRule(),
	}
	assert.Equal(t, []int{1, 9}, Solve(10, scene.Vertical, rules))
	assert.Equal(t, []int{5, 5}, Solve(10, scene.Horizontal, rules), "height bounds ignored horizontally")
}

func TestSolveConservesAndRespectsBounds(t *testing.T) {
	rules := []scene.StackingRule{
		scene.NewRule().WithMinWidth(10),
		scene.NewRule().WithMaxWidth(30).WithFlex(2),
		scene.NewRule(),
		scene.NewRule().WithMinWidth(5).WithMaxWidth(40).WithFlex(3),
	}
	for extent := 15; extent <= 300; extent++ {
		sizes := Solve(extent, scene.Horizontal, rules)
		assert.Equal(t, extent, sum(sizes), "extent %d: %v", extent, sizes)
		assert.GreaterOrEqual(t, sizes[0], 10, "extent %d", extent)
		assert.LessOrEqual(t, sizes[1], 30, "extent %d", extent)
		assert.GreaterOrEqual(t, sizes[3], 5, "extent %d", extent)
		assert.LessOrEqual(t, sizes[3], 40, "extent %d", extent)
		for _, s := range sizes {
			assert.GreaterOrEqual(t, s, 0)
		}
	}
}

func TestSolveOverConstrained(t *testing.T) {
	two := []scene.StackingRule{scene.NewRule().WithMinWidth(60), scene.NewRule().WithMinWidth(60)}
	assert.Equal(t, []int{60, 60}, Solve(100, scene.Horizontal, two), "minimums win and over-allocate")

	// An unconstrained sibling would need a negative extent; it is clamped to zero.
	squeezed := []scene.StackingRule{scene.NewRule().WithMinWidth(120), scene.NewRule()}
	assert.Equal(t, []int{120, 0}, Solve(100, scene.Horizontal, squeezed))

	capped := []scene.StackingRule{scene.NewRule().WithMaxWidth(10), scene.NewRule().WithMaxWidth(20)}
	assert.Equal(t, []int{10, 20}, Solve(100, scene.Horizontal, capped), "every child at max leaves trailing space")

	inverted := []scene.StackingRule{scene.NewRule().WithMinWidth(30).WithMaxWidth(10), scene.NewRule()}
	assert.Equal(t, []int{30, 70}, Solve(100, scene.Horizontal, inverted), "min wins over a smaller max")
}

func TestSolveEmpty(t *testing.T) {
	assert.Empty(t, Solve(80, scene.Horizontal, nil))
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 3, floorDiv(7, 2))
	assert.Equal(t, -4, floorDiv(-7, 2))
	assert.Equal(t, -1, floorDiv(-1, 2))
	assert.Equal(t, 0, floorDiv(0, 3))
}
