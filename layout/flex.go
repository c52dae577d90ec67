// Package layout sizes and places nodes from their parents' and children's
// resolved sizes: the flex stacking solver and the centering and border
// decorators.
package layout

import "github.com/kungfusheep/cellgraph/scene"

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Solve distributes extent along axis d across children with the given rules.
//
// Each pass splits the space not yet claimed by frozen children evenly per
// unit of flex (floor), so an unfrozen child gets weight * unit. A child whose
// share falls outside its bounds is frozen at the violated bound and the pass
// repeats over the rest. When no child freezes, the last unfrozen child takes
// whatever remains so the extents sum to the container exactly. If that
// remainder breaks its own bounds it is frozen too and distribution resumes.
//
// A minimum larger than its maximum wins. Extents are clamped at zero. When
// the children's minimums exceed extent every child freezes and the sum
// over-allocates; that is the only case where the sum differs from extent
// apart from every child freezing at a maximum.
func Solve(extent int, d scene.Direction, rules []scene.StackingRule) []int {
	n := len(rules)
	sizes := make([]int, n)
	if n == 0 {
		return sizes
	}
	frozen := make([]bool, n)
	used := 0

	bounds := func(i int) (lo, hi *int) {
		lo, hi = rules[i].Bounds(d)
		if lo != nil && hi != nil && *lo > *hi {
			hi = lo
		}
		return lo, hi
	}
	freeze := func(i, v int) {
		sizes[i] = v
		frozen[i] = true
		used += v
	}

	for {
		for {
			weight := 0
			for i, r := range rules {
				if !frozen[i] {
					weight += r.Weight()
				}
			}
			if weight == 0 {
				break
			}
			unit := floorDiv(extent-used, weight)
			changed := false
			for i, r := range rules {
				if frozen[i] {
					continue
				}
				share := r.Weight() * unit
				lo, hi := bounds(i)
				switch {
				case lo != nil && share < *lo:
					freeze(i, *lo)
					changed = true
				case hi != nil && share > *hi:
					freeze(i, *hi)
					changed = true
				default:
					sizes[i] = share
				}
			}
			if !changed {
				break
			}
		}

		last := -1
		for i := n - 1; i >= 0; i-- {
			if !frozen[i] {
				last = i
				break
			}
		}
		if last < 0 {
			break
		}
		rest := extent
		for i, s := range sizes {
			if i != last {
				rest -= s
			}
		}
		lo, hi := bounds(last)
		if lo != nil && rest < *lo {
			freeze(last, *lo)
			continue
		}
		if hi != nil && rest > *hi {
			freeze(last, *hi)
			continue
		}
		sizes[last] = rest
		break
	}

	for i, s := range sizes {
		if s < 0 {
			sizes[i] = 0
		}
	}
	return sizes
}
