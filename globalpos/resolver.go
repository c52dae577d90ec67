// Package globalpos resolves every node's absolute screen position from the
// local positions along its ancestor chain.
package globalpos

import (
	"slices"

	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rs/zerolog"
)

// Resolver writes GlobalPosition. It is the only writer of that attribute.
//
// A node is dirty when its own Position changed, it moved in the hierarchy,
// or it gained content before ever being resolved. Each dirty node's subtree
// is revisited parent-first, so every node reads an already fresh parent
// value and is visited at most once per Run.
type Resolver struct {
	world  *scene.World
	events *journal.Cursor[uievent.Event]
	log    zerolog.Logger

	visited map[scene.Entity]struct{}
	order   []scene.Entity
}

// NewResolver subscribes a global position resolver to n.
func NewResolver(w *scene.World, n *uievent.Normalizer, log zerolog.Logger) *Resolver {
	return &Resolver{
		world:   w,
		events:  n.Subscribe(),
		log:     log,
		visited: make(map[scene.Entity]struct{}),
	}
}

// Visited returns the nodes resolved by the last Run in visit order.
func (r *Resolver) Visited() []scene.Entity {
	return r.order
}

// Run resolves every dirty subtree.
func (r *Resolver) Run() error {
	w := r.world
	clear(r.visited)
	r.order = r.order[:0]

	var dirty []scene.Entity
	for _, ev := range r.events.Read() {
		switch ev.Kind {
		case uievent.PositionChanged, uievent.Reparented:
			dirty = append(dirty, ev.Entity)
		case uievent.SizeChanged, uievent.ContentChanged:
			if !w.GlobalPositions.Has(ev.Entity) {
				dirty = append(dirty, ev.Entity)
			}
		}
	}
	if len(dirty) == 0 {
		return nil
	}

	depth := make(map[scene.Entity]int, len(dirty))
	for _, e := range dirty {
		depth[e] = w.Hierarchy.Depth(e)
	}
	slices.SortStableFunc(dirty, func(a, b scene.Entity) int {
		return depth[a] - depth[b]
	})

	var err error
	for _, e := range dirty {
		if _, done := r.visited[e]; done || !w.Arena.Alive(e) {
			continue
		}
		w.Hierarchy.WalkFrom(e, func(n scene.Entity) bool {
			if _, done := r.visited[n]; done {
				return false
			}
			if err = r.resolve(n); err != nil {
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
	}
	r.log.Debug().Int("nodes", len(r.order)).Msg("global positions resolved")
	return nil
}

func (r *Resolver) resolve(e scene.Entity) error {
	w := r.world
	local, _ := w.Positions.Get(e)
	global := scene.GlobalPosition{X: local.X, Y: local.Y}
	if p, ok := w.Hierarchy.Parent(e); ok {
		pg, ok := w.GlobalPositions.Get(p)
		if !ok {
			if err := r.resolve(p); err != nil {
				return err
			}
			pg, _ = w.GlobalPositions.Get(p)
		}
		global.X += pg.X
		global.Y += pg.Y
	}

	r.visited[e] = struct{}{}
	r.order = append(r.order, e)
	if cur, ok := w.GlobalPositions.Get(e); ok && cur == global {
		return nil
	}
	return w.GlobalPositions.Set(e, global)
}
