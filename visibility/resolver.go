// Package visibility derives Visible for aggregator nodes from their children
// and drives blinking nodes.
package visibility

import (
	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rs/zerolog"
)

// Resolver keeps every VisibleIfChild node visible exactly when at least one
// of its direct children is visible. Children without an explicit Visible
// count as visible, so an aggregator with no children is hidden.
//
// Only direct children are considered. A nested aggregator's own change is a
// fresh VisibilityChanged event, so chains resolve one level per settle pass.
type Resolver struct {
	world  *scene.World
	events *journal.Cursor[uievent.Event]
	log    zerolog.Logger
}

// NewResolver subscribes a visibility resolver to n.
func NewResolver(w *scene.World, n *uievent.Normalizer, log zerolog.Logger) *Resolver {
	return &Resolver{world: w, events: n.Subscribe(), log: log}
}

// Run recomputes aggregators whose children changed visibility, joined or
// left.
func (r *Resolver) Run() error {
	w := r.world
	var dirty []scene.Entity
	seen := make(map[scene.Entity]struct{})
	mark := func(e scene.Entity) {
		if !w.Aggregators.Has(e) {
			return
		}
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		dirty = append(dirty, e)
	}

	for _, ev := range r.events.Read() {
		switch ev.Kind {
		case uievent.VisibilityChanged:
			if p, ok := w.Hierarchy.Parent(ev.Entity); ok {
				mark(p)
			}
		case uievent.Reparented:
			mark(ev.OldParent)
			mark(ev.NewParent)
		case uievent.Detached:
			mark(ev.OldParent)
		case uievent.Attached:
			if ev.Attr == uievent.AttrAggregator {
				mark(ev.Entity)
			}
		}
	}

	for _, e := range dirty {
		visible := false
		for _, c := range w.Hierarchy.Children(e) {
			if w.IsVisible(c) {
				visible = true
				break
			}
		}
		if cur, ok := w.Visibles.Get(e); ok && bool(cur) == visible {
			continue
		}
		r.log.Trace().Stringer("node", e).Bool("visible", visible).Msg("aggregated")
		if err := w.Visibles.Set(e, scene.Visible(visible)); err != nil {
			return err
		}
	}
	return nil
}
