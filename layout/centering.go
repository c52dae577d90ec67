package layout

import (
	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Centering keeps Centered nodes in the middle of their parent.
type Centering struct {
	world  *scene.World
	events *journal.Cursor[uievent.Event]
	log    zerolog.Logger
}

// NewCentering subscribes a centering decorator to n.
func NewCentering(w *scene.World, n *uievent.Normalizer, log zerolog.Logger) *Centering {
	return &Centering{world: w, events: n.Subscribe(), log: log}
}

// Run recenters every Centered node whose own size or parent size changed.
// A Centered node without a parent is left where it is.
func (c *Centering) Run() error {
	w := c.world
	dirty := newOrderedSet()
	for _, ev := range c.events.Read() {
		switch ev.Kind {
		case uievent.SizeChanged:
			if w.Centered.Has(ev.Entity) {
				dirty.add(ev.Entity)
			}
			for _, child := range w.Hierarchy.Children(ev.Entity) {
				if w.Centered.Has(child) {
					dirty.add(child)
				}
			}
		case uievent.Reparented:
			if w.Centered.Has(ev.Entity) {
				dirty.add(ev.Entity)
			}
		case uievent.Attached:
			if ev.Attr == uievent.AttrCentered {
				dirty.add(ev.Entity)
			}
		}
	}

	for _, e := range dirty.items {
		if err := c.center(e); err != nil {
			return err
		}
	}
	return nil
}

func (c *Centering) center(e scene.Entity) error {
	w := c.world
	opts, ok := w.Centered.Get(e)
	if !ok {
		return nil
	}
	parent, ok := w.Hierarchy.Parent(e)
	if !ok {
		return nil
	}
	outer, ok := w.TextBlocks.Get(parent)
	if !ok {
		return eris.Wrapf(scene.ErrMissingTextBlock, "parent %s of centered node %s", parent, e)
	}
	inner, ok := w.TextBlocks.Get(e)
	if !ok {
		return eris.Wrapf(scene.ErrMissingTextBlock, "centered node %s", e)
	}

	cur, had := w.Positions.Get(e)
	pos := cur
	if opts.Horizontal {
		pos.X = floorDiv(outer.Width-inner.Width, 2)
	}
	if opts.Vertical {
		pos.Y = floorDiv(outer.Height-inner.Height, 2)
	}
	if had && pos == cur {
		return nil
	}
	c.log.Trace().Stringer("node", e).Int("x", pos.X).Int("y", pos.Y).Msg("centered")
	return w.Positions.Set(e, pos)
}

// orderedSet keeps first-insertion order so runs are deterministic.
type orderedSet struct {
	seen  map[scene.Entity]struct{}
	items []scene.Entity
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[scene.Entity]struct{})}
}

func (s *orderedSet) add(e scene.Entity) {
	if _, dup := s.seen[e]; dup {
		return
	}
	s.seen[e] = struct{}{}
	s.items = append(s.items, e)
}
