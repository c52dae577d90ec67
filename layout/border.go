package layout

import (
	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Borders paints the outline of every Border node into its own TextBlock and
// shrinks its children so they end before the right and bottom edges.
// Children are expected to be positioned past the left and top edges already.
type Borders struct {
	world  *scene.World
	events *journal.Cursor[uievent.Event]
	log    zerolog.Logger
}

// NewBorders subscribes a border decorator to n.
func NewBorders(w *scene.World, n *uievent.Normalizer, log zerolog.Logger) *Borders {
	return &Borders{world: w, events: n.Subscribe(), log: log}
}

// Run refreshes every Border node whose size changed, that was just attached,
// or that gained or moved a child.
func (b *Borders) Run() error {
	w := b.world
	dirty := newOrderedSet()
	markParent := func(e scene.Entity) {
		if p, ok := w.Hierarchy.Parent(e); ok && w.Borders.Has(p) {
			dirty.add(p)
		}
	}
	for _, ev := range b.events.Read() {
		switch ev.Kind {
		case uievent.SizeChanged:
			if w.Borders.Has(ev.Entity) {
				dirty.add(ev.Entity)
			}
		case uievent.Attached:
			if ev.Attr == uievent.AttrBorder {
				dirty.add(ev.Entity)
			}
		case uievent.Reparented, uievent.PositionChanged:
			markParent(ev.Entity)
		}
	}

	for _, e := range dirty.items {
		if err := b.refresh(e); err != nil {
			return err
		}
	}
	return nil
}

func (b *Borders) refresh(e scene.Entity) error {
	w := b.world
	border, ok := w.Borders.Get(e)
	if !ok {
		return nil
	}
	block, ok := w.TextBlocks.Get(e)
	if !ok {
		return eris.Wrapf(scene.ErrMissingTextBlock, "border %s", e)
	}

	right, bottom := 0, 0
	if border.Right {
		right = 1
	}
	if border.Bottom {
		bottom = 1
	}
	for _, c := range w.Hierarchy.Children(e) {
		pos, ok := w.Positions.Get(c)
		if !ok {
			return eris.Wrapf(scene.ErrMissingPosition, "child %s of border %s", c, e)
		}
		old, had := w.TextBlocks.Get(c)
		cb := old
		cb.Width = max(0, block.Width-pos.X-right)
		cb.Height = max(0, block.Height-pos.Y-bottom)
		if had && cb.Size() == old.Size() {
			continue
		}
		if err := w.TextBlocks.Set(c, cb); err != nil {
			return err
		}
	}

	rows := PaintBorder(border, block.Width, block.Height)
	if block.SameContent(scene.TextBlock{Rows: rows}) {
		return nil
	}
	block.Rows = rows
	b.log.Trace().Stringer("node", e).Int("w", block.Width).Int("h", block.Height).Msg("border painted")
	return w.TextBlocks.Set(e, block)
}
