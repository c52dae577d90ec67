package layout

import (
	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Stacking resolves dirty stacking contexts, writing each visible rule
// child's TextBlock size and Position.
//
// Contexts are bucketed by depth and solved top-down, so a parent is always
// final before any nested context reads its own size. A nested context whose
// size was changed by its parent is solved in the same run.
type Stacking struct {
	world  *scene.World
	events *journal.Cursor[uievent.Event]
	log    zerolog.Logger

	solvedAt map[scene.Entity]scene.Size
	solved   []scene.Entity

	byLevel [][]scene.Entity
	queued  map[scene.Entity]struct{}
}

// NewStacking subscribes a stacking solver to n.
func NewStacking(w *scene.World, n *uievent.Normalizer, log zerolog.Logger) *Stacking {
	return &Stacking{
		world:    w,
		events:   n.Subscribe(),
		log:      log,
		solvedAt: make(map[scene.Entity]scene.Size),
		queued:   make(map[scene.Entity]struct{}),
	}
}

// Solved returns the contexts solved by the last Run, in solve order.
func (s *Stacking) Solved() []scene.Entity {
	return s.solved
}

func (s *Stacking) enqueue(e scene.Entity) {
	if !s.world.Contexts.Has(e) {
		return
	}
	if _, dup := s.queued[e]; dup {
		return
	}
	s.queued[e] = struct{}{}
	level := s.world.Hierarchy.Depth(e)
	for level >= len(s.byLevel) {
		s.byLevel = append(s.byLevel, nil)
	}
	s.byLevel[level] = append(s.byLevel[level], e)
}

func (s *Stacking) enqueueParent(e scene.Entity) {
	if p, ok := s.world.Hierarchy.Parent(e); ok {
		s.enqueue(p)
	}
}

// Run consumes pending events and re-solves every context they dirtied.
func (s *Stacking) Run() error {
	s.solved = s.solved[:0]
	w := s.world

	for _, ev := range s.events.Read() {
		switch ev.Kind {
		case uievent.ScreenResized:
			w.Contexts.Each(func(e scene.Entity, _ scene.StackingContext) bool {
				if _, nested := w.Hierarchy.Parent(e); !nested {
					s.enqueue(e)
				}
				return true
			})
		case uievent.VisibilityChanged:
			s.enqueueParent(ev.Entity)
		case uievent.Reparented:
			s.enqueue(ev.OldParent)
			s.enqueue(ev.NewParent)
			s.enqueue(ev.Entity)
		case uievent.Detached:
			delete(s.solvedAt, ev.Entity)
			s.enqueue(ev.OldParent)
		case uievent.Attached:
			if ev.Attr == uievent.AttrContext || ev.Attr == uievent.AttrRule {
				s.enqueue(ev.Entity)
				s.enqueueParent(ev.Entity)
			}
		case uievent.SizeChanged:
			if last, ok := s.solvedAt[ev.Entity]; !ok || last != ev.NewSize {
				s.enqueue(ev.Entity)
			}
		}
	}

	defer s.reset()
	for level := 0; level < len(s.byLevel); level++ {
		for i := 0; i < len(s.byLevel[level]); i++ {
			if err := s.solve(s.byLevel[level][i]); err != nil {
				return err
			}
		}
	}
	if len(s.solved) > 0 {
		s.log.Debug().Int("contexts", len(s.solved)).Msg("stacking solved")
	}
	return nil
}

func (s *Stacking) reset() {
	for i := range s.byLevel {
		s.byLevel[i] = s.byLevel[i][:0]
	}
	clear(s.queued)
}

func (s *Stacking) solve(ctx scene.Entity) error {
	w := s.world
	sc, ok := w.Contexts.Get(ctx)
	if !ok || !w.Arena.Alive(ctx) {
		return nil
	}

	if _, nested := w.Hierarchy.Parent(ctx); !nested {
		b, _ := w.TextBlocks.Get(ctx)
		screen := w.Screen()
		if b.Width != screen.Width || b.Height != screen.Height || !w.TextBlocks.Has(ctx) {
			b.Width, b.Height = screen.Width, screen.Height
			if err := w.TextBlocks.Set(ctx, b); err != nil {
				return err
			}
		}
	}
	block, ok := w.TextBlocks.Get(ctx)
	if !ok {
		return eris.Wrapf(scene.ErrMissingTextBlock, "stacking context %s", ctx)
	}

	var children []scene.Entity
	var rules []scene.StackingRule
	for _, c := range w.Hierarchy.Children(ctx) {
		r, ok := w.Rules.Get(c)
		if !ok || !w.IsVisible(c) {
			continue
		}
		children = append(children, c)
		rules = append(rules, r)
	}

	extent := block.Width
	if sc.Direction == scene.Vertical {
		extent = block.Height
	}
	sizes := Solve(extent, sc.Direction, rules)

	offset := 0
	for i, c := range children {
		old, had := w.TextBlocks.Get(c)
		cb := old
		pos := scene.Position{X: offset}
		if sc.Direction == scene.Horizontal {
			cb.Width, cb.Height = sizes[i], block.Height
		} else {
			cb.Width, cb.Height = block.Width, sizes[i]
			pos = scene.Position{Y: offset}
		}
		offset += sizes[i]

		if !had || old.Size() != cb.Size() {
			if err := w.TextBlocks.Set(c, cb); err != nil {
				return err
			}
		}
		if cur, ok := w.Positions.Get(c); !ok || cur != pos {
			if err := w.Positions.Set(c, pos); err != nil {
				return err
			}
		}
		if last, ok := s.solvedAt[c]; !ok || last != cb.Size() {
			s.enqueue(c)
		}
	}

	s.solvedAt[ctx] = block.Size()
	s.solved = append(s.solved, ctx)
	s.log.Trace().Stringer("context", ctx).Stringer("dir", sc.Direction).Ints("sizes", sizes).Msg("solved")
	return nil
}
