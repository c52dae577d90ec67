package uievent

import (
	"slices"

	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/rs/zerolog"
)

// optional is a cached "last known" attribute value.
type optional[T comparable] struct {
	v  T
	ok bool
}

func (o optional[T]) differs(v T, ok bool) bool {
	return o.ok != ok || (ok && o.v != v)
}

// status is the per-node snapshot the normalizer compares against.
type status struct {
	position optional[scene.Position]
	global   optional[scene.GlobalPosition]
	size     optional[scene.Size]
	rows     []string // cloned, producers may reuse their slice
	visible  optional[scene.Visible]
	z        optional[scene.ZLevel]
	attached map[Attr]any // comparable snapshot per layout or decorator attribute
}

type attachCursor struct {
	attr   Attr
	cursor *journal.Cursor[scene.Change]
	value  func(scene.Entity) (any, bool)
}

func attrValue[T comparable](s *scene.Storage[T]) func(scene.Entity) (any, bool) {
	return func(e scene.Entity) (any, bool) {
		v, ok := s.Get(e)
		return v, ok
	}
}

// ruleKey is a StackingRule with its bounds dereferenced, so two rules built
// separately with the same limits compare equal.
type ruleKey struct {
	flex                               int
	minW, maxW, minH, maxH             int
	hasMinW, hasMaxW, hasMinH, hasMaxH bool
}

func deref(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func ruleValue(s *scene.Storage[scene.StackingRule]) func(scene.Entity) (any, bool) {
	return func(e scene.Entity) (any, bool) {
		r, ok := s.Get(e)
		if !ok {
			return nil, false
		}
		k := ruleKey{flex: r.Weight()}
		k.minW, k.hasMinW = deref(r.MinWidth)
		k.maxW, k.hasMaxW = deref(r.MaxWidth)
		k.minH, k.hasMinH = deref(r.MinHeight)
		k.maxH, k.hasMaxH = deref(r.MaxHeight)
		return k, true
	}
}

// Normalizer polls the world's journals and emits an Event only when a value
// actually differs from the last one it saw for that node.
type Normalizer struct {
	world *scene.World
	out   *journal.Log[Event]
	log   zerolog.Logger

	positions *journal.Cursor[scene.Change]
	globals   *journal.Cursor[scene.Change]
	blocks    *journal.Cursor[scene.Change]
	visibles  *journal.Cursor[scene.Change]
	zlevels   *journal.Cursor[scene.Change]
	attaches  []attachCursor
	hierarchy *journal.Cursor[scene.HierarchyEvent]

	status map[scene.Entity]*status
	screen scene.Size
}

// NewNormalizer registers cursors on every journal of w. History that no
// earlier reader has consumed is replayed on the first Normalize, so a scene
// built before the normalizer existed is still reported.
func NewNormalizer(w *scene.World, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		world:     w,
		out:       journal.New[Event](),
		log:       log,
		positions: w.Positions.ChangesFromStart(),
		globals:   w.GlobalPositions.ChangesFromStart(),
		blocks:    w.TextBlocks.ChangesFromStart(),
		visibles:  w.Visibles.ChangesFromStart(),
		zlevels:   w.ZLevels.ChangesFromStart(),
		attaches: []attachCursor{
			{AttrContext, w.Contexts.ChangesFromStart(), attrValue(w.Contexts)},
			{AttrRule, w.Rules.ChangesFromStart(), ruleValue(w.Rules)},
			{AttrCentered, w.Centered.ChangesFromStart(), attrValue(w.Centered)},
			{AttrBorder, w.Borders.ChangesFromStart(), attrValue(w.Borders)},
			{AttrAggregator, w.Aggregators.ChangesFromStart(), attrValue(w.Aggregators)},
		},
		hierarchy: w.Hierarchy.ChangesFromStart(),
		status:    make(map[scene.Entity]*status),
	}
}

// Subscribe registers a new consumer cursor on the normalized stream.
func (n *Normalizer) Subscribe() *journal.Cursor[Event] {
	return n.out.Register()
}

// Events exposes the normalized log.
func (n *Normalizer) Events() *journal.Log[Event] {
	return n.out
}

func (n *Normalizer) statusOf(e scene.Entity) *status {
	st, ok := n.status[e]
	if !ok {
		st = &status{}
		n.status[e] = st
	}
	return st
}

// touched returns the distinct entities of a change batch in first-seen order.
func touched(changes []scene.Change) []scene.Entity {
	if len(changes) == 0 {
		return nil
	}
	seen := make(map[scene.Entity]struct{}, len(changes))
	out := make([]scene.Entity, 0, len(changes))
	for _, c := range changes {
		if _, dup := seen[c.Entity]; dup {
			continue
		}
		seen[c.Entity] = struct{}{}
		out = append(out, c.Entity)
	}
	return out
}

// Normalize drains every journal once and returns the number of events emitted.
func (n *Normalizer) Normalize() int {
	start := n.out.End()
	w := n.world

	for _, e := range touched(n.positions.Read()) {
		st := n.statusOf(e)
		v, ok := w.Positions.Get(e)
		if st.position.differs(v, ok) {
			st.position = optional[scene.Position]{v, ok}
			n.out.Append(Event{Kind: PositionChanged, Entity: e})
		}
	}

	for _, e := range touched(n.globals.Read()) {
		st := n.statusOf(e)
		v, ok := w.GlobalPositions.Get(e)
		if st.global.differs(v, ok) {
			st.global = optional[scene.GlobalPosition]{v, ok}
			n.out.Append(Event{Kind: GlobalPositionChanged, Entity: e})
		}
	}

	for _, e := range touched(n.blocks.Read()) {
		st := n.statusOf(e)
		b, ok := w.TextBlocks.Get(e)
		size := b.Size()
		if st.size.differs(size, ok) {
			n.out.Append(Event{Kind: SizeChanged, Entity: e, OldSize: st.size.v, NewSize: size})
			st.size = optional[scene.Size]{size, ok}
			st.rows = slices.Clone(b.Rows)
			continue
		}
		if ok && !b.SameContent(scene.TextBlock{Rows: st.rows}) {
			st.rows = slices.Clone(b.Rows)
			n.out.Append(Event{Kind: ContentChanged, Entity: e})
		}
	}

	for _, e := range touched(n.visibles.Read()) {
		st := n.statusOf(e)
		v, ok := w.Visibles.Get(e)
		if st.visible.differs(v, ok) {
			st.visible = optional[scene.Visible]{v, ok}
			n.out.Append(Event{Kind: VisibilityChanged, Entity: e})
		}
	}

	for _, e := range touched(n.zlevels.Read()) {
		st := n.statusOf(e)
		v, ok := w.ZLevels.Get(e)
		if st.z.differs(v, ok) {
			st.z = optional[scene.ZLevel]{v, ok}
			n.out.Append(Event{Kind: ZLevelChanged, Entity: e})
		}
	}

	for _, ac := range n.attaches {
		for _, e := range touched(ac.cursor.Read()) {
			st := n.statusOf(e)
			v, ok := ac.value(e)
			old, had := st.attached[ac.attr]
			if had == ok && (!ok || old == v) {
				continue
			}
			if st.attached == nil {
				st.attached = make(map[Attr]any)
			}
			if ok {
				st.attached[ac.attr] = v
			} else {
				delete(st.attached, ac.attr)
			}
			n.out.Append(Event{Kind: Attached, Entity: e, Attr: ac.attr})
		}
	}

	for _, h := range n.hierarchy.Read() {
		switch h.Kind {
		case scene.Reparented:
			n.out.Append(Event{Kind: Reparented, Entity: h.Entity, OldParent: h.OldParent, NewParent: h.NewParent})
		case scene.Detached:
			delete(n.status, h.Entity)
			n.out.Append(Event{Kind: Detached, Entity: h.Entity, OldParent: h.OldParent})
		}
	}

	if screen := w.Screen(); screen != n.screen {
		n.out.Append(Event{Kind: ScreenResized, OldSize: n.screen, NewSize: screen})
		n.screen = screen
	}

	emitted := n.out.End() - start
	if emitted > 0 {
		n.log.Trace().Int("events", emitted).Msg("normalized")
	}
	return emitted
}
