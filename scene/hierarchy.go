package scene

import (
	"slices"

	"github.com/kungfusheep/cellgraph/journal"
	"github.com/rotisserie/eris"
)

// HierarchyKind classifies a structural change.
type HierarchyKind uint8

const (
	// Reparented covers attach, detach and move between parents.
	Reparented HierarchyKind = iota
	// Detached means the node left the graph because it was deleted.
	Detached
)

// HierarchyEvent is one structural journal entry. OldParent and NewParent
// are Nil for roots.
type HierarchyEvent struct {
	Kind      HierarchyKind
	Entity    Entity
	OldParent Entity
	NewParent Entity
}

// Hierarchy is the parent relation plus an explicit ordered child list per
// node. Roots are kept sorted by slot index so traversal order is stable.
type Hierarchy struct {
	arena    *Arena
	parent   map[Entity]Entity
	children map[Entity][]Entity
	roots    []Entity
	log      *journal.Log[HierarchyEvent]
}

// NewHierarchy creates an empty hierarchy over arena.
func NewHierarchy(arena *Arena) *Hierarchy {
	return &Hierarchy{
		arena:    arena,
		parent:   make(map[Entity]Entity),
		children: make(map[Entity][]Entity),
		log:      journal.New[HierarchyEvent](),
	}
}

func compareIndex(a, b Entity) int {
	return int(a.Index) - int(b.Index)
}

func (h *Hierarchy) addRoot(e Entity) {
	i, found := slices.BinarySearchFunc(h.roots, e, compareIndex)
	if found {
		h.roots[i] = e
		return
	}
	h.roots = slices.Insert(h.roots, i, e)
}

func (h *Hierarchy) removeRoot(e Entity) {
	i, found := slices.BinarySearchFunc(h.roots, e, compareIndex)
	if found && h.roots[i] == e {
		h.roots = slices.Delete(h.roots, i, i+1)
	}
}

func (h *Hierarchy) detachChild(parent, child Entity) {
	kids := h.children[parent]
	if i := slices.Index(kids, child); i >= 0 {
		kids = slices.Delete(kids, i, i+1)
	}
	if len(kids) == 0 {
		delete(h.children, parent)
		return
	}
	h.children[parent] = kids
}

// insert registers a freshly created node as a root.
func (h *Hierarchy) insert(e Entity) {
	h.addRoot(e)
}

// SetParent makes parent the parent of child, appending child to the end of
// parent's child list. Setting the current parent again is a no-op.
func (h *Hierarchy) SetParent(child, parent Entity) error {
	if err := h.arena.check(child); err != nil {
		return err
	}
	if err := h.arena.check(parent); err != nil {
		return eris.Wrapf(err, "parent of %s", child)
	}
	old, hasOld := h.parent[child]
	if hasOld && old == parent {
		return nil
	}
	for a := parent; !a.IsNil(); a = h.parent[a] {
		if a == child {
			return eris.Wrapf(ErrCycle, "%s under %s", child, parent)
		}
	}

	if hasOld {
		h.detachChild(old, child)
	} else {
		h.removeRoot(child)
	}
	h.parent[child] = parent
	h.children[parent] = append(h.children[parent], child)
	h.log.Append(HierarchyEvent{Kind: Reparented, Entity: child, OldParent: old, NewParent: parent})
	return nil
}

// ClearParent turns child into a root.
func (h *Hierarchy) ClearParent(child Entity) error {
	if err := h.arena.check(child); err != nil {
		return err
	}
	old, ok := h.parent[child]
	if !ok {
		return nil
	}
	h.detachChild(old, child)
	delete(h.parent, child)
	h.addRoot(child)
	h.log.Append(HierarchyEvent{Kind: Reparented, Entity: child, OldParent: old})
	return nil
}

// remove drops a leaf of the graph. Callers delete descendants first.
func (h *Hierarchy) remove(e Entity) {
	old, ok := h.parent[e]
	if ok {
		h.detachChild(old, e)
		delete(h.parent, e)
	} else {
		h.removeRoot(e)
	}
	delete(h.children, e)
	h.log.Append(HierarchyEvent{Kind: Detached, Entity: e, OldParent: old})
}

// Parent returns e's parent, or false for roots.
func (h *Hierarchy) Parent(e Entity) (Entity, bool) {
	p, ok := h.parent[e]
	return p, ok
}

// Children returns e's direct children in attach order. The slice must not
// be modified.
func (h *Hierarchy) Children(e Entity) []Entity {
	return h.children[e]
}

// Roots returns all parentless nodes in slot order. The slice must not be
// modified.
func (h *Hierarchy) Roots() []Entity {
	return h.roots
}

// Depth returns the number of ancestors of e.
func (h *Hierarchy) Depth(e Entity) int {
	d := 0
	for p, ok := h.parent[e]; ok; p, ok = h.parent[p] {
		d++
	}
	return d
}

// Walk visits every node in pre-order: roots in slot order, children in
// attach order. Returning false from fn skips that node's descendants.
func (h *Hierarchy) Walk(fn func(Entity) bool) {
	for _, r := range h.roots {
		h.WalkFrom(r, fn)
	}
}

// WalkFrom visits e and its descendants in pre-order.
func (h *Hierarchy) WalkFrom(e Entity, fn func(Entity) bool) {
	if !fn(e) {
		return
	}
	for _, c := range h.children[e] {
		h.WalkFrom(c, fn)
	}
}

// Changes registers a new cursor over the structural journal.
func (h *Hierarchy) Changes() *journal.Cursor[HierarchyEvent] {
	return h.log.Register()
}

// ChangesFromStart registers a cursor that also sees unread history.
func (h *Hierarchy) ChangesFromStart() *journal.Cursor[HierarchyEvent] {
	return h.log.RegisterFromStart()
}
