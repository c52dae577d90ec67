// Package scene holds the scene graph: entity identities, the sparse
// attribute storages attached to them, and the parent/child hierarchy.
//
// Every attribute storage and the hierarchy keep an append-only change
// journal. Derived state (layout, visibility, global positions, the frame)
// is computed by other packages that read those journals.
package scene

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Entity is an opaque node identity: an arena slot plus a generation tag that
// detects references to deleted nodes.
type Entity struct {
	Index uint32
	Gen   uint32
}

// Nil is the zero entity. Generation 0 is never issued, so Nil is never alive.
var Nil Entity

// IsNil reports whether e is the zero entity.
func (e Entity) IsNil() bool {
	return e.Gen == 0
}

func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.Index, e.Gen)
}

var (
	// ErrStaleEntity is returned when an operation names a deleted or never created entity.
	ErrStaleEntity = eris.New("stale entity")
	// ErrCycle is returned when a parent edge would make a node its own ancestor.
	ErrCycle = eris.New("hierarchy cycle")
	// ErrMissingTextBlock is returned when a layout or decorator node has no TextBlock.
	ErrMissingTextBlock = eris.New("missing TextBlock")
	// ErrMissingPosition is returned when a bordered child has no Position.
	ErrMissingPosition = eris.New("missing Position")
)

// Arena issues entities and tracks which are alive.
type Arena struct {
	gens  []uint32 // current generation per slot
	alive []bool
	free  []uint32
	count int
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Create allocates a new entity, reusing a freed slot with a bumped generation.
func (a *Arena) Create() Entity {
	a.count++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.alive[idx] = true
		return Entity{Index: idx, Gen: a.gens[idx]}
	}
	idx := uint32(len(a.gens))
	a.gens = append(a.gens, 1)
	a.alive = append(a.alive, true)
	return Entity{Index: idx, Gen: 1}
}

// Delete frees e's slot. Returns false if e was not alive.
func (a *Arena) Delete(e Entity) bool {
	if !a.Alive(e) {
		return false
	}
	a.alive[e.Index] = false
	a.gens[e.Index]++
	a.free = append(a.free, e.Index)
	a.count--
	return true
}

// Alive reports whether e names a live entity of the current generation.
func (a *Arena) Alive(e Entity) bool {
	if e.IsNil() || int(e.Index) >= len(a.gens) {
		return false
	}
	return a.alive[e.Index] && a.gens[e.Index] == e.Gen
}

// Len returns the number of live entities.
func (a *Arena) Len() int {
	return a.count
}

// check returns ErrStaleEntity wrapped with e when e is not alive.
func (a *Arena) check(e Entity) error {
	if !a.Alive(e) {
		return eris.Wrapf(ErrStaleEntity, "entity %s", e)
	}
	return nil
}
