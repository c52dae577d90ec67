package scene

import "github.com/kungfusheep/cellgraph/journal"

// ChangeKind classifies an attribute journal entry.
type ChangeKind uint8

const (
	Inserted ChangeKind = iota
	Modified
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Inserted:
		return "inserted"
	case Modified:
		return "modified"
	default:
		return "removed"
	}
}

// Change is one attribute journal entry.
type Change struct {
	Kind   ChangeKind
	Entity Entity
}

type slot[T any] struct {
	gen uint32
	ok  bool
	v   T
}

// Storage holds an optional value of T per entity, indexed by arena slot.
// Every write is journaled, including writes of an identical value.
type Storage[T any] struct {
	arena *Arena
	slots []slot[T]
	count int
	log   *journal.Log[Change]
}

// NewStorage creates a storage bound to the arena that issues its keys.
func NewStorage[T any](arena *Arena) *Storage[T] {
	return &Storage[T]{arena: arena, log: journal.New[Change]()}
}

// Get returns e's value and whether it is present.
func (s *Storage[T]) Get(e Entity) (T, bool) {
	var zero T
	if int(e.Index) >= len(s.slots) {
		return zero, false
	}
	sl := s.slots[e.Index]
	if !sl.ok || sl.gen != e.Gen {
		return zero, false
	}
	return sl.v, true
}

// Has reports whether e carries a value.
func (s *Storage[T]) Has(e Entity) bool {
	_, ok := s.Get(e)
	return ok
}

// Set attaches or overwrites e's value.
func (s *Storage[T]) Set(e Entity, v T) error {
	if err := s.arena.check(e); err != nil {
		return err
	}
	for int(e.Index) >= len(s.slots) {
		s.slots = append(s.slots, slot[T]{})
	}
	sl := &s.slots[e.Index]
	kind := Modified
	if !sl.ok || sl.gen != e.Gen {
		kind = Inserted
		s.count++
	}
	*sl = slot[T]{gen: e.Gen, ok: true, v: v}
	s.log.Append(Change{Kind: kind, Entity: e})
	return nil
}

// Remove detaches e's value. Returns false if there was none.
func (s *Storage[T]) Remove(e Entity) bool {
	if !s.Has(e) {
		return false
	}
	s.slots[e.Index] = slot[T]{}
	s.count--
	s.log.Append(Change{Kind: Removed, Entity: e})
	return true
}

// Len returns the number of entities carrying a value.
func (s *Storage[T]) Len() int {
	return s.count
}

// Each calls fn for every present value in slot order until fn returns false.
func (s *Storage[T]) Each(fn func(Entity, T) bool) {
	for i, sl := range s.slots {
		if !sl.ok {
			continue
		}
		if !fn(Entity{Index: uint32(i), Gen: sl.gen}, sl.v) {
			return
		}
	}
}

// Journaled returns how many change entries the storage still retains.
func (s *Storage[T]) Journaled() int {
	return s.log.Len()
}

// Changes registers a new cursor over this storage's journal.
func (s *Storage[T]) Changes() *journal.Cursor[Change] {
	return s.log.Register()
}

// ChangesFromStart registers a cursor that also sees unread history.
func (s *Storage[T]) ChangesFromStart() *journal.Cursor[Change] {
	return s.log.RegisterFromStart()
}
