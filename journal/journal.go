// Package journal provides an append-only log read through independent cursors.
//
// Every consumer registers its own Cursor and reads at its own pace. A read
// returns only the entries appended since that cursor's previous read. Entries
// that every live cursor has passed are compacted away.
package journal

// compactThreshold is the minimum number of consumed entries before the log
// considers dropping its head.
const compactThreshold = 64

// Log is an append-only sequence of entries. It is not safe for concurrent
// use; the frame loop is its only caller.
//
// A log with no cursors keeps everything for a reader registered later with
// RegisterFromStart. Compaction starts once such a reader has caught up.
type Log[T any] struct {
	entries []T
	base    int // absolute offset of entries[0]
	cursors []*Cursor[T]
}

// New creates an empty log.
func New[T any]() *Log[T] {
	return &Log[T]{}
}

// Append adds entries to the tail of the log.
func (l *Log[T]) Append(entries ...T) {
	l.entries = append(l.entries, entries...)
}

// Len returns the number of entries currently retained.
func (l *Log[T]) Len() int {
	return len(l.entries)
}

// End returns the absolute offset one past the last entry.
func (l *Log[T]) End() int {
	return l.base + len(l.entries)
}

// Register creates a cursor positioned at the current tail, so it only sees
// entries appended after registration.
func (l *Log[T]) Register() *Cursor[T] {
	c := &Cursor[T]{log: l, pos: l.End()}
	l.cursors = append(l.cursors, c)
	return c
}

// RegisterFromStart creates a cursor positioned at the oldest retained entry.
// Entries are only compacted once a cursor has read them, so on a log that
// nobody has read yet it sees the full history.
func (l *Log[T]) RegisterFromStart() *Cursor[T] {
	c := &Cursor[T]{log: l, pos: l.base}
	l.cursors = append(l.cursors, c)
	return c
}

// compact drops entries that every registered cursor has consumed.
func (l *Log[T]) compact() {
	if len(l.entries) == 0 {
		return
	}
	min := l.End()
	for _, c := range l.cursors {
		if c.pos < min {
			min = c.pos
		}
	}
	drop := min - l.base
	if drop < compactThreshold || drop*2 < len(l.entries) {
		return
	}
	remaining := copy(l.entries, l.entries[drop:])
	var zero T
	for i := remaining; i < len(l.entries); i++ {
		l.entries[i] = zero
	}
	l.entries = l.entries[:remaining]
	l.base = min
}

func (l *Log[T]) unregister(c *Cursor[T]) {
	for i, other := range l.cursors {
		if other == c {
			l.cursors = append(l.cursors[:i], l.cursors[i+1:]...)
			return
		}
	}
}

// Cursor is one consumer's read position in a Log.
type Cursor[T any] struct {
	log    *Log[T]
	pos    int
	closed bool
}

// Read returns every entry appended since the last Read and advances the
// cursor past them. The returned slice is owned by the caller.
func (c *Cursor[T]) Read() []T {
	if c.closed {
		return nil
	}
	l := c.log
	start := c.pos - l.base
	if start >= len(l.entries) {
		return nil
	}
	out := make([]T, len(l.entries)-start)
	copy(out, l.entries[start:])
	c.pos = l.End()
	l.compact()
	return out
}

// Pending reports how many entries are waiting for this cursor.
func (c *Cursor[T]) Pending() int {
	if c.closed {
		return 0
	}
	return c.log.End() - c.pos
}

// Close detaches the cursor so it no longer holds back compaction.
func (c *Cursor[T]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.log.unregister(c)
	c.log.compact()
}
