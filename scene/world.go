package scene

// World bundles the arena, every attribute storage, the hierarchy and the
// terminal size resource. Game logic writes through it; the pipeline stages
// read from it and own GlobalPosition and the computed sizes of containers.
type World struct {
	Arena     *Arena
	Hierarchy *Hierarchy

	Positions       *Storage[Position]
	GlobalPositions *Storage[GlobalPosition]
	TextBlocks      *Storage[TextBlock]
	Visibles        *Storage[Visible]
	ZLevels         *Storage[ZLevel]
	Contexts        *Storage[StackingContext]
	Rules           *Storage[StackingRule]
	Centered        *Storage[Centered]
	Borders         *Storage[Border]
	Aggregators     *Storage[VisibleIfChild]
	Blinks          *Storage[Blink]

	screen Size
}

// NewWorld creates an empty world.
func NewWorld() *World {
	a := NewArena()
	return &World{
		Arena:           a,
		Hierarchy:       NewHierarchy(a),
		Positions:       NewStorage[Position](a),
		GlobalPositions: NewStorage[GlobalPosition](a),
		TextBlocks:      NewStorage[TextBlock](a),
		Visibles:        NewStorage[Visible](a),
		ZLevels:         NewStorage[ZLevel](a),
		Contexts:        NewStorage[StackingContext](a),
		Rules:           NewStorage[StackingRule](a),
		Centered:        NewStorage[Centered](a),
		Borders:         NewStorage[Border](a),
		Aggregators:     NewStorage[VisibleIfChild](a),
		Blinks:          NewStorage[Blink](a),
	}
}

// NewNode creates a root node with no attributes.
func (w *World) NewNode() Entity {
	e := w.Arena.Create()
	w.Hierarchy.insert(e)
	return e
}

// NewChild creates a node under parent.
func (w *World) NewChild(parent Entity) (Entity, error) {
	e := w.NewNode()
	if err := w.Hierarchy.SetParent(e, parent); err != nil {
		w.Delete(e)
		return Nil, err
	}
	return e, nil
}

// Delete removes e and all of its descendants, detaching every attribute.
// Returns false if e was not alive.
func (w *World) Delete(e Entity) bool {
	if !w.Arena.Alive(e) {
		return false
	}
	for _, c := range append([]Entity(nil), w.Hierarchy.Children(e)...) {
		w.Delete(c)
	}
	w.Positions.Remove(e)
	w.GlobalPositions.Remove(e)
	w.TextBlocks.Remove(e)
	w.Visibles.Remove(e)
	w.ZLevels.Remove(e)
	w.Contexts.Remove(e)
	w.Rules.Remove(e)
	w.Centered.Remove(e)
	w.Borders.Remove(e)
	w.Aggregators.Remove(e)
	w.Blinks.Remove(e)
	w.Hierarchy.remove(e)
	w.Arena.Delete(e)
	return true
}

// SetScreen records the terminal size for this frame.
func (w *World) SetScreen(s Size) {
	w.screen = s
}

// Screen returns the terminal size recorded for this frame.
func (w *World) Screen() Size {
	return w.screen
}

// IsVisible returns e's explicit visibility, defaulting to true.
func (w *World) IsVisible(e Entity) bool {
	v, ok := w.Visibles.Get(e)
	return !ok || bool(v)
}
