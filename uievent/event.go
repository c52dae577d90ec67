// Package uievent turns raw attribute and hierarchy journals into one
// deduplicated stream of semantic UI events.
//
// Every downstream stage consumes this stream through its own cursor and
// never reads the raw journals, so "did this logically change" has a single
// definition.
package uievent

import (
	"fmt"

	"github.com/kungfusheep/cellgraph/scene"
)

// Kind identifies what changed.
type Kind uint8

const (
	PositionChanged Kind = iota
	GlobalPositionChanged
	SizeChanged
	ContentChanged
	VisibilityChanged
	ZLevelChanged
	Attached
	Reparented
	Detached
	ScreenResized
)

var kindNames = [...]string{
	PositionChanged:       "position",
	GlobalPositionChanged: "global-position",
	SizeChanged:           "size",
	ContentChanged:        "content",
	VisibilityChanged:     "visibility",
	ZLevelChanged:         "zlevel",
	Attached:              "attached",
	Reparented:            "reparented",
	Detached:              "detached",
	ScreenResized:         "screen",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Attr names the layout or decorator attribute behind an Attached event.
type Attr uint8

const (
	AttrNone Attr = iota
	AttrContext
	AttrRule
	AttrCentered
	AttrBorder
	AttrAggregator
)

// Event is one normalized change. Which fields are meaningful depends on
// Kind: OldParent/NewParent for Reparented and Detached, OldSize/NewSize for
// SizeChanged and ScreenResized, Attr for Attached. Entity is Nil for
// ScreenResized.
type Event struct {
	Kind      Kind
	Entity    scene.Entity
	Attr      Attr
	OldParent scene.Entity
	NewParent scene.Entity
	OldSize   scene.Size
	NewSize   scene.Size
}

func (e Event) String() string {
	switch e.Kind {
	case ScreenResized:
		return fmt.Sprintf("screen %dx%d -> %dx%d", e.OldSize.Width, e.OldSize.Height, e.NewSize.Width, e.NewSize.Height)
	case SizeChanged:
		return fmt.Sprintf("size %s %dx%d -> %dx%d", e.Entity, e.OldSize.Width, e.OldSize.Height, e.NewSize.Width, e.NewSize.Height)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Entity)
	}
}
