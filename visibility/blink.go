package visibility

import (
	"time"

	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/rs/zerolog"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

type blinkTimer struct {
	interval time.Duration
	tween    *gween.Tween
}

// Blinker flips Visible on every Blink node each time its interval elapses.
// Time left over past an interval carries into the next one.
type Blinker struct {
	world   *scene.World
	changes *journal.Cursor[scene.Change]
	timers  map[scene.Entity]*blinkTimer
	log     zerolog.Logger
}

// NewBlinker creates a blinker over w. It consumes the Blink journal, so
// the storage's history is compacted as frames pass.
func NewBlinker(w *scene.World, log zerolog.Logger) *Blinker {
	return &Blinker{
		world:   w,
		changes: w.Blinks.ChangesFromStart(),
		timers:  make(map[scene.Entity]*blinkTimer),
		log:     log,
	}
}

// Update advances every blink timer by dt and returns how many nodes toggled.
func (b *Blinker) Update(dt time.Duration) (int, error) {
	w := b.world
	toggled := 0
	var err error

	for _, ch := range b.changes.Read() {
		if ch.Kind == scene.Removed {
			delete(b.timers, ch.Entity)
		}
	}

	w.Blinks.Each(func(e scene.Entity, blink scene.Blink) bool {
		if blink.Interval <= 0 {
			return true
		}
		t, ok := b.timers[e]
		if !ok || t.interval != blink.Interval {
			t = &blinkTimer{
				interval: blink.Interval,
				tween:    gween.New(0, 1, float32(blink.Interval.Seconds()), ease.Linear),
			}
			b.timers[e] = t
		}

		flips := 0
		_, done := t.tween.Update(float32(dt.Seconds()))
		for done {
			flips++
			over := t.tween.Overflow
			t.tween.Reset()
			_, done = t.tween.Set(over)
		}
		if flips%2 == 0 {
			return true
		}
		if err = w.Visibles.Set(e, scene.Visible(!w.IsVisible(e))); err != nil {
			return false
		}
		toggled++
		return true
	})

	if toggled > 0 {
		b.log.Trace().Int("toggled", toggled).Msg("blink")
	}
	return toggled, err
}
