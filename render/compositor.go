package render

import (
	"bytes"
	"io"

	"github.com/kungfusheep/cellgraph/journal"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Stats describes the last Run.
type Stats struct {
	Repainted bool // false when no event arrived and nothing was done
	Cleared   bool // the screen was resized and cleared
	Cells     int  // cells written to the terminal
	Bytes     int
}

// Compositor repaints the whole scene into a fresh buffer whenever any event
// arrives, diffs it against the buffer retained from the previous frame and
// writes only the cells that differ.
type Compositor struct {
	world  *scene.World
	events *journal.Cursor[uievent.Event]
	out    io.Writer
	log    zerolog.Logger

	front *Buffer // what the terminal shows
	back  *Buffer // what we are painting
	buf   bytes.Buffer
	stats Stats
}

// NewCompositor subscribes a compositor to n, writing frames to out.
func NewCompositor(w *scene.World, n *uievent.Normalizer, out io.Writer, log zerolog.Logger) *Compositor {
	return &Compositor{
		world:  w,
		events: n.Subscribe(),
		out:    out,
		log:    log,
		front:  NewBuffer(0, 0),
		back:   NewBuffer(0, 0),
	}
}

// Front returns the retained buffer, i.e. what the terminal currently shows.
func (c *Compositor) Front() *Buffer {
	return c.front
}

// Stats returns statistics from the last Run.
func (c *Compositor) Stats() Stats {
	return c.stats
}

// Run composites and flushes one frame if anything changed.
func (c *Compositor) Run() error {
	c.stats = Stats{}
	events := c.events.Read()
	if len(events) == 0 {
		return nil
	}
	c.stats.Repainted = true
	c.buf.Reset()

	screen := c.world.Screen()
	if screen != c.front.Size() {
		c.front.Resize(screen.Width, screen.Height)
		c.back.Resize(screen.Width, screen.Height)
		c.buf.WriteString("\x1b[2J")
		c.stats.Cleared = true
	}

	c.paint()
	c.flush()

	c.stats.Bytes = c.buf.Len()
	if c.buf.Len() > 0 {
		if _, err := c.out.Write(c.buf.Bytes()); err != nil {
			return eris.Wrap(err, "flush frame")
		}
	}
	c.front, c.back = c.back, c.front
	c.log.Debug().Int("events", len(events)).Int("cells", c.stats.Cells).Bool("cleared", c.stats.Cleared).Msg("composited")
	return nil
}

// paint redraws every visible node into the back buffer in hierarchy order.
// An invisible node hides its whole subtree.
func (c *Compositor) paint() {
	w := c.world
	c.back.Clear()
	w.Hierarchy.Walk(func(e scene.Entity) bool {
		if !w.IsVisible(e) {
			return false
		}
		block, ok := w.TextBlocks.Get(e)
		if !ok {
			return true
		}
		g, _ := w.GlobalPositions.Get(e)
		z, _ := w.ZLevels.Get(e)
		c.back.PaintBlock(g.X, g.Y, block, z)
		return true
	})
}

// flush renders the back buffer to c.buf using per-cell diff against front.
// Every changed cell gets its own cursor move. Placeholder cells are
// adopted without output since the wide rune before them covers them.
func (c *Compositor) flush() {
	for y := 0; y < c.back.height; y++ {
		for x := 0; x < c.back.width; x++ {
			back := c.back.Get(x, y)
			if back.Rune == c.front.Get(x, y).Rune || back.Rune == Placeholder {
				continue
			}
			c.buf.WriteString("\x1b[")
			c.writeIntToBuf(y + 1)
			c.buf.WriteByte(';')
			c.writeIntToBuf(x + 1)
			c.buf.WriteByte('H')
			c.buf.WriteRune(back.Rune)
			c.stats.Cells++
		}
	}
}

// writeIntToBuf writes an integer to the buffer without allocation.
func (c *Compositor) writeIntToBuf(n int) {
	if n == 0 {
		c.buf.WriteByte('0')
		return
	}
	var scratch [20]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	c.buf.Write(scratch[i:])
}
