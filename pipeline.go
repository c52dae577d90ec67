package cellgraph

import (
	"time"

	"github.com/kungfusheep/cellgraph/globalpos"
	"github.com/kungfusheep/cellgraph/layout"
	"github.com/kungfusheep/cellgraph/render"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/kungfusheep/cellgraph/uievent"
	"github.com/kungfusheep/cellgraph/visibility"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DefaultMaxSettle bounds how many layout passes a single frame may take.
const DefaultMaxSettle = 8

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Each stage logs with a "stage" field.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithMaxSettle caps the layout passes per frame. Values below 1 are ignored.
func WithMaxSettle(n int) Option {
	return func(p *Pipeline) {
		if n >= 1 {
			p.maxSettle = n
		}
	}
}

// FrameStats describes one Frame call.
type FrameStats struct {
	SettlePasses int
	Solved       int // stacking contexts solved
	Toggled      int // nodes flipped by Blink
	Resolved     int // global positions revisited
	Render       render.Stats
}

type stage struct {
	name string
	run  func() error
}

// Pipeline runs every stage over a World once per frame.
type Pipeline struct {
	world     *scene.World
	term      *render.Terminal
	log       zerolog.Logger
	maxSettle int

	normalizer *uievent.Normalizer
	blinker    *visibility.Blinker
	stacking   *layout.Stacking
	global     *globalpos.Resolver
	compositor *render.Compositor
	settle     []stage
}

// New wires a pipeline over w that draws to term. The scene may be built
// before or after this call.
func New(w *scene.World, term *render.Terminal, opts ...Option) *Pipeline {
	p := &Pipeline{
		world:     w,
		term:      term,
		log:       zerolog.Nop(),
		maxSettle: DefaultMaxSettle,
	}
	for _, opt := range opts {
		opt(p)
	}

	sub := func(name string) zerolog.Logger {
		return p.log.With().Str("stage", name).Logger()
	}
	p.normalizer = uievent.NewNormalizer(w, sub("normalize"))
	p.blinker = visibility.NewBlinker(w, sub("blink"))
	p.stacking = layout.NewStacking(w, p.normalizer, sub("stacking"))
	centering := layout.NewCentering(w, p.normalizer, sub("centering"))
	borders := layout.NewBorders(w, p.normalizer, sub("border"))
	resolver := visibility.NewResolver(w, p.normalizer, sub("visibility"))
	p.global = globalpos.NewResolver(w, p.normalizer, sub("globalpos"))
	p.compositor = render.NewCompositor(w, p.normalizer, term, sub("render"))

	p.settle = []stage{
		{"stacking", p.stacking.Run},
		{"centering", centering.Run},
		{"border", borders.Run},
		{"visibility", resolver.Run},
	}
	return p
}

// World returns the scene the pipeline draws.
func (p *Pipeline) World() *scene.World {
	return p.world
}

// Compositor exposes the renderer, mainly for its retained buffer.
func (p *Pipeline) Compositor() *render.Compositor {
	return p.compositor
}

// Start prepares the terminal: clear the screen and hide the cursor.
func (p *Pipeline) Start() error {
	return p.term.Setup()
}

// Stop hands the terminal back: clear, home and show the cursor.
func (p *Pipeline) Stop() error {
	return p.term.Teardown()
}

// Frame advances blink timers by dt and runs the pipeline to completion.
//
// Layout, decorators and visibility react to each other's output, so they
// are repeated until a full pass produces no new event or the settle cap is
// hit. Any error aborts the frame and names the stage and node at fault.
func (p *Pipeline) Frame(dt time.Duration) (FrameStats, error) {
	var stats FrameStats
	w := p.world

	size, err := p.term.Size()
	if err != nil {
		return stats, eris.Wrap(err, "poll terminal size")
	}
	w.SetScreen(size)

	if stats.Toggled, err = p.blinker.Update(dt); err != nil {
		return stats, p.fail("blink", err)
	}
	p.normalizer.Normalize()

	for {
		stats.SettlePasses++
		emitted := 0
		for _, s := range p.settle {
			if err := s.run(); err != nil {
				return stats, p.fail(s.name, err)
			}
			if s.name == "stacking" {
				stats.Solved += len(p.stacking.Solved())
			}
			emitted += p.normalizer.Normalize()
		}
		if emitted == 0 {
			break
		}
		if stats.SettlePasses >= p.maxSettle {
			p.log.Warn().Int("passes", stats.SettlePasses).Int("pending", emitted).Msg("layout did not settle")
			break
		}
	}

	if err := p.global.Run(); err != nil {
		return stats, p.fail("globalpos", err)
	}
	stats.Resolved = len(p.global.Visited())
	p.normalizer.Normalize()

	if err := p.compositor.Run(); err != nil {
		return stats, p.fail("render", err)
	}
	stats.Render = p.compositor.Stats()

	p.log.Debug().
		Int("passes", stats.SettlePasses).
		Int("solved", stats.Solved).
		Int("resolved", stats.Resolved).
		Int("cells", stats.Render.Cells).
		Msg("frame")
	return stats, nil
}

func (p *Pipeline) fail(name string, err error) error {
	p.log.Error().Err(err).Str("stage", name).Msg("frame aborted")
	return eris.Wrapf(err, "%s stage", name)
}
