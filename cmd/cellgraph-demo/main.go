// Command cellgraph-demo draws a small bordered dashboard and echoes key
// presses. Press q or ctrl-c to quit.
package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/JeremyLoy/config"
	"github.com/google/uuid"
	"github.com/kungfusheep/cellgraph"
	"github.com/kungfusheep/cellgraph/layout"
	"github.com/kungfusheep/cellgraph/render"
	"github.com/kungfusheep/cellgraph/scene"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

type Config struct {
	FPS      int    `config:"CELLGRAPH_FPS"`
	LogFile  string `config:"CELLGRAPH_LOG_FILE"`
	LogLevel string `config:"CELLGRAPH_LOG_LEVEL"`
}

func loadConfig() (Config, error) {
	cfg := Config{FPS: 20, LogFile: "cellgraph.log", LogLevel: "info"}
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "read environment")
	}
	if cfg.FPS < 1 {
		cfg.FPS = 1
	}
	return cfg, nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cellgraph-demo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return eris.New("stdin and stdout must be a terminal")
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "open log file %s", cfg.LogFile)
	}
	defer logFile.Close()
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	session := uuid.New().String()
	log := zerolog.New(logFile).Level(level).With().Timestamp().Str("session", session).Logger()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return eris.Wrap(err, "raw mode")
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	w := scene.NewWorld()
	out := render.NewTerminal(os.Stdout)
	p := cellgraph.New(w, out, cellgraph.WithLogger(log))
	d, err := newDashboard(w, session)
	if err != nil {
		return err
	}

	if err := p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resizes := out.Resizes(ctx)
	keys := readKeys(ctx)

	log.Info().Int("fps", cfg.FPS).Msg("started")
	frame := time.Second / time.Duration(cfg.FPS)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	last := time.Now()

	draw := func() error {
		now := time.Now()
		dt := now.Sub(last)
		last = now
		if err := d.tick(now); err != nil {
			return err
		}
		_, err := p.Frame(dt)
		return err
	}
	if err := draw(); err != nil {
		return err
	}

	for {
		select {
		case b, ok := <-keys:
			if !ok || b == 'q' || b == 3 {
				log.Info().Msg("quit")
				return nil
			}
			if err := d.key(b); err != nil {
				return err
			}
		case size := <-resizes:
			log.Debug().Int("width", size.Width).Int("height", size.Height).Msg("resize")
		case <-ticker.C:
		}
		if err := draw(); err != nil {
			log.Error().Err(err).Msg("frame")
			return err
		}
	}
}

// readKeys delivers raw input bytes until stdin closes.
func readKeys(ctx context.Context) <-chan byte {
	out := make(chan byte, 16)
	go func() {
		defer close(out)
		buf := make([]byte, 8)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			for _, b := range buf[:n] {
				select {
				case out <- b:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

type dashboard struct {
	w      *scene.World
	clock  scene.Entity
	prompt scene.Entity
	cursor scene.Entity
	hint   scene.Entity
	typed  []byte
}

func newDashboard(w *scene.World, session string) (*dashboard, error) {
	d := &dashboard{w: w}
	var err error
	child := func(parent scene.Entity) scene.Entity {
		if err != nil {
			return scene.Nil
		}
		var e scene.Entity
		e, err = w.NewChild(parent)
		return e
	}
	set := func(e error) {
		if err == nil {
			err = e
		}
	}

	root := w.NewNode()
	set(w.Contexts.Set(root, scene.StackingContext{Direction: scene.Vertical}))

	header := child(root)
	set(w.Rules.Set(header, scene.NewRule().WithMinHeight(3).WithMaxHeight(3)))
	set(w.Borders.Set(header, scene.Border{Left: true, Right: true, Top: true, Bottom: true, Glyphs: layout.RoundedGlyphs}))
	titleBox := child(header)
	set(w.Positions.Set(titleBox, scene.Position{X: 1, Y: 1}))
	// Centering needs the parent sized before the border gets to it.
	set(w.TextBlocks.Set(titleBox, scene.EmptyBlock(0, 1)))
	title := child(titleBox)
	set(w.TextBlocks.Set(title, scene.SingleRow("cellgraph")))
	set(w.Centered.Set(title, scene.Centered{Horizontal: true}))

	body := child(root)
	set(w.Rules.Set(body, scene.NewRule()))
	set(w.Contexts.Set(body, scene.StackingContext{Direction: scene.Horizontal}))

	left := child(body)
	set(w.Rules.Set(left, scene.NewRule().WithMinWidth(16).WithMaxWidth(40)))
	set(w.Borders.Set(left, scene.Border{Left: true, Right: true, Top: true, Bottom: true, Glyphs: layout.SingleGlyphs}))
	d.clock = child(left)
	set(w.Positions.Set(d.clock, scene.Position{X: 1, Y: 1}))

	right := child(body)
	set(w.Rules.Set(right, scene.NewRule().WithFlex(2)))
	set(w.Borders.Set(right, scene.Border{Left: true, Right: true, Top: true, Bottom: true, Glyphs: layout.DoubleGlyphs}))
	d.prompt = child(right)
	set(w.Positions.Set(d.prompt, scene.Position{X: 1, Y: 1}))
	d.cursor = child(d.prompt)
	set(w.TextBlocks.Set(d.cursor, scene.SingleRow("_")))
	set(w.ZLevels.Set(d.cursor, 1))
	set(w.Blinks.Set(d.cursor, scene.Blink{Interval: 500 * time.Millisecond}))

	// The footer hides itself once its only child, the hint, is gone.
	footer := child(root)
	set(w.Rules.Set(footer, scene.NewRule().WithMaxHeight(1)))
	set(w.Aggregators.Set(footer, scene.VisibleIfChild{}))
	d.hint = child(footer)
	set(w.TextBlocks.Set(d.hint, scene.SingleRow("type to begin, q quits  ["+session[:8]+"]")))
	set(w.Positions.Set(d.hint, scene.Position{}))

	if err != nil {
		return nil, eris.Wrap(err, "build dashboard")
	}
	return d, d.updatePrompt()
}

// tick rewrites the clock. Text inside a border is resized by the border,
// so only the rows are replaced.
func (d *dashboard) tick(now time.Time) error {
	block, ok := d.w.TextBlocks.Get(d.clock)
	if !ok {
		return nil
	}
	rows := []string{now.Format("15:04:05"), fmt.Sprintf("%d keys", len(d.typed))}
	if slices.Equal(block.Rows, rows) {
		return nil
	}
	block.Rows = rows
	return eris.Wrap(d.w.TextBlocks.Set(d.clock, block), "update clock")
}

func (d *dashboard) key(b byte) error {
	switch {
	case b == 127 || b == 8:
		if len(d.typed) > 0 {
			d.typed = d.typed[:len(d.typed)-1]
		}
	case b >= 32 && b < 127:
		d.typed = append(d.typed, b)
	default:
		return nil
	}
	if d.w.IsVisible(d.hint) {
		if err := d.w.Visibles.Set(d.hint, false); err != nil {
			return err
		}
	}
	return d.updatePrompt()
}

func (d *dashboard) updatePrompt() error {
	line := "> " + string(d.typed)
	block, ok := d.w.TextBlocks.Get(d.prompt)
	if !ok {
		// Sized by the border on the first frame.
		block = scene.EmptyBlock(0, 0)
	}
	block.Rows = []string{line}
	if err := d.w.TextBlocks.Set(d.prompt, block); err != nil {
		return err
	}
	return d.w.Positions.Set(d.cursor, scene.Position{X: len(line)})
}
