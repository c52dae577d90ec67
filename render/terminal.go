package render

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kungfusheep/cellgraph/scene"
	"github.com/rotisserie/eris"
	"golang.org/x/sys/unix"
)

// Terminal is the output side of the renderer: a byte sink plus the tty it
// measures. Writes are synchronous and any failure is returned wrapped.
type Terminal struct {
	writer io.Writer
	fd     int
	size   func() (scene.Size, error)
}

// TerminalOption configures a Terminal.
type TerminalOption func(*Terminal)

// WithFD measures the terminal on fd instead of stdout.
func WithFD(fd int) TerminalOption {
	return func(t *Terminal) { t.fd = fd }
}

// WithSizeFunc replaces the ioctl size query, mostly for tests and pipes.
func WithSizeFunc(fn func() (scene.Size, error)) TerminalOption {
	return func(t *Terminal) { t.size = fn }
}

// NewTerminal creates a terminal writing to w.
// Pass nil to use os.Stdout.
func NewTerminal(w io.Writer, opts ...TerminalOption) *Terminal {
	if w == nil {
		w = os.Stdout
	}
	t := &Terminal{writer: w, fd: int(os.Stdout.Fd())}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// getTerminalSize returns the current terminal dimensions.
func getTerminalSize(fd int) (scene.Size, error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return scene.Size{}, eris.Wrapf(err, "get window size of fd %d", fd)
	}
	return scene.Size{Width: int(ws.Col), Height: int(ws.Row)}, nil
}

// Size returns the current screen dimensions.
func (t *Terminal) Size() (scene.Size, error) {
	if t.size != nil {
		return t.size()
	}
	return getTerminalSize(t.fd)
}

// Setup clears the screen and hides the cursor.
func (t *Terminal) Setup() error {
	return t.writeString("\x1b[2J\x1b[?25l")
}

// Teardown clears the screen, homes the cursor and shows it again.
func (t *Terminal) Teardown() error {
	return t.writeString("\x1b[2J\x1b[H\x1b[?25h")
}

// Write sends one frame's output to the terminal.
func (t *Terminal) Write(p []byte) (int, error) {
	n, err := t.writer.Write(p)
	if err != nil {
		return n, eris.Wrap(err, "terminal write")
	}
	if n < len(p) {
		return n, eris.Wrap(io.ErrShortWrite, "terminal write")
	}
	return n, nil
}

func (t *Terminal) writeString(s string) error {
	_, err := t.Write([]byte(s))
	return err
}

// Resizes delivers the new size each time the process receives SIGWINCH,
// until ctx is done. Sizes that could not be read are dropped.
func (t *Terminal) Resizes(ctx context.Context) <-chan scene.Size {
	out := make(chan scene.Size, 1)
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	go func() {
		defer signal.Stop(sig)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				size, err := t.Size()
				if err != nil {
					continue
				}
				// Non-blocking: the frame loop polls size anyway.
				select {
				case out <- size:
				default:
				}
			}
		}
	}()
	return out
}
