// Package cellgraph is an incremental scene-graph renderer for character
// terminals.
//
// Game logic builds a forest of nodes in a scene.World and attaches sparse
// attributes to them: local Position, TextBlock content, Visible, ZLevel,
// stacking layout rules and decorators (Centered, Border, VisibleIfChild,
// Blink). Once per frame a Pipeline turns the world's change journals into
// a deduplicated event stream, lets layout, decorators and visibility react
// until nothing changes any more, resolves absolute positions, and finally
// writes only the terminal cells that differ from the previous frame.
//
// A minimal program:
//
//	w := scene.NewWorld()
//	p := cellgraph.New(w, render.NewTerminal(os.Stdout))
//	p.Start()
//	defer p.Stop()
//
//	label := w.NewNode()
//	w.TextBlocks.Set(label, scene.SingleRow("hello"))
//	for range time.Tick(50 * time.Millisecond) {
//		if _, err := p.Frame(50 * time.Millisecond); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The pipeline is single-threaded. The world must not be mutated while a
// Frame call is running.
package cellgraph
