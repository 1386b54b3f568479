package uiterm

import (
	"fmt"
	"sync"
	"time"

	throttle "github.com/boz/go-throttle"
	"github.com/fatih/color"
	"github.com/jesseduffield/gocui"
)

const logViewName = "fpslog"

// redrawThrottle caps how often a burst of PrintLine calls actually
// triggers a gocui redraw, matching gui.go's 50ms ThrottleFunc around
// gui.refresh — a process that emits log lines faster than the terminal
// can usefully repaint shouldn't queue one g.Update per line.
const redrawThrottle = 50 * time.Millisecond

// FullRenderer is the full-screen gocui renderer: one scrolling,
// autoscrolling view filling the terminal, with printable keys and Enter
// captured into a channel for ReadKeyNonBlocking/ReadKeyBlocking.
//
// Grounded on pkg/gui/gui.go's gocui.NewGui(gocui.OutputTrue, ...)/
// SetManager/MainLoop wiring and pkg/gui/layout.go's
// SetView-returns-ErrUnknownView-on-first-creation idiom.
type FullRenderer struct {
	g    *gocui.Gui
	keys chan rune
	done chan struct{}

	attr    Attribute
	hasAttr bool

	mu      sync.Mutex
	pending []string
	redraw  throttle.ThrottleDriver
}

// NewFullRenderer starts a gocui main loop in the background and returns a
// Renderer wired to it. Ctrl-C quits the loop.
func NewFullRenderer() (*FullRenderer, error) {
	g, err := gocui.NewGui(gocui.OutputTrue, false, gocui.NORMAL, false, map[rune]string{})
	if err != nil {
		return nil, fmt.Errorf("uiterm: start gocui: %w", err)
	}

	r := &FullRenderer{g: g, keys: make(chan rune, 64), done: make(chan struct{})}
	r.redraw = throttle.ThrottleFunc(redrawThrottle, true, r.flush)
	g.Cursor = false
	g.SetManager(gocui.ManagerFunc(r.layout))

	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, func(*gocui.Gui, *gocui.View) error {
		return gocui.ErrQuit
	}); err != nil {
		g.Close()
		return nil, err
	}
	if err := g.SetKeybinding("", gocui.KeyEnter, gocui.ModNone, r.capture('\n')); err != nil {
		g.Close()
		return nil, err
	}
	for ch := rune(0x20); ch < 0x7f; ch++ {
		if err := g.SetKeybinding("", ch, gocui.ModNone, r.capture(ch)); err != nil {
			g.Close()
			return nil, err
		}
	}

	go func() {
		defer close(r.done)
		if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
			_ = err // surfaced to the caller only through Close/ReadKey* returning
		}
	}()

	return r, nil
}

func (r *FullRenderer) capture(ch rune) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		select {
		case r.keys <- ch:
		default:
		}
		return nil
	}
}

func (r *FullRenderer) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	v, err := g.SetView(logViewName, 0, 0, maxX-1, maxY-1, 0)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Wrap = true
		v.Autoscroll = true
		v.FgColor = gocui.ColorDefault
	}
	if _, err := g.SetCurrentView(logViewName); err != nil {
		return err
	}
	return nil
}

// PrintLine queues line for append to the log view and triggers the
// redraw throttle, following gui.go's throttle.ThrottleFunc(50ms, true,
// gui.refresh) pattern: a burst of PrintLine calls collapses into one
// g.Update per throttle window instead of one per line.
func (r *FullRenderer) PrintLine(line string) error {
	r.mu.Lock()
	r.pending = append(r.pending, line)
	r.mu.Unlock()
	r.redraw.Trigger()
	return nil
}

// flush is the throttled redraw callback: it drains whatever lines
// accumulated since the last firing into the log view in one g.Update.
func (r *FullRenderer) flush() {
	r.mu.Lock()
	lines := r.pending
	r.pending = nil
	r.mu.Unlock()
	if len(lines) == 0 {
		return
	}
	r.g.Update(func(g *gocui.Gui) error {
		v, err := g.View(logViewName)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if r.hasAttr {
				fmt.Fprintln(v, color.New(r.attr).Sprint(line))
			} else {
				fmt.Fprintln(v, line)
			}
		}
		return nil
	})
}

func (r *FullRenderer) SetAttribute(attr Attribute) error {
	r.attr = attr
	r.hasAttr = attr != AttrReset
	return nil
}

func (r *FullRenderer) ReadKeyNonBlocking() (rune, bool, error) {
	select {
	case k := <-r.keys:
		return k, true, nil
	case <-r.done:
		return 0, false, fmt.Errorf("uiterm: renderer closed")
	default:
		return 0, false, nil
	}
}

func (r *FullRenderer) ReadKeyBlocking() (rune, error) {
	select {
	case k := <-r.keys:
		return k, nil
	case <-r.done:
		return 0, fmt.Errorf("uiterm: renderer closed")
	}
}

func (r *FullRenderer) Dimensions() (int, int) {
	return r.g.Size()
}

func (r *FullRenderer) Close() error {
	r.redraw.Stop()
	r.g.Close()
	return nil
}
