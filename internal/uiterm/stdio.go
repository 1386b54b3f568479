package uiterm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// StdioRenderer prints plain, line-buffered output to out and, when in is
// a terminal, puts it in raw mode to read single keystrokes without
// waiting for a newline (selected via MILK_FPSCTRL_PRINT_STDIO).
//
// Grounded on golang.org/x/term's MakeRaw/Restore/GetSize (the pack's
// newer replacement for the teacher's golang.org/x/crypto/ssh/terminal)
// for the raw-mode dance, and the channel-fed background reader idiom
// common to the pack's other nonblocking-read needs.
type StdioRenderer struct {
	out io.Writer

	keys chan rune
	errs chan error
	done chan struct{}
	once sync.Once

	hasTerminal bool
	fd          int
	oldState    *term.State

	attr    Attribute
	hasAttr bool
}

// NewStdioRenderer builds a StdioRenderer writing to out. If in is a
// terminal, it's switched to raw mode and a background goroutine feeds
// keystrokes to ReadKeyNonBlocking/ReadKeyBlocking; in may be nil (or a
// non-terminal) for print-only use, e.g. redirected output in tests.
func NewStdioRenderer(out io.Writer, in *os.File) (*StdioRenderer, error) {
	r := &StdioRenderer{
		out:  out,
		keys: make(chan rune, 64),
		errs: make(chan error, 1),
		done: make(chan struct{}),
	}

	if in != nil {
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			old, err := term.MakeRaw(fd)
			if err != nil {
				return nil, fmt.Errorf("uiterm: enable raw mode: %w", err)
			}
			r.hasTerminal = true
			r.fd = fd
			r.oldState = old
		}
		go r.readLoop(in)
	}

	return r, nil
}

func (r *StdioRenderer) readLoop(in *os.File) {
	reader := bufio.NewReader(in)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			select {
			case r.errs <- err:
			default:
			}
			return
		}
		select {
		case r.keys <- rune(b):
		case <-r.done:
			return
		}
	}
}

func (r *StdioRenderer) PrintLine(line string) error {
	var err error
	if r.hasAttr {
		_, err = color.New(r.attr).Fprintln(r.out, line)
	} else {
		_, err = fmt.Fprintln(r.out, line)
	}
	return err
}

func (r *StdioRenderer) SetAttribute(attr Attribute) error {
	r.attr = attr
	r.hasAttr = attr != AttrReset
	return nil
}

func (r *StdioRenderer) ReadKeyNonBlocking() (rune, bool, error) {
	select {
	case k := <-r.keys:
		return k, true, nil
	case err := <-r.errs:
		return 0, false, err
	default:
		return 0, false, nil
	}
}

func (r *StdioRenderer) ReadKeyBlocking() (rune, error) {
	select {
	case k := <-r.keys:
		return k, nil
	case err := <-r.errs:
		return 0, err
	}
}

func (r *StdioRenderer) Dimensions() (int, int) {
	if r.hasTerminal {
		if w, h, err := term.GetSize(r.fd); err == nil {
			return w, h
		}
	}
	return 80, 24
}

func (r *StdioRenderer) Close() error {
	var err error
	r.once.Do(func() { close(r.done) })
	if r.oldState != nil {
		err = term.Restore(r.fd, r.oldState)
	}
	return err
}
