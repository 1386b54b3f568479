// Package uiterm implements the control process's UI capability contract:
// print a line, set a display attribute, read a key (blocking or not), and
// report the terminal's dimensions. Three renderers satisfy it: a
// full-screen gocui renderer, a plain stdio renderer, and a silent no-op
// renderer for headless/batch deployments (spec §5's control-loop drawing
// step, generalized to be swappable rather than hardwired to one UI).
package uiterm

import "github.com/fatih/color"

// Attribute is a display attribute (bold, a foreground color, ...) a
// renderer applies to subsequently printed lines until reset. Reusing
// color.Attribute directly, rather than defining a parallel enum, follows
// teacher's own pkg/gui/theme.go usage of fatih/color attributes.
type Attribute = color.Attribute

const (
	AttrReset  = color.Reset
	AttrBold   = color.Bold
	AttrFgRed  = color.FgRed
	AttrFgGreen = color.FgGreen
	AttrFgYellow = color.FgYellow
	AttrFgCyan = color.FgCyan
)

// Renderer is the UI capability set the control process draws the log and
// reads keyboard input through.
type Renderer interface {
	PrintLine(line string) error
	SetAttribute(attr Attribute) error
	ReadKeyNonBlocking() (key rune, ok bool, err error)
	ReadKeyBlocking() (key rune, err error)
	Dimensions() (cols, rows int)
	Close() error
}
