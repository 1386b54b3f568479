package uiterm

import "io"

// SilentRenderer discards all output and reports no keys, for headless
// deployments (selected via MILK_FPSCTRL_NOPRINT).
type SilentRenderer struct{}

// NewSilentRenderer builds a Renderer that does nothing.
func NewSilentRenderer() *SilentRenderer { return &SilentRenderer{} }

func (*SilentRenderer) PrintLine(string) error          { return nil }
func (*SilentRenderer) SetAttribute(Attribute) error     { return nil }
func (*SilentRenderer) ReadKeyNonBlocking() (rune, bool, error) {
	return 0, false, nil
}
func (*SilentRenderer) ReadKeyBlocking() (rune, error) { return 0, io.EOF }
func (*SilentRenderer) Dimensions() (int, int)         { return 0, 0 }
func (*SilentRenderer) Close() error                   { return nil }
