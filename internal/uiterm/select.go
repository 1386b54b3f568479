package uiterm

import "os"

// New selects a Renderer by environment: MILK_FPSCTRL_NOPRINT takes
// precedence and yields a SilentRenderer; otherwise MILK_FPSCTRL_PRINT_STDIO
// selects the plain stdio renderer; the default is the full-screen gocui
// renderer.
func New() (Renderer, error) {
	if os.Getenv("MILK_FPSCTRL_NOPRINT") != "" {
		return NewSilentRenderer(), nil
	}
	if os.Getenv("MILK_FPSCTRL_PRINT_STDIO") != "" {
		return NewStdioRenderer(os.Stdout, os.Stdin)
	}
	return NewFullRenderer()
}
