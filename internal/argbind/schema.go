// Package argbind implements ArgSchema/ArgBinder: a declarative,
// per-command argument descriptor table that replaces the source's
// repeated per-type coercion switches with one table keyed by
// (token_kind, expected_kind), per spec §4.3 and the design notes'
// explicit call to collapse "multiple near-identical switches".
package argbind

import "github.com/milk-org/fps/internal/fpsvalue"

// DescriptorFlags marks a descriptor as excluded from CLI parsing
// (NoCLI) or from being written through to the target FPS (NoFPS).
type DescriptorFlags uint8

const (
	NoCLI DescriptorFlags = 1 << iota
	NoFPS
)

// Descriptor is one compile-time argument declaration: the FPS tag it
// binds to, its expected kind, and its cli/fps-write behavior flags.
type Descriptor struct {
	FPSTag       string
	Description  string
	ExpectedKind fpsvalue.Kind
	Flags        DescriptorFlags
}

// Schema is an ordered array of Descriptors, the compile-time contract
// for one command.
type Schema []Descriptor

// ByTag finds the descriptor whose FPSTag matches tag.
func (s Schema) ByTag(tag string) (Descriptor, bool) {
	for _, d := range s {
		if d.FPSTag == tag {
			return d, true
		}
	}
	return Descriptor{}, false
}
