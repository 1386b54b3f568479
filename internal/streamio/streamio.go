// Package streamio is the contract boundary to the external stream
// loader that resolves StreamName-kind parameters to a live shared-memory
// image (spec.md §1 Non-goals: the image stream implementation itself is
// out of scope for this module). It exists so internal/validator has
// something concrete to depend on at the interface level.
package streamio

import (
	"fmt"

	"github.com/milk-org/fps/internal/validator"
)

// Info is what a successful load reports back: source location and
// element shape, mirroring fpsparam.StreamInfo.
type Info struct {
	SourceFile  string
	SourceLine  int
	ElementType string
	Shape       [3]int64
	ElementMask uint16
}

// Loader resolves a stream by name. The real implementation (reading the
// host's shared-memory image directory) lives outside this module.
type Loader interface {
	LoadStream(name string) (Info, error)
}

// MemLoader is an in-memory Loader backed by a fixed table, for tests and
// for deployments that pre-register streams instead of scanning a live
// image directory.
type MemLoader struct {
	streams map[string]Info
}

// NewMemLoader builds a MemLoader with no registered streams.
func NewMemLoader() *MemLoader {
	return &MemLoader{streams: make(map[string]Info)}
}

// Register adds or replaces a stream's resolved info.
func (m *MemLoader) Register(name string, info Info) {
	m.streams[name] = info
}

// LoadStream implements Loader.
func (m *MemLoader) LoadStream(name string) (Info, error) {
	info, ok := m.streams[name]
	if !ok {
		return Info{}, fmt.Errorf("streamio: stream %q not registered", name)
	}
	return info, nil
}

// ValidatorLoader adapts a Loader to internal/validator.StreamLoader,
// whose StreamInfo is a distinct type from Info so the two packages don't
// have to import each other's concrete structs.
type ValidatorLoader struct {
	Loader Loader
}

// LoadStream implements validator.StreamLoader.
func (a ValidatorLoader) LoadStream(name string) (validator.StreamInfo, error) {
	info, err := a.Loader.LoadStream(name)
	if err != nil {
		return validator.StreamInfo{}, err
	}
	return validator.StreamInfo{
		SourceFile:  info.SourceFile,
		SourceLine:  info.SourceLine,
		ElementType: info.ElementType,
		Shape:       info.Shape,
		ElementMask: info.ElementMask,
	}, nil
}
