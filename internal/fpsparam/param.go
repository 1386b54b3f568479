package fpsparam

import (
	"fmt"
	"strings"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsvalue"
)

// StreamInfo is the StreamName-kind metadata slice of Parameter.Info: the
// resolved stream id, source location and shape, as reported by the
// external stream loader (internal/streamio) during validation.
type StreamInfo struct {
	StreamID     int
	SourceFile   string
	SourceLine   int
	ElementType  string
	Shape        [3]int64
	ElementMask  uint16
}

// FpsNameInfo is the FpsName-kind metadata slice: child-FPS counts,
// stored in the parameter record. The KeywordTree scan does not refresh
// them.
type FpsNameInfo struct {
	ChildMax    int
	ChildActive int
	ChildUsed   int
}

// Parameter is one slot of an FPS's fixed parameter array.
type Parameter struct {
	KeywordPath []string
	KeywordFull string

	Kind  fpsvalue.Kind
	Flags Flags
	Value fpsvalue.Cell

	Description string

	UpdateCounter uint64

	Stream StreamInfo
	FpsRef FpsNameInfo
}

// NewParameter builds an inactive-until-activated parameter shell. Use
// Activate to populate it for a given keyword path, mirroring the
// source's "add entry" semantics (spec §3 Lifecycle).
func NewParameter() *Parameter {
	return &Parameter{}
}

// SetKeywordPath validates and stores a dotted or segmented keyword path,
// bounding segment count to KWLevelsMax and the joined string to
// KWFullMax, per spec invariant 1.
func (p *Parameter) SetKeywordPath(segments []string) error {
	if len(segments) < 1 || len(segments) > fpslimits.KWLevelsMax {
		return fmt.Errorf("keyword path must have 1..%d segments, got %d", fpslimits.KWLevelsMax, len(segments))
	}
	full := strings.Join(segments, ".")
	if len(full) > fpslimits.KWFullMax {
		return fmt.Errorf("keyword full %q exceeds %d chars", full, fpslimits.KWFullMax)
	}
	p.KeywordPath = append([]string(nil), segments...)
	p.KeywordFull = full
	return nil
}

// Activate marks the parameter live, following the "add entry" rule: the
// first call for a given keywordfull allocates and activates; it is
// idempotent — calling Activate on an already-active parameter is a no-op
// that leaves the existing entry unchanged.
func (p *Parameter) Activate(segments []string, kind fpsvalue.Kind, description string, flags Flags) error {
	if p.Flags.Has(Active) {
		// idempotent: leave the existing entry unchanged
		return nil
	}
	if err := p.SetKeywordPath(segments); err != nil {
		return err
	}
	if len(description) > fpslimits.DescrMax {
		description = description[:fpslimits.DescrMax]
	}
	p.Kind = kind
	p.Description = description
	p.Flags = flags | Active
	p.UpdateCounter = 0
	if kind == fpsvalue.OnOff {
		p.Flags = p.Flags.Clear(OnOffState) // initialize state to OFF, per function_parameters.c
	}
	return nil
}

func (p *Parameter) IsActive() bool { return p.Flags.Has(Active) }

// SetCurrentNumeric writes the current slot of a numeric-kind parameter
// and increments UpdateCounter, satisfying invariant 2 (monotonic
// update_counter) and invariant 3 (getval observes the new value and a
// strictly greater counter).
func (p *Parameter) SetCurrentNumeric(v float64) {
	p.Value.Current = v
	p.UpdateCounter++
}

// SetCurrentString writes the value slot of a string-backed parameter and
// increments UpdateCounter.
func (p *Parameter) SetCurrentString(v string) {
	p.Value.Str = v
	p.UpdateCounter++
}

// SetOnOff writes the live ONOFF flag bit and increments UpdateCounter.
func (p *Parameter) SetOnOff(on bool) {
	if on {
		p.Flags = p.Flags.Set(OnOffState)
	} else {
		p.Flags = p.Flags.Clear(OnOffState)
	}
	p.UpdateCounter++
}

func (p *Parameter) IsOn() bool { return p.Flags.Has(OnOffState) }

// FormattedCurrent renders the current value the way StoreIO's
// per-parameter persistence writer and the interpreter's getval/fwrval
// commands do.
func (p *Parameter) FormattedCurrent() string {
	return p.Value.FormatCurrent(p.Kind, p.IsOn())
}
