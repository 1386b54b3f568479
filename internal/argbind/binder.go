package argbind

import (
	"fmt"
	"strings"

	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/fpsvalue"
)

// BindMode reports which of the two calling conventions spec §4.3
// describes a Bind call resolved to.
type BindMode int

const (
	// ModePositional consumes one token per CLI-eligible descriptor, in
	// schema order.
	ModePositional BindMode = iota
	// ModeKeyword is "argument-1-keyword mode": the first token names a
	// single descriptor's FPSTag directly and the second token is its
	// value, independent of schema order.
	ModeKeyword
)

const (
	sentinelLastValue = "."
	sentinelHelp      = "?"
)

// FUNCPARAMSET is returned as the bound tag set whenever a Bind call only
// targets one descriptor out of schema order (keyword mode), mirroring
// the source's single-parameter fast path through the same entry point
// an N-argument positional command uses.
const FUNCPARAMSET = "FUNCPARAMSET"

// BindResult is the outcome of one Bind call.
type BindResult struct {
	Mode   BindMode
	Values map[string]Bound // FPSTag -> the value actually bound this call
	Help   string           // set to the FPSTag whose "?" sentinel was seen, if any
}

// ArgBinder runs a Schema against a stream of Tokens: argument-1-keyword
// mode, positional mode, the "."/"?" sentinels and the last-value store,
// per spec §4.3. When fps is non-nil, every bound value is written
// through to the matching FPS parameter (FindByFull(tag)) unless that
// descriptor carries NoFPS.
type ArgBinder struct {
	schema Schema
	fps    *fpsstore.FPS

	lastVals map[string]Bound
}

// NewArgBinder builds a binder for schema. fps may be nil for pure
// CLI-side parsing (e.g. the "?" help path) with no write-through.
func NewArgBinder(schema Schema, fps *fpsstore.FPS) *ArgBinder {
	return &ArgBinder{
		schema:   schema,
		fps:      fps,
		lastVals: make(map[string]Bound),
	}
}

// Resolve implements VarResolver over the binder's own last-value store,
// so a later argument can reference an earlier one by tag.
func (b *ArgBinder) Resolve(name string) (Bound, bool) {
	v, ok := b.lastVals[name]
	return v, ok
}

func (b *ArgBinder) cliDescriptors() []Descriptor {
	out := make([]Descriptor, 0, len(b.schema))
	for _, d := range b.schema {
		if d.Flags&NoCLI == 0 {
			out = append(out, d)
		}
	}
	return out
}

// Bind parses tokens against the schema. It first checks for
// argument-1-keyword mode (exactly 2 tokens, the first a plain
// string/command word matching a descriptor's FPSTag case-insensitively);
// otherwise it falls back to positional mode, consuming one token per
// CLI-eligible descriptor in order.
func (b *ArgBinder) Bind(tokens []Token) (BindResult, error) {
	if len(tokens) == 0 {
		return BindResult{}, fmt.Errorf("argbind: no arguments given")
	}

	if len(tokens) == 2 {
		if d, ok := b.matchKeyword(tokens[0]); ok {
			return b.bindKeyword(d, tokens[1])
		}
	}

	return b.bindPositional(tokens)
}

func (b *ArgBinder) matchKeyword(tok Token) (Descriptor, bool) {
	if tok.Kind != TokPlainString && tok.Kind != TokCommandWord {
		return Descriptor{}, false
	}
	for _, d := range b.cliDescriptors() {
		if strings.EqualFold(d.FPSTag, tok.String) {
			return d, true
		}
	}
	return Descriptor{}, false
}

func (b *ArgBinder) bindKeyword(d Descriptor, valueTok Token) (BindResult, error) {
	val, err := b.resolveOne(d, valueTok)
	if err != nil {
		return BindResult{}, err
	}
	if val.help {
		return BindResult{Mode: ModeKeyword, Help: d.FPSTag}, nil
	}
	if err := b.commit(d, val.bound); err != nil {
		return BindResult{}, err
	}
	return BindResult{
		Mode:   ModeKeyword,
		Values: map[string]Bound{FUNCPARAMSET: val.bound, d.FPSTag: val.bound},
	}, nil
}

func (b *ArgBinder) bindPositional(tokens []Token) (BindResult, error) {
	descs := b.cliDescriptors()
	if len(tokens) != len(descs) {
		return BindResult{}, fmt.Errorf("argbind: expected %d argument(s), got %d", len(descs), len(tokens))
	}

	values := make(map[string]Bound, len(descs))
	for i, d := range descs {
		val, err := b.resolveOne(d, tokens[i])
		if err != nil {
			return BindResult{}, err
		}
		if val.help {
			return BindResult{Mode: ModePositional, Help: d.FPSTag}, nil
		}
		if err := b.commit(d, val.bound); err != nil {
			return BindResult{}, err
		}
		values[d.FPSTag] = val.bound
	}
	return BindResult{Mode: ModePositional, Values: values}, nil
}

type resolved struct {
	bound Bound
	help  bool
}

// resolveOne applies the "."/"?" sentinels ahead of the coercion table,
// per spec §4.3: "." reuses the tag's last bound value, "?" requests help
// instead of binding.
func (b *ArgBinder) resolveOne(d Descriptor, tok Token) (resolved, error) {
	if (tok.Kind == TokPlainString || tok.Kind == TokCommandWord || tok.Kind == TokRaw) && tok.String == sentinelHelp {
		return resolved{help: true}, nil
	}
	if (tok.Kind == TokPlainString || tok.Kind == TokCommandWord || tok.Kind == TokRaw) && tok.String == sentinelLastValue {
		last, ok := b.lastVals[d.FPSTag]
		if !ok {
			return resolved{}, fmt.Errorf("argbind: %q has no previous value for %q", sentinelLastValue, d.FPSTag)
		}
		return resolved{bound: last}, nil
	}
	bound, err := Coerce(tok, d.ExpectedKind, b)
	if err != nil {
		return resolved{}, err
	}
	return resolved{bound: bound}, nil
}

func (b *ArgBinder) commit(d Descriptor, val Bound) error {
	b.lastVals[d.FPSTag] = val
	if b.fps == nil || d.Flags&NoFPS != 0 {
		return nil
	}
	p, idx, ok := b.fps.FindByFull(d.FPSTag)
	if !ok {
		return fmt.Errorf("argbind: fps has no parameter %q", d.FPSTag)
	}
	if p.Kind == fpsvalue.OnOff {
		// the ONOFF flag is the live state; the value slot mirrors it as 0/1
		p.SetCurrentNumeric(val.Numeric)
		p.SetOnOff(val.Numeric != 0)
	} else if val.IsNumeric {
		p.SetCurrentNumeric(val.Numeric)
	} else {
		p.SetCurrentString(val.Str)
	}
	b.fps.WriteParam(idx)
	b.fps.Header.Signal = b.fps.Header.Signal.Set(fpsstore.SignalUpdate)
	b.fps.WriteHeader()
	return nil
}
