// Package fpsparam implements Parameter: a ValueCell plus flags, keyword
// path, description, update counter and per-kind metadata. The 40+ flag
// bits from the source are grouped here into a single opaque Flags bitset
// with named constants and predicate helpers, per the design notes'
// "flag soup" guidance — callers test flags through IsWritableInState and
// the other predicates below rather than scattering raw bit tests.
package fpsparam

// Flags is an opaque bitset. Bit positions are a stable contract shared by
// every process that maps the same FPS file.
type Flags uint64

const (
	// Presence
	Active Flags = 1 << iota
	Used
	Visible

	// Writability
	Write
	WriteConf
	WriteRun
	WriteStatus // derived: recomputed by the Validator each pass

	// Persistence / logging
	Log
	SaveOnChange
	SaveOnClose

	// Validation
	CheckInit
	MinLimit
	MaxLimit
	Feedback
	Error
	Imported

	// State
	OnOffState // current value for Kind==OnOff; the two string slots hold labels
	CheckStream

	// Stream-loader directives
	ForceLocalMem
	ForceShareMem
	ForceConfFits
	ForceConfName
	SkipSearchLocalMem
	SkipSearchShareMem
	SkipSearchConfFits
	SkipSearchConfName
	UpdateShareMem
	UpdateConfFits
	MemLoadReport
	EnforceDatatype
	Enforce1D
	Enforce2D
	Enforce3D
	EnforceXsize
	EnforceYsize
	EnforceZsize

	// Required-at-state
	FileConfRequired
	FileRunRequired // also gates the FITS sniff for FitsFilename kind, per spec §9 open question 4
	FpsRunRequired
	StreamConfRequired
	StreamRunRequired
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

func (f Flags) Set(bit Flags) Flags   { return f | bit }
func (f Flags) Clear(bit Flags) Flags { return f &^ bit }

// IsWritableInState computes the effective-writable bit per spec §4.1:
// writable in CONF state iff WriteConf, in RUN state iff WriteRun,
// otherwise iff Write.
func (f Flags) IsWritableInState(inConf, inRun bool) bool {
	switch {
	case inConf:
		return f.Has(WriteConf)
	case inRun:
		return f.Has(WriteRun)
	default:
		return f.Has(Write)
	}
}

// WithWriteStatus returns f with the WriteStatus bit set to the supplied
// effective-writable value, as computed by IsWritableInState. The
// Validator recomputes it, together with Error, on every pass (spec §4.4).
func (f Flags) WithWriteStatus(writable bool) Flags {
	if writable {
		return f.Set(WriteStatus)
	}
	return f.Clear(WriteStatus)
}
