// Package fpsvalue implements ValueCell: the tagged-union value held by
// every FPS parameter. One Kind selects which slots of Cell are meaningful,
// mirroring the teacher's runtime-agnostic struct pattern in
// pkg/commands/runtime_types.go (one Go type standing in for what the
// source modeled as a union) rather than a single block of memory
// reinterpreted through aliases.
package fpsvalue

// Kind is the closed set of parameter value kinds.
type Kind uint8

const (
	Undef Kind = iota
	Int64
	Float64
	Float32
	Pid
	Timespec
	Filename
	FitsFilename
	ExecFilename
	Dirname
	StreamName
	String
	OnOff
	FpsName
)

var kindNames = [...]string{
	Undef:        "UNDEF",
	Int64:        "INT64",
	Float64:      "FLOAT64",
	Float32:      "FLOAT32",
	Pid:          "PID",
	Timespec:     "TIMESPEC",
	Filename:     "FILENAME",
	FitsFilename: "FITSFILENAME",
	ExecFilename: "EXECFILENAME",
	Dirname:      "DIRNAME",
	StreamName:   "STREAMNAME",
	String:       "STRING",
	OnOff:        "ONOFF",
	FpsName:      "FPSNAME",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsNumeric reports whether k carries the four-slot numeric range
// (current/min/max/feedback).
func (k Kind) IsNumeric() bool {
	switch k {
	case Int64, Float64, Float32:
		return true
	default:
		return false
	}
}

// IsStringBacked reports whether k carries the two-slot string layout
// (value, companion). OnOff is string-backed: its two slots hold the
// off/on labels, not the live state (that lives in the parameter's ONOFF
// flag bit).
func (k Kind) IsStringBacked() bool {
	switch k {
	case Filename, FitsFilename, ExecFilename, Dirname, StreamName, String, OnOff, FpsName:
		return true
	default:
		return false
	}
}

// IsFileKind reports whether k names a filesystem path the Validator may
// be asked to check for existence / exec bit / FITS conformance.
func (k Kind) IsFileKind() bool {
	switch k {
	case Filename, FitsFilename, ExecFilename, Dirname:
		return true
	default:
		return false
	}
}

// KindByTag resolves the CLI-facing lowercase tag (the name String
// returns) back to a Kind.
func KindByTag(tag string) (Kind, bool) {
	for k, name := range kindNames {
		if name == "" {
			continue
		}
		if tagLower(name) == tag {
			return Kind(k), true
		}
	}
	return Undef, false
}

func tagLower(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		b[i] = c
	}
	return string(b)
}
