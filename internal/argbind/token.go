package argbind

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/milk-org/fps/internal/fpsvalue"
)

// TokenKind is the upstream lexer's classification of one CLI/FIFO word,
// fed into the binder rather than re-derived here (spec §4.3: "Tokenization
// comes from an upstream lexer").
type TokenKind int

const (
	TokFloat TokenKind = iota
	TokInt
	TokVarString   // a string that resolves to a stored variable
	TokPlainString // a string with no such binding
	TokImageRef
	TokCommandWord
	TokRaw // unlexed; case "6" of the coercion table
)

// Token is one lexed CLI/FIFO word.
type Token struct {
	Kind   TokenKind
	Number float64
	String string
}

// expectedCategory is the coercion table's column axis: the six
// buckets ValueKind is grouped into for coercion purposes (spec §4.3's
// integer bucket is split here so OnOff gets its own column).
type expectedCategory int

const (
	catFloat expectedCategory = iota
	catInt
	catOnOff
	catStrNotImg
	catImg
	catStr
)

func categoryFor(kind fpsvalue.Kind) expectedCategory {
	switch kind {
	case fpsvalue.Float64, fpsvalue.Float32:
		return catFloat
	case fpsvalue.Int64, fpsvalue.Pid:
		return catInt
	case fpsvalue.OnOff:
		return catOnOff
	case fpsvalue.StreamName:
		return catImg
	case fpsvalue.String:
		return catStr
	default: // Filename, FitsFilename, ExecFilename, Dirname, FpsName, Timespec, Undef
		return catStrNotImg
	}
}

// Bound is a coerced value ready to write into a Parameter: exactly one
// of Numeric/Str is meaningful, selected by IsNumeric.
type Bound struct {
	IsNumeric bool
	Numeric   float64
	Str       string
}

// VarResolver looks up a token's string as a previously-bound variable,
// for the "str (resolvable variable)" row of the coercion table. The
// ArgBinder's last-value store is the only production implementation.
type VarResolver interface {
	Resolve(name string) (Bound, bool)
}

// coerceErr builds the table's "X" (error) cells.
func coerceErr(tok Token, kind fpsvalue.Kind) error {
	return fmt.Errorf("argbind: cannot coerce token %q (kind %d) to %s", tok.String, tok.Kind, kind)
}

// Coerce applies spec §4.3's coercion table for one token against one
// descriptor's expected kind.
func Coerce(tok Token, kind fpsvalue.Kind, vars VarResolver) (Bound, error) {
	cat := categoryFor(kind)

	switch tok.Kind {
	case TokFloat:
		switch cat {
		case catFloat:
			return Bound{IsNumeric: true, Numeric: tok.Number}, nil
		case catInt, catOnOff:
			return Bound{IsNumeric: true, Numeric: roundHalfUp(tok.Number)}, nil
		default:
			return Bound{}, coerceErr(tok, kind)
		}

	case TokInt:
		switch cat {
		case catFloat:
			return Bound{IsNumeric: true, Numeric: tok.Number}, nil
		case catInt, catOnOff:
			return Bound{IsNumeric: true, Numeric: tok.Number}, nil
		default:
			return Bound{}, coerceErr(tok, kind)
		}

	case TokVarString:
		if cat == catImg {
			return Bound{}, coerceErr(tok, kind)
		}
		if vars == nil {
			return Bound{}, fmt.Errorf("argbind: %q is a variable reference but no resolver is configured", tok.String)
		}
		b, ok := vars.Resolve(tok.String)
		if !ok {
			return Bound{}, fmt.Errorf("argbind: unbound variable %q", tok.String)
		}
		return castBound(b, cat, kind)

	case TokPlainString:
		switch cat {
		case catOnOff:
			return onOffLiteral(tok.String)
		case catStrNotImg, catStr:
			return Bound{Str: tok.String}, nil
		default:
			return Bound{}, coerceErr(tok, kind)
		}

	case TokImageRef:
		switch cat {
		case catImg, catStr:
			return Bound{Str: tok.String}, nil
		default:
			return Bound{}, coerceErr(tok, kind)
		}

	case TokCommandWord:
		switch cat {
		case catOnOff:
			return onOffLiteral(tok.String)
		case catStr:
			return Bound{Str: tok.String}, nil
		default:
			return Bound{}, coerceErr(tok, kind)
		}

	case TokRaw:
		switch cat {
		case catFloat:
			f, err := strconv.ParseFloat(tok.String, 64)
			if err != nil {
				return Bound{}, fmt.Errorf("argbind: raw token %q is not numeric: %w", tok.String, err)
			}
			return Bound{IsNumeric: true, Numeric: f}, nil
		case catInt, catOnOff:
			f, err := strconv.ParseFloat(tok.String, 64)
			if err != nil {
				return Bound{}, fmt.Errorf("argbind: raw token %q is not numeric: %w", tok.String, err)
			}
			return Bound{IsNumeric: true, Numeric: roundHalfUp(f)}, nil
		default: // str-not-img, img, str: accepted as-is
			return Bound{Str: tok.String}, nil
		}
	}

	return Bound{}, coerceErr(tok, kind)
}

func castBound(b Bound, cat expectedCategory, kind fpsvalue.Kind) (Bound, error) {
	switch cat {
	case catFloat:
		if b.IsNumeric {
			return Bound{IsNumeric: true, Numeric: b.Numeric}, nil
		}
		f, err := strconv.ParseFloat(b.Str, 64)
		if err != nil {
			return Bound{}, fmt.Errorf("argbind: variable is not numeric: %w", err)
		}
		return Bound{IsNumeric: true, Numeric: f}, nil
	case catInt, catOnOff:
		if b.IsNumeric {
			return Bound{IsNumeric: true, Numeric: roundHalfUp(b.Numeric)}, nil
		}
		f, err := strconv.ParseFloat(b.Str, 64)
		if err != nil {
			return Bound{}, fmt.Errorf("argbind: variable is not numeric: %w", err)
		}
		return Bound{IsNumeric: true, Numeric: roundHalfUp(f)}, nil
	default: // str-not-img, str
		if b.IsNumeric {
			return Bound{Str: strconv.FormatFloat(b.Numeric, 'f', -1, 64)}, nil
		}
		return Bound{Str: b.Str}, nil
	}
}

func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}

func onOffLiteral(s string) (Bound, error) {
	switch strings.ToUpper(s) {
	case "ON":
		return Bound{IsNumeric: true, Numeric: 1}, nil
	case "OFF":
		return Bound{IsNumeric: true, Numeric: 0}, nil
	default:
		return Bound{}, fmt.Errorf("argbind: %q is not ON/OFF", s)
	}
}
