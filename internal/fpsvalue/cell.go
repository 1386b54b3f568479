package fpsvalue

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Cell is the per-parameter value union. For numeric kinds the four
// range/feedback slots are stored as float64 regardless of the declared
// Int64/Float32/Float64 subtype; the subtype only affects formatting and
// rounding (round-half-up on float->int coercion, per spec §4.3). For
// string-backed kinds, Str/StrCompanion hold the two slots (value and
// companion; for OnOff these are the off/on labels). Pid and Timespec each
// use a single dedicated slot.
type Cell struct {
	Current  float64
	Min      float64
	Max      float64
	Feedback float64

	Str          string
	StrCompanion string

	PidValue int32

	Sec  int64
	Nsec int64
}

// RoundHalfUp implements the float->int coercion rule from spec §4.3's
// coercion table ("round-half-up to int").
func RoundHalfUp(v float64) int64 {
	if v >= 0 {
		return int64(math.Floor(v + 0.5))
	}
	return int64(math.Ceil(v - 0.5))
}

// FormatNumericSlot renders an arbitrary numeric-kind slot (current, min,
// max or feedback) using the same width/precision table FormatCurrent
// applies to the current slot, for persist.go's minval/maxval/currval
// persistence tags.
func FormatNumericSlot(kind Kind, v float64) string {
	if kind == Int64 {
		return fmt.Sprintf("%10d", int64(v))
	}
	return fmt.Sprintf("%18f", v)
}

// FormatCurrent renders the current slot using the kind-appropriate
// width/precision from spec §6's persistence-file table:
//
//	int:      %10ld
//	f64/f32:  %18f
//	pid:      %18ld
//	timespec: %15ld %09ld
//	OnOff:    0|1  <label>
func (c Cell) FormatCurrent(kind Kind, onoff bool) string {
	switch kind {
	case Int64, Float64, Float32:
		return FormatNumericSlot(kind, c.Current)
	case Pid:
		return fmt.Sprintf("%18d", c.PidValue)
	case Timespec:
		return fmt.Sprintf("%15d %09d", c.Sec, c.Nsec)
	case OnOff:
		label := c.StrCompanion
		state := 0
		if onoff {
			state = 1
			label = c.StrCompanion
		} else {
			label = c.Str
		}
		return fmt.Sprintf("%d  %s", state, label)
	default:
		return c.Str
	}
}

// ParseNumeric parses a raw token string into the Current slot for a
// numeric kind, applying kind-appropriate rounding.
func ParseNumeric(kind Kind, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case Int64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", raw)
		}
		return float64(RoundHalfUp(f)), nil
	case Float64, Float32:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("not a float: %q", raw)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("kind %s is not numeric", kind)
	}
}
