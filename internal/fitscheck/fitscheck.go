// Package fitscheck implements the lightweight FITS conformance sniff
// spec §4.4 item 4 calls for on FitsFilename parameters: not a full
// FITS reader, just the magic-keyword check the validator needs to
// reject obviously-wrong files before a run process tries to load them.
package fitscheck

import (
	"bytes"
	"os"
)

// headerRecordSize is one FITS header "card" block, fixed by the
// standard at 2880 bytes (36 80-byte cards).
const headerRecordSize = 2880

// simpleCard is the mandatory first card of any conformant FITS primary
// HDU: "SIMPLE  =                    T".
var simpleCard = []byte("SIMPLE  =")

// Checker implements validator.FitsChecker by reading just the first
// few bytes of the file (the length of simpleCard).
type Checker struct{}

// New builds a Checker.
func New() *Checker { return &Checker{} }

// IsFitsFile reports whether path's first header card is the FITS
// "SIMPLE" keyword. It does not validate the rest of the header or any
// data unit.
func (*Checker) IsFitsFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, len(simpleCard))
	if _, err := f.Read(buf); err != nil {
		return false
	}
	return bytes.Equal(buf, simpleCard)
}
