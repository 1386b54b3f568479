// Package validator implements the single-pass cross-cutting check that
// the conf loop runs against an FPS before declaring it usable: required-
// init, numeric range, file/exec/FITS existence, FpsName reachability and
// StreamName load, grounded on the CHECKINIT/MINLIMIT/MAXLIMIT bit
// handling in function_parameters.c and the fps_outlog.c message-log
// conventions.
package validator

import (
	"fmt"
	"os"

	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/fpsvalue"
	"github.com/milk-org/fps/pkg/messages"
)

// StreamLoader is the external collaborator that resolves a StreamName
// parameter's live shared-memory image. The real image loader is outside
// this module (internal/streamio adapts its Loader contract to this
// interface); the Validator only needs the contract.
type StreamLoader interface {
	LoadStream(name string) (StreamInfo, error)
}

// StreamInfo mirrors fpsparam.StreamInfo; kept distinct so this package
// doesn't force every StreamLoader implementation to import fpsparam.
type StreamInfo struct {
	SourceFile  string
	SourceLine  int
	ElementType string
	Shape       [3]int64
	ElementMask uint16
}

// FitsChecker probes whether a file passes the FITS conformance sniff
// (spec §4.4 item 4). internal/fitscheck provides the production check,
// which looks only at the leading SIMPLE card; tests and lightweight
// deployments can supply a stub.
type FitsChecker interface {
	IsFitsFile(path string) bool
}

// Validator runs one validation pass over an FPS's active parameters.
type Validator struct {
	FPS     *fpsstore.FPS
	Streams StreamLoader
	Fits    FitsChecker
}

// New builds a Validator bound to fps. streams/fits may be nil without
// Validate panicking: a nil fits skips the FITS sniff (the file must still
// exist), and a nil streams records an error only for a StreamName
// parameter that carries StreamRunRequired.
func New(fps *fpsstore.FPS, streams StreamLoader, fits FitsChecker) *Validator {
	return &Validator{FPS: fps, Streams: streams, Fits: fits}
}

// Validate runs the full pass described in spec §4.4: clear the message
// log, check every ACTIVE parameter, recompute WRITESTATUS, and set
// STATUS.CHECKOK iff no errors were recorded. Returns the number of
// parameters that failed at least one check.
func (v *Validator) Validate(inConf, inRun bool) int {
	h := v.FPS.Header
	h.ClearMessages()

	failed := 0
	for i, p := range v.FPS.Parameters {
		if !p.IsActive() {
			continue
		}
		ok := v.checkParam(i, p)
		p.Flags = p.Flags.WithWriteStatus(p.Flags.IsWritableInState(inConf, inRun))
		if !ok {
			p.Flags = p.Flags.Set(fpsparam.Error)
			failed++
		} else {
			p.Flags = p.Flags.Clear(fpsparam.Error)
		}
		v.FPS.WriteParam(i)
	}

	h.ConfErrCnt = failed
	if failed == 0 {
		h.Status = h.Status.Set(fpsstore.StatusCheckOK)
	} else {
		h.Status = h.Status.Clear(fpsstore.StatusCheckOK)
	}
	h.Signal = h.Signal.Clear(fpsstore.SignalChecked)
	v.FPS.WriteHeader()
	return failed
}

func (v *Validator) fail(idx int, format string, args ...any) bool {
	v.FPS.Header.AppendMessage(idx, 1, fmt.Sprintf(format, args...))
	return false
}

// checkParam applies items 1-7 of spec §4.4 to a single parameter,
// returning false (and recording a message) on the first failed check.
func (v *Validator) checkParam(idx int, p *fpsparam.Parameter) bool {
	if p.Flags.Has(fpsparam.CheckInit) && p.UpdateCounter == 0 {
		return v.fail(idx, messages.English.NotInitialized, p.KeywordFull)
	}

	if p.Kind.IsNumeric() {
		if p.Flags.Has(fpsparam.MinLimit) && p.Value.Current < p.Value.Min {
			return v.fail(idx, messages.English.BelowMinimum, p.KeywordFull, p.Value.Current, p.Value.Min)
		}
		if p.Flags.Has(fpsparam.MaxLimit) && p.Value.Current > p.Value.Max {
			return v.fail(idx, messages.English.AboveMaximum, p.KeywordFull, p.Value.Current, p.Value.Max)
		}
	}

	switch p.Kind {
	case fpsvalue.Filename:
		if p.Flags.Has(fpsparam.FileRunRequired) {
			if _, err := os.Stat(p.Value.Str); err != nil {
				return v.fail(idx, messages.English.FileNotFound, p.KeywordFull, p.Value.Str)
			}
		}

	case fpsvalue.FitsFilename:
		if p.Flags.Has(fpsparam.FileRunRequired) {
			if _, err := os.Stat(p.Value.Str); err != nil {
				return v.fail(idx, messages.English.FileNotFound, p.KeywordFull, p.Value.Str)
			}
			if v.Fits != nil && !v.Fits.IsFitsFile(p.Value.Str) {
				return v.fail(idx, messages.English.NotFitsFile, p.KeywordFull, p.Value.Str)
			}
		}

	case fpsvalue.ExecFilename:
		if p.Flags.Has(fpsparam.FileRunRequired) {
			info, err := os.Stat(p.Value.Str)
			if err != nil {
				return v.fail(idx, messages.English.FileNotFound, p.KeywordFull, p.Value.Str)
			}
			if info.Mode()&0o111 == 0 {
				return v.fail(idx, messages.English.NotExecutable, p.KeywordFull, p.Value.Str)
			}
		}

	case fpsvalue.Dirname:
		if p.Flags.Has(fpsparam.FileRunRequired) {
			info, err := os.Stat(p.Value.Str)
			if err != nil || !info.IsDir() {
				return v.fail(idx, messages.English.DirectoryNotFound, p.KeywordFull, p.Value.Str)
			}
		}

	case fpsvalue.FpsName:
		if p.Flags.Has(fpsparam.FpsRunRequired) {
			child, err := fpsstore.Connect(p.Value.Str, fpsstore.ConnectCtrl)
			if err != nil {
				return v.fail(idx, messages.English.FpsNotReachable, p.KeywordFull, p.Value.Str)
			}
			child.Disconnect()
		}

	case fpsvalue.StreamName:
		if v.Streams == nil {
			if p.Flags.Has(fpsparam.StreamRunRequired) {
				return v.fail(idx, messages.English.NoStreamLoader, p.KeywordFull)
			}
			return true
		}
		info, err := v.Streams.LoadStream(p.Value.Str)
		if err != nil {
			if p.Flags.Has(fpsparam.StreamRunRequired) {
				return v.fail(idx, messages.English.StreamNotFound, p.KeywordFull, p.Value.Str)
			}
			return true
		}
		p.Stream.SourceFile = info.SourceFile
		p.Stream.SourceLine = info.SourceLine
		p.Stream.ElementType = info.ElementType
		p.Stream.Shape = info.Shape
		p.Stream.ElementMask = info.ElementMask
	}

	return true
}
