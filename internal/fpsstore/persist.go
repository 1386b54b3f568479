package fpsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsvalue"
)

// PersistDir returns the directory under which one text file per
// parameter is written when SAVEONCHANGE or SAVEONCLOSE is set, mirroring
// the original's "<fpsdir>/fpsconf/<name>/<seg1>/.../<segN-1>" layout
// (spec §4.2, §6).
func PersistDir(workingDir, fpsName string) string {
	return filepath.Join(workingDir, "fpsconf", fpsName)
}

func persistDirFor(workingDir, fpsName string, p *fpsparam.Parameter) string {
	dir := PersistDir(workingDir, fpsName)
	if len(p.KeywordPath) > 1 {
		dir = filepath.Join(append([]string{dir}, p.KeywordPath[:len(p.KeywordPath)-1]...)...)
	}
	return dir
}

func leafName(p *fpsparam.Parameter) string {
	if len(p.KeywordPath) == 0 {
		return "param"
	}
	return p.KeywordPath[len(p.KeywordPath)-1]
}

// persistLine renders one persisted value exactly as spec §6 and
// function_parameters.c's functionparameter_WriteParameterToDisk require:
// "<value>  # <timestamp> <counter> [<pid> <tid>] <comment>".
func persistLine(value string, counter uint64, comment string) string {
	timestamp := time.Now().UTC().Format("20060102T150405.000000000")
	return fmt.Sprintf("%s  # %s %d [%d %d] %s\n", value, timestamp, counter, os.Getpid(), unix.Gettid(), comment)
}

// writeTagFile writes one <leaf>.<tag>.txt persistence file for parameter
// p, creating intermediate directories as needed.
func writeTagFile(workingDir, fpsName, tag, value, comment string, p *fpsparam.Parameter) error {
	dir := persistDirFor(workingDir, fpsName, p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fpsstore: mkdir %s: %w", dir, err)
	}
	fname := filepath.Join(dir, fmt.Sprintf("%s.%s.txt", leafName(p), tag))
	line := persistLine(value, p.UpdateCounter, comment)
	if err := os.WriteFile(fname, []byte(line), 0o644); err != nil {
		return fmt.Errorf("fpsstore: write %s: %w", fname, err)
	}
	return nil
}

func fpsStatusTag(p *fpsparam.Parameter) string {
	if p.IsActive() {
		return "ACTIVE"
	}
	return "INACTIVE"
}

// WriteParamFile persists one parameter using the literal tag set named by
// spec §4.2 / function_parameters.c's functionparameter_WriteParameterToDisk
// calls: "setval" (current value) always; "minval"/"maxval"/"currval"
// (feedback) for numeric kinds when the matching MinLimit/MaxLimit/Feedback
// flag is set; "fpsname"/"fpsdir"/"status" for FpsName-kind parameters.
// Callers gate this on Flags.Has(SaveOnChange)/Flags.Has(SaveOnClose).
func WriteParamFile(workingDir, fpsName string, p *fpsparam.Parameter, comment string) error {
	if err := writeTagFile(workingDir, fpsName, "setval", p.FormattedCurrent(), comment, p); err != nil {
		return err
	}

	if p.Kind.IsNumeric() {
		if p.Flags.Has(fpsparam.MinLimit) {
			if err := writeTagFile(workingDir, fpsName, "minval", fpsvalue.FormatNumericSlot(p.Kind, p.Value.Min), comment, p); err != nil {
				return err
			}
		}
		if p.Flags.Has(fpsparam.MaxLimit) {
			if err := writeTagFile(workingDir, fpsName, "maxval", fpsvalue.FormatNumericSlot(p.Kind, p.Value.Max), comment, p); err != nil {
				return err
			}
		}
		if p.Flags.Has(fpsparam.Feedback) {
			if err := writeTagFile(workingDir, fpsName, "currval", fpsvalue.FormatNumericSlot(p.Kind, p.Value.Feedback), comment, p); err != nil {
				return err
			}
		}
	}

	if p.Kind == fpsvalue.FpsName {
		if err := writeTagFile(workingDir, fpsName, "fpsname", p.Value.Str, comment, p); err != nil {
			return err
		}
		if err := writeTagFile(workingDir, fpsName, "fpsdir", workingDir, comment, p); err != nil {
			return err
		}
		if err := writeTagFile(workingDir, fpsName, "status", fpsStatusTag(p), comment, p); err != nil {
			return err
		}
	}
	return nil
}

// ReadParamFile loads a previously persisted "setval" value back as raw
// text, stripping the trailing "# <timestamp> ..." comment, for the
// conf-start "load saved values" step (spec §4.5 "Conf start").
func ReadParamFile(workingDir, fpsName string, p *fpsparam.Parameter) (string, error) {
	dir := persistDirFor(workingDir, fpsName, p)
	fname := filepath.Join(dir, fmt.Sprintf("%s.setval.txt", leafName(p)))
	data, err := os.ReadFile(fname)
	if err != nil {
		return "", err
	}
	line := strings.TrimRight(string(data), "\n")
	if idx := strings.Index(line, "  #"); idx >= 0 {
		line = line[:idx]
	}
	return line, nil
}
