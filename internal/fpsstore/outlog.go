package fpsstore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// OutputLog is the append-only diagnostic log kept for one process role
// under the shared-memory root. It opens lazily on the first write, names
// the file with a start epoch and pid, and maintains a stable per-role
// symlink so tools can always tail "fpslog.<role>" without knowing the
// timestamped name (spec §4.2, §6, grounded on the source's fps_outlog.c
// `getFPSlogfname`/lazy-open/symlink/LOGFILECLOSE scheme).
type OutputLog struct {
	dir  string
	role string

	f    *os.File
	path string
}

// NewOutputLog returns a log bound to shmRoot for the given process role
// ("conf", "run" or "ctrl") but does not open any file yet — opening
// happens on the first Write, matching the source's lazy-open behavior so
// a process that never logs never creates a file.
func NewOutputLog(shmRoot, role string) *OutputLog {
	return &OutputLog{dir: shmRoot, role: role}
}

func (l *OutputLog) open() error {
	if l.f != nil {
		return nil
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("fpsstore: mkdir %s: %w", l.dir, err)
	}
	// getFPSlogfname: "<shmdir>/fpslog.<epoch>.<%07d pid>.<role>".
	l.path = filepath.Join(l.dir, fmt.Sprintf("fpslog.%d.%07d.%s", time.Now().Unix(), os.Getpid(), l.role))
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("fpsstore: open log %s: %w", l.path, err)
	}
	l.f = f
	l.refreshSymlink()
	return nil
}

// refreshSymlink points "fpslog.<role>" at the current timestamped file,
// so readers that don't track rotation always find the live log.
func (l *OutputLog) refreshSymlink() {
	link := filepath.Join(l.dir, "fpslog."+l.role)
	_ = os.Remove(link)
	_ = os.Symlink(filepath.Base(l.path), link)
}

// Write appends one timestamped line, opening the log file on first use.
func (l *OutputLog) Write(line string) error {
	if err := l.open(); err != nil {
		return err
	}
	stamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := fmt.Fprintf(l.f, "%s %s\n", stamp, line)
	return err
}

// Close flushes and closes the current log file and removes it from disk,
// mirroring fps_outlog.c's LOGFILECLOSE branch ("close log file and remove
// it from filesystem"). It is wired to the interpreter's "logfileclose"
// command; a subsequent Write reopens a fresh epoch-stamped file.
func (l *OutputLog) Close() error {
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	path := l.path
	l.f = nil
	l.path = ""
	if rmErr := os.Remove(path); err == nil && rmErr != nil && !os.IsNotExist(rmErr) {
		err = rmErr
	}
	return err
}

// IsOpen reports whether a log file is currently held open.
func (l *OutputLog) IsOpen() bool { return l.f != nil }

// Path returns the current timestamped log file's path. It does not open
// the file: the path is empty until a Write has opened it. Used by the
// "logsymlink" command (after a Write) to point an arbitrary target at
// the live log.
func (l *OutputLog) Path() string { return l.path }
