// Package fifoio is the non-blocking FIFO reader behind the control
// process's command input (spec §6 "FIFO protocol"): one command per
// line, newline-terminated, UTF-8, comment lines starting with '#'
// dropped, reader never blocks the control loop.
//
// Grounded on internal/fpsstore/store.go's unix.Mmap/unix.Munmap use of
// golang.org/x/sys/unix for the raw-fd open/Mkfifo primitives a named
// pipe needs that os.OpenFile alone doesn't expose (O_NONBLOCK on open).
package fifoio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// EnsureFifo creates path as a named pipe if it doesn't already exist.
// An existing non-FIFO file at path is left untouched and reported as an
// error rather than silently replaced.
func EnsureFifo(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.Mode()&os.ModeNamedPipe == 0 {
			return fmt.Errorf("fifoio: %s exists and is not a FIFO", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return unix.Mkfifo(path, 0o600)
}

// Reader drains whatever full lines are currently available on a FIFO
// without blocking, per spec's "Reader is non-blocking; EWOULDBLOCK ends
// the batch" requirement.
type Reader struct {
	path string
	fd   int
	buf  bytes.Buffer
}

// Open opens path (which must already exist, see EnsureFifo) for
// non-blocking reads.
func Open(path string) (*Reader, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	return &Reader{path: path, fd: fd}, nil
}

// Close releases the underlying file descriptor.
func (r *Reader) Close() error {
	return unix.Close(r.fd)
}

// ReadLines drains every complete line currently buffered on the pipe,
// stopping as soon as the kernel reports EAGAIN/EWOULDBLOCK (no data
// ready) rather than blocking for more. A trailing partial line (no '\n'
// yet) is held over to the next call. Comment lines (leading '#') and
// blank lines are dropped here rather than pushed through to the caller,
// per spec §6's "malformed/empty lines are silently dropped".
func (r *Reader) ReadLines() ([]string, error) {
	chunk := make([]byte, 4096)
	for {
		n, err := unix.Read(r.fd, chunk)
		if n > 0 {
			r.buf.Write(chunk[:n])
		}
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				break
			}
			return nil, err
		}
		if n == 0 {
			break
		}
	}

	var lines []string
	data := r.buf.Bytes()
	r.buf.Reset()
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		r.buf.Write(data[start:])
	}

	filtered := lines[:0]
	for _, line := range lines {
		trimmed := trimCR(line)
		if trimmed == "" || trimmed[0] == '#' {
			continue
		}
		filtered = append(filtered, trimmed)
	}
	return filtered, nil
}

func trimCR(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\r' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}
