package fpsstore

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsvalue"
)

// ConnectMode selects which pid field Connect records on the header, per
// spec §3 Lifecycle "Connect".
type ConnectMode int

const (
	ConnectCtrl ConnectMode = iota
	ConnectConf
	ConnectRun
)

// FPS is a named, fixed-capacity shared-memory parameter collection
// (spec §3). The mmap'd bytes are the single source of truth; Header and
// Parameters are a decoded Go-side cache kept in sync by every mutating
// method (see record.go).
type FPS struct {
	Header     *Header
	Parameters []*fpsparam.Parameter

	fd   int
	data []byte
	path string
}

func fileName(shmRoot, name string) string {
	return filepath.Join(shmRoot, name+".fps.shm")
}

func totalSize(nbParamMax int) int64 {
	return int64(headerRecordSize) + int64(nbParamMax)*int64(paramRecordSize)
}

// Create truncates a new FPS file to sizeof(Header)+N*sizeof(Parameter),
// mmaps it, and zeroes all parameter flags (spec §3 Lifecycle "Create").
func Create(name, workingDir string, nbParamMax int) (*FPS, error) {
	if len(name) == 0 || len(name) > fpslimits.FPSNameMax-1 {
		return nil, fmt.Errorf("fps name %q exceeds %d chars", name, fpslimits.FPSNameMax-1)
	}
	if nbParamMax <= 0 {
		nbParamMax = fpslimits.NBParamMaxDefault
	}

	path := fileName(ShmRoot(), name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fpsstore: create %s: %w", path, err)
	}
	defer f.Close()

	size := totalSize(nbParamMax)
	// sparse-extend via a single last-byte write, per spec §6.
	if _, err := f.WriteAt([]byte{0}, size-1); err != nil {
		return nil, fmt.Errorf("fpsstore: extend %s: %w", path, err)
	}

	fps, err := mapFile(path)
	if err != nil {
		return nil, err
	}

	fps.Header = NewHeader(name, workingDir, nbParamMax)
	fps.Parameters = make([]*fpsparam.Parameter, nbParamMax)
	for i := range fps.Parameters {
		fps.Parameters[i] = fpsparam.NewParameter()
	}
	fps.syncHeader()
	for i := range fps.Parameters {
		fps.syncParam(i)
	}
	return fps, nil
}

// Connect mmaps an existing FPS file and records the caller's pid as
// confpid or runpid depending on mode (spec §3 Lifecycle "Connect").
func Connect(name string, mode ConnectMode) (*FPS, error) {
	path := fileName(ShmRoot(), name)
	fps, err := mapFile(path)
	if err != nil {
		return nil, err
	}
	fps.loadHeader()
	nb := fps.Header.NBParamMax
	fps.Parameters = make([]*fpsparam.Parameter, nb)
	for i := 0; i < nb; i++ {
		fps.Parameters[i] = fps.loadParam(i)
	}

	pid := int32(os.Getpid())
	switch mode {
	case ConnectConf:
		fps.Header.ConfPID = pid
	case ConnectRun:
		fps.Header.RunPID = pid
	}
	fps.syncHeader()
	return fps, nil
}

func mapFile(path string) (*FPS, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fpsstore: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("fpsstore: stat %s: %w", path, err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("fpsstore: mmap %s: %w", path, err)
	}

	return &FPS{fd: int(f.Fd()), data: data, path: path}, nil
}

// Disconnect persists every SaveOnClose-flagged parameter, then munmaps
// the file and marks the FPS disconnected (fd = -1), per spec §3 Lifecycle
// "Disconnect". Persistence errors are reported but don't block the
// unmap: a process exiting must not get stuck because a disk write failed.
func (f *FPS) Disconnect() error {
	if f.data == nil {
		return nil
	}
	var persistErr error
	for _, p := range f.Parameters {
		if p.IsActive() && p.Flags.Has(fpsparam.SaveOnClose) {
			if err := WriteParamFile(f.Header.FPSDirectory, f.Header.Name, p, "disconnect"); err != nil && persistErr == nil {
				persistErr = err
			}
		}
	}
	err := unix.Munmap(f.data)
	f.data = nil
	f.fd = -1
	if err == nil {
		err = persistErr
	}
	return err
}

// Destroy removes the backing file. Terminating the session windows
// spawned for this FPS is the host session manager's responsibility
// (internal/session), invoked by the caller (CommandInterpreter's fpsrm).
func Destroy(name string) error {
	path := fileName(ShmRoot(), name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FPS) syncHeader() {
	buf := EncodeHeader(f.Header)
	copy(f.data[0:headerRecordSize], buf)
}

func (f *FPS) loadHeader() {
	f.Header = DecodeHeader(f.data[0:headerRecordSize])
}

func (f *FPS) paramOffset(i int) int {
	return headerRecordSize + i*paramRecordSize
}

func (f *FPS) syncParam(i int) {
	off := f.paramOffset(i)
	buf := EncodeParameter(f.Parameters[i])
	copy(f.data[off:off+paramRecordSize], buf)
}

func (f *FPS) loadParam(i int) *fpsparam.Parameter {
	off := f.paramOffset(i)
	return DecodeParameter(f.data[off : off+paramRecordSize])
}

// SyncParam re-reads parameter i from the mmap into the Go-side cache,
// for readers that want a fresh snapshot after observing a changed
// UpdateCounter (spec §3 Ownership: "readers must ... re-read if
// consistency is required").
func (f *FPS) SyncParam(i int) {
	f.Parameters[i] = f.loadParam(i)
}

// WriteParam re-encodes parameter i and writes it through to the mmap.
// Every mutating helper in this package and in internal/validator calls
// this after changing a Parameter's fields.
func (f *FPS) WriteParam(i int) {
	f.syncParam(i)
}

// WriteHeader writes the current in-memory Header through to the mmap.
func (f *FPS) WriteHeader() {
	f.syncHeader()
}

// ReloadHeader re-reads the Header from the mmap into the Go-side cache,
// for callers polling SIGNAL/STATUS bits another process may have
// flipped (confwupdate, runwait).
func (f *FPS) ReloadHeader() {
	f.loadHeader()
}

// FindByFull returns the active parameter with the given dotted keyword,
// and its index, scanning only ACTIVE slots per spec invariant (inactive
// slots are ignored by all iteration).
func (f *FPS) FindByFull(full string) (*fpsparam.Parameter, int, bool) {
	for i, p := range f.Parameters {
		if p.IsActive() && p.KeywordFull == full {
			return p, i, true
		}
	}
	return nil, -1, false
}

// AddEntry allocates the first inactive slot for keywordfull and activates
// it; a repeat call with the same keywordfull is a no-op (spec §3
// Lifecycle "Add entry": idempotent).
func (f *FPS) AddEntry(segments []string, kind fpsvalue.Kind, description string, flags fpsparam.Flags) (*fpsparam.Parameter, int, error) {
	full := joinKeyword(segments)
	if p, idx, ok := f.FindByFull(full); ok {
		return p, idx, nil
	}
	for i, p := range f.Parameters {
		if !p.IsActive() {
			if err := p.Activate(segments, kind, description, flags); err != nil {
				return nil, -1, err
			}
			f.WriteParam(i)
			return p, i, nil
		}
	}
	return nil, -1, fmt.Errorf("fpsstore: no free parameter slot (NBparamMAX=%d exceeded)", f.Header.NBParamMax)
}

func joinKeyword(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "."
		}
		out += s
	}
	return out
}
