// Package session is the thin contract between the control process and
// the host session manager that actually spawns/kills conf and run
// processes for a named FPS. A full multi-window terminal session
// manager is out of scope (spec.md §1 Non-goals); this package exposes
// just enough of that collaborator's surface for the Scheduler/
// CommandInterpreter to drive confstart/runstart/runstop/fpsrm, grounded
// on pkg/commands/os.go's exec.Command + kill.Kill wrapping.
package session

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/jesseduffield/kill"
	"github.com/mgutz/str"
	"github.com/sirupsen/logrus"
)

// Role identifies which of the two long-running roles a spawned process
// plays for an FPS.
type Role string

const (
	RoleConf Role = "conf"
	RoleRun  Role = "run"
)

// Manager starts and stops the conf/run process pair behind a named FPS.
type Manager interface {
	Start(role Role, fpsName string) (pid int, err error)
	Stop(pid int, soft bool) error
}

// ExecManager spawns role binaries as real child processes, templated as
// "<prefix> <role> <fpsName>" (e.g. "fpsconf conf aoloop0"). A hard Stop
// (fpsrm) kills them via jesseduffield/kill's process-group-aware Kill so
// a conf/run process that forked its own children is fully reaped; a soft
// Stop (runstop) only sends an interrupt to the pid.
type ExecManager struct {
	Log           *logrus.Entry
	CommandPrefix string // e.g. "/usr/local/bin/fpsconf" or "/usr/local/bin/fpsrun"

	command func(name string, args ...string) *exec.Cmd
	procs   map[int]*exec.Cmd
}

// NewExecManager builds a Manager that runs commandPrefix as a template:
// the role and fpsName are appended as positional arguments.
func NewExecManager(log *logrus.Entry, commandPrefix string) *ExecManager {
	return &ExecManager{
		Log:           log,
		CommandPrefix: commandPrefix,
		command:       exec.Command,
		procs:         make(map[int]*exec.Cmd),
	}
}

// Start launches CommandPrefix with "<role> <fpsName>" appended, sets up
// its process group so PrepareForChildren/Kill can later reap any
// children it spawns, and returns its pid.
func (m *ExecManager) Start(role Role, fpsName string) (int, error) {
	argv := str.ToArgv(fmt.Sprintf("%s %s %s", m.CommandPrefix, role, fpsName))
	if len(argv) == 0 {
		return 0, fmt.Errorf("session: empty command template %q", m.CommandPrefix)
	}
	cmd := m.command(argv[0], argv[1:]...)
	kill.PrepareForChildren(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("session: start %s %s: %w", role, fpsName, err)
	}
	pid := cmd.Process.Pid
	m.procs[pid] = cmd
	if m.Log != nil {
		m.Log.WithFields(logrus.Fields{"role": role, "fps": fpsName, "pid": pid}).Info("spawned")
	}

	go func() {
		_ = cmd.Wait()
		delete(m.procs, pid)
	}()

	return pid, nil
}

// Stop terminates the process recorded for pid. soft=true sends an
// interrupt and returns without waiting (runstop's "cancellation" rule in
// spec §5); soft=false kills the whole process group via jesseduffield/
// kill and is used by fpsrm.
func (m *ExecManager) Stop(pid int, soft bool) error {
	cmd, ok := m.procs[pid]
	if !ok {
		return fmt.Errorf("session: no tracked process with pid %d", pid)
	}
	if soft {
		return cmd.Process.Signal(os.Interrupt)
	}
	return kill.Kill(cmd)
}
