// Package interpreter implements CommandInterpreter: a table of
// strictly-arity-checked, single-line commands that manipulate FPS state
// by resolving "<fps_name>.<seg>...<seg>" paths through a keyword scan
// and reporting back CMDOK/CMDFAIL/CMDNOTFOUND, per spec §4.8.
//
// Grounded on pkg/gui/custom_commands.go's name-to-action dispatch
// (createCommandMenu maps a declared command to a closure); here the menu
// becomes a line-oriented table and the actions mutate FPS state instead
// of a GUI panel.
package interpreter

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mgutz/str"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsparam"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/fpsvalue"
	"github.com/milk-org/fps/internal/scheduler"
	"github.com/milk-org/fps/internal/session"
	"github.com/milk-org/fps/pkg/messages"
)

// Interpreter dispatches one command line at a time against whichever
// FPS files it resolves on demand.
type Interpreter struct {
	ShmRoot    string
	WorkingDir string
	Log        *fpsstore.OutputLog
	ConfMgr    session.Manager
	RunMgr     session.Manager

	mu       sync.Mutex
	fpsCache map[string]*fpsstore.FPS
	counters map[string]int64
	sched    *scheduler.Scheduler

	// ExitRequested is set by the "exit" command; the control loop polls
	// it once per tick to decide whether to stop.
	ExitRequested bool
}

// New builds an Interpreter. confMgr/runMgr may be nil in deployments
// that never spawn conf/run processes from the control loop (e.g. a
// read-only monitoring UI).
func New(shmRoot, workingDir string, log *fpsstore.OutputLog, confMgr, runMgr session.Manager) *Interpreter {
	return &Interpreter{
		ShmRoot:    shmRoot,
		WorkingDir: workingDir,
		Log:        log,
		ConfMgr:    confMgr,
		RunMgr:     runMgr,
		fpsCache:   make(map[string]*fpsstore.FPS),
		counters:   make(map[string]int64),
	}
}

// Close disconnects every cached FPS connection.
func (it *Interpreter) Close() {
	it.mu.Lock()
	defer it.mu.Unlock()
	for name, fps := range it.fpsCache {
		fps.Disconnect()
		delete(it.fpsCache, name)
	}
}

func (it *Interpreter) connect(fpsName string) (*fpsstore.FPS, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if fps, ok := it.fpsCache[fpsName]; ok {
		return fps, nil
	}
	fps, err := fpsstore.Connect(fpsName, fpsstore.ConnectCtrl)
	if err != nil {
		return nil, err
	}
	it.fpsCache[fpsName] = fps
	return fps, nil
}

// handler runs one already-arity-checked command and returns its result
// bit. A handler returns an error only for CMDFAIL; CMDNOTFOUND is
// signaled by returning (scheduler.CmdNotFound, nil).
type handler func(it *Interpreter, args []string) (scheduler.StatusBits, error)

type commandSpec struct {
	arity int
	run   handler
}

var commandTable = map[string]commandSpec{
	"exit":         {0, cmdExit},
	"cntinc":       {1, cmdCntInc},
	"logsymlink":   {1, cmdLogSymlink},
	"logfileclose": {0, cmdLogFileClose},
	// "queueprio" is handled directly in Dispatch: it needs access to the
	// Scheduler, which isn't wired through the generic handler signature.
	"setval":      {2, cmdSetval},
	"getval":      {1, cmdGetval},
	"fwrval":      {2, cmdFwrval},
	"confstart":   {1, cmdConfstart},
	"confstop":    {1, cmdConfstop},
	"confupdate":  {1, cmdConfupdate},
	"confwupdate": {1, cmdConfwupdate},
	"runstart":    {1, cmdRunstart},
	"runstop":     {1, cmdRunstop},
	"runwait":     {1, cmdRunwait},
	"fpsrm":       {1, cmdFpsrm},
}

// Scheduler is set post-construction so CommandInterpreter can implement
// "queueprio", which mutates an arbitrary queue's priority rather than
// the submission-time binder state the Scheduler's own FIFO directives
// touch.
func (it *Interpreter) WithScheduler(s *scheduler.Scheduler) *Interpreter {
	it.sched = s
	return it
}

// Dispatch implements scheduler.Dispatcher: tokenize, look up the verb,
// enforce strict arity, and run the handler.
func (it *Interpreter) Dispatch(cmdString string) scheduler.StatusBits {
	fields := str.ToArgv(strings.TrimSpace(cmdString))
	if len(fields) == 0 {
		return scheduler.CmdFail
	}
	verb := fields[0]
	args := fields[1:]

	if verb == "queueprio" {
		return it.cmdQueuePrio(args)
	}

	spec, ok := commandTable[verb]
	if !ok {
		return scheduler.CmdNotFound
	}
	if len(args) != spec.arity {
		return scheduler.CmdFail
	}
	bits, err := spec.run(it, args)
	if err != nil {
		if it.Log != nil {
			it.Log.Write(fmt.Sprintf("%s: %v", verb, err))
		}
		return scheduler.CmdFail
	}
	return bits
}

func (it *Interpreter) cmdQueuePrio(args []string) scheduler.StatusBits {
	if len(args) != 2 || it.sched == nil {
		return scheduler.CmdFail
	}
	id, err1 := strconv.Atoi(args[0])
	prio, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return scheduler.CmdFail
	}
	if _, ok := it.sched.QueueSnapshot(id); !ok {
		return scheduler.CmdFail
	}
	it.sched.SetQueuePriority(id, prio)
	return scheduler.CmdOK
}

func cmdExit(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	it.ExitRequested = true
	return scheduler.CmdOK, nil
}

func cmdCntInc(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	it.mu.Lock()
	it.counters[args[0]]++
	it.mu.Unlock()
	return scheduler.CmdOK, nil
}

func cmdLogSymlink(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	if it.Log == nil {
		return 0, fmt.Errorf("%s", messages.English.NoLogConfigured)
	}
	if err := it.Log.Write("logsymlink requested"); err != nil { // forces lazy-open so a path exists
		return 0, err
	}
	target := args[0]
	_ = os.Remove(target)
	if err := os.Symlink(it.Log.Path(), target); err != nil {
		return 0, err
	}
	return scheduler.CmdOK, nil
}

// cmdLogFileClose implements the "logfileclose" command, the interpreter's
// wiring of fps_outlog.c's LOGFILECLOSE synthetic keyword: it closes the
// current output log file and removes it from disk, so an operator can
// force rotation without restarting conf/run. A subsequent Write reopens a
// fresh epoch-stamped file.
func cmdLogFileClose(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	if it.Log == nil {
		return 0, fmt.Errorf("%s", messages.English.NoLogConfigured)
	}
	if err := it.Log.Close(); err != nil {
		return scheduler.CmdFail, err
	}
	return scheduler.CmdOK, nil
}

// splitPath separates "<fps_name>.<seg>...<seg>" into the FPS name and
// the dotted remainder.
func splitPath(path string) (fpsName, rest string, ok bool) {
	dot := strings.IndexByte(path, '.')
	if dot < 0 {
		return path, "", false
	}
	return path[:dot], path[dot+1:], true
}

func (it *Interpreter) resolveParam(path string) (*fpsstore.FPS, *fpsparam.Parameter, int, scheduler.StatusBits) {
	fpsName, rest, ok := splitPath(path)
	if !ok {
		return nil, nil, -1, scheduler.CmdNotFound
	}
	fps, err := it.connect(fpsName)
	if err != nil {
		return nil, nil, -1, scheduler.CmdNotFound
	}
	p, idx, ok := fps.FindByFull(rest)
	if !ok {
		return nil, nil, -1, scheduler.CmdNotFound
	}
	return fps, p, idx, scheduler.CmdOK
}

func cmdSetval(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, p, idx, status := it.resolveParam(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	literal := args[1]

	switch {
	case p.Kind == fpsvalue.OnOff:
		switch strings.ToUpper(literal) {
		case "ON":
			p.SetOnOff(true)
		case "OFF":
			p.SetOnOff(false)
		default:
			return scheduler.CmdFail, fmt.Errorf(messages.English.SetValNotOnOff, literal)
		}
	case p.Kind.IsNumeric():
		v, err := fpsvalue.ParseNumeric(p.Kind, literal)
		if err != nil {
			return scheduler.CmdFail, err
		}
		p.SetCurrentNumeric(v)
	default:
		p.SetCurrentString(literal)
	}

	fps.WriteParam(idx)
	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalUpdate)
	fps.WriteHeader()

	if p.Flags.Has(fpsparam.SaveOnChange) {
		fpsName, _, _ := splitPath(args[0])
		if err := fpsstore.WriteParamFile(it.WorkingDir, fpsName, p, "setval"); err != nil {
			return scheduler.CmdFail, err
		}
	}
	return scheduler.CmdOK, nil
}

func cmdGetval(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	_, p, _, status := it.resolveParam(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	if it.Log != nil {
		if err := it.Log.Write(fmt.Sprintf("%-12s %s", "getval", p.FormattedCurrent())); err != nil {
			return scheduler.CmdFail, err
		}
	}
	return scheduler.CmdOK, nil
}

func cmdFwrval(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	_, p, _, status := it.resolveParam(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	f, err := os.OpenFile(args[1], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return scheduler.CmdFail, err
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, p.FormattedCurrent()); err != nil {
		return scheduler.CmdFail, err
	}
	return scheduler.CmdOK, nil
}

func (it *Interpreter) resolveFPS(fpsName string) (*fpsstore.FPS, scheduler.StatusBits) {
	fps, err := it.connect(fpsName)
	if err != nil {
		return nil, scheduler.CmdNotFound
	}
	return fps, scheduler.CmdOK
}

// RunWaitDone implements scheduler.GateChecker: a WAITONRUN task's gate
// clears once STATUS.CMDRUN is no longer set for the referenced FPS. An
// FPS that can't be reached is treated as done so a stale reference never
// wedges the scheduler.
func (it *Interpreter) RunWaitDone(fpsName string) bool {
	fps, err := it.connect(fpsName)
	if err != nil {
		return true
	}
	fps.ReloadHeader()
	return !fps.Header.Status.Has(fpsstore.StatusCmdRun)
}

// ConfWaitDone implements scheduler.GateChecker: a WAITONCONF task's gate
// clears once a validation pass has run clean, matching cmdConfwupdate's
// own wait condition (SIGNAL.CHECKED cleared, zero CONFERRCNT).
func (it *Interpreter) ConfWaitDone(fpsName string) bool {
	fps, err := it.connect(fpsName)
	if err != nil {
		return true
	}
	fps.ReloadHeader()
	return !fps.Header.Signal.Has(fpsstore.SignalChecked) && fps.Header.ConfErrCnt == 0
}

func cmdConfstart(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	if it.ConfMgr == nil {
		return scheduler.CmdFail, fmt.Errorf("%s", messages.English.NoConfSessionMgr)
	}
	if _, err := it.ConfMgr.Start(session.RoleConf, args[0]); err != nil {
		return scheduler.CmdFail, err
	}
	fps.Header.Status = fps.Header.Status.Set(fpsstore.StatusCmdConf)
	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalUpdate).Set(fpsstore.SignalConfRun)
	fps.WriteHeader()
	return scheduler.CmdOK | scheduler.WaitOnConf, nil
}

func cmdConfstop(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	fps.Header.Signal = fps.Header.Signal.Clear(fpsstore.SignalConfRun)
	fps.WriteHeader()
	return scheduler.CmdOK, nil
}

func cmdConfupdate(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalUpdate)
	fps.WriteHeader()
	return scheduler.CmdOK, nil
}

func cmdConfwupdate(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	fps.Header.Signal = fps.Header.Signal.Set(fpsstore.SignalUpdate)
	fps.WriteHeader()

	for step := 0; step < fpslimits.ConfWUpdateTimeoutSteps; step++ {
		fps.ReloadHeader()
		if !fps.Header.Signal.Has(fpsstore.SignalChecked) && fps.Header.ConfErrCnt == 0 {
			return scheduler.CmdOK, nil
		}
		time.Sleep(100 * time.Microsecond)
	}
	return scheduler.CmdFail, fmt.Errorf("%s", messages.English.ConfWUpdateTimedOut)
}

func cmdRunstart(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	if it.RunMgr == nil {
		return scheduler.CmdFail, fmt.Errorf("%s", messages.English.NoRunSessionMgr)
	}
	if _, err := it.RunMgr.Start(session.RoleRun, args[0]); err != nil {
		return scheduler.CmdFail, err
	}
	fps.Header.Status = fps.Header.Status.Set(fpsstore.StatusCmdRun)
	fps.WriteHeader()
	return scheduler.CmdOK | scheduler.WaitOnRun, nil
}

func cmdRunstop(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	if it.RunMgr != nil && fps.Header.RunPID != 0 {
		_ = it.RunMgr.Stop(int(fps.Header.RunPID), true) // soft: interrupt, don't wait, per spec §5 Cancellation
	}
	return scheduler.CmdOK, nil
}

func cmdRunwait(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fps, status := it.resolveFPS(args[0])
	if status != scheduler.CmdOK {
		return status, nil
	}
	for step := 0; step < fpslimits.RunWaitTimeoutSteps; step++ {
		fps.ReloadHeader()
		if !fps.Header.Status.Has(fpsstore.StatusCmdRun) {
			return scheduler.CmdOK, nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return scheduler.CmdFail, fmt.Errorf("%s", messages.English.RunWaitTimedOut)
}

func cmdFpsrm(it *Interpreter, args []string) (scheduler.StatusBits, error) {
	fpsName := args[0]
	fps, err := it.connect(fpsName)
	if err == nil {
		if it.ConfMgr != nil && fps.Header.ConfPID != 0 {
			_ = it.ConfMgr.Stop(int(fps.Header.ConfPID), false)
		}
		if it.RunMgr != nil && fps.Header.RunPID != 0 {
			_ = it.RunMgr.Stop(int(fps.Header.RunPID), false)
		}
		fps.Disconnect()
		it.mu.Lock()
		delete(it.fpsCache, fpsName)
		it.mu.Unlock()
	}
	if err := fpsstore.Destroy(fpsName); err != nil {
		return scheduler.CmdFail, err
	}
	return scheduler.CmdOK, nil
}

