// Package conflife implements the conf and run process life cycles (spec
// §4.5): the conf loop's periodic re-validation driven by SIGNAL.UPDATE
// and liveness polling, and the run loop's connect-invoke-clear sequence.
//
// Grounded on the teacher's process-liveness probe in
// pkg/commands/os_windows.go's Getppids/os.FindProcess pattern, adapted to
// the unix signal-0 liveness check the conf loop needs every tick.
package conflife

import (
	"syscall"
	"time"

	"github.com/milk-org/fps/internal/fpslimits"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/validator"
)

// ConfFunc is the user-supplied validation/derived-parameter step the conf
// loop runs whenever SIGNAL.UPDATE is set.
type ConfFunc func(fps *fpsstore.FPS) error

// RunFunc is the user-supplied work the run loop invokes once per
// connection.
type RunFunc func(fps *fpsstore.FPS) error

// ProcessAlive reports whether pid names a live process, by sending the
// null signal (syscall.Kill(pid, 0)) rather than trusting os.FindProcess,
// which on unix always succeeds regardless of liveness.
func ProcessAlive(pid int32) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(int(pid), 0) == nil
}

// ConfLoop runs the periodic conf process body described in spec §4.5.
type ConfLoop struct {
	FPS       *fpsstore.FPS
	Validator *validator.Validator
	ConfFn    ConfFunc

	// WaitUs overrides FPS.Header.ConfWaitUs when non-zero; tests use this
	// to avoid a real microsecond-granularity sleep.
	WaitUs int64
}

// NewConfLoop builds a ConfLoop bound to fps. v may be nil to skip
// validation (e.g. a conf function that self-validates).
func NewConfLoop(fps *fpsstore.FPS, v *validator.Validator, fn ConfFunc) *ConfLoop {
	return &ConfLoop{FPS: fps, Validator: v, ConfFn: fn}
}

func (c *ConfLoop) waitInterval() time.Duration {
	us := c.WaitUs
	if us <= 0 {
		us = c.FPS.Header.ConfWaitUs
	}
	if us <= 0 {
		us = fpslimits.DefaultConfWaitUs
	}
	return time.Duration(us) * time.Microsecond
}

// Run blocks, iterating the conf loop body until SIGNAL.CONFRUN clears
// (spec §4.5: "conf-stop clears SIGNAL.CONFRUN; the conf loop exits on its
// next iteration"). One iteration:
//  1. if SIGNAL.UPDATE is set, run ConfFn then Validate, clearing UPDATE;
//  2. refresh STATUS.CONF/STATUS.RUN from conf/run pid liveness, setting
//     SIGNAL.UPDATE again if either changed since the last iteration.
func (c *ConfLoop) Run() error {
	lastConfAlive, lastRunAlive := false, false
	first := true

	for {
		c.FPS.ReloadHeader()
		if !c.FPS.Header.Signal.Has(fpsstore.SignalConfRun) {
			return nil
		}

		if c.FPS.Header.Signal.Has(fpsstore.SignalUpdate) {
			if c.ConfFn != nil {
				if err := c.ConfFn(c.FPS); err != nil {
					c.FPS.Header.AppendMessage(-1, 1, err.Error())
				}
			}
			if c.Validator != nil {
				runAlive := ProcessAlive(c.FPS.Header.RunPID)
				c.Validator.Validate(true, runAlive)
			}
			c.FPS.Header.Signal = c.FPS.Header.Signal.Clear(fpsstore.SignalUpdate)
		}

		confAlive := ProcessAlive(c.FPS.Header.ConfPID)
		runAlive := ProcessAlive(c.FPS.Header.RunPID)

		status := c.FPS.Header.Status
		if confAlive {
			status = status.Set(fpsstore.StatusConf)
		} else {
			status = status.Clear(fpsstore.StatusConf)
		}
		if runAlive {
			status = status.Set(fpsstore.StatusRun)
		} else {
			status = status.Clear(fpsstore.StatusRun)
		}
		c.FPS.Header.Status = status

		if !first && (confAlive != lastConfAlive || runAlive != lastRunAlive) {
			c.FPS.Header.Signal = c.FPS.Header.Signal.Set(fpsstore.SignalUpdate)
		}
		lastConfAlive, lastRunAlive, first = confAlive, runAlive, false

		c.FPS.WriteHeader()
		time.Sleep(c.waitInterval())
	}
}

// RunLoop runs the connect-invoke-clear body described in spec §4.5's
// "Run loop": connect in run mode, invoke RunFn, clear STATUS.CMDRUN on
// return regardless of RunFn's outcome.
type RunLoop struct {
	FPSName string
	RunFn   RunFunc
}

// NewRunLoop builds a RunLoop targeting fpsName.
func NewRunLoop(fpsName string, fn RunFunc) *RunLoop {
	return &RunLoop{FPSName: fpsName, RunFn: fn}
}

// Run connects to FPSName in run mode, invokes RunFn once, and clears
// STATUS.CMDRUN before disconnecting.
func (r *RunLoop) Run() error {
	fps, err := fpsstore.Connect(r.FPSName, fpsstore.ConnectRun)
	if err != nil {
		return err
	}
	defer fps.Disconnect()

	var runErr error
	if r.RunFn != nil {
		runErr = r.RunFn(fps)
	}

	fps.Header.Status = fps.Header.Status.Clear(fpsstore.StatusCmdRun)
	fps.WriteHeader()
	return runErr
}
