package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/milk-org/fps/internal/fifoio"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/interpreter"
	"github.com/milk-org/fps/internal/scheduler"
	"github.com/milk-org/fps/internal/session"
	"github.com/milk-org/fps/internal/uiterm"
	"github.com/milk-org/fps/pkg/fpsconfig"
	"github.com/milk-org/fps/pkg/fpslog"
)

// keyboardPollInterval is the control loop's suspension point: spec §4.7
// "polling the keyboard with a 100 ms refresh timeout".
const keyboardPollInterval = 100 * time.Millisecond

// App bundles the control process's long-lived collaborators.
type App struct {
	Interpreter *interpreter.Interpreter
	Scheduler   *scheduler.Scheduler
	Fifo        *fifoio.Reader
	Renderer    uiterm.Renderer
	Log         *logrus.Entry

	fifoPath string
}

// Options configures App bootstrap.
type Options struct {
	WorkingDir string
	FifoPath   string
	ConfBinary string // CommandPrefix for confstart's exec.Command template
	RunBinary  string // CommandPrefix for runstart's exec.Command template
	AppConfig  *fpsconfig.AppConfig
	Debug      bool
	Renderer   uiterm.Renderer // nil selects by environment, then Config.UIMode
}

// NewApp wires the Scheduler, CommandInterpreter, session managers, FIFO
// reader and renderer together, following the teacher's NewApp
// build-everything-then-hand-back-a-struct bootstrap shape.
func NewApp(opts Options) (*App, error) {
	logger := fpslog.New(fpslog.Options{
		Role:      "ctrl",
		FPSName:   "_ALL",
		Pid:       os.Getpid(),
		ConfigDir: opts.AppConfig.ConfigDir,
		Debug:     opts.Debug,
	})

	outLog := fpsstore.NewOutputLog(fpsstore.ShmRoot(), "ctrl")

	var confMgr, runMgr session.Manager
	if opts.ConfBinary != "" {
		confMgr = session.NewExecManager(logger, opts.ConfBinary)
	}
	if opts.RunBinary != "" {
		runMgr = session.NewExecManager(logger, opts.RunBinary)
	}

	it := interpreter.New(fpsstore.ShmRoot(), opts.WorkingDir, outLog, confMgr, runMgr)

	sched := scheduler.New(opts.AppConfig.Config.Scheduler.NBQueues, it, it)
	it = it.WithScheduler(sched)

	for id, prio := range opts.AppConfig.Config.Scheduler.QueuePriorities {
		sched.SetQueuePriority(id, prio)
	}

	if err := fifoio.EnsureFifo(opts.FifoPath); err != nil {
		return nil, fmt.Errorf("fpsctrl: %w", err)
	}
	reader, err := fifoio.Open(opts.FifoPath)
	if err != nil {
		return nil, fmt.Errorf("fpsctrl: %w", err)
	}

	renderer := opts.Renderer
	if renderer == nil {
		envSelects := os.Getenv("MILK_FPSCTRL_NOPRINT") != "" || os.Getenv("MILK_FPSCTRL_PRINT_STDIO") != ""
		switch {
		case !envSelects && opts.AppConfig.Config.UIMode == "silent":
			renderer = uiterm.NewSilentRenderer()
		case !envSelects && opts.AppConfig.Config.UIMode == "stdio":
			renderer, err = uiterm.NewStdioRenderer(os.Stdout, os.Stdin)
		default:
			renderer, err = uiterm.New()
		}
		if err != nil {
			_ = reader.Close()
			return nil, fmt.Errorf("fpsctrl: %w", err)
		}
	}

	return &App{
		Interpreter: it,
		Scheduler:   sched,
		Fifo:        reader,
		Renderer:    renderer,
		Log:         logger,
		fifoPath:    opts.FifoPath,
	}, nil
}

// Close releases the FIFO reader, the renderer and every FPS connection
// the interpreter opened.
func (a *App) Close() {
	a.Interpreter.Close()
	_ = a.Fifo.Close()
	_ = a.Renderer.Close()
}

// Tick runs exactly one pass of the control loop: drain the FIFO, tick
// the Scheduler, poll one key and submit it. Tick itself draws nothing
// and prints nothing to the renderer. Returns true once the "exit"
// command has run.
func (a *App) Tick() (bool, error) {
	lines, err := a.Fifo.ReadLines()
	if err != nil {
		return false, fmt.Errorf("fpsctrl: fifo read: %w", err)
	}
	for _, line := range lines {
		if _, err := a.Scheduler.ApplyLine(line); err != nil {
			a.Log.WithError(err).Warn("rejected fifo line")
		}
	}

	a.Scheduler.Tick()

	if key, ok, err := a.Renderer.ReadKeyNonBlocking(); err != nil {
		return false, fmt.Errorf("fpsctrl: key read: %w", err)
	} else if ok {
		a.Scheduler.Submit(consoleKeyToCommand(key))
	}

	return a.Interpreter.ExitRequested, nil
}

// consoleKeyToCommand maps a single keystroke read off the console to a
// scheduler submission. Only 'q' is wired to anything today (request a
// clean shutdown); every other key is a no-op liveness probe.
func consoleKeyToCommand(key rune) string {
	if key == 'q' {
		return "exit"
	}
	return "cntinc key"
}

// Run drives Tick in a loop at keyboardPollInterval until the "exit"
// command sets Interpreter.ExitRequested.
func (a *App) Run() error {
	for {
		done, err := a.Tick()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		time.Sleep(keyboardPollInterval)
	}
}

func defaultFifoPath(workingDir string) string {
	return filepath.Join(workingDir, "fpsctrl.fifo")
}
