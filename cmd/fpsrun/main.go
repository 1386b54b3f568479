// Command fpsrun is the run process described in spec §4.5: it connects
// to an existing function parameter store in run mode, invokes the
// run function once, and clears STATUS.CMDRUN on return.
package main

import (
	"fmt"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/integrii/flaggy"

	"github.com/milk-org/fps/internal/conflife"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/pkg/buildinfo"
	"github.com/milk-org/fps/pkg/fpsconfig"
	"github.com/milk-org/fps/pkg/fpslog"
)

// version/commit/date/buildSource are injected at build time via
// -ldflags "-X main.version=... -X main.commit=... -X main.date=...
// -X main.buildSource=...".
var (
	version     = buildinfo.DefaultVersion
	commit      string
	date        string
	buildSource string
)

func main() {
	var (
		role       string
		fpsName    string
		debugFlag  bool
		shmDirFlag string
	)

	flaggy.SetName("fpsrun")
	flaggy.SetDescription("Function parameter store run process")
	flaggy.SetVersion(buildinfo.Resolve(version, commit, date, buildSource).String())
	flaggy.Bool(&debugFlag, "d", "debug", "enable debug logging to <configdir>/run.log")
	flaggy.String(&shmDirFlag, "", "shm-dir", "override the shared-memory root (MILK_SHM_DIR)")
	// Positional 1 is "run", matching internal/session.ExecManager's
	// "<prefix> <role> <fpsName>" spawn template so runstart's exec.Command
	// invocation and a manually-typed "fpsrun run aoloop0" agree.
	flaggy.AddPositionalValue(&role, "role", 1, true, `must be "run"`)
	flaggy.AddPositionalValue(&fpsName, "fps", 2, true, "name of the function parameter store to connect to")
	flaggy.Parse()

	if role != "run" {
		fmt.Fprintf(os.Stderr, "fpsrun: unexpected role %q, expected \"run\"\n", role)
		os.Exit(1)
	}

	if err := run(fpsName, debugFlag, shmDirFlag); err != nil {
		wrapped := goerrors.Wrap(err, 0)
		fmt.Fprintln(os.Stderr, wrapped.ErrorStack())
		os.Exit(1)
	}
}

func run(fpsName string, debugFlag bool, shmDirFlag string) error {
	appConfig, err := fpsconfig.New("fps")
	if err != nil {
		return err
	}
	if shmDirFlag != "" {
		appConfig.Config.ShmRootOverride = shmDirFlag
	}
	if appConfig.Config.ShmRootOverride != "" {
		os.Setenv("MILK_SHM_DIR", appConfig.Config.ShmRootOverride)
	}

	logger := fpslog.New(fpslog.Options{
		Role:      "run",
		FPSName:   fpsName,
		Pid:       os.Getpid(),
		ConfigDir: appConfig.ConfigDir,
		Debug:     debugFlag,
	})

	loop := conflife.NewRunLoop(fpsName, noopRunFn)

	logger.Info("run loop starting")
	if err := loop.Run(); err != nil {
		logger.WithError(err).Error("run function returned an error")
		return err
	}
	logger.Info("run loop exited")
	return nil
}

// noopRunFn is the generic run process's RunFn: the actual computation a
// run process performs against its parameters is instrument-specific, so
// the bare binary connects, does nothing, and clears STATUS.CMDRUN right
// back. A real instrument build links its own RunFunc in place of this
// one; runstop's external kill of this process's pid is what ends real
// long-running work, not a condition checked from inside RunFn.
func noopRunFn(fps *fpsstore.FPS) error {
	return nil
}
