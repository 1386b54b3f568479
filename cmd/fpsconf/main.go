// Command fpsconf is the conf process described in spec §4.5: it connects
// to an existing function parameter store, then runs the conf loop until
// SIGNAL.CONFRUN clears, re-validating the store every time SIGNAL.UPDATE
// is set.
package main

import (
	"fmt"
	"os"

	goerrors "github.com/go-errors/errors"
	"github.com/integrii/flaggy"

	"github.com/milk-org/fps/internal/conflife"
	"github.com/milk-org/fps/internal/fitscheck"
	"github.com/milk-org/fps/internal/fpsstore"
	"github.com/milk-org/fps/internal/streamio"
	"github.com/milk-org/fps/internal/validator"
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

	flaggy.SetName("fpsconf")
	flaggy.SetDescription("Function parameter store conf process")
	flaggy.SetVersion(buildinfo.Resolve(version, commit, date, buildSource).String())
	flaggy.Bool(&debugFlag, "d", "debug", "enable debug logging to <configdir>/conf.log")
	flaggy.String(&shmDirFlag, "", "shm-dir", "override the shared-memory root (MILK_SHM_DIR)")
	// Positional 1 is "conf", matching internal/session.ExecManager's
	// "<prefix> <role> <fpsName>" spawn template so confstart's exec.Command
	// invocation and a manually-typed "fpsconf conf aoloop0" agree.
	flaggy.AddPositionalValue(&role, "role", 1, true, `must be "conf"`)
	flaggy.AddPositionalValue(&fpsName, "fps", 2, true, "name of the function parameter store to connect to")
	flaggy.Parse()

	if role != "conf" {
		fmt.Fprintf(os.Stderr, "fpsconf: unexpected role %q, expected \"conf\"\n", role)
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

	fps, err := fpsstore.Connect(fpsName, fpsstore.ConnectConf)
	if err != nil {
		return err
	}
	defer fps.Disconnect()

	logger := fpslog.New(fpslog.Options{
		Role:      "conf",
		FPSName:   fpsName,
		Pid:       os.Getpid(),
		ConfigDir: appConfig.ConfigDir,
		Debug:     debugFlag,
	})

	v := validator.New(fps, streamio.ValidatorLoader{Loader: streamio.NewMemLoader()}, fitscheck.New())

	loop := conflife.NewConfLoop(fps, v, noopConfFn)
	loop.WaitUs = appConfig.Config.Timeouts.ConfWaitUs

	logger.Info("conf loop starting")
	if err := loop.Run(); err != nil {
		logger.WithError(err).Error("conf loop exited with error")
		return err
	}
	logger.Info("conf loop exited")
	return nil
}

// noopConfFn is the generic conf process's ConfFn: derived-parameter
// computation is application-specific, so the bare binary only runs the
// Validator pass conflife.ConfLoop already drives around it. A real
// instrument build links its own ConfFunc in place of this one.
func noopConfFn(fps *fpsstore.FPS) error {
	return nil
}
