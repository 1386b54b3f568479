// Command fpsctrl is the control process described in spec §4.7-§4.8: it
// drains an input FIFO and the console into the Scheduler, ticks it once
// per pass and polls the keyboard; the control loop does not draw a
// parameter view. It also exposes two maintenance subcommands, "fifo" and
// "keytree", for inspecting a deployment from outside the control loop.
package main

import (
	"fmt"
	"os"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/spf13/cobra"

	"github.com/milk-org/fps/internal/fifoio"
	"github.com/milk-org/fps/internal/keywordtree"
	"github.com/milk-org/fps/pkg/buildinfo"
	"github.com/milk-org/fps/pkg/fpsconfig"
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

var (
	debugFlag      bool
	shmDirFlag     string
	workingDirFlag string
	fifoPathFlag   string
	confBinaryFlag string
	runBinaryFlag  string
)

func main() {
	root := &cobra.Command{
		Use:     "fpsctrl",
		Short:   "Function parameter store control process",
		Version: buildinfo.Resolve(version, commit, date, buildSource).String(),
		RunE:    runControlLoop,
	}
	root.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "enable debug logging to <configdir>/ctrl.log")
	root.PersistentFlags().StringVar(&shmDirFlag, "shm-dir", "", "override the shared-memory root (MILK_SHM_DIR)")
	root.PersistentFlags().StringVar(&workingDirFlag, "working-dir", ".", "directory for saved parameter files and the default FIFO")
	root.Flags().StringVar(&fifoPathFlag, "fifo", "", "command FIFO path (default <working-dir>/fpsctrl.fifo)")
	root.Flags().StringVar(&confBinaryFlag, "conf-binary", "", "path to the fpsconf binary confstart should spawn")
	root.Flags().StringVar(&runBinaryFlag, "run-binary", "", "path to the fpsrun binary runstart should spawn")

	root.AddCommand(fifoCommand())
	root.AddCommand(keytreeCommand())

	if err := root.Execute(); err != nil {
		wrapped := goerrors.Wrap(err, 0)
		fmt.Fprintln(os.Stderr, wrapped.ErrorStack())
		os.Exit(1)
	}
}

func runControlLoop(cmd *cobra.Command, args []string) error {
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

	fifoPath := fifoPathFlag
	if fifoPath == "" {
		fifoPath = defaultFifoPath(workingDirFlag)
	}

	app, err := NewApp(Options{
		WorkingDir: workingDirFlag,
		FifoPath:   fifoPath,
		ConfBinary: confBinaryFlag,
		RunBinary:  runBinaryFlag,
		AppConfig:  appConfig,
		Debug:      debugFlag,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	app.Log.WithField("fifo", fifoPath).Info("control loop starting")
	return app.Run()
}

// fifoCommand is a maintenance helper: it opens path as a command FIFO
// (creating it if necessary) and prints every line it reads until
// interrupted, for watching what a scheduler would see without actually
// running one.
func fifoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fifo <path>",
		Short: "Tail a command FIFO's lines to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := fifoio.EnsureFifo(path); err != nil {
				return err
			}
			reader, err := fifoio.Open(path)
			if err != nil {
				return err
			}
			defer reader.Close()

			for {
				lines, err := reader.ReadLines()
				if err != nil {
					return err
				}
				for _, line := range lines {
					fmt.Println(line)
				}
				time.Sleep(keyboardPollInterval)
			}
		},
	}
}

// keytreeCommand scans shmroot for FPS files and prints every interned
// keyword path, one per line, for inspecting a deployment's parameter
// namespace without a running control process (spec §4.6 KeywordTree).
func keytreeCommand() *cobra.Command {
	var nameFilter string
	cmd := &cobra.Command{
		Use:   "keytree <shmroot>",
		Short: "Print every FPS keyword path under a shared-memory root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, visited, err := keywordtree.Scan(args[0], nameFilter)
			if err != nil {
				return err
			}
			for idx := 0; idx < tree.Len(); idx++ {
				if tree.Node(idx).IsLeaf {
					fmt.Println(tree.FullPath(idx))
				}
			}
			fmt.Fprintf(os.Stderr, "%d FPS instance(s) scanned\n", len(visited))
			return nil
		},
	}
	cmd.Flags().StringVar(&nameFilter, "name", "_ALL", `FPS name prefix to include, or "_ALL" for every instance`)
	return cmd
}
