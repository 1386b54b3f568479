// Package fpslog builds the per-process logger shared by cmd/fpsconf,
// cmd/fpsrun and cmd/fpsctrl: error-level entries only, as JSON to stderr,
// in production, a plain-text
// file under the config directory in debug mode.
package fpslog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options configures a logger for one FPS process.
type Options struct {
	// Role identifies which binary is logging: "conf", "run" or "ctrl".
	Role string

	// FPSName is the function parameter store this process is bound to.
	FPSName string

	// Pid is this process's pid, attached to every entry so conf/run/ctrl
	// logs interleaved in one file can be told apart.
	Pid int

	// ConfigDir is where the debug log file is created; unused outside
	// debug mode.
	ConfigDir string

	// Debug switches to the file-backed, text-formatted development
	// logger. If false, FPS_DEBUG/DEBUG env vars can still force it on.
	Debug bool
}

// New returns a logger entry pre-populated with role/name/pid fields.
func New(opts Options) *logrus.Entry {
	var log *logrus.Logger
	if opts.Debug || os.Getenv("FPS_DEBUG") == "TRUE" || os.Getenv("DEBUG") == "TRUE" {
		log = newDevelopmentLogger(opts.ConfigDir, opts.Role)
	} else {
		log = newProductionLogger()
	}

	return log.WithFields(logrus.Fields{
		"role": opts.Role,
		"fps":  opts.FPSName,
		"pid":  opts.Pid,
	})
}

func getLogLevel() logrus.Level {
	strLevel := os.Getenv("LOG_LEVEL")
	level, err := logrus.ParseLevel(strLevel)
	if err != nil {
		return logrus.DebugLevel
	}
	return level
}

func newDevelopmentLogger(configDir, role string) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(getLogLevel())
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true}

	fileName := fmt.Sprintf("%s.log", role)
	file, err := os.OpenFile(filepath.Join(configDir, fileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		fmt.Println("fpslog: unable to log to file, falling back to stderr")
		log.SetOutput(os.Stderr)
		return log
	}
	log.SetOutput(file)
	return log
}

func newProductionLogger() *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.JSONFormatter{}
	log.Out = io.Discard
	log.SetLevel(logrus.ErrorLevel)
	log.AddHook(&stderrErrorHook{})
	return log
}

// stderrErrorHook mirrors logrus's default stderr behavior for levels the
// production logger actually cares about, since Out is discarded above to
// keep normal stdout/stderr clean for fpsctrl's own UI rendering.
type stderrErrorHook struct{}

func (*stderrErrorHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
}

func (*stderrErrorHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stderr, line)
	return err
}
