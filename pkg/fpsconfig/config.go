// Package fpsconfig handles the control-process configuration: scheduler
// queue layout, UI mode, shared-memory root override and the various
// loop/wait timeouts. The fields here are all in PascalCase but in your
// actual ctrlconfig.yml they'll be in camelCase, merged onto the defaults
// below the same way lazydocker merges config.yml onto GetDefaultConfig.
package fpsconfig

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/OpenPeeDeeP/xdg"
	yaml "github.com/jesseduffield/yaml"

	"github.com/milk-org/fps/internal/fpslimits"
)

// SchedulerConfig configures the multi-queue scheduler (internal/scheduler).
type SchedulerConfig struct {
	// NBQueues is the number of task queues the scheduler starts with.
	NBQueues int `yaml:"nbQueues,omitempty"`

	// QueuePriorities gives the initial priority of each queue by index.
	// A shorter slice than NBQueues leaves the remaining queues at their
	// built-in default (10 for queue 0, 1 for the rest).
	QueuePriorities []int `yaml:"queuePriorities,omitempty"`
}

// TimeoutConfig holds the conf loop's poll interval and the confwupdate/
// runwait wait bounds. Only ConfWaitUs is read by the binaries.
type TimeoutConfig struct {
	// ConfWaitUs is the conf loop's poll interval, in microseconds.
	ConfWaitUs int64 `yaml:"confWaitUs,omitempty"`

	// ConfWUpdateTimeoutSteps is a confwupdate wait bound in 100us steps.
	// The interpreter's confwupdate uses fpslimits.ConfWUpdateTimeoutSteps
	// and does not read this field.
	ConfWUpdateTimeoutSteps int `yaml:"confWUpdateTimeoutSteps,omitempty"`

	// RunWaitTimeoutSteps is a runwait wait bound in 10ms steps. The
	// interpreter's runwait uses fpslimits.RunWaitTimeoutSteps and does not
	// read this field.
	RunWaitTimeoutSteps int `yaml:"runWaitTimeoutSteps,omitempty"`
}

// Config holds all of the user-configurable control-process options.
type Config struct {
	// ShmRootOverride, when non-empty, replaces the MILK_SHM_DIR/default
	// shared-memory root that fpsstore resolves FPS files under.
	ShmRootOverride string `yaml:"shmRootOverride,omitempty"`

	// UIMode selects the default renderer when MILK_FPSCTRL_NOPRINT and
	// MILK_FPSCTRL_PRINT_STDIO are both unset: "full", "stdio" or "silent".
	UIMode string `yaml:"uiMode,omitempty"`

	// Scheduler configures the task scheduler's queue layout.
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`

	// Timeouts configures the conf/run loop and maintenance-command waits.
	Timeouts TimeoutConfig `yaml:"timeouts,omitempty"`
}

// DefaultConfig returns the control-process default configuration. As in
// the teacher, don't default a bool to true: false is the zero value and
// would be silently dropped by yaml's omitempty when writing it back out.
func DefaultConfig() Config {
	return Config{
		ShmRootOverride: "",
		UIMode:          "full",
		Scheduler: SchedulerConfig{
			NBQueues:        fpslimits.NBQueuesMaxDefault,
			QueuePriorities: []int{10, 1, 1, 1},
		},
		Timeouts: TimeoutConfig{
			ConfWaitUs:              fpslimits.DefaultConfWaitUs,
			ConfWUpdateTimeoutSteps: fpslimits.ConfWUpdateTimeoutSteps,
			RunWaitTimeoutSteps:     fpslimits.RunWaitTimeoutSteps,
		},
	}
}

// AppConfig is the loaded configuration plus where it came from, handed to
// cmd/fpsctrl, cmd/fpsconf and cmd/fpsrun at startup.
type AppConfig struct {
	Config    *Config
	ConfigDir string
}

// New loads (or creates) the control-process config, following the
// teacher's findOrCreateConfigDir -> loadUserConfigWithDefaults sequence.
func New(projectName string) (*AppConfig, error) {
	configDir, err := findOrCreateConfigDir(projectName)
	if err != nil {
		return nil, err
	}

	cfg, err := loadUserConfigWithDefaults(configDir)
	if err != nil {
		return nil, err
	}

	return &AppConfig{Config: cfg, ConfigDir: configDir}, nil
}

func configDirForVendor(vendor, projectName string) string {
	if envConfigDir := os.Getenv("CONFIG_DIR"); envConfigDir != "" {
		return envConfigDir
	}
	configDirs := xdg.New(vendor, projectName)
	return configDirs.ConfigHome()
}

// configDir mirrors the teacher's legacy-vendor fallback: prefer a
// pre-existing directory under the old vendor name, otherwise use the
// vendorless path. milk-org/fps has no legacy vendor of its own, but the
// fallback dance is kept so a future rename doesn't orphan existing users.
func configDir(projectName string) string {
	legacy := configDirForVendor("milk-org", projectName)
	if _, err := os.Stat(legacy); !os.IsNotExist(err) {
		return legacy
	}
	return configDirForVendor("", projectName)
}

func findOrCreateConfigDir(projectName string) (string, error) {
	folder := configDir(projectName)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", err
	}
	return folder, nil
}

func loadUserConfigWithDefaults(configDir string) (*Config, error) {
	cfg := DefaultConfig()
	return loadUserConfig(configDir, &cfg)
}

func loadUserConfig(configDir string, base *Config) (*Config, error) {
	fileName := filepath.Join(configDir, "ctrlconfig.yml")

	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			file, err := os.Create(fileName)
			if err != nil {
				return nil, err
			}
			file.Close()
		} else {
			return nil, err
		}
	}

	content, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(content, base); err != nil {
		return nil, err
	}

	return base, nil
}

// WriteToUserConfig lets you mutate and persist the user's config file in
// place; zero-valued fields may be dropped on write because of omitempty.
func (c *AppConfig) WriteToUserConfig(update func(*Config) error) error {
	cfg, err := loadUserConfig(c.ConfigDir, &Config{})
	if err != nil {
		return err
	}

	if err := update(cfg); err != nil {
		return err
	}

	file, err := os.OpenFile(c.ConfigFilename(), os.O_WRONLY|os.O_CREATE, 0o666)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewEncoder(file).Encode(cfg)
}

// ConfigFilename returns the filename of the current config file.
func (c *AppConfig) ConfigFilename() string {
	return filepath.Join(c.ConfigDir, "ctrlconfig.yml")
}
