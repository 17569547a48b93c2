package cpufreq

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const defaultSysCPURoot = "/sys/devices/system/cpu"

const governorWriteTimeout = time.Second * 10

// ErrInvalidGovernor indicates a governor outside the closed set. No file
// IO is attempted when this is returned
var ErrInvalidGovernor = errors.New("cpufreq: invalid governor")

var validGovernors = []string{
	"performance",
	"powersave",
	"schedutil",
	"ondemand",
	"conservative",
}

// Governors returns the closed set of accepted governor names
func Governors() []string {
	out := make([]string, len(validGovernors))
	copy(out, validGovernors)
	return out
}

// Config defines the sysfs root and the elevation/exec seams
type Config struct {
	// Root is the cpu sysfs directory, defaults to /sys/devices/system/cpu
	Root string
	// Euid reports the effective uid, defaults to unix.Geteuid
	Euid func() int
	// Run executes an external command, defaults to exec.CommandContext
	Run func(ctx context.Context, name string, arg ...string) ([]byte, error)
}

// Control writes the scaling governor of every discovered core
type Control struct {
	Config
}

// NewControl returns a Control with defaults filled in
func NewControl(conf Config) *Control {
	if len(conf.Root) == 0 {
		conf.Root = defaultSysCPURoot
	}
	if conf.Euid == nil {
		conf.Euid = unix.Geteuid
	}
	if conf.Run == nil {
		conf.Run = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, arg...).CombinedOutput()
		}
	}
	return &Control{
		Config: conf,
	}
}

// Set validates the governor against the closed set and applies it to every
// per-core control path. Cores without a scaling_governor file are skipped
func (c *Control) Set(governor string) error {
	if !c.valid(governor) {
		return errors.Wrapf(ErrInvalidGovernor, "%s is not one of %s", governor, strings.Join(validGovernors, "|"))
	}

	if c.Config.Euid() == 0 {
		return c.setDirect(governor)
	}
	return c.setElevated(governor)
}

func (c *Control) valid(governor string) bool {
	for _, g := range validGovernors {
		if g == governor {
			return true
		}
	}
	return false
}

func (c *Control) setDirect(governor string) error {
	dirs, err := filepath.Glob(filepath.Join(c.Config.Root, "cpu[0-9]*"))
	if err != nil {
		return errors.Wrap(err, "cpufreq: cannot enumerate cores")
	}

	written := 0
	for _, dir := range dirs {
		path := filepath.Join(dir, "cpufreq", "scaling_governor")
		if _, err := os.Stat(path); err != nil {
			// some cores have no cpufreq control
			continue
		}
		if err := os.WriteFile(path, []byte(governor), 0644); err != nil {
			return errors.Wrapf(err, "cpufreq: cannot write %s", path)
		}
		written++
	}

	log.Printf("cpufreq: governor set to %s on %d cores\n", governor, written)

	return nil
}

func (c *Control) setElevated(governor string) error {
	ctx, cancel := context.WithTimeout(context.Background(), governorWriteTimeout)
	defer cancel()

	script := fmt.Sprintf("echo %s | tee %s/cpu*/cpufreq/scaling_governor > /dev/null", governor, c.Config.Root)
	if out, err := c.Config.Run(ctx, "sudo", "-n", "bash", "-c", script); err != nil {
		return errors.Wrapf(err, "cpufreq: cannot set governor: %s", strings.TrimSpace(string(out)))
	}

	log.Printf("cpufreq: governor set to %s\n", governor)

	return nil
}
