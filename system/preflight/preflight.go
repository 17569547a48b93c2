package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/g15tools/G15Manager/system/acpi"

	"golang.org/x/sys/unix"
)

const (
	privilegeProbeTimeout = time.Second * 2
	moduleListTimeout     = time.Second * 5
)

// CheckResult reports one readiness check. Message is meant to be shown to
// the user as-is, including the suggested fix.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// Config defines the probed paths and the elevation/exec seams
type Config struct {
	// CallPath is the channel node, defaults to acpi.CallPath
	CallPath string
	// Module is the kernel module name, defaults to acpi.ModuleName
	Module string
	// Euid reports the effective uid, defaults to unix.Geteuid
	Euid func() int
	// Run executes an external command, defaults to exec.CommandContext
	Run func(ctx context.Context, name string, arg ...string) ([]byte, error)
}

// Checker verifies the three preconditions for a working channel: root (or
// passwordless sudo), the acpi_call module, and the channel node itself
type Checker struct {
	Config
}

// NewChecker returns a Checker with defaults filled in
func NewChecker(conf Config) *Checker {
	if len(conf.CallPath) == 0 {
		conf.CallPath = acpi.CallPath
	}
	if len(conf.Module) == 0 {
		conf.Module = acpi.ModuleName
	}
	if conf.Euid == nil {
		conf.Euid = unix.Geteuid
	}
	if conf.Run == nil {
		conf.Run = func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, arg...).CombinedOutput()
		}
	}
	return &Checker{
		Config: conf,
	}
}

// CheckPrivilege passes when the process runs as root, or when a
// non-interactive sudo probe succeeds within the timeout. Probe failures
// are reported, never fatal
func (c *Checker) CheckPrivilege() CheckResult {
	result := CheckResult{
		Name: "Root privileges",
	}

	if c.Config.Euid() == 0 {
		result.Passed = true
		result.Message = "running as root"
		return result
	}

	ctx, cancel := context.WithTimeout(context.Background(), privilegeProbeTimeout)
	defer cancel()

	// bash because that is what sudoers whitelists for the elevated writes
	if _, err := c.Config.Run(ctx, "sudo", "-n", "bash", "-c", "true"); err != nil {
		result.Message = "root privileges required (or passwordless sudo)"
		return result
	}

	result.Passed = true
	result.Message = "root access available via sudo"
	return result
}

// CheckModuleLoaded passes when the kernel module shows up in lsmod
func (c *Checker) CheckModuleLoaded() CheckResult {
	result := CheckResult{
		Name: fmt.Sprintf("Kernel module %s", c.Config.Module),
	}

	ctx, cancel := context.WithTimeout(context.Background(), moduleListTimeout)
	defer cancel()

	out, err := c.Config.Run(ctx, "lsmod")
	if err != nil {
		result.Message = fmt.Sprintf("cannot list kernel modules: %s", err)
		return result
	}
	if !strings.Contains(string(out), c.Config.Module) {
		result.Message = fmt.Sprintf("module not loaded, run: sudo modprobe %s", c.Config.Module)
		return result
	}

	result.Passed = true
	result.Message = "module loaded"
	return result
}

// CheckInterface passes when the channel node exists on the filesystem
func (c *Checker) CheckInterface() CheckResult {
	result := CheckResult{
		Name: "Channel interface",
	}

	if _, err := os.Stat(c.Config.CallPath); err != nil {
		result.Message = fmt.Sprintf("%s not found, is %s loaded?", c.Config.CallPath, c.Config.Module)
		return result
	}

	result.Passed = true
	result.Message = fmt.Sprintf("%s available", c.Config.CallPath)
	return result
}

// Run executes all three checks independently and aggregates the outcome.
// A failing check never short-circuits the remaining ones: the caller is
// expected to surface every result, not just the first failure
func (c *Checker) Run() (bool, []CheckResult) {
	results := []CheckResult{
		c.CheckPrivilege(),
		c.CheckModuleLoaded(),
		c.CheckInterface(),
	}

	allPassed := true
	for _, r := range results {
		if !r.Passed {
			allPassed = false
		}
	}
	return allPassed, results
}
