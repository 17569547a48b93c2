package controller

import (
	"github.com/g15tools/G15Manager/system/acpi"
	"github.com/g15tools/G15Manager/system/cpufreq"
	"github.com/g15tools/G15Manager/system/monitor"
	"github.com/g15tools/G15Manager/system/persist"
	"github.com/g15tools/G15Manager/system/preflight"
	"github.com/g15tools/G15Manager/system/thermal"
	"github.com/g15tools/G15Manager/util"
)

// RunConfig contains the start up configuration for the controller
type RunConfig struct {
	// DryRun suppresses all hardware and save IOs
	DryRun bool
	// AMDPath selects the AMD firmware namespace instead of Intel
	AMDPath bool
	// ConfigDir overrides where settings are persisted
	ConfigDir string
	// NotifierCh receives user-facing notifications, may be nil
	NotifierCh chan<- util.Notification
}

// Dependencies contains every component the controller and its consumers
// operate on
type Dependencies struct {
	Channel        acpi.Channel
	Thermal        *thermal.Control
	Governor       *cpufreq.Control
	Monitor        *monitor.Monitor
	Checker        *preflight.Checker
	ConfigRegistry persist.ConfigRegistry
}

// GetDependencies constructs the dependency graph according to conf. The
// thermal control is registered for persistence so the last profile can be
// reapplied on the next start
func GetDependencies(conf RunConfig) (*Dependencies, error) {
	var channel acpi.Channel
	var registry persist.ConfigRegistry
	var err error

	if conf.DryRun {
		channel, err = acpi.NewDryCall()
		if err != nil {
			return nil, err
		}
		registry, err = persist.NewDryFileConfigHelper(conf.ConfigDir)
		if err != nil {
			return nil, err
		}
	} else {
		channel, err = acpi.NewCall(acpi.Config{})
		if err != nil {
			return nil, err
		}
		registry, err = persist.NewFileConfigHelper(conf.ConfigDir)
		if err != nil {
			return nil, err
		}
	}

	method := acpi.MethodPathIntel
	if conf.AMDPath {
		method = acpi.MethodPathAMD
	}

	control, err := thermal.NewControl(thermal.Config{
		Channel: channel,
		Method:  method,
	})
	if err != nil {
		return nil, err
	}

	registry.Register(control)

	return &Dependencies{
		Channel:        channel,
		Thermal:        control,
		Governor:       cpufreq.NewControl(cpufreq.Config{}),
		Monitor:        monitor.NewMonitor(monitor.Config{}),
		Checker:        preflight.NewChecker(preflight.Config{}),
		ConfigRegistry: registry,
	}, nil
}
