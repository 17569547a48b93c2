package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/g15tools/G15Manager/controller"
	"github.com/g15tools/G15Manager/system/cpufreq"
	"github.com/g15tools/G15Manager/system/monitor"
	"github.com/g15tools/G15Manager/system/thermal"
)

var (
	profileFlag  = flag.String("profile", "", "set thermal profile (balanced|performance|quiet|gmode, or b|p|q|g)")
	gmodeFlag    = flag.Bool("gmode", false, "toggle G-Mode")
	queryFlag    = flag.Bool("query", false, "query G-Mode status from hardware")
	governorFlag = flag.String("governor", "", "set the cpu scaling governor ("+strings.Join(cpufreq.Governors(), "|")+")")
	monitorFlag  = flag.Bool("monitor", false, "print a telemetry snapshot")
	amdFlag      = flag.Bool("amd", false, "use the AMD firmware namespace (AMW3) instead of Intel (AMWW)")
	dryFlag      = flag.Bool("dry-run", false, "do not touch hardware or save state")
)

// aliases match the single-letter modes of the original tool
var profileAliases = map[string]string{
	"b": thermal.ProfileBalanced.ID,
	"p": thermal.ProfilePerformance.ID,
	"q": thermal.ProfileQuiet.ID,
	"g": thermal.ProfileGameBoost.ID,
}

func main() {
	flag.Parse()
	log.SetOutput(os.Stderr)

	dep, err := controller.GetDependencies(controller.RunConfig{
		DryRun:  *dryFlag,
		AMDPath: *amdFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize: %+v\n", err)
		os.Exit(1)
	}
	defer dep.ConfigRegistry.Close()

	if *monitorFlag {
		printSnapshot(dep.Monitor.Snapshot())
		return
	}

	allPassed, checks := dep.Checker.Run()
	for _, check := range checks {
		status := " OK "
		if !check.Passed {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s: %s\n", status, check.Name, check.Message)
	}
	if !allPassed && !*dryFlag {
		fmt.Println("some preflight checks failed, fix the problems above before continuing")
		os.Exit(1)
	}

	switch {
	case *queryFlag:
		active, err := dep.Thermal.QueryBoostStatus()
		exitOnError(err)
		fmt.Printf("G-Mode is %s\n", onOff(active))

	case *gmodeFlag:
		if err := dep.ConfigRegistry.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "cannot load saved state: %+v\n", err)
		}
		exitOnError(dep.Thermal.ToggleBoost())
		fmt.Printf("G-Mode is now %s\n", onOff(dep.Thermal.BoostActive()))
		saveState(dep)

	case len(*profileFlag) > 0:
		id := *profileFlag
		if alias, ok := profileAliases[id]; ok {
			id = alias
		}
		p, ok := thermal.ProfileWithID(id)
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown profile %q, valid profiles:\n", *profileFlag)
			for _, known := range thermal.Profiles() {
				fmt.Fprintf(os.Stderr, "  %s - %s\n", known.ID, known.Description)
			}
			os.Exit(1)
		}
		exitOnError(dep.Thermal.SetProfile(p))
		fmt.Printf("profile set to %s\n", p.ID)
		saveState(dep)

	case len(*governorFlag) > 0:
		exitOnError(dep.Governor.Set(*governorFlag))
		fmt.Printf("cpu governor set to %s\n", *governorFlag)

	default:
		flag.Usage()
	}
}

func saveState(dep *controller.Dependencies) {
	if err := dep.ConfigRegistry.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "cannot save state: %+v\n", err)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func printSnapshot(snap monitor.Snapshot) {
	if snap.CPU != nil {
		fmt.Println("CPU:")
		fmt.Printf("  temperature: %.1fC (max: %.1fC)\n", snap.CPU.AverageTemp, snap.CPU.MaxTemp)
	}
	if snap.Fans != nil {
		fmt.Printf("Fans (%s):\n", snap.Fans.Source)
		fmt.Printf("  fan 1 (cpu): %d RPM\n", snap.Fans.Fan1RPM)
		fmt.Printf("  fan 2 (gpu): %d RPM\n", snap.Fans.Fan2RPM)
	}
	if snap.RAM != nil {
		fmt.Println("RAM:")
		fmt.Printf("  usage: %.1f/%.1f GB (%.0f%%)\n", snap.RAM.UsedGB, snap.RAM.TotalGB, snap.RAM.Percent)
	}
	if snap.Battery != nil {
		fmt.Println("Battery:")
		fmt.Printf("  charge: %.0f%%\n", snap.Battery.Percent)
		if snap.Battery.HealthPercent > 0 {
			fmt.Printf("  health: %.0f%%\n", snap.Battery.HealthPercent)
		}
		fmt.Printf("  plugged in: %t\n", snap.Battery.PluggedIn)
	}
}
