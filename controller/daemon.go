package controller

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/g15tools/G15Manager/util"

	"github.com/pkg/errors"
	"github.com/thejerf/suture/v4"
)

const (
	// how often the cached G-Mode flag is reconciled against hardware
	reconcileInterval = time.Minute
	// how often a telemetry snapshot is logged
	telemetryInterval = time.Minute * 5
	// settle time before persisting after a state change
	persistDelay = time.Second
)

// Daemon periodically reconciles the cached G-Mode flag with hardware and
// logs telemetry. It is the only writer on the channel in daemon mode; the
// thermal core itself stays synchronous
type Daemon struct {
	Dependencies *Dependencies
	NotifierCh   chan<- util.Notification
}

// New returns the controller Daemon as a supervisable service
func New(conf RunConfig, dep *Dependencies) (*Daemon, error) {
	if dep == nil {
		return nil, errors.New("[controller] nil Dependencies is invalid")
	}
	return &Daemon{
		Dependencies: dep,
		NotifierCh:   conf.NotifierCh,
	}, nil
}

func (d *Daemon) String() string {
	return "Controller"
}

func (d *Daemon) notify(n util.Notification) {
	if d.NotifierCh == nil {
		return
	}
	select {
	case d.NotifierCh <- n:
	default:
	}
}

// Serve satisfies suture.Service. It gates on the preflight checks, applies
// the persisted profile, then runs the reconcile/telemetry loop until the
// context is cancelled
func (d *Daemon) Serve(haltCtx context.Context) error {
	allPassed, checks := d.Dependencies.Checker.Run()
	for _, check := range checks {
		status := "ok"
		if !check.Passed {
			status = "FAILED"
		}
		log.Printf("[controller] preflight %s: %s (%s)\n", check.Name, status, check.Message)
	}
	if !allPassed {
		d.notify(util.Notification{
			Title:   "Hardware Not Ready",
			Message: "One or more preflight checks failed, see log for details",
		})
		// restarting will not fix a missing module or privileges
		return suture.ErrDoNotRestart
	}

	if err := d.Dependencies.ConfigRegistry.Load(); err != nil {
		log.Printf("[controller] cannot load persisted configs: %+v\n", err)
	}
	if err := d.Dependencies.ConfigRegistry.Apply(); err != nil {
		log.Printf("[controller] cannot apply persisted configs: %+v\n", err)
	}

	persistIn, persistOut := util.Debounce(haltCtx, persistDelay)

	reconcile := time.NewTicker(reconcileInterval)
	defer reconcile.Stop()
	telemetry := time.NewTicker(telemetryInterval)
	defer telemetry.Stop()

	log.Println("[controller] starting daemon loop")

	for {
		select {
		case <-reconcile.C:
			cached := d.Dependencies.Thermal.BoostActive()
			active, err := d.Dependencies.Thermal.QueryBoostStatus()
			if err != nil {
				log.Printf("[controller] cannot reconcile G-Mode status: %+v\n", err)
				continue
			}
			if active != cached {
				log.Printf("[controller] G-Mode flag drifted, hardware reports %t\n", active)
				d.notify(util.Notification{
					Title:   "G-Mode Changed",
					Message: fmt.Sprintf("Firmware reports G-Mode is now %s", onOff(active)),
				})
				persistIn <- active
			}
		case <-telemetry.C:
			snap := d.Dependencies.Monitor.Snapshot()
			if snap.CPU != nil {
				log.Printf("[controller] cpu temp avg %.1fC max %.1fC\n", snap.CPU.AverageTemp, snap.CPU.MaxTemp)
			}
			if snap.Fans != nil {
				log.Printf("[controller] fans %d/%d rpm (%s)\n", snap.Fans.Fan1RPM, snap.Fans.Fan2RPM, snap.Fans.Source)
			}
		case <-persistOut:
			if err := d.Dependencies.ConfigRegistry.Save(); err != nil {
				log.Printf("[controller] cannot persist configs: %+v\n", err)
			}
		case <-haltCtx.Done():
			log.Println("[controller] exiting daemon loop")
			if err := d.Dependencies.ConfigRegistry.Save(); err != nil {
				log.Printf("[controller] cannot persist configs: %+v\n", err)
			}
			return nil
		}
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
