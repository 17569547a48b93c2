package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/g15tools/G15Manager/background"
	"github.com/g15tools/G15Manager/controller"
	"github.com/g15tools/G15Manager/supervisor"
	"github.com/g15tools/G15Manager/system/shared"
	"github.com/g15tools/G15Manager/util"

	suture "github.com/thejerf/suture/v4"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Compile time injected variables
var (
	Version     = "v0.0.0-dev"
	IsDebug     = "yes"
	logLocation = "/var/log/g15manager.log"
)

func main() {
	var amdPath = flag.Bool("amd", false, "use the AMD firmware namespace (AMW3) instead of Intel (AMWW)")
	flag.Parse()

	if IsDebug == "no" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logLocation,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		})
	}

	log.Printf("%s version: %s\n", shared.AppName, Version)

	notifier := background.NewNotifier()

	versionChecker, err := background.NewVersionCheck(Version, shared.Repo, notifier.C)
	if err != nil {
		log.Fatalf("[supervisor] cannot get version checker: %+v\n", err)
	}

	controllerConfig := controller.RunConfig{
		DryRun:     os.Getenv("DRY_RUN") != "",
		AMDPath:    *amdPath,
		NotifierCh: notifier.C,
	}

	dep, err := controller.GetDependencies(controllerConfig)
	if err != nil {
		log.Fatalf("[supervisor] cannot get dependencies: %+v\n", err)
	}

	daemon, err := controller.New(controllerConfig, dep)
	if err != nil {
		log.Fatalf("[supervisor] cannot create controller: %+v\n", err)
	}

	evtHook := &supervisor.EventHook{
		Notifier: notifier.C,
	}

	ctx, cancel := context.WithCancel(context.Background())

	backgroundSupervisor := suture.New("backgroundSupervisor", suture.Spec{})
	backgroundSupervisor.Add(versionChecker)
	backgroundSupervisor.Add(notifier)

	rootSupervisor := suture.New("Supervisor", suture.Spec{
		EventHook: evtHook.Event,
	})
	rootSupervisor.Add(backgroundSupervisor)
	rootSupervisor.Add(daemon)

	sigc := make(chan os.Signal, 1)

	go func() {
		notifier.C <- util.Notification{
			Title:   shared.AppName,
			Message: "Starting up " + shared.AppName,
		}
		supervisorErr := rootSupervisor.Serve(ctx)
		if supervisorErr != nil {
			log.Printf("[supervisor] rootSupervisor returns error: %+v\n", supervisorErr)
			sigc <- syscall.SIGTERM
		}
	}()

	signal.Notify(
		sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)

	sig := <-sigc
	log.Printf("[supervisor] signal received: %+v\n", sig)

	cancel()
	dep.ConfigRegistry.Close()
	time.Sleep(time.Second) // 1 second for grace period
}
