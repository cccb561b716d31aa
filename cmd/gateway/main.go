package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inews-rundown-gateway/internal/config"
	cpfake "inews-rundown-gateway/internal/controlplane/fake"
	"inews-rundown-gateway/internal/logger"
	nrcsfake "inews-rundown-gateway/internal/nrcs/fake"
	"inews-rundown-gateway/internal/resolver"
	"inews-rundown-gateway/internal/watcher"
)

// shutdownGrace bounds how long an orderly shutdown may take before the
// process exits anyway.
const shutdownGrace = 10 * time.Second

func main() {
	configFile := flag.String("c", "gateway.json", "Path to the gateway config file")
	logLevel := flag.String("L", "info", "Log level (error, warn, info, debug)")
	reloadInterval := flag.Duration("reload-interval", 5*time.Second, "How often to check the config file for changes")
	flag.Parse()

	log := logger.NewLogger(*logLevel)
	log.Infof("Starting inews-rundown-gateway...")

	configWatcher, err := config.NewFileWatcher(*configFile, *reloadInterval, log)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// No concrete NRCS or control-plane transport ships in this
	// repository - the in-memory implementations below stand in so this
	// binary boots and converges against itself; a real deployment links
	// in its own Adapter/Client and swaps these two lines.
	log.Warnf("no NRCS/control-plane transport configured: running with in-memory placeholders")
	adapter := nrcsfake.New()
	controlPlane := cpfake.New()

	sup := watcher.NewSupervisor(configWatcher, adapter, controlPlane, log, resolver.DefaultBoundaryFunc)
	sup.Start()

	go func() {
		for e := range sup.Events() {
			logEvent(log, e)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Infof("Shutting down...")

	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	select {
	case <-done:
		log.Infof("Shut down gracefully")
	case <-ctx.Done():
		log.Errorf("Shutdown grace period (%s) exceeded, exiting", shutdownGrace)
		os.Exit(1)
	}
}

func logEvent(log logger.Logger, e watcher.Event) {
	switch e.Kind {
	case watcher.EventError:
		log.Errorf("%s", e.Message)
	case watcher.EventWarning:
		log.Warnf("%s", e.Message)
	case watcher.EventInfo:
		log.Infof("%s", e.Message)
	case watcher.EventRundownCreate, watcher.EventRundownUpdate, watcher.EventRundownDelete:
		log.Infof("rundown event: kind=%s rundown=%s", e.Kind, e.RundownID)
	case watcher.EventSegmentCreate, watcher.EventSegmentUpdate, watcher.EventSegmentDelete:
		log.Infof("segment event: kind=%s rundown=%s segment=%s", e.Kind, e.RundownID, e.SegmentID)
	case watcher.EventSegmentRanksUpdate:
		log.Infof("rank update: rundown=%s segments=%d", e.RundownID, len(e.Ranks))
	}
}
