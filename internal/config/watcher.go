package config

import (
	"context"
	"os"
	"time"

	"inews-rundown-gateway/internal/logger"
)

// Watcher is the gateway's view of the control plane's observable
// device-settings collection: a stream of configs to apply, most recent
// last.
type Watcher interface {
	Updates() <-chan Config
	Stop()
}

// FileWatcher polls a config file on disk for changes and republishes a
// parsed Config whenever it differs (per Config.Equal) from the last one
// published.
type FileWatcher struct {
	path     string
	interval time.Duration
	log      logger.Logger

	updates chan Config
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewFileWatcher starts polling path every interval for config changes.
// The first successfully parsed config is published immediately.
func NewFileWatcher(path string, interval time.Duration, log logger.Logger) (*FileWatcher, error) {
	initial, err := Load(path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &FileWatcher{
		path:     path,
		interval: interval,
		log:      log,
		updates:  make(chan Config, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
	w.updates <- initial

	go w.pollLoop(initial)
	return w, nil
}

func (w *FileWatcher) Updates() <-chan Config {
	return w.updates
}

func (w *FileWatcher) Stop() {
	w.cancel()
}

func (w *FileWatcher) pollLoop(last Config) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			data, err := os.ReadFile(w.path)
			if err != nil {
				w.log.Warnf("config watcher: failed to read %s: %v", w.path, err)
				continue
			}
			next, err := Parse(data)
			if err != nil {
				w.log.Warnf("config watcher: failed to parse %s: %v", w.path, err)
				continue
			}
			if next.Equal(last) {
				continue
			}
			w.log.Infof("config watcher: detected configuration change in %s", w.path)
			last = next
			select {
			case w.updates <- next:
			case <-w.ctx.Done():
				return
			}
		}
	}
}
