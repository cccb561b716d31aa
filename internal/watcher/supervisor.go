package watcher

import (
	"sync"

	"inews-rundown-gateway/internal/config"
	"inews-rundown-gateway/internal/controlplane"
	"inews-rundown-gateway/internal/logger"
	"inews-rundown-gateway/internal/model"
	"inews-rundown-gateway/internal/nrcs"
	"inews-rundown-gateway/internal/resolver"
)

// Supervisor owns the current *Watcher, subscribes to a config.Watcher's
// updates, and replaces the watcher wholesale whenever the configuration
// changes.
type Supervisor struct {
	adapter      nrcs.Adapter
	controlPlane controlplane.Client
	log          logger.Logger
	boundary     resolver.BoundaryFunc

	configWatcher config.Watcher

	mu      sync.Mutex
	current *Watcher

	events   chan Event
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSupervisor constructs a Supervisor. It does not start polling until
// Start is called.
func NewSupervisor(configWatcher config.Watcher, adapter nrcs.Adapter, controlPlane controlplane.Client, log logger.Logger, boundary resolver.BoundaryFunc) *Supervisor {
	return &Supervisor{
		adapter:       adapter,
		controlPlane:  controlPlane,
		log:           log,
		boundary:      boundary,
		configWatcher: configWatcher,
		events:        make(chan Event, 1024),
		stopCh:        make(chan struct{}),
	}
}

// Start begins consuming configuration updates, building the first
// Watcher from whichever config arrives first (a config.Watcher publishes
// its initial config immediately on construction, so this is typically
// the boot configuration).
func (s *Supervisor) Start() {
	go s.run()
}

// Stop tears down the current watcher and unsubscribes from configuration
// updates. Safe to call once; repeat calls are no-ops.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		if s.current != nil {
			s.current.Stop()
		}
		s.mu.Unlock()
		s.configWatcher.Stop()
	})
}

// Events returns the merged event stream across every watcher generation
// this supervisor has owned.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// ResyncRundown forwards to the currently owned watcher, so a pending
// resync survives being issued moments before an unrelated config
// reload swaps the watcher out from under it only if the rundown's queue
// is still configured afterward - see rebuild.
func (s *Supervisor) ResyncRundown(rundownID model.RundownID) {
	s.mu.Lock()
	cur := s.current
	s.mu.Unlock()
	if cur != nil {
		cur.ResyncRundown(rundownID)
	}
}

func (s *Supervisor) run() {
	for {
		select {
		case cfg, ok := <-s.configWatcher.Updates():
			if !ok {
				return
			}
			s.log.Infof("configuration applied: %d queue(s), pollInterval=%s", len(cfg.Queues), cfg.PollInterval)
			s.rebuild(cfg)
		case <-s.stopCh:
			return
		}
	}
}

// rebuild tears down the current watcher and starts a fresh one, dropping
// its in-memory caches. The one thing preserved on purpose is a pending
// resync: skipCacheForRundown entries whose owning queue is still
// configured carry over to the new watcher; entries whose queue left the
// configured set are dropped with a warning instead of silently
// vanishing.
func (s *Supervisor) rebuild(cfg config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queueIDs := make(map[string]bool, len(cfg.Queues))
	for _, q := range cfg.Queues {
		queueIDs[q.QueueID] = true
	}

	pending := make(map[model.RundownID]bool)
	if s.current != nil {
		s.current.mu.Lock()
		for rid := range s.current.skipCacheForRundown {
			pid, owned := s.current.playlistOwning(rid)
			switch {
			case owned && queueIDs[string(pid)]:
				pending[rid] = true
			case owned:
				s.log.Warnf("dropping pending resync for rundown %s: queue %s left the configured set", rid, pid)
			}
		}
		s.current.mu.Unlock()
		s.current.Stop()
	}

	wlog := s.log
	if cfg.Debug {
		// The config's debug toggle raises the log level at runtime.
		wlog = logger.SetDebug(s.log, true)
	}

	next := NewWatcher(cfg, s.adapter, s.controlPlane, wlog, s.boundary)
	for rid := range pending {
		next.skipCacheForRundown[rid] = true
	}

	go s.forward(next)
	next.Start()
	s.current = next
}

// forward relays one watcher generation's events into the supervisor's
// merged stream until that generation is stopped.
func (s *Supervisor) forward(w *Watcher) {
	for {
		select {
		case e := <-w.Events():
			select {
			case s.events <- e:
			case <-s.stopCh:
				return
			}
		case <-w.ctx.Done():
			return
		}
	}
}
