// Package config loads and watches the gateway's configuration: the set
// of NRCS queues to poll, the poll interval, the gateway version tag, and
// the rank-assignment tuning knobs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Queue is one NRCS queue to watch, in poll order.
type Queue struct {
	QueueID string
	Alias   string
}

// Config holds the fully processed gateway configuration.
type Config struct {
	Queues             []Queue
	PollInterval       time.Duration
	GatewayVersion     string
	Debug              bool
	RankFractionFloor  float64
	RankRebaseCooldown time.Duration
}

// Defaults applied for fields the config file leaves unset.
const (
	DefaultPollInterval       = 2 * time.Second
	DefaultRankFractionFloor  = 1e-6
	DefaultRankRebaseCooldown = 30 * time.Second
)

// rawQueue and rawConfig mirror the on-disk JSON shape, which uses
// milliseconds and seconds instead of time.Duration.
type rawQueue struct {
	QueueID string `json:"queueId"`
	Alias   string `json:"alias,omitempty"`
}

type rawConfig struct {
	Queues              []rawQueue `json:"queues"`
	PollIntervalMS      int64      `json:"pollInterval"`
	GatewayVersion      string     `json:"gatewayVersion"`
	Debug               bool       `json:"debug"`
	RankFractionFloor   *float64   `json:"rankFractionFloor,omitempty"`
	RankRebaseCooldownS int64      `json:"rankRebaseCooldown,omitempty"`
}

// Load reads and parses the configuration file from the given path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file at %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes raw JSON bytes into a Config. Split out from Load so the
// FileWatcher's reload path and tests can exercise it without touching
// the filesystem.
func Parse(data []byte) (Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config JSON: %w", err)
	}

	if len(raw.Queues) == 0 {
		return Config{}, fmt.Errorf("config must name at least one queue")
	}
	if raw.GatewayVersion == "" {
		return Config{}, fmt.Errorf("config must set gatewayVersion")
	}

	cfg := Config{
		GatewayVersion:     raw.GatewayVersion,
		Debug:              raw.Debug,
		PollInterval:       DefaultPollInterval,
		RankFractionFloor:  DefaultRankFractionFloor,
		RankRebaseCooldown: DefaultRankRebaseCooldown,
	}

	if raw.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if raw.RankFractionFloor != nil {
		cfg.RankFractionFloor = *raw.RankFractionFloor
	}
	if raw.RankRebaseCooldownS > 0 {
		cfg.RankRebaseCooldown = time.Duration(raw.RankRebaseCooldownS) * time.Second
	}

	cfg.Queues = make([]Queue, 0, len(raw.Queues))
	for _, q := range raw.Queues {
		if q.QueueID == "" {
			return Config{}, fmt.Errorf("queue entry missing queueId")
		}
		cfg.Queues = append(cfg.Queues, Queue{QueueID: q.QueueID, Alias: q.Alias})
	}

	return cfg, nil
}

// Equal reports whether two configs would produce an equivalent watcher,
// used by FileWatcher to skip republishing when a reload changes nothing
// observable.
func (c Config) Equal(other Config) bool {
	if c.PollInterval != other.PollInterval ||
		c.GatewayVersion != other.GatewayVersion ||
		c.Debug != other.Debug ||
		c.RankFractionFloor != other.RankFractionFloor ||
		c.RankRebaseCooldown != other.RankRebaseCooldown ||
		len(c.Queues) != len(other.Queues) {
		return false
	}
	for i, q := range c.Queues {
		if q != other.Queues[i] {
			return false
		}
	}
	return true
}
