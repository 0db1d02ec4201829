package compactor

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/flashflood/pkg/flashflood"
	"github.com/cuemby/flashflood/pkg/log"
	"github.com/cuemby/flashflood/pkg/metrics"
	"github.com/rs/zerolog"
)

const (
	// DefaultInterval is how often Compactor ticks when Config.Interval is zero.
	DefaultInterval = 30 * time.Second

	// DefaultMinimumNumberOfEvents is the Journal threshold used when
	// Config.MinimumNumberOfEvents is zero.
	DefaultMinimumNumberOfEvents = 100

	// DefaultUpdatesPerCycle bounds how many update markers Update applies
	// in a single tick when Config.UpdatesPerCycle is zero.
	DefaultUpdatesPerCycle = 1000
)

// Config controls Compactor's tick behavior.
type Config struct {
	// Interval between compaction cycles.
	Interval time.Duration

	// MinimumNumberOfEvents is the Journal backlog threshold.
	MinimumNumberOfEvents int

	// MinimumSize is the Journal backlog size threshold, in bytes.
	MinimumSize int64

	// UpdatesPerCycle bounds how many update markers are applied per tick.
	UpdatesPerCycle int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.MinimumNumberOfEvents <= 0 {
		c.MinimumNumberOfEvents = DefaultMinimumNumberOfEvents
	}
	if c.UpdatesPerCycle <= 0 {
		c.UpdatesPerCycle = DefaultUpdatesPerCycle
	}
	return c
}

// Compactor periodically runs Journal followed by Update against an
// engine, so new journals get combined and pending update markers get
// folded in without a caller driving it by hand.
type Compactor struct {
	engine *flashflood.FlashFlood
	config Config
	logger zerolog.Logger

	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Compactor for engine. It does not start running until Start is called.
func New(engine *flashflood.FlashFlood, config Config) *Compactor {
	return &Compactor{
		engine: engine,
		config: config.withDefaults(),
		logger: log.WithComponent("compactor"),
	}
}

// Start launches the background tick loop. Calling Start twice without an
// intervening Stop is a no-op.
func (c *Compactor) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopCh != nil {
		return
	}
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.run(c.stopCh)
	metrics.RegisterComponent(metrics.ComponentCompactor, true, "compactor running")
	c.logger.Info().Dur("interval", c.config.Interval).Msg("compactor started")
}

// Stop halts the tick loop and waits for the in-flight cycle, if any, to finish.
func (c *Compactor) Stop() {
	c.mu.Lock()
	stopCh := c.stopCh
	c.stopCh = nil
	c.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	c.wg.Wait()
	metrics.UpdateComponent(metrics.ComponentCompactor, false, "compactor stopped")
	c.logger.Info().Msg("compactor stopped")
}

func (c *Compactor) run(stopCh chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			c.cycle()
		}
	}
}

// cycle runs one Journal+Update pass. A journaling error is expected
// whenever too few new journals have accumulated yet, so it is logged at
// debug level rather than treated as a failure.
func (c *Compactor) cycle() {
	ctx := context.Background()
	timer := metrics.NewTimer()
	defer timer.ObserveJournal()
	defer metrics.CompactorCyclesTotal.Inc()

	if err := c.engine.Journal(ctx, c.config.MinimumNumberOfEvents, c.config.MinimumSize); err != nil {
		if flashflood.IsJournalingError(err) {
			c.logger.Debug().Err(err).Msg("journal threshold not met")
		} else {
			c.logger.Error().Err(err).Msg("journal cycle failed")
		}
	}

	applied, err := c.engine.Update(ctx, c.config.UpdatesPerCycle)
	if err != nil {
		metrics.UpdateComponent(metrics.ComponentCompactor, false, err.Error())
		c.logger.Error().Err(err).Msg("update cycle failed")
		return
	}
	metrics.UpdateComponent(metrics.ComponentCompactor, true, "")
	if applied > 0 {
		c.logger.Debug().Int("applied", applied).Msg("applied update markers")
	}
}
