package metrics

import "time"

// StatsProvider is implemented by the running engine so Collector can
// poll gauge values without metrics importing the engine package.
type StatsProvider interface {
	JournalCount() (int, error)
	SubscriberCount() int
}

// Collector periodically samples a StatsProvider into the gauge metrics.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector polling provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Collector{
		provider: provider,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if count, err := c.provider.JournalCount(); err == nil {
		JournalsTotal.Set(float64(count))
	}
	SubscribersTotal.Set(float64(c.provider.SubscriberCount()))
}
