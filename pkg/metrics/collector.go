package metrics

import (
	"time"

	"github.com/crewsync/crewsync/pkg/types"
)

// StatusSource reports the engine's computed status for gauge
// collection
type StatusSource interface {
	ValidateSyncStatus() types.SyncStatusReport
}

// Collector periodically samples engine status into the gauges
type Collector struct {
	source StatusSource
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector over a status source
func NewCollector(source StatusSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
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

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	status := c.source.ValidateSyncStatus()

	QueueDepth.Set(float64(status.QueueDepth))
	PendingUpdates.Set(float64(status.PendingUpdates))
	ConnectedClients.Set(float64(status.ConnectedClients))
	SyncLagSeconds.Set(status.SyncLag.Seconds())
	ErrorRate.Set(status.ErrorRate)
}
