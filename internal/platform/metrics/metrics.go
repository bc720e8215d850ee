// Package metrics provides observability for the pet server.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance counters for the simulation.
type Collector struct {
	// Online tick metrics
	TickCount      int64
	TickLatencySum int64 // nanoseconds
	TickLatencyMax int64
	LastTickTime   time.Time

	// Offline replay metrics
	ReplayRuns   int64
	ReplaySteps  int64
	ReplayDeaths int64

	// Event metrics
	EventsWritten    int64
	EventWriteErrors int64

	// Persistence metrics
	SavesWritten int64
	SaveErrors   int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordTick records a stat-tick completion.
func (c *Collector) RecordTick(latency time.Duration) {
	atomic.AddInt64(&c.TickCount, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordReplay records an offline catch-up run.
func (c *Collector) RecordReplay(steps int, died bool) {
	atomic.AddInt64(&c.ReplayRuns, 1)
	atomic.AddInt64(&c.ReplaySteps, int64(steps))
	if died {
		atomic.AddInt64(&c.ReplayDeaths, 1)
	}
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordSave records a snapshot write to the database.
func (c *Collector) RecordSave(err error) {
	atomic.AddInt64(&c.SavesWritten, 1)
	if err != nil {
		atomic.AddInt64(&c.SaveErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tickCount := atomic.LoadInt64(&c.TickCount)

	var tickAvg float64
	if tickCount > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(tickCount) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"tick": map[string]interface{}{
			"count":          tickCount,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"replay": map[string]interface{}{
			"runs":   atomic.LoadInt64(&c.ReplayRuns),
			"steps":  atomic.LoadInt64(&c.ReplaySteps),
			"deaths": atomic.LoadInt64(&c.ReplayDeaths),
		},

		"events": map[string]interface{}{
			"written": atomic.LoadInt64(&c.EventsWritten),
			"errors":  atomic.LoadInt64(&c.EventWriteErrors),
		},

		"saves": map[string]interface{}{
			"written": atomic.LoadInt64(&c.SavesWritten),
			"errors":  atomic.LoadInt64(&c.SaveErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}
