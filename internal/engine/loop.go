package engine

import (
	"context"
	"time"

	"github.com/tamaverse/petgotchi/internal/clock"
	"github.com/tamaverse/petgotchi/internal/platform/logger"
)

// Online tick cadences. Stats advance once per second; age on its own
// faster ticker so the pet visibly ages between stat ticks.
const (
	StatTickRate = 1 * time.Second
	AgeTickRate  = 250 * time.Millisecond
)

// Loop is the online simulation heartbeat. It does NOT know about needs or
// catastrophes, only cadence: each tick hands the current time to the
// controller, which applies the same rules as the offline replay at finer
// granularity.
type Loop struct {
	ctrl     *Controller
	clk      clock.Clock
	logger   *logger.Logger
	stopChan chan struct{}
}

// NewLoop creates the online simulation loop.
func NewLoop(ctrl *Controller, clk clock.Clock, log *logger.Logger) *Loop {
	return &Loop{
		ctrl:     ctrl,
		clk:      clk,
		logger:   log,
		stopChan: make(chan struct{}),
	}
}

// Start runs the loop until the context is cancelled or Stop is called.
// The offline replay is completed and applied synchronously before the
// first tick fires, so the two paths never run concurrently. Call in a
// goroutine.
func (l *Loop) Start(ctx context.Context) {
	l.ctrl.StartSession()
	l.logger.Info("Simulation loop started.")

	statTicker := time.NewTicker(StatTickRate)
	defer statTicker.Stop()
	ageTicker := time.NewTicker(AgeTickRate)
	defer ageTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Simulation loop stopped by context.")
			return
		case <-l.stopChan:
			l.logger.Info("Simulation loop stopped manually.")
			return
		case <-statTicker.C:
			l.ctrl.Tick(l.clk.Now())
		case <-ageTicker.C:
			l.ctrl.TickAge(l.clk.Now())
		}
	}
}

// Stop halts the loop. Stopping simply stops scheduling further ticks;
// each tick is a fast synchronous computation with nothing in flight.
func (l *Loop) Stop() {
	close(l.stopChan)
}
