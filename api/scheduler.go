/*
scheduler.go - Automated payroll run scheduler

PURPOSE:
  Periodically triggers the payroll engine and then evaluates the
  reminder thresholds. The external cron-equivalent for deployments
  that don't have one.

DESIGN:
  - Background goroutine with a configurable check interval
  - The engine itself decides what is due: a check that finds nothing
    due is a cheap no-op, so over-checking is safe and catch-up after
    downtime is automatic
  - Run serialization lives in the engine, not here; a slow run simply
    makes the next tick's trigger fail fast with ErrRunInProgress

USAGE:
  scheduler := NewPayrollScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carebridge/payroll-engine/payroll"
)

// PayrollScheduler triggers payroll runs and reminder checks on a
// fixed interval.
type PayrollScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool
	Log           *logrus.Logger

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPayrollScheduler creates a scheduler with a daily check interval.
func NewPayrollScheduler(handler *Handler) *PayrollScheduler {
	return &PayrollScheduler{
		Handler:       handler,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		Log:           logrus.StandardLogger(),
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ps *PayrollScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.Log.Info("payroll scheduler disabled, not starting")
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.wg.Add(1)

	go ps.run()

	ps.Log.WithField("interval", ps.CheckInterval.String()).Info("payroll scheduler started")
}

// Stop stops the scheduler.
func (ps *PayrollScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.Log.Info("payroll scheduler stopped")
	}
}

func (ps *PayrollScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.checkAndProcess()

	for {
		select {
		case <-ps.ticker.C:
			ps.checkAndProcess()
		case <-ps.stop:
			return
		}
	}
}

func (ps *PayrollScheduler) checkAndProcess() {
	ctx := context.Background()

	summary := ps.Handler.Engine.Run(ctx, payroll.Today())
	ps.Log.WithFields(logrus.Fields{
		"success":   summary.Success,
		"processed": summary.ProcessedNurseCount,
		"records":   summary.CalculatedRecordCount,
		"errors":    len(summary.Errors),
	}).Info("scheduled payroll run finished")

	if _, err := ps.Handler.Reminder.Check(ctx, time.Now().UTC()); err != nil {
		ps.Log.WithError(err).Warn("reminder check failed")
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (ps *PayrollScheduler) RunNow() {
	ps.checkAndProcess()
}
