/*
run.go - The batch orchestrator

PURPOSE:
  One invocation of the payroll cycle engine. Loads assignments and
  payment history concurrently, loops assignments sequentially, isolates
  per-assignment failures, and commits all computed rows plus a run log
  in a single atomic batch.

STATE MACHINE:
  processing -> success | failed

  - success: the loads and the final commit worked, even if individual
    assignments failed (those are reported in Errors).
  - failed: a run-level load or commit failed, or a run was already in
    progress. Nothing is committed.

SERIALIZATION:
  Runs are strictly serialized by an engine-level mutex; a second
  trigger while a run is active fails fast with ErrRunInProgress rather
  than queueing. The store's (nurse, pay period end) uniqueness guard
  backs this up at write time.

BUDGET:
  An optional wall-clock budget bounds the run. The deadline is checked
  between assignments - never mid-assignment - so a timed-out run still
  honors the partial-failure contract: assignments processed so far are
  intact, the rest wait for the next run, and catch-up resumes them.

SEE ALSO:
  - cycle.go, attendance.go, compensation.go: the per-assignment pipeline
  - store.go: the persistence boundary
*/
package payroll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

var idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

// nextID returns a process-unique identifier with a readable prefix.
// NewSonyflake returns nil on hosts without a private IPv4 address, and
// the worker can also exhaust its sequence space; both fall back to a
// timestamp id rather than failing the run.
func nextID(prefix string) string {
	if idWorker == nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	id, err := idWorker.NextID()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d", prefix, id)
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs the payroll cycle calculation as a non-reentrant batch.
type Engine struct {
	Store    Store
	Rounding RoundingPolicy

	// Budget bounds one run's wall-clock time. Zero means no limit.
	Budget time.Duration

	Log *logrus.Logger

	mu sync.Mutex
}

// NewEngine creates an engine with the canonical rounding policy.
func NewEngine(store Store) *Engine {
	return &Engine{
		Store:    store,
		Rounding: DefaultRounding,
		Log:      logrus.StandardLogger(),
	}
}

// Run executes one payroll batch as of the given date. Pass Today() for
// a scheduled run, or an earlier date to re-process.
func (e *Engine) Run(ctx context.Context, asOf Date) RunSummary {
	if !e.mu.TryLock() {
		return RunSummary{Success: false, Errors: []string{ErrRunInProgress.Error()}}
	}
	defer e.mu.Unlock()

	if e.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Budget)
		defer cancel()
	}

	startedAt := time.Now()
	e.Log.WithField("as_of", asOf.String()).Info("payroll run started")

	assignments, lastPaid, err := e.loadInputs(ctx)
	if err != nil {
		e.Log.WithError(err).Error("payroll run failed to load inputs")
		return RunSummary{Success: false, Errors: []string{err.Error()}}
	}

	var (
		records   []ComputedCycleResult
		runErrors []string
		processed int
	)
	// A nurse can hold several assignments; the summary counts nurses,
	// not loop iterations.
	nurses := make(map[NurseID]struct{})

	for _, a := range assignments {
		// The budget is enforced between assignments only, preserving
		// per-assignment atomicity.
		if err := ctx.Err(); err != nil {
			runErrors = append(runErrors, fmt.Sprintf("run budget exhausted after %d assignment(s): %v", processed, err))
			break
		}

		record, err := e.processAssignment(ctx, a, lastPaid, asOf)
		processed++
		nurses[a.NurseID] = struct{}{}
		if err != nil {
			runErrors = append(runErrors, err.Error())
			e.Log.WithError(err).WithFields(logrus.Fields{
				"assignment": a.ID,
				"nurse":      a.NurseID,
			}).Warn("assignment skipped")
			continue
		}
		if record != nil {
			records = append(records, *record)
		}
	}

	if len(records) > 0 {
		log := RunLog{
			ID:              nextID("run"),
			RunDate:         startedAt.UTC(),
			ExecutionStatus: RunSuccess,
			NursesProcessed: len(nurses),
			RecordsInserted: len(records),
			CreatedAt:       time.Now().UTC(),
		}
		if err := e.Store.CommitRun(ctx, records, log); err != nil {
			e.Log.WithError(err).Error("payroll run failed to commit")
			return RunSummary{
				Success:               false,
				ProcessedNurseCount:   len(nurses),
				CalculatedRecordCount: 0,
				Errors:                append(runErrors, err.Error()),
			}
		}
	}

	e.Log.WithFields(logrus.Fields{
		"assignments": processed,
		"nurses":      len(nurses),
		"records":     len(records),
		"errors":      len(runErrors),
		"elapsed":     time.Since(startedAt).String(),
	}).Info("payroll run completed")

	return RunSummary{
		Success:               true,
		ProcessedNurseCount:   len(nurses),
		CalculatedRecordCount: len(records),
		Errors:                runErrors,
	}
}

// loadInputs issues the two independent initial reads concurrently and
// joins them. This avoids serializing two I/O round trips; it is not a
// general concurrency strategy, and the assignment loop stays
// sequential.
func (e *Engine) loadInputs(ctx context.Context) ([]Assignment, map[NurseID]Date, error) {
	var (
		wg          sync.WaitGroup
		assignments []Assignment
		lastPaid    map[NurseID]Date
		loadErrs    [2]error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		assignments, loadErrs[0] = e.Store.ListEligibleAssignments(ctx)
	}()
	go func() {
		defer wg.Done()
		lastPaid, loadErrs[1] = e.Store.LatestPayPeriodEnds(ctx)
	}()
	wg.Wait()

	for _, err := range loadErrs {
		if err != nil {
			return nil, nil, fmt.Errorf("loading run inputs: %w", err)
		}
	}
	return assignments, lastPaid, nil
}

// processAssignment runs the per-assignment pipeline: resolve the
// cycle, aggregate attendance, compute compensation. Returns (nil, nil)
// when there is nothing due or nothing worked.
func (e *Engine) processAssignment(ctx context.Context, a Assignment, lastPaid map[NurseID]Date, asOf Date) (*ComputedCycleResult, error) {
	if !a.PayrollEligible() {
		// Store queries filter these already; skip silently if one
		// slips through rather than erroring a half-configured contract.
		return nil, nil
	}

	var lastPaidEnd *Date
	if end, ok := lastPaid[a.NurseID]; ok {
		lastPaidEnd = &end
	}

	resolution := ResolveCycle(a, lastPaidEnd, asOf)
	if resolution.Status != CycleDue {
		e.Log.WithFields(logrus.Fields{
			"assignment": a.ID,
			"status":     resolution.Status.String(),
		}).Debug("cycle not processed")
		return nil, nil
	}

	entries, err := e.Store.LoadAttendance(ctx, a.ID, resolution.Window.Start, resolution.Window.End)
	if err != nil {
		return nil, &AssignmentError{AssignmentID: a.ID, NurseID: a.NurseID,
			Err: fmt.Errorf("loading attendance: %w", err)}
	}

	summary := AggregateAttendance(entries, resolution.Window, a.StandardShiftHours())

	record, err := ComputeCompensation(a, resolution.Window, summary, e.Rounding)
	if err != nil {
		return nil, &AssignmentError{AssignmentID: a.ID, NurseID: a.NurseID, Err: err}
	}
	if record == nil {
		// Entirely unworked cycle: intentionally no row.
		return nil, nil
	}

	record.ID = nextID("pay")
	record.CreatedAt = time.Now().UTC()
	return record, nil
}
