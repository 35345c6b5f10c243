/*
store.go - Persistence interfaces for the payroll engine

PURPOSE:
  Defines the boundary between the engine and the database. The engine
  reads assignments, attendance and payment history, and commits one
  batch of payment rows plus a run log per invocation. Different
  implementations back this with SQLite or in-memory storage.

WRITE CONTRACT:
  CommitRun is the ONLY write the engine performs, and it is atomic:
  either every payment row and the run log land together, or nothing
  does. There is no partial commit for a run. Implementations must also
  enforce uniqueness on (nurse, pay period end) and surface violations
  as ErrDuplicatePayPeriod - the second line of defense, after run
  serialization, against two overlapping runs paying the same cycle.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite (UNIQUE index enforces the guard)
  - payroll/store: in-memory, for tests and dev

SEE ALSO:
  - run.go: the only consumer of these interfaces
  - errors.go: ErrDuplicatePayPeriod
*/
package payroll

import "context"

// AssignmentStore loads the assignments a run iterates.
type AssignmentStore interface {
	// ListEligibleAssignments returns assignments that can be processed:
	// positive daily salary and both shift times present. Ineligible
	// rows are filtered at the source, not error'd on.
	ListEligibleAssignments(ctx context.Context) ([]Assignment, error)
}

// AttendanceStore loads recorded presence for one assignment. The
// engine issues one ranged query per due assignment.
type AttendanceStore interface {
	// LoadAttendance returns entries for the assignment with dates in
	// [from, to], ascending.
	LoadAttendance(ctx context.Context, id AssignmentID, from, to Date) ([]AttendanceEntry, error)
}

// PaymentStore reads payment history and commits run output.
type PaymentStore interface {
	// LatestPayPeriodEnds reduces payment history to the most recent pay
	// period end per nurse. Built once per run from a single ordered
	// query and passed by value into the resolver.
	LatestPayPeriodEnds(ctx context.Context) (map[NurseID]Date, error)

	// CommitRun persists all payment rows computed by one run together
	// with its run log, atomically. A duplicate (nurse, pay period end)
	// anywhere in the batch fails the whole commit with
	// ErrDuplicatePayPeriod.
	CommitRun(ctx context.Context, records []ComputedCycleResult, log RunLog) error
}

// RunLogStore reads run history. Run logs are written only through
// PaymentStore.CommitRun and never mutated.
type RunLogStore interface {
	// LatestRunLog returns the most recent run log, or nil when no run
	// has ever completed.
	LatestRunLog(ctx context.Context) (*RunLog, error)

	// ListRunLogs returns up to limit run logs, most recent first.
	ListRunLogs(ctx context.Context, limit int) ([]RunLog, error)
}

// Store bundles everything the engine needs.
type Store interface {
	AssignmentStore
	AttendanceStore
	PaymentStore
	RunLogStore
}
