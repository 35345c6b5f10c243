/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All engine error types in one place. The taxonomy mirrors the run
  contract:

  1. Assignment-level errors (invalid shift configuration, attendance
     fetch failure, any per-assignment processing failure): recovered
     locally, appended to the run summary, never abort the run.
  2. Run-level errors (initial load failure, commit failure, overlapping
     run): fatal to the invocation; nothing is committed.
  3. Data-quality anomalies (missing times, zero-duration shifts) are
     NOT errors at all - they are absorbed into the cycle Info summary
     by the aggregator.

USAGE:
  if errors.Is(err, payroll.ErrDuplicatePayPeriod) { ... }
*/
package payroll

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidShiftConfig is returned when an assignment's shift times
	// yield a non-positive standard shift duration.
	ErrInvalidShiftConfig = errors.New("invalid shift configuration")

	// ErrDuplicatePayPeriod is returned when a payment row for the same
	// (nurse, pay period end) already exists. This is the write-time
	// guard against two overlapping runs double-paying a cycle.
	ErrDuplicatePayPeriod = errors.New("duplicate pay period")

	// ErrRunInProgress is returned when a run is triggered while another
	// run holds the engine. Runs are strictly serialized.
	ErrRunInProgress = errors.New("payroll run already in progress")

	// ErrAssignmentNotFound is returned when a referenced assignment
	// does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrPaymentNotFound is returned when a referenced payment record
	// does not exist.
	ErrPaymentNotFound = errors.New("payment record not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidShiftError reports an assignment whose configured shift cannot
// produce a positive duration (malformed or equal start/end times).
type InvalidShiftError struct {
	AssignmentID AssignmentID
	ShiftStart   string
	ShiftEnd     string
}

func (e *InvalidShiftError) Error() string {
	return fmt.Sprintf("assignment %s: shift %q-%q has no positive duration",
		e.AssignmentID, e.ShiftStart, e.ShiftEnd)
}

func (e *InvalidShiftError) Unwrap() error { return ErrInvalidShiftConfig }

// AssignmentError wraps any failure while processing one assignment,
// preserving which assignment and nurse it belongs to.
type AssignmentError struct {
	AssignmentID AssignmentID
	NurseID      NurseID
	Err          error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("assignment %s (nurse %s): %v", e.AssignmentID, e.NurseID, e.Err)
}

func (e *AssignmentError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsDuplicatePayPeriod reports whether the error is the write-time
// double-payment guard firing.
func IsDuplicatePayPeriod(err error) bool {
	return errors.Is(err, ErrDuplicatePayPeriod)
}

// IsAssignmentLevel reports whether the error is recoverable within a
// run (recorded and skipped) rather than fatal to it.
func IsAssignmentLevel(err error) bool {
	var ae *AssignmentError
	return errors.As(err, &ae) || errors.Is(err, ErrInvalidShiftConfig)
}
