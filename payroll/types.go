/*
Package payroll implements the pay-cycle calculation engine.

PURPOSE:
  For every active nurse-client assignment, the engine resolves the next
  unpaid 28-day pay cycle, aggregates attendance inside that window,
  converts worked hours into billable hours and gross pay, and persists a
  pending salary-payment record plus a log row for the run.

KEY CONCEPTS IN THIS FILE (types.go):
  - Assignment: a nurse's contracted placement (shift times, daily rate)
  - AttendanceEntry: one recorded day of presence for an assignment
  - ComputedCycleResult: the engine's output, one row per paid cycle
  - RunLog / RunSummary: per-invocation bookkeeping

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all money and hour arithmetic
  2. Type Safety: strong ID types prevent mixing nurse/assignment ids
  3. Purity: resolver, aggregator and calculator are pure functions; all
     I/O lives behind the store interfaces in store.go
  4. Auditability: every computed cycle carries a human-readable summary
     of how its numbers were derived

SEE ALSO:
  - cycle.go: pay-cycle resolution
  - attendance.go: attendance aggregation
  - compensation.go: billable hours, rounding policy, gross pay
  - run.go: the batch orchestrator
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type NurseID string
type AssignmentID string
type ClientID string

// =============================================================================
// ASSIGNMENT - A nurse's contracted placement with a client
// =============================================================================

// Assignment defines one nurse-to-client work contract. ShiftStart and
// ShiftEnd are local times of day in "HH:MM" form; a shift whose end is
// earlier than its start wraps past midnight (e.g. 22:00-06:00).
type Assignment struct {
	ID           AssignmentID
	NurseID      NurseID
	ClientID     ClientID
	StartDate    Date
	EndDate      *Date // nil = open-ended
	SalaryPerDay decimal.Decimal
	ShiftStart   string
	ShiftEnd     string

	CreatedAt time.Time
}

// StandardShiftHours returns the contracted shift length in hours.
// Malformed shift times yield zero; callers must treat zero as an
// invalid configuration, never as a free shift.
func (a Assignment) StandardShiftHours() decimal.Decimal {
	return ShiftDuration(a.ShiftStart, a.ShiftEnd)
}

// PayrollEligible reports whether the assignment can be processed at all.
// Ineligible assignments are skipped silently by the resolver.
func (a Assignment) PayrollEligible() bool {
	return a.SalaryPerDay.IsPositive() && a.ShiftStart != "" && a.ShiftEnd != ""
}

// =============================================================================
// ATTENDANCE ENTRY - One calendar day's recorded presence
// =============================================================================

// AttendanceEntry is produced by the check-in flows and consumed
// read-only here. Either time may be empty, signaling a malformed entry
// that consumes a cycle day but contributes no hours.
type AttendanceEntry struct {
	AssignmentID AssignmentID
	Date         Date
	StartTime    string
	EndTime      string
}

// =============================================================================
// COMPUTED CYCLE RESULT - The engine's persisted output
// =============================================================================

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved" // set by downstream approval flow
	PaymentPaid     PaymentStatus = "paid"     // set by downstream payment flow
)

// ComputedCycleResult is one salary-payment row. The engine creates it
// with PaymentStatus = pending and Reviewed = false; later status
// transitions belong to the approval workflow and are never read here.
type ComputedCycleResult struct {
	ID             string
	NurseID        NurseID
	AssignmentID   AssignmentID
	PayPeriodStart Date
	PayPeriodEnd   Date
	DaysWorked     int
	HoursWorked    decimal.Decimal
	Salary         decimal.Decimal
	PaymentStatus  PaymentStatus
	Info           string
	Reviewed       bool
	CreatedAt      time.Time
}

// =============================================================================
// RUN LOG - One row per batch invocation, never mutated
// =============================================================================

type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

type RunLog struct {
	ID              string
	RunDate         time.Time
	ExecutionStatus RunStatus
	NursesProcessed int
	RecordsInserted int
	CreatedAt       time.Time
}

// =============================================================================
// RUN SUMMARY - The orchestrator's response contract
// =============================================================================

// RunSummary is returned by Engine.Run. Success reflects run-level
// health only; per-assignment failures are isolated into Errors and do
// not fail the run. ProcessedNurseCount counts distinct nurses, so a
// nurse holding several assignments counts once.
type RunSummary struct {
	Success               bool     `json:"success"`
	ProcessedNurseCount   int      `json:"processed_nurse_count"`
	CalculatedRecordCount int      `json:"calculated_record_count"`
	Errors                []string `json:"errors,omitempty"`
}
