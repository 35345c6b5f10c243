// Package store provides an in-memory payroll.Store implementation for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/carebridge/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	assignments []payroll.Assignment
	attendance  map[payroll.AssignmentID][]payroll.AttendanceEntry
	payments    []payroll.ComputedCycleResult
	runs        []payroll.RunLog

	// paidPeriods indexes (nurse, pay period end) for the duplicate
	// guard, mirroring the sqlite UNIQUE constraint.
	paidPeriods map[paidKey]bool
}

type paidKey struct {
	NurseID payroll.NurseID
	End     string
}

func NewMemory() *Memory {
	return &Memory{
		attendance:  make(map[payroll.AssignmentID][]payroll.AttendanceEntry),
		paidPeriods: make(map[paidKey]bool),
	}
}

// =============================================================================
// FIXTURE HELPERS (writes outside the engine's contract)
// =============================================================================

func (m *Memory) AddAssignment(a payroll.Assignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = append(m.assignments, a)
}

func (m *Memory) AddAttendance(e payroll.AttendanceEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance[e.AssignmentID] = append(m.attendance[e.AssignmentID], e)
}

// SeedPayment records a pre-existing payment history row.
func (m *Memory) SeedPayment(nurseID payroll.NurseID, periodEnd payroll.Date) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, payroll.ComputedCycleResult{
		NurseID:       nurseID,
		PayPeriodEnd:  periodEnd,
		PaymentStatus: payroll.PaymentPaid,
	})
	m.paidPeriods[paidKey{nurseID, periodEnd.String()}] = true
}

// Payments returns a copy of all persisted payment rows.
func (m *Memory) Payments() []payroll.ComputedCycleResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.ComputedCycleResult, len(m.payments))
	copy(out, m.payments)
	return out
}

// Runs returns a copy of all run logs.
func (m *Memory) Runs() []payroll.RunLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]payroll.RunLog, len(m.runs))
	copy(out, m.runs)
	return out
}

// =============================================================================
// payroll.Store IMPLEMENTATION
// =============================================================================

func (m *Memory) ListEligibleAssignments(_ context.Context) ([]payroll.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var eligible []payroll.Assignment
	for _, a := range m.assignments {
		if a.PayrollEligible() {
			eligible = append(eligible, a)
		}
	}
	return eligible, nil
}

func (m *Memory) LoadAttendance(_ context.Context, id payroll.AssignmentID, from, to payroll.Date) ([]payroll.AttendanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []payroll.AttendanceEntry
	for _, e := range m.attendance[id] {
		if e.Date.AfterOrEqual(from) && e.Date.BeforeOrEqual(to) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

func (m *Memory) LatestPayPeriodEnds(_ context.Context) (map[payroll.NurseID]payroll.Date, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	latest := make(map[payroll.NurseID]payroll.Date)
	for _, p := range m.payments {
		if current, ok := latest[p.NurseID]; !ok || p.PayPeriodEnd.After(current) {
			latest[p.NurseID] = p.PayPeriodEnd
		}
	}
	return latest, nil
}

func (m *Memory) CommitRun(_ context.Context, records []payroll.ComputedCycleResult, log payroll.RunLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// All-or-nothing: validate the whole batch before writing anything.
	seen := make(map[paidKey]bool)
	for _, r := range records {
		k := paidKey{r.NurseID, r.PayPeriodEnd.String()}
		if m.paidPeriods[k] || seen[k] {
			return payroll.ErrDuplicatePayPeriod
		}
		seen[k] = true
	}

	for _, r := range records {
		m.payments = append(m.payments, r)
		m.paidPeriods[paidKey{r.NurseID, r.PayPeriodEnd.String()}] = true
	}
	m.runs = append(m.runs, log)
	return nil
}

func (m *Memory) LatestRunLog(_ context.Context) (*payroll.RunLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.runs) == 0 {
		return nil, nil
	}
	latest := m.runs[0]
	for _, r := range m.runs[1:] {
		if r.RunDate.After(latest.RunDate) {
			latest = r
		}
	}
	return &latest, nil
}

func (m *Memory) ListRunLogs(_ context.Context, limit int) ([]payroll.RunLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]payroll.RunLog, len(m.runs))
	copy(out, m.runs)
	sort.Slice(out, func(i, j int) bool { return out[i].RunDate.After(out[j].RunDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
