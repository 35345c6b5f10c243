package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carebridge/payroll-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func testAssignment(start payroll.Date) payroll.Assignment {
	return payroll.Assignment{
		ID:           "asg-1",
		NurseID:      "nurse-1",
		ClientID:     "client-1",
		StartDate:    start,
		SalaryPerDay: decimal.NewFromInt(800),
		ShiftStart:   "09:00",
		ShiftEnd:     "17:00",
	}
}

func date(y int, m time.Month, d int) payroll.Date { return payroll.NewDate(y, m, d) }

// =============================================================================
// CYCLE RESOLUTION
// =============================================================================

func TestResolveCycle_NoHistory_StartsAtAssignmentStart(t *testing.T) {
	// GIVEN: assignment starting 2024-01-01 with no payment history
	// WHEN: resolving well after the first cycle has elapsed
	// THEN: the window is the first 28 days of the assignment
	a := testAssignment(date(2024, time.January, 1))

	res := payroll.ResolveCycle(a, nil, date(2024, time.March, 1))

	if res.Status != payroll.CycleDue {
		t.Fatalf("status = %v, want CycleDue", res.Status)
	}
	if !res.Window.Start.Equal(date(2024, time.January, 1)) {
		t.Errorf("window start = %s, want 2024-01-01", res.Window.Start)
	}
	if !res.Window.End.Equal(date(2024, time.January, 28)) {
		t.Errorf("window end = %s, want 2024-01-28", res.Window.End)
	}
}

func TestResolveCycle_CatchUp_ResumesAfterLastPaidEnd(t *testing.T) {
	// GIVEN: last paid cycle ended 2024-01-28, and months have elapsed
	// WHEN: resolving today
	// THEN: the next cycle starts exactly on 2024-01-29 regardless of
	//       how much real time has passed
	a := testAssignment(date(2024, time.January, 1))
	lastPaid := date(2024, time.January, 28)

	res := payroll.ResolveCycle(a, &lastPaid, date(2024, time.June, 15))

	if res.Status != payroll.CycleDue {
		t.Fatalf("status = %v, want CycleDue", res.Status)
	}
	if !res.Window.Start.Equal(date(2024, time.January, 29)) {
		t.Errorf("window start = %s, want 2024-01-29", res.Window.Start)
	}
	if !res.Window.End.Equal(date(2024, time.February, 25)) {
		t.Errorf("window end = %s, want 2024-02-25", res.Window.End)
	}
}

func TestResolveCycle_HistoryBeforeAssignmentStart_ClampsToStart(t *testing.T) {
	// GIVEN: payment history from an earlier assignment ending before
	//        this assignment began
	// WHEN: resolving
	// THEN: the cycle never starts before the assignment start date
	a := testAssignment(date(2024, time.March, 1))
	lastPaid := date(2024, time.January, 31)

	res := payroll.ResolveCycle(a, &lastPaid, date(2024, time.June, 1))

	if !res.Window.Start.Equal(date(2024, time.March, 1)) {
		t.Errorf("window start = %s, want 2024-03-01", res.Window.Start)
	}
}

func TestResolveCycle_WindowNotElapsed_NotDue(t *testing.T) {
	// A cycle is never due while its end is still in the future.
	a := testAssignment(date(2024, time.January, 1))

	res := payroll.ResolveCycle(a, nil, date(2024, time.January, 27))

	if res.Status != payroll.CycleNotYetDue {
		t.Fatalf("status = %v, want CycleNotYetDue", res.Status)
	}
}

func TestResolveCycle_WindowEndsToday_Due(t *testing.T) {
	// The window becomes due the day it fully elapses (end == today).
	a := testAssignment(date(2024, time.January, 1))

	res := payroll.ResolveCycle(a, nil, date(2024, time.January, 28))

	if res.Status != payroll.CycleDue {
		t.Fatalf("status = %v, want CycleDue", res.Status)
	}
}

func TestResolveCycle_StartInFuture_NotDue(t *testing.T) {
	a := testAssignment(date(2024, time.July, 1))

	res := payroll.ResolveCycle(a, nil, date(2024, time.June, 1))

	if res.Status != payroll.CycleNotYetDue {
		t.Fatalf("status = %v, want CycleNotYetDue", res.Status)
	}
}

func TestResolveCycle_ClippedToAssignmentEnd(t *testing.T) {
	// GIVEN: assignment ending mid-cycle
	// THEN: the window is clipped to the assignment end date
	a := testAssignment(date(2024, time.January, 1))
	end := date(2024, time.January, 15)
	a.EndDate = &end

	res := payroll.ResolveCycle(a, nil, date(2024, time.February, 1))

	if res.Status != payroll.CycleDue {
		t.Fatalf("status = %v, want CycleDue", res.Status)
	}
	if !res.Window.End.Equal(end) {
		t.Errorf("window end = %s, want %s", res.Window.End, end)
	}
}

func TestResolveCycle_EndedAssignmentFullyPaid_AlreadyPaid(t *testing.T) {
	// GIVEN: assignment ended and the final clipped cycle is already
	//        covered by payment history
	// THEN: the resolver reports already-paid, not due - the mechanism
	//       that prevents reprocessing the same terminal cycle forever
	a := testAssignment(date(2024, time.January, 1))
	end := date(2024, time.February, 10)
	a.EndDate = &end
	lastPaid := date(2024, time.February, 10)

	res := payroll.ResolveCycle(a, &lastPaid, date(2024, time.June, 1))

	if res.Status != payroll.CycleAlreadyPaid {
		t.Fatalf("status = %v, want CycleAlreadyPaid", res.Status)
	}
}

func TestResolveCycle_SequentialCycles_NoOverlap(t *testing.T) {
	// Resolving, paying, and resolving again walks contiguous windows.
	a := testAssignment(date(2024, time.January, 1))
	today := date(2024, time.December, 31)

	var lastPaid *payroll.Date
	var prevEnd payroll.Date
	for i := 0; i < 5; i++ {
		res := payroll.ResolveCycle(a, lastPaid, today)
		if res.Status != payroll.CycleDue {
			t.Fatalf("cycle %d: status = %v, want CycleDue", i, res.Status)
		}
		if i > 0 && !res.Window.Start.Equal(prevEnd.AddDays(1)) {
			t.Errorf("cycle %d starts %s, want %s", i, res.Window.Start, prevEnd.AddDays(1))
		}
		if got := payroll.DaysBetween(res.Window.Start, res.Window.End); got != payroll.CycleLengthDays-1 {
			t.Errorf("cycle %d spans %d days, want %d", i, got+1, payroll.CycleLengthDays)
		}
		prevEnd = res.Window.End
		end := res.Window.End
		lastPaid = &end
	}
}
