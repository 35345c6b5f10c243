package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/carebridge/payroll-engine/payroll"
)

func week(y int, m time.Month, d int) payroll.Period {
	start := payroll.NewDate(y, m, d)
	return payroll.Period{Start: start, End: start.AddDays(6)}
}

func entry(day payroll.Date, start, end string) payroll.AttendanceEntry {
	return payroll.AttendanceEntry{AssignmentID: "asg-1", Date: day, StartTime: start, EndTime: end}
}

func eightHours() decimal.Decimal { return decimal.NewFromInt(8) }

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestAggregateAttendance_FullWeek(t *testing.T) {
	window := week(2024, time.January, 1)
	var entries []payroll.AttendanceEntry
	for _, d := range window.Days() {
		entries = append(entries, entry(d, "09:00", "17:00"))
	}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	if sum.DaysWorked != 7 {
		t.Errorf("DaysWorked = %d, want 7", sum.DaysWorked)
	}
	if !sum.BillableHours.Equal(decimal.NewFromInt(56)) {
		t.Errorf("BillableHours = %v, want 56", sum.BillableHours)
	}
	if len(sum.AbsentDates) != 0 {
		t.Errorf("AbsentDates = %v, want none", sum.AbsentDates)
	}
}

func TestAggregateAttendance_OvertimeCapped(t *testing.T) {
	// GIVEN: a 12-hour recorded day against an 8-hour standard shift
	// THEN: only the standard shift is billable
	window := week(2024, time.January, 1)
	entries := []payroll.AttendanceEntry{entry(window.Start, "08:00", "20:00")}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	if !sum.BillableHours.Equal(eightHours()) {
		t.Errorf("BillableHours = %v, want 8 (capped)", sum.BillableHours)
	}
	if sum.DaysWorked != 1 {
		t.Errorf("DaysWorked = %d, want 1", sum.DaysWorked)
	}
}

func TestAggregateAttendance_MissingTime_CountsDayButNoHours(t *testing.T) {
	// GIVEN: an entry missing its end time
	// THEN: the date is present (not absent) but contributes no hours,
	//       and the anomaly is counted so it is never silently
	//       indistinguishable from a legitimate zero
	window := week(2024, time.January, 1)
	entries := []payroll.AttendanceEntry{entry(window.Start, "09:00", "")}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	if sum.MissingTimeCount != 1 {
		t.Errorf("MissingTimeCount = %d, want 1", sum.MissingTimeCount)
	}
	if sum.DaysWorked != 0 {
		t.Errorf("DaysWorked = %d, want 0", sum.DaysWorked)
	}
	if !sum.BillableHours.IsZero() {
		t.Errorf("BillableHours = %v, want 0", sum.BillableHours)
	}
	if len(sum.AbsentDates) != 6 {
		t.Errorf("AbsentDates = %d days, want 6 (present day excluded)", len(sum.AbsentDates))
	}
}

func TestAggregateAttendance_MalformedTimes_ZeroHourAnomaly(t *testing.T) {
	// Malformed time strings parse to a zero duration; the entry is
	// classified zero-hour rather than erroring or paying.
	window := week(2024, time.January, 1)
	entries := []payroll.AttendanceEntry{
		entry(window.Start, "garbage", "17:00"),
		entry(window.Start.AddDays(1), "09:00", "09:00"),
	}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	if sum.ZeroHourCount != 2 {
		t.Errorf("ZeroHourCount = %d, want 2", sum.ZeroHourCount)
	}
	if sum.DaysWorked != 0 || !sum.BillableHours.IsZero() {
		t.Errorf("worked %d days / %v hours, want nothing billable", sum.DaysWorked, sum.BillableHours)
	}
}

func TestAggregateAttendance_OvernightShift(t *testing.T) {
	window := week(2024, time.January, 1)
	entries := []payroll.AttendanceEntry{entry(window.Start, "22:00", "06:00")}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	if !sum.BillableHours.Equal(eightHours()) {
		t.Errorf("BillableHours = %v, want 8 (overnight wrap)", sum.BillableHours)
	}
}

func TestAggregateAttendance_EntriesOutsideWindowIgnored(t *testing.T) {
	window := week(2024, time.January, 8)
	entries := []payroll.AttendanceEntry{
		entry(payroll.NewDate(2024, time.January, 7), "09:00", "17:00"),  // day before
		entry(payroll.NewDate(2024, time.January, 15), "09:00", "17:00"), // day after
		entry(payroll.NewDate(2024, time.January, 10), "09:00", "17:00"), // inside
	}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	if sum.DaysWorked != 1 {
		t.Errorf("DaysWorked = %d, want 1", sum.DaysWorked)
	}
}

func TestAggregateAttendance_AbsenceDetection(t *testing.T) {
	// GIVEN: a week with attendance on days 1, 3 and 5 only
	// THEN: the remaining 4 window dates are absent, ascending
	window := week(2024, time.January, 1)
	entries := []payroll.AttendanceEntry{
		entry(window.Start, "09:00", "17:00"),
		entry(window.Start.AddDays(2), "09:00", "17:00"),
		entry(window.Start.AddDays(4), "09:00", "17:00"),
	}

	sum := payroll.AggregateAttendance(entries, window, eightHours())

	want := []string{"2024-01-02", "2024-01-04", "2024-01-06", "2024-01-07"}
	if len(sum.AbsentDates) != len(want) {
		t.Fatalf("AbsentDates = %v, want %v", sum.AbsentDates, want)
	}
	for i, d := range sum.AbsentDates {
		if d.String() != want[i] {
			t.Errorf("AbsentDates[%d] = %s, want %s", i, d, want[i])
		}
	}
}

func TestAggregateAttendance_EmptyWindow_AllAbsent(t *testing.T) {
	window := week(2024, time.January, 1)

	sum := payroll.AggregateAttendance(nil, window, eightHours())

	if len(sum.AbsentDates) != 7 {
		t.Errorf("AbsentDates = %d days, want 7", len(sum.AbsentDates))
	}
	if !sum.BillableHours.IsZero() {
		t.Errorf("BillableHours = %v, want 0", sum.BillableHours)
	}
}
