/*
attendance.go - Attendance aggregation inside a resolved cycle

PURPOSE:
  Classify every attendance entry in a cycle window and accumulate
  billable hours. Data-quality problems (missing times, zero-duration
  shifts) are absorbed as counted anomalies rather than errors: a dirty
  check-in reduces billable hours and shows up in the cycle summary, but
  never fails the cycle.

CLASSIFICATION:
  present      - any entry for the date, regardless of data quality;
                 the date consumes a cycle day either way
  missing-time - an entry with an absent start or end time; no hours
  zero-hour    - an entry whose parsed duration is <= 0; no hours
  worked       - a well-formed entry; hours capped at the standard shift

  Dates in the window with no entry at all are absent. Absence is
  informational only; there is no penalty beyond the omitted hours.

SEE ALSO:
  - date.go: ShiftDuration (midnight wrap, malformed -> 0)
  - compensation.go: converts the aggregate into pay
*/
package payroll

import "github.com/shopspring/decimal"

// AttendanceSummary is the aggregate of one cycle window's entries.
type AttendanceSummary struct {
	// DaysWorked counts dates that contributed billable hours.
	DaysWorked int

	// BillableHours is the sum of per-day worked hours, each capped at
	// the standard shift length (overtime is not compensated).
	BillableHours decimal.Decimal

	// AbsentDates are window dates with no attendance entry at all.
	AbsentDates []Date

	// MissingTimeCount counts entries with an absent start or end time.
	MissingTimeCount int

	// ZeroHourCount counts entries whose recorded shift parsed to a
	// duration of zero or less (includes malformed time strings).
	ZeroHourCount int
}

// AggregateAttendance classifies every entry whose date falls inside the
// window and computes billable hours against the assignment's standard
// shift length. Entries outside the window are ignored.
func AggregateAttendance(entries []AttendanceEntry, window Period, standardShiftHours decimal.Decimal) AttendanceSummary {
	summary := AttendanceSummary{BillableHours: decimal.Zero}

	// A date is "present" the moment any entry exists for it, even a
	// malformed one: it consumes a day of the cycle either way.
	present := make(map[string]bool)

	for _, entry := range entries {
		if !window.Contains(entry.Date) {
			continue
		}
		present[entry.Date.String()] = true

		if entry.StartTime == "" || entry.EndTime == "" {
			summary.MissingTimeCount++
			continue
		}

		workedHours := ShiftDuration(entry.StartTime, entry.EndTime)
		if !workedHours.IsPositive() {
			summary.ZeroHourCount++
			continue
		}

		billable := workedHours
		if billable.GreaterThan(standardShiftHours) {
			billable = standardShiftHours
		}
		summary.BillableHours = summary.BillableHours.Add(billable)
		summary.DaysWorked++
	}

	for _, date := range window.Days() {
		if !present[date.String()] {
			summary.AbsentDates = append(summary.AbsentDates, date)
		}
	}

	return summary
}
