/*
compensation.go - Billable hours to gross pay

PURPOSE:
  Convert an attendance aggregate into the persisted payment figures:
  hourly rate, gross pay, and the final rounded hours/salary, plus the
  human-readable summary that travels with the row for auditability.

ROUNDING POLICY:
  Final hours and final salary are both CEILED to whole units, favoring
  the nurse on partial hours. The direction is a deliberate, named
  policy (CeilingRounding), not an incidental truncation; a test pins
  it. Changing the policy means swapping the RoundingPolicy value, not
  hunting float conversions.

EMPTY CYCLES:
  A cycle with no billable hours produces NO payment row. That skip is a
  first-class branch here, not an artifact of zeros propagating into a
  worthless record.
*/
package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ROUNDING POLICY
// =============================================================================

// RoundingPolicy converts exact billable figures into the whole units
// that are persisted and paid.
type RoundingPolicy interface {
	RoundHours(hours decimal.Decimal) decimal.Decimal
	RoundPay(pay decimal.Decimal) decimal.Decimal
}

// CeilingRounding rounds hours and pay up to the next whole unit.
type CeilingRounding struct{}

func (CeilingRounding) RoundHours(hours decimal.Decimal) decimal.Decimal { return hours.Ceil() }
func (CeilingRounding) RoundPay(pay decimal.Decimal) decimal.Decimal     { return pay.Ceil() }

// DefaultRounding is the engine's canonical policy.
var DefaultRounding RoundingPolicy = CeilingRounding{}

// =============================================================================
// COMPENSATION
// =============================================================================

// maxAbsentDatesInSummary caps how many absent dates are spelled out in
// the Info text; the rest collapse into a "+N more" suffix.
const maxAbsentDatesInSummary = 5

// ComputeCompensation turns an aggregated cycle into a payment record.
//
// Returns (nil, nil) for an entirely unworked cycle: no row is written
// and no error is raised. Returns an error only for an invalid shift
// configuration (standard shift hours <= 0), which the orchestrator
// records against the assignment without aborting the run.
func ComputeCompensation(a Assignment, window Period, summary AttendanceSummary, rounding RoundingPolicy) (*ComputedCycleResult, error) {
	standardHours := a.StandardShiftHours()
	if !standardHours.IsPositive() {
		return nil, &InvalidShiftError{
			AssignmentID: a.ID,
			ShiftStart:   a.ShiftStart,
			ShiftEnd:     a.ShiftEnd,
		}
	}

	if !summary.BillableHours.IsPositive() {
		// Entirely absent cycle: nothing to pay, nothing to persist.
		return nil, nil
	}

	hourlyRate := a.SalaryPerDay.Div(standardHours)
	grossPay := summary.BillableHours.Mul(hourlyRate)

	finalHours := rounding.RoundHours(summary.BillableHours)
	finalSalary := rounding.RoundPay(grossPay)

	return &ComputedCycleResult{
		NurseID:        a.NurseID,
		AssignmentID:   a.ID,
		PayPeriodStart: window.Start,
		PayPeriodEnd:   window.End,
		DaysWorked:     summary.DaysWorked,
		HoursWorked:    finalHours,
		Salary:         finalSalary,
		PaymentStatus:  PaymentPending,
		Info:           buildCycleInfo(a, window, summary, hourlyRate, grossPay, finalHours, finalSalary),
		Reviewed:       false,
	}, nil
}

// buildCycleInfo renders the audit summary persisted alongside the
// numeric fields. The rate arithmetic is spelled out so a reviewer can
// verify the figures without re-running the engine.
func buildCycleInfo(a Assignment, window Period, summary AttendanceSummary, hourlyRate, grossPay, finalHours, finalSalary decimal.Decimal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Cycle %s: worked %d day(s), %s billable hour(s).",
		window, summary.DaysWorked, summary.BillableHours)
	fmt.Fprintf(&b, " Rate: %s/day over %sh shift = %s/h.",
		a.SalaryPerDay, a.StandardShiftHours(), hourlyRate.Round(2))
	fmt.Fprintf(&b, " Pay: %s x %s/h = %s, payable %sh / %s.",
		summary.BillableHours, hourlyRate.Round(2), grossPay.Round(2), finalHours, finalSalary)

	if n := len(summary.AbsentDates); n > 0 {
		shown := summary.AbsentDates
		if len(shown) > maxAbsentDatesInSummary {
			shown = shown[:maxAbsentDatesInSummary]
		}
		formatted := make([]string, len(shown))
		for i, d := range shown {
			formatted[i] = d.String()
		}
		fmt.Fprintf(&b, " Absent %d day(s): %s", n, strings.Join(formatted, ", "))
		if extra := n - len(shown); extra > 0 {
			fmt.Fprintf(&b, " +%d more", extra)
		}
		b.WriteString(".")
	}

	if summary.MissingTimeCount > 0 {
		fmt.Fprintf(&b, " %d entr(ies) missing a start or end time.", summary.MissingTimeCount)
	}
	if summary.ZeroHourCount > 0 {
		fmt.Fprintf(&b, " %d entr(ies) with a zero-duration shift.", summary.ZeroHourCount)
	}

	return b.String()
}
