/*
cycle.go - Pay-cycle resolution

PURPOSE:
  Given one assignment and the nurse's most recent paid period end,
  compute the next candidate pay cycle and decide whether it is due.

THE CATCH-UP PROPERTY:
  A missed scheduled run never loses cycles. The next cycle always
  starts exactly one day after the last paid period end, however much
  real time has passed. A run that fires late simply finds the oldest
  unpaid window still due and processes it; subsequent runs pick up the
  following windows one by one.

TAGGED RESULT:
  Resolution is an explicit three-way result rather than a pair of
  booleans, so the orchestrator branches on a type instead of
  re-deriving "due-ness" from dates:
    CycleNotYetDue  - window has not started or not fully elapsed
    CycleAlreadyPaid - window is covered by an existing payment
    CycleDue        - window fully elapsed and unpaid

SEE ALSO:
  - run.go: the orchestrator consuming resolutions
  - attendance.go: aggregation inside a due window
*/
package payroll

// CycleLengthDays is the inclusive length of one pay cycle.
const CycleLengthDays = 28

// =============================================================================
// PERIOD - A pay-cycle window [Start, End], both inclusive
// =============================================================================

type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date falls within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every calendar date in the period, ascending.
func (p Period) Days() []Date { return DatesInRange(p.Start, p.End) }

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// CYCLE RESOLUTION
// =============================================================================

type CycleStatus int

const (
	// CycleNotYetDue: the candidate window starts in the future or has
	// not fully elapsed. Nothing to process; not an error.
	CycleNotYetDue CycleStatus = iota

	// CycleAlreadyPaid: the candidate window is already covered by a
	// payment record. Nothing to process; not an error.
	CycleAlreadyPaid

	// CycleDue: the window has fully elapsed and is unpaid.
	CycleDue
)

func (s CycleStatus) String() string {
	switch s {
	case CycleNotYetDue:
		return "not_yet_due"
	case CycleAlreadyPaid:
		return "already_paid"
	case CycleDue:
		return "due"
	default:
		return "unknown"
	}
}

// CycleResolution is the resolver's result. Window is meaningful only
// when Status == CycleDue.
type CycleResolution struct {
	Status CycleStatus
	Window Period
}

// ResolveCycle computes the next candidate pay cycle for an assignment.
//
// lastPaidEnd is the nurse's most recent paid period end, or nil when no
// payment history exists. The resolver is pure: it reads nothing and
// writes nothing, so the orchestrator builds the history map once per
// run and passes values in.
//
// Rules:
//  1. The cycle starts at the assignment start date, or one day after
//     the last paid period end, whichever is later. A cycle never
//     starts before the assignment began, and always resumes exactly
//     where payment history left off.
//  2. A cycle starting after today is not yet due.
//  3. The cycle ends CycleLengthDays-1 days after it starts, clipped to
//     the assignment end date when one exists.
//  4. The cycle is due only once its end has fully elapsed (end <=
//     today) and it is not already covered by a payment.
func ResolveCycle(a Assignment, lastPaidEnd *Date, today Date) CycleResolution {
	cycleStart := a.StartDate
	if lastPaidEnd != nil {
		resumeAt := lastPaidEnd.AddDays(1)
		if resumeAt.After(cycleStart) {
			cycleStart = resumeAt
		}
	}

	if cycleStart.After(today) {
		return CycleResolution{Status: CycleNotYetDue}
	}

	cycleEnd := cycleStart.AddDays(CycleLengthDays - 1)
	if a.EndDate != nil && a.EndDate.Before(cycleEnd) {
		cycleEnd = *a.EndDate
	}

	window := Period{Start: cycleStart, End: cycleEnd}

	if cycleEnd.After(today) {
		return CycleResolution{Status: CycleNotYetDue, Window: window}
	}
	if lastPaidEnd != nil && !cycleEnd.After(*lastPaidEnd) {
		return CycleResolution{Status: CycleAlreadyPaid, Window: window}
	}
	return CycleResolution{Status: CycleDue, Window: window}
}
