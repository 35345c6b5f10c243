package payroll

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DATE - Calendar day (the engine never needs finer granularity)
// =============================================================================

// Date is a calendar day, normalized to midnight UTC. Attendance,
// cycles and payment history all key off whole days.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// Today returns the current date in the engine's fixed time zone (UTC).
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) IsZero() bool { return d.Time.IsZero() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// DaysBetween returns the number of whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// DatesInRange returns every calendar date from start to end inclusive,
// ascending. Used for absence detection.
func DatesInRange(start, end Date) []Date {
	var dates []Date
	for current := start; current.BeforeOrEqual(end); current = current.AddDays(1) {
		dates = append(dates, current)
	}
	return dates
}

// =============================================================================
// TIME-OF-DAY PARSING - Shift durations and worked-hours strings
// =============================================================================

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// minutesOfDay parses an "HH:MM" or "HH:MM:SS" string into minutes since
// midnight. Seconds, when present, are validated but discarded.
func minutesOfDay(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, false
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		nums[i] = n
	}
	if nums[0] > 23 || nums[1] > 59 || (len(nums) == 3 && nums[2] > 59) {
		return 0, false
	}
	return nums[0]*60 + nums[1], true
}

// ShiftDuration returns the length in hours of a shift running from
// start to end, both local times of day. An end earlier than the start
// wraps past midnight (22:00-06:00 is 8 hours, not -16).
//
// Malformed input yields zero rather than an error: dirty check-in data
// must never abort a payroll run. Callers are required to classify a
// zero duration as an anomaly instead of paying for it.
func ShiftDuration(start, end string) decimal.Decimal {
	startMin, ok := minutesOfDay(start)
	if !ok {
		return decimal.Zero
	}
	endMin, ok := minutesOfDay(end)
	if !ok {
		return decimal.Zero
	}
	if endMin < startMin {
		endMin += minutesPerDay
	}
	return decimal.NewFromInt(int64(endMin - startMin)).Div(sixty)
}

// ParseWorkedHours parses an "H:MM" worked-hours string ("7:30" = 7.5)
// into fractional hours. Empty or invalid input yields zero.
func ParseWorkedHours(s string) decimal.Decimal {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return decimal.Zero
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return decimal.Zero
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(hours*60 + minutes)).Div(sixty)
}
