/*
Package notify raises payroll-cycle reminder alerts.

PURPOSE:
  A small downstream job that reads the engine's latest run log, derives
  "days since the last payroll run", and raises due-soon / overdue
  alerts at fixed thresholds. It only ever reads the engine's output;
  the engine neither knows about nor depends on it.

THRESHOLDS (against the 28-day cycle):
  day 26 - "Payroll run due in 2 days"
  day 27 - "Payroll run due in 1 day"
  day 30+ - "Payroll run overdue" (every day at or past the mark)

DE-DUPLICATION:
  An alert is suppressed when a same-titled alert already exists within
  the last 24 hours, so a job checking hourly raises each reminder once
  per day.
*/
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"

	"github.com/carebridge/payroll-engine/payroll"
)

const (
	dueSoonTwoDaysTitle = "Payroll run due in 2 days"
	dueSoonOneDayTitle  = "Payroll run due in 1 day"
	overdueTitle        = "Payroll run overdue"

	overdueAfterDays = 30

	dedupWindow = 24 * time.Hour
)

// Alert is one raised reminder.
type Alert struct {
	ID        string
	Title     string
	Message   string
	CreatedAt time.Time
}

// AlertStore is what the reminder job needs from persistence: the run
// log read contract plus alert storage.
type AlertStore interface {
	LatestRunLog(ctx context.Context) (*payroll.RunLog, error)
	RecentAlertExists(ctx context.Context, title string, since time.Time) (bool, error)
	InsertAlert(ctx context.Context, id, title, message string, createdAt time.Time) error
}

var idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

// Reminder checks run-log age and raises alerts.
type Reminder struct {
	Store AlertStore
	Log   *logrus.Logger
}

func NewReminder(store AlertStore) *Reminder {
	return &Reminder{Store: store, Log: logrus.StandardLogger()}
}

// Check raises whichever alerts apply at the given instant and returns
// the ones actually inserted (de-duplicated ones are omitted). No run
// log at all means the engine has never produced output; there is no
// cycle age to alert on yet.
func (r *Reminder) Check(ctx context.Context, now time.Time) ([]Alert, error) {
	latest, err := r.Store.LatestRunLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading latest run log: %w", err)
	}
	if latest == nil {
		return nil, nil
	}

	// Age in whole calendar days, not elapsed hours: a run logged late
	// in the evening is still one day old the next morning.
	daysSince := payroll.DaysBetween(calendarDay(latest.RunDate), calendarDay(now))

	var due []Alert
	switch {
	case daysSince == payroll.CycleLengthDays-2:
		due = append(due, Alert{
			Title:   dueSoonTwoDaysTitle,
			Message: fmt.Sprintf("Last payroll run was %d days ago (%s). Next cycle closes in 2 days.", daysSince, latest.RunDate.Format("2006-01-02")),
		})
	case daysSince == payroll.CycleLengthDays-1:
		due = append(due, Alert{
			Title:   dueSoonOneDayTitle,
			Message: fmt.Sprintf("Last payroll run was %d days ago (%s). Next cycle closes in 1 day.", daysSince, latest.RunDate.Format("2006-01-02")),
		})
	case daysSince >= overdueAfterDays:
		due = append(due, Alert{
			Title:   overdueTitle,
			Message: fmt.Sprintf("Last payroll run was %d days ago (%s). A run is overdue.", daysSince, latest.RunDate.Format("2006-01-02")),
		})
	}

	var raised []Alert
	for _, alert := range due {
		exists, err := r.Store.RecentAlertExists(ctx, alert.Title, now.Add(-dedupWindow))
		if err != nil {
			return raised, fmt.Errorf("checking alert dedup: %w", err)
		}
		if exists {
			continue
		}

		alert.ID = nextAlertID()
		alert.CreatedAt = now
		if err := r.Store.InsertAlert(ctx, alert.ID, alert.Title, alert.Message, alert.CreatedAt); err != nil {
			return raised, fmt.Errorf("inserting alert: %w", err)
		}
		r.Log.WithFields(logrus.Fields{
			"title":      alert.Title,
			"days_since": daysSince,
		}).Info("payroll reminder raised")
		raised = append(raised, alert)
	}
	return raised, nil
}

func calendarDay(t time.Time) payroll.Date {
	u := t.UTC()
	return payroll.NewDate(u.Year(), u.Month(), u.Day())
}

// nextAlertID falls back to a timestamp id when the sonyflake worker is
// unavailable (nil on hosts without a private IPv4) or exhausted.
func nextAlertID() string {
	if idWorker == nil {
		return fmt.Sprintf("alert-%d", time.Now().UnixNano())
	}
	id, err := idWorker.NextID()
	if err != nil {
		return fmt.Sprintf("alert-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("alert-%d", id)
}
