/*
Package sqlite provides the SQLite-backed implementation of the payroll
storage interfaces.

PURPOSE:
  Implements payroll.Store plus the surrounding admin surface
  (assignment and attendance capture, payment review, reminder alerts).
  In production the same patterns apply to PostgreSQL; only minor SQL
  dialect differences.

KEY TABLES:
  assignments:      nurse-client contracts (shift times, daily rate)
  attendance:       one row per recorded presence day per assignment
  salary_payments:  the engine's output; one row per paid cycle
  payroll_runs:     one row per batch invocation, never mutated
  alerts:           reminder-job output (due-soon / overdue)

DOUBLE-PAYMENT GUARD:
  idx_salary_payments_unique_period enforces uniqueness on
  (nurse_id, pay_period_end). Two overlapping runs that both deem the
  same cycle due cannot both persist it: the second CommitRun fails
  whole with payroll.ErrDuplicatePayPeriod and nothing of its batch is
  written.

ATOMIC RUN COMMITS:
  CommitRun writes every payment row of a run and its run log inside a
  single database transaction. A failure anywhere rolls back everything,
  so a run is either fully persisted or absent; the next run recomputes
  the same still-unpaid cycles.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

SEE ALSO:
  - payroll/store.go: interface definitions
  - payroll/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/carebridge/payroll-engine/payroll"
)

// Store implements payroll.Store and notify.AlertStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Nurse-client contracts
	CREATE TABLE IF NOT EXISTS assignments (
		id TEXT PRIMARY KEY,
		nurse_id TEXT NOT NULL,
		client_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		salary_per_day TEXT NOT NULL,
		shift_start TEXT NOT NULL,
		shift_end TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_nurse
		ON assignments(nurse_id);

	-- Recorded presence, one row per assignment per day
	CREATE TABLE IF NOT EXISTS attendance (
		assignment_id TEXT NOT NULL,
		date TEXT NOT NULL,
		start_time TEXT,
		end_time TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (assignment_id, date)
	);

	-- Engine output: one row per paid cycle
	CREATE TABLE IF NOT EXISTS salary_payments (
		id TEXT PRIMARY KEY,
		nurse_id TEXT NOT NULL,
		assignment_id TEXT NOT NULL,
		pay_period_start TEXT NOT NULL,
		pay_period_end TEXT NOT NULL,
		days_worked INTEGER NOT NULL,
		hours_worked TEXT NOT NULL,
		salary TEXT NOT NULL,
		payment_status TEXT NOT NULL DEFAULT 'pending',
		info TEXT,
		reviewed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- CRITICAL: two runs must never pay the same cycle twice
	CREATE UNIQUE INDEX IF NOT EXISTS idx_salary_payments_unique_period
		ON salary_payments(nurse_id, pay_period_end);

	-- Hot path: payment history reduction per run
	CREATE INDEX IF NOT EXISTS idx_salary_payments_nurse_period
		ON salary_payments(nurse_id, pay_period_end DESC);

	-- One row per batch invocation, append-only
	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL,
		execution_status TEXT NOT NULL,
		nurses_processed INTEGER NOT NULL,
		records_inserted INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payroll_runs_date
		ON payroll_runs(run_date DESC);

	-- Reminder-job output
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_title_created
		ON alerts(title, created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// CreateAssignment persists a new nurse-client contract.
func (s *Store) CreateAssignment(ctx context.Context, a payroll.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate any
	if a.EndDate != nil {
		endDate = a.EndDate.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assignments
		(id, nurse_id, client_id, start_date, end_date, salary_per_day, shift_start, shift_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.NurseID, a.ClientID,
		a.StartDate.String(), endDate,
		a.SalaryPerDay.String(), a.ShiftStart, a.ShiftEnd,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}
	return nil
}

// GetAssignment returns one assignment, or ErrAssignmentNotFound.
func (s *Store) GetAssignment(ctx context.Context, id payroll.AssignmentID) (*payroll.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, nurse_id, client_id, start_date, end_date, salary_per_day, shift_start, shift_end, created_at
		FROM assignments WHERE id = ?`, id)

	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, payroll.ErrAssignmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAssignments returns all assignments, newest first.
func (s *Store) ListAssignments(ctx context.Context) ([]payroll.Assignment, error) {
	return s.queryAssignments(ctx, `
		SELECT id, nurse_id, client_id, start_date, end_date, salary_per_day, shift_start, shift_end, created_at
		FROM assignments ORDER BY created_at DESC`)
}

// ListEligibleAssignments returns only payroll-eligible assignments:
// positive daily salary and both shift times present. Filtering happens
// at the source so half-configured contracts never reach the engine.
func (s *Store) ListEligibleAssignments(ctx context.Context) ([]payroll.Assignment, error) {
	return s.queryAssignments(ctx, `
		SELECT id, nurse_id, client_id, start_date, end_date, salary_per_day, shift_start, shift_end, created_at
		FROM assignments
		WHERE CAST(salary_per_day AS REAL) > 0
		  AND shift_start != '' AND shift_end != ''
		ORDER BY start_date ASC`)
}

func (s *Store) queryAssignments(ctx context.Context, query string, args ...any) ([]payroll.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []payroll.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (payroll.Assignment, error) {
	var (
		a            payroll.Assignment
		startDate    string
		endDate      sql.NullString
		salaryPerDay string
		createdAt    string
	)

	err := row.Scan(&a.ID, &a.NurseID, &a.ClientID, &startDate, &endDate,
		&salaryPerDay, &a.ShiftStart, &a.ShiftEnd, &createdAt)
	if err != nil {
		return a, err
	}

	a.StartDate, err = payroll.ParseDate(startDate)
	if err != nil {
		return a, fmt.Errorf("failed to parse start date: %w", err)
	}
	if endDate.Valid && endDate.String != "" {
		d, err := payroll.ParseDate(endDate.String)
		if err != nil {
			return a, fmt.Errorf("failed to parse end date: %w", err)
		}
		a.EndDate = &d
	}
	a.SalaryPerDay, err = decimal.NewFromString(salaryPerDay)
	if err != nil {
		return a, fmt.Errorf("failed to parse salary: %w", err)
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return a, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

// RecordAttendance upserts one day's presence for an assignment. The
// check-in flow may post corrections for the same day; last write wins.
func (s *Store) RecordAttendance(ctx context.Context, e payroll.AttendanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attendance (assignment_id, date, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(assignment_id, date) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time`,
		e.AssignmentID, e.Date.String(),
		nullString(e.StartTime), nullString(e.EndTime),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record attendance: %w", err)
	}
	return nil
}

// LoadAttendance returns entries for the assignment in [from, to],
// ascending by date.
func (s *Store) LoadAttendance(ctx context.Context, id payroll.AssignmentID, from, to payroll.Date) ([]payroll.AttendanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT assignment_id, date, start_time, end_time
		FROM attendance
		WHERE assignment_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		id, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var entries []payroll.AttendanceEntry
	for rows.Next() {
		var (
			e          payroll.AttendanceEntry
			date       string
			start, end sql.NullString
		)
		if err := rows.Scan(&e.AssignmentID, &date, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		e.Date, err = payroll.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse attendance date: %w", err)
		}
		e.StartTime = start.String
		e.EndTime = end.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SALARY PAYMENTS (payroll.PaymentStore)
// =============================================================================

// LatestPayPeriodEnds reduces payment history to the most recent pay
// period end per nurse, in a single grouped query.
func (s *Store) LatestPayPeriodEnds(ctx context.Context) (map[payroll.NurseID]payroll.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT nurse_id, MAX(pay_period_end)
		FROM salary_payments
		GROUP BY nurse_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment history: %w", err)
	}
	defer rows.Close()

	latest := make(map[payroll.NurseID]payroll.Date)
	for rows.Next() {
		var (
			nurseID payroll.NurseID
			end     string
		)
		if err := rows.Scan(&nurseID, &end); err != nil {
			return nil, fmt.Errorf("failed to scan payment history: %w", err)
		}
		d, err := payroll.ParseDate(end)
		if err != nil {
			return nil, fmt.Errorf("failed to parse pay period end: %w", err)
		}
		latest[nurseID] = d
	}
	return latest, rows.Err()
}

// CommitRun writes every payment row of a run and its run log in one
// database transaction. All-or-nothing: a duplicate (nurse, pay period
// end) anywhere in the batch rolls back the whole run.
func (s *Store) CommitRun(ctx context.Context, records []payroll.ComputedCycleResult, log payroll.RunLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO salary_payments
			(id, nurse_id, assignment_id, pay_period_start, pay_period_end,
			 days_worked, hours_worked, salary, payment_status, info, reviewed, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.NurseID, r.AssignmentID,
			r.PayPeriodStart.String(), r.PayPeriodEnd.String(),
			r.DaysWorked, r.HoursWorked.String(), r.Salary.String(),
			r.PaymentStatus, r.Info, r.Reviewed,
			r.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return payroll.ErrDuplicatePayPeriod
			}
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_runs
		(id, run_date, execution_status, nurses_processed, records_inserted, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		log.ID, log.RunDate.UTC().Format(time.RFC3339), log.ExecutionStatus,
		log.NursesProcessed, log.RecordsInserted,
		log.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run log: %w", err)
	}

	return tx.Commit()
}

// ListPayments returns payment rows, most recent period first,
// optionally filtered by nurse (empty id = all nurses).
func (s *Store) ListPayments(ctx context.Context, nurseID payroll.NurseID) ([]payroll.ComputedCycleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, nurse_id, assignment_id, pay_period_start, pay_period_end,
		       days_worked, hours_worked, salary, payment_status, info, reviewed, created_at
		FROM salary_payments`
	var args []any
	if nurseID != "" {
		query += " WHERE nurse_id = ?"
		args = append(args, nurseID)
	}
	query += " ORDER BY pay_period_end DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []payroll.ComputedCycleResult
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkReviewed flags one payment row as reviewed. This is the only
// mutation the admin surface performs on the engine's output; status
// transitions belong to the downstream approval workflow.
func (s *Store) MarkReviewed(ctx context.Context, paymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE salary_payments SET reviewed = TRUE WHERE id = ?`, paymentID)
	if err != nil {
		return fmt.Errorf("failed to mark payment reviewed: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return payroll.ErrPaymentNotFound
	}
	return nil
}

func scanPayment(rows *sql.Rows) (payroll.ComputedCycleResult, error) {
	var (
		p            payroll.ComputedCycleResult
		start, end   string
		hours, money string
		info         sql.NullString
		createdAt    string
	)

	err := rows.Scan(&p.ID, &p.NurseID, &p.AssignmentID, &start, &end,
		&p.DaysWorked, &hours, &money, &p.PaymentStatus, &info, &p.Reviewed, &createdAt)
	if err != nil {
		return p, fmt.Errorf("failed to scan payment: %w", err)
	}

	if p.PayPeriodStart, err = payroll.ParseDate(start); err != nil {
		return p, fmt.Errorf("failed to parse pay period start: %w", err)
	}
	if p.PayPeriodEnd, err = payroll.ParseDate(end); err != nil {
		return p, fmt.Errorf("failed to parse pay period end: %w", err)
	}
	if p.HoursWorked, err = decimal.NewFromString(hours); err != nil {
		return p, fmt.Errorf("failed to parse hours: %w", err)
	}
	if p.Salary, err = decimal.NewFromString(money); err != nil {
		return p, fmt.Errorf("failed to parse salary: %w", err)
	}
	p.Info = info.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// RUN LOGS (payroll.RunLogStore)
// =============================================================================

func (s *Store) LatestRunLog(ctx context.Context) (*payroll.RunLog, error) {
	logs, err := s.ListRunLogs(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}

func (s *Store) ListRunLogs(ctx context.Context, limit int) ([]payroll.RunLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, run_date, execution_status, nurses_processed, records_inserted, created_at
		FROM payroll_runs ORDER BY run_date DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run logs: %w", err)
	}
	defer rows.Close()

	var logs []payroll.RunLog
	for rows.Next() {
		var (
			l                payroll.RunLog
			runDate, created string
		)
		if err := rows.Scan(&l.ID, &runDate, &l.ExecutionStatus,
			&l.NursesProcessed, &l.RecordsInserted, &created); err != nil {
			return nil, fmt.Errorf("failed to scan run log: %w", err)
		}
		l.RunDate, _ = time.Parse(time.RFC3339, runDate)
		l.CreatedAt, _ = time.Parse(time.RFC3339, created)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// =============================================================================
// ALERTS (notify.AlertStore)
// =============================================================================

// InsertAlert persists one reminder alert.
func (s *Store) InsertAlert(ctx context.Context, id, title, message string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, title, message, created_at) VALUES (?, ?, ?, ?)`,
		id, title, message, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

// RecentAlertExists reports whether a same-titled alert was created at
// or after the given time. Used for the 24h de-duplication window.
func (s *Store) RecentAlertExists(ctx context.Context, title string, since time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM alerts WHERE title = ? AND created_at >= ?`,
		title, since.UTC().Format(time.RFC3339),
	).Scan(&count)
	return count > 0, err
}

// AlertRecord is one persisted alert row.
type AlertRecord struct {
	ID        string
	Title     string
	Message   string
	CreatedAt time.Time
}

// ListAlerts returns up to limit alerts, most recent first.
func (s *Store) ListAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, title, message, created_at FROM alerts ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var (
			a       AlertRecord
			created string
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Message, &created); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339, created)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
