package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/payroll-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDate(t *testing.T, s string) payroll.Date {
	t.Helper()
	d, err := payroll.ParseDate(s)
	require.NoError(t, err)
	return d
}

func testAssignment(id, nurse string) payroll.Assignment {
	return payroll.Assignment{
		ID:           payroll.AssignmentID(id),
		NurseID:      payroll.NurseID(nurse),
		ClientID:     "client-1",
		StartDate:    payroll.NewDate(2024, time.January, 1),
		SalaryPerDay: decimal.NewFromInt(800),
		ShiftStart:   "09:00",
		ShiftEnd:     "17:00",
	}
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestCreateAndGetAssignment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := testAssignment("asg-1", "nurse-1")
	end := payroll.NewDate(2024, time.June, 30)
	a.EndDate = &end
	require.NoError(t, store.CreateAssignment(ctx, a))

	got, err := store.GetAssignment(ctx, "asg-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, a.NurseID, got.NurseID)
	assert.Equal(t, a.ClientID, got.ClientID)
	assert.True(t, got.StartDate.Equal(a.StartDate))
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(end))
	assert.True(t, got.SalaryPerDay.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, "09:00", got.ShiftStart)
	assert.Equal(t, "17:00", got.ShiftEnd)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetAssignment_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAssignment(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrAssignmentNotFound)
}

func TestListEligibleAssignments_FiltersHalfConfigured(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ok := testAssignment("asg-ok", "nurse-1")
	require.NoError(t, store.CreateAssignment(ctx, ok))

	zeroSalary := testAssignment("asg-zero", "nurse-2")
	zeroSalary.SalaryPerDay = decimal.Zero
	require.NoError(t, store.CreateAssignment(ctx, zeroSalary))

	noShift := testAssignment("asg-noshift", "nurse-3")
	noShift.ShiftEnd = ""
	require.NoError(t, store.CreateAssignment(ctx, noShift))

	eligible, err := store.ListEligibleAssignments(ctx)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, payroll.AssignmentID("asg-ok"), eligible[0].ID)

	all, err := store.ListAssignments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestRecordAttendance_UpsertLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := testDate(t, "2024-01-05")

	require.NoError(t, store.RecordAttendance(ctx, payroll.AttendanceEntry{
		AssignmentID: "asg-1", Date: day, StartTime: "09:00", EndTime: "12:00",
	}))
	// Correction for the same day replaces the first write.
	require.NoError(t, store.RecordAttendance(ctx, payroll.AttendanceEntry{
		AssignmentID: "asg-1", Date: day, StartTime: "09:00", EndTime: "17:00",
	}))

	entries, err := store.LoadAttendance(ctx, "asg-1", day, day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "17:00", entries[0].EndTime)
}

func TestLoadAttendance_RangeInclusiveAndOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, day := range []string{"2024-01-10", "2024-01-01", "2024-01-28", "2024-02-01"} {
		require.NoError(t, store.RecordAttendance(ctx, payroll.AttendanceEntry{
			AssignmentID: "asg-1", Date: testDate(t, day), StartTime: "09:00", EndTime: "17:00",
		}))
	}

	entries, err := store.LoadAttendance(ctx, "asg-1",
		testDate(t, "2024-01-01"), testDate(t, "2024-01-28"))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "2024-01-01", entries[0].Date.String())
	assert.Equal(t, "2024-01-10", entries[1].Date.String())
	assert.Equal(t, "2024-01-28", entries[2].Date.String())
}

func TestRecordAttendance_MissingTimesStoredAsNull(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := testDate(t, "2024-01-05")

	require.NoError(t, store.RecordAttendance(ctx, payroll.AttendanceEntry{
		AssignmentID: "asg-1", Date: day, StartTime: "09:00",
	}))

	entries, err := store.LoadAttendance(ctx, "asg-1", day, day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "09:00", entries[0].StartTime)
	assert.Empty(t, entries[0].EndTime)
}

// =============================================================================
// SALARY PAYMENTS + RUN LOGS
// =============================================================================

func testPayment(id, nurse, periodEnd string) payroll.ComputedCycleResult {
	end, _ := payroll.ParseDate(periodEnd)
	return payroll.ComputedCycleResult{
		ID:             id,
		NurseID:        payroll.NurseID(nurse),
		AssignmentID:   "asg-1",
		PayPeriodStart: end.AddDays(-(payroll.CycleLengthDays - 1)),
		PayPeriodEnd:   end,
		DaysWorked:     20,
		HoursWorked:    decimal.NewFromInt(160),
		Salary:         decimal.NewFromInt(16000),
		PaymentStatus:  payroll.PaymentPending,
		Info:           "Cycle summary",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestCommitRun_PersistsPaymentsAndRunLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []payroll.ComputedCycleResult{
		testPayment("pay-1", "nurse-1", "2024-01-28"),
		testPayment("pay-2", "nurse-2", "2024-01-28"),
	}
	log := payroll.RunLog{
		ID: "run-1", RunDate: time.Now().UTC(),
		ExecutionStatus: payroll.RunSuccess,
		NursesProcessed: 2, RecordsInserted: 2,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.CommitRun(ctx, records, log))

	payments, err := store.ListPayments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	byNurse, err := store.ListPayments(ctx, "nurse-1")
	require.NoError(t, err)
	require.Len(t, byNurse, 1)
	p := byNurse[0]
	assert.Equal(t, "pay-1", p.ID)
	assert.Equal(t, 20, p.DaysWorked)
	assert.True(t, p.HoursWorked.Equal(decimal.NewFromInt(160)))
	assert.True(t, p.Salary.Equal(decimal.NewFromInt(16000)))
	assert.Equal(t, payroll.PaymentPending, p.PaymentStatus)
	assert.Equal(t, "Cycle summary", p.Info)
	assert.False(t, p.Reviewed)

	latest, err := store.LatestRunLog(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-1", latest.ID)
	assert.Equal(t, payroll.RunSuccess, latest.ExecutionStatus)
	assert.Equal(t, 2, latest.RecordsInserted)
}

func TestCommitRun_DuplicateRollsBackWholeBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []payroll.ComputedCycleResult{testPayment("pay-1", "nurse-1", "2024-01-28")}
	require.NoError(t, store.CommitRun(ctx, first, payroll.RunLog{
		ID: "run-1", RunDate: time.Now().UTC(), ExecutionStatus: payroll.RunSuccess,
	}))

	// Batch mixes a novel row with a duplicate (nurse-1, 2024-01-28):
	// nothing from it may land, including the novel row and the run log.
	batch := []payroll.ComputedCycleResult{
		testPayment("pay-2", "nurse-2", "2024-01-28"),
		testPayment("pay-3", "nurse-1", "2024-01-28"),
	}
	err := store.CommitRun(ctx, batch, payroll.RunLog{
		ID: "run-2", RunDate: time.Now().UTC(), ExecutionStatus: payroll.RunSuccess,
	})
	assert.ErrorIs(t, err, payroll.ErrDuplicatePayPeriod)

	payments, err := store.ListPayments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, payments, 1)

	logs, err := store.ListRunLogs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestLatestPayPeriodEnds_ReducesPerNurse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []payroll.ComputedCycleResult{
		testPayment("pay-1", "nurse-1", "2024-01-28"),
		testPayment("pay-2", "nurse-1", "2024-02-25"),
		testPayment("pay-3", "nurse-2", "2024-01-28"),
	}
	require.NoError(t, store.CommitRun(ctx, records, payroll.RunLog{
		ID: "run-1", RunDate: time.Now().UTC(), ExecutionStatus: payroll.RunSuccess,
	}))

	latest, err := store.LatestPayPeriodEnds(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "2024-02-25", latest["nurse-1"].String())
	assert.Equal(t, "2024-01-28", latest["nurse-2"].String())
}

func TestMarkReviewed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CommitRun(ctx,
		[]payroll.ComputedCycleResult{testPayment("pay-1", "nurse-1", "2024-01-28")},
		payroll.RunLog{ID: "run-1", RunDate: time.Now().UTC(), ExecutionStatus: payroll.RunSuccess}))

	require.NoError(t, store.MarkReviewed(ctx, "pay-1"))

	payments, err := store.ListPayments(ctx, "nurse-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Reviewed)

	assert.ErrorIs(t, store.MarkReviewed(ctx, "missing"), payroll.ErrPaymentNotFound)
}

// =============================================================================
// ALERTS
// =============================================================================

func TestAlerts_InsertDedupList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.InsertAlert(ctx, "alert-1", "Payroll run overdue", "31 days since last run", now))

	exists, err := store.RecentAlertExists(ctx, "Payroll run overdue", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.RecentAlertExists(ctx, "Payroll run due in 1 day", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, exists)

	alerts, err := store.ListAlerts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Payroll run overdue", alerts[0].Title)
	assert.Equal(t, "31 days since last run", alerts[0].Message)
}
