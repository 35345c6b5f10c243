/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model
  from the external contract.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  them through a shared validator instance before touching the domain.
*/
package api

import (
	"time"

	"github.com/carebridge/payroll-engine/payroll"
	"github.com/carebridge/payroll-engine/store/sqlite"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateAssignmentRequest creates a nurse-client contract.
type CreateAssignmentRequest struct {
	ID           string  `json:"id" validate:"required"`
	NurseID      string  `json:"nurse_id" validate:"required"`
	ClientID     string  `json:"client_id" validate:"required"`
	StartDate    string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SalaryPerDay string  `json:"salary_per_day" validate:"required"`
	ShiftStart   string  `json:"shift_start" validate:"required"`
	ShiftEnd     string  `json:"shift_end" validate:"required"`
}

// RecordAttendanceRequest records one day's presence. Times may be
// omitted; the engine classifies such entries as malformed rather than
// rejecting them here, matching the check-in flow's tolerance.
type RecordAttendanceRequest struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
}

// TriggerRunRequest triggers a payroll run, optionally as of an
// override date for re-processing.
type TriggerRunRequest struct {
	AsOf string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type AssignmentDTO struct {
	ID           string  `json:"id"`
	NurseID      string  `json:"nurse_id"`
	ClientID     string  `json:"client_id"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date,omitempty"`
	SalaryPerDay string  `json:"salary_per_day"`
	ShiftStart   string  `json:"shift_start"`
	ShiftEnd     string  `json:"shift_end"`
	CreatedAt    string  `json:"created_at,omitempty"`
}

func toAssignmentDTO(a payroll.Assignment) AssignmentDTO {
	dto := AssignmentDTO{
		ID:           string(a.ID),
		NurseID:      string(a.NurseID),
		ClientID:     string(a.ClientID),
		StartDate:    a.StartDate.String(),
		SalaryPerDay: a.SalaryPerDay.String(),
		ShiftStart:   a.ShiftStart,
		ShiftEnd:     a.ShiftEnd,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	if a.EndDate != nil {
		end := a.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

type PaymentDTO struct {
	ID             string `json:"id"`
	NurseID        string `json:"nurse_id"`
	AssignmentID   string `json:"assignment_id"`
	PayPeriodStart string `json:"pay_period_start"`
	PayPeriodEnd   string `json:"pay_period_end"`
	DaysWorked     int    `json:"days_worked"`
	HoursWorked    string `json:"hours_worked"`
	Salary         string `json:"salary"`
	PaymentStatus  string `json:"payment_status"`
	Info           string `json:"info"`
	Reviewed       bool   `json:"reviewed"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func toPaymentDTO(p payroll.ComputedCycleResult) PaymentDTO {
	return PaymentDTO{
		ID:             p.ID,
		NurseID:        string(p.NurseID),
		AssignmentID:   string(p.AssignmentID),
		PayPeriodStart: p.PayPeriodStart.String(),
		PayPeriodEnd:   p.PayPeriodEnd.String(),
		DaysWorked:     p.DaysWorked,
		HoursWorked:    p.HoursWorked.String(),
		Salary:         p.Salary.String(),
		PaymentStatus:  string(p.PaymentStatus),
		Info:           p.Info,
		Reviewed:       p.Reviewed,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

type RunLogDTO struct {
	ID              string `json:"id"`
	RunDate         string `json:"run_date"`
	ExecutionStatus string `json:"execution_status"`
	NursesProcessed int    `json:"nurses_processed"`
	RecordsInserted int    `json:"records_inserted"`
}

func toRunLogDTO(l payroll.RunLog) RunLogDTO {
	return RunLogDTO{
		ID:              l.ID,
		RunDate:         l.RunDate.Format(time.RFC3339),
		ExecutionStatus: string(l.ExecutionStatus),
		NursesProcessed: l.NursesProcessed,
		RecordsInserted: l.RecordsInserted,
	}
}

type AlertDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func toAlertDTO(a sqlite.AlertRecord) AlertDTO {
	return AlertDTO{
		ID:        a.ID,
		Title:     a.Title,
		Message:   a.Message,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
