/*
handlers.go - HTTP handlers for the payroll engine

PURPOSE:
  Exposes the engine and its admin surface over REST. Handlers parse
  and validate input, delegate to the domain, and serialize responses.

ENDPOINTS:
  Assignments:
    GET    /api/assignments                 List all assignments
    POST   /api/assignments                 Create assignment
    GET    /api/assignments/{id}            Get one assignment
    GET    /api/assignments/{id}/attendance Attendance in a date range

  Attendance:
    POST   /api/attendance                  Record one day's presence

  Payroll:
    POST   /api/payroll/run                 Trigger a run (optional as_of)
    GET    /api/payroll/runs                Run history
    GET    /api/payments                    Payment rows (?nurse_id=)
    POST   /api/payments/{id}/review        Mark a payment reviewed

  Alerts:
    GET    /api/alerts                      Reminder alerts
    POST   /api/alerts/check                Evaluate reminders now

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: validation errors, invalid input
  - 404: resource not found
  - 409: conflict (run in progress, duplicate pay period)
  - 500: internal errors
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/carebridge/payroll-engine/notify"
	"github.com/carebridge/payroll-engine/payroll"
	"github.com/carebridge/payroll-engine/store/sqlite"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *payroll.Engine
	Reminder *notify.Reminder

	validate *validator.Validate
}

// NewHandler creates a handler wired to the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:    store,
		Engine:   payroll.NewEngine(store),
		Reminder: notify.NewReminder(store),
		validate: validator.New(),
	}
}

// =============================================================================
// ASSIGNMENT HANDLERS
// =============================================================================

// ListAssignments returns all assignments.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.Store.ListAssignments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list assignments", err)
		return
	}

	dtos := make([]AssignmentDTO, len(assignments))
	for i, a := range assignments {
		dtos[i] = toAssignmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAssignment creates a nurse-client contract.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	salary, err := decimal.NewFromString(req.SalaryPerDay)
	if err != nil || !salary.IsPositive() {
		writeError(w, http.StatusBadRequest, "salary_per_day must be a positive decimal", err)
		return
	}

	startDate, _ := payroll.ParseDate(req.StartDate) // format validated above

	a := payroll.Assignment{
		ID:           payroll.AssignmentID(req.ID),
		NurseID:      payroll.NurseID(req.NurseID),
		ClientID:     payroll.ClientID(req.ClientID),
		StartDate:    startDate,
		SalaryPerDay: salary,
		ShiftStart:   req.ShiftStart,
		ShiftEnd:     req.ShiftEnd,
	}
	if req.EndDate != nil {
		end, _ := payroll.ParseDate(*req.EndDate)
		if end.Before(startDate) {
			writeError(w, http.StatusBadRequest, "end_date before start_date", nil)
			return
		}
		a.EndDate = &end
	}
	if !a.StandardShiftHours().IsPositive() {
		writeError(w, http.StatusBadRequest, "shift times do not define a positive duration", nil)
		return
	}

	if err := h.Store.CreateAssignment(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create assignment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignmentDTO(a))
}

// GetAssignment returns a single assignment.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id := payroll.AssignmentID(chi.URLParam(r, "id"))

	a, err := h.Store.GetAssignment(r.Context(), id)
	if errors.Is(err, payroll.ErrAssignmentNotFound) {
		writeError(w, http.StatusNotFound, "Assignment not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get assignment", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTO(*a))
}

// GetAttendance returns an assignment's attendance entries in a date
// range (?from=YYYY-MM-DD&to=YYYY-MM-DD, both required).
func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id := payroll.AssignmentID(chi.URLParam(r, "id"))

	from, err := payroll.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing 'from' date", err)
		return
	}
	to, err := payroll.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing 'to' date", err)
		return
	}

	entries, err := h.Store.LoadAttendance(r.Context(), id, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load attendance", err)
		return
	}

	type attendanceDTO struct {
		AssignmentID string `json:"assignment_id"`
		Date         string `json:"date"`
		StartTime    string `json:"start_time,omitempty"`
		EndTime      string `json:"end_time,omitempty"`
	}
	dtos := make([]attendanceDTO, len(entries))
	for i, e := range entries {
		dtos[i] = attendanceDTO{
			AssignmentID: string(e.AssignmentID),
			Date:         e.Date.String(),
			StartTime:    e.StartTime,
			EndTime:      e.EndTime,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordAttendance records one day's presence for an assignment.
func (h *Handler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req RecordAttendanceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, _ := payroll.ParseDate(req.Date)
	entry := payroll.AttendanceEntry{
		AssignmentID: payroll.AssignmentID(req.AssignmentID),
		Date:         date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	}

	if _, err := h.Store.GetAssignment(r.Context(), entry.AssignmentID); err != nil {
		if errors.Is(err, payroll.ErrAssignmentNotFound) {
			writeError(w, http.StatusNotFound, "Assignment not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to check assignment", err)
		return
	}

	if err := h.Store.RecordAttendance(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// TriggerRun runs the payroll batch. The body is optional; an empty
// body runs as of today.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	asOf := payroll.Today()

	var req TriggerRunRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !h.decodeAndValidate(w, r, &req) {
			return
		}
		if req.AsOf != "" {
			asOf, _ = payroll.ParseDate(req.AsOf)
		}
	}

	summary := h.Engine.Run(r.Context(), asOf)

	status := http.StatusOK
	if !summary.Success {
		status = http.StatusConflict
		for _, msg := range summary.Errors {
			if msg != payroll.ErrRunInProgress.Error() {
				status = http.StatusInternalServerError
				break
			}
		}
	}
	writeJSON(w, status, summary)
}

// ListRuns returns run history, most recent first (?limit=N).
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	logs, err := h.Store.ListRunLogs(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = toRunLogDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPayments returns payment rows, optionally filtered by nurse.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	nurseID := payroll.NurseID(r.URL.Query().Get("nurse_id"))

	payments, err := h.Store.ListPayments(r.Context(), nurseID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ReviewPayment marks one payment row reviewed.
func (h *Handler) ReviewPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.Store.MarkReviewed(r.Context(), id)
	if errors.Is(err, payroll.ErrPaymentNotFound) {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to review payment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reviewed"})
}

// =============================================================================
// ALERT HANDLERS
// =============================================================================

// ListAlerts returns reminder alerts, most recent first.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.ListAlerts(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list alerts", err)
		return
	}

	dtos := make([]AlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CheckAlerts evaluates reminder thresholds immediately.
func (h *Handler) CheckAlerts(w http.ResponseWriter, r *http.Request) {
	raised, err := h.Reminder.Check(r.Context(), time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"raised": len(raised)})
}

// =============================================================================
// HELPERS
// =============================================================================

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation, writing a 400 and returning false on any failure.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
