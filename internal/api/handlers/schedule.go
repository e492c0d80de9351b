package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// calendarHorizon is how far ahead the iCalendar feed lists occurrences.
const calendarHorizon = 365 * 24 * time.Hour

// ScheduleHandler handles HTTP requests for recurring dividend schedules
// and their run history.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	runService      *service.RunService
}

// NewScheduleHandler creates a new ScheduleHandler with the provided service dependencies.
func NewScheduleHandler(scheduleService *service.ScheduleService, runService *service.RunService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		runService:      runService,
	}
}

// Schedules handles GET requests to list schedules, optionally for one company.
//
// Endpoint: GET /api/schedule?companyId={uuid}
// Response: 200 OK with array of RecurringDividend
// Error: 500 Internal Server Error if retrieval fails
func (h *ScheduleHandler) Schedules(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	schedules, err := h.scheduleService.List(r.Context(), userID, r.URL.Query().Get("companyId"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveSchedules.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, schedules)
}

// CreateSchedule handles POST requests to create a recurring dividend schedule.
// The first run date is computed from startDate, frequency and dayOfMonth.
//
// Endpoint: POST /api/schedule
// Request Body: CreateScheduleRequest (companyId, shareholderId, amountPerShare, shareClass, frequency, dayOfMonth, startDate, emailRecipients, and optionally shareCount, endDate, includeBoardMinutes, template)
// Response: 201 Created with RecurringDividend
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the company or shareholder does not exist
// Error: 500 Internal Server Error if creation fails
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.CreateScheduleRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	schedule, err := h.scheduleService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, "failed to create schedule")
		return
	}

	response.RespondJSON(w, http.StatusCreated, schedule)
}

// GetSchedule handles GET requests for one schedule.
//
// Endpoint: GET /api/schedule/{uuid}
// Response: 200 OK with RecurringDividend
// Error: 404 Not Found if the schedule does not exist
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.Get(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveSchedules.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, schedule)
}

// UpdateSchedule handles PUT requests to update a schedule.
// Changing the cadence recomputes the next run date.
//
// Endpoint: PUT /api/schedule/{uuid}
// Request Body: UpdateScheduleRequest (all fields optional)
// Response: 200 OK with RecurringDividend
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 404 Not Found if the schedule does not exist
func (h *ScheduleHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.UpdateScheduleRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	schedule, err := h.scheduleService.Update(r.Context(), userID, chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondServiceError(w, err, "failed to update schedule")
		return
	}

	response.RespondJSON(w, http.StatusOK, schedule)
}

// DeleteSchedule handles DELETE requests for a schedule and its run history.
//
// Endpoint: DELETE /api/schedule/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the schedule does not exist
func (h *ScheduleHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(r.Context(), userID, chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete schedule")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// PauseSchedule handles POST requests to pause a schedule.
//
// Endpoint: POST /api/schedule/{uuid}/pause
// Response: 200 OK with RecurringDividend
// Error: 404 Not Found if the schedule does not exist
func (h *ScheduleHandler) PauseSchedule(w http.ResponseWriter, r *http.Request) {
	h.togglePause(w, r, true)
}

// ResumeSchedule handles POST requests to resume a paused schedule.
//
// Endpoint: POST /api/schedule/{uuid}/resume
// Response: 200 OK with RecurringDividend
// Error: 404 Not Found if the schedule does not exist
func (h *ScheduleHandler) ResumeSchedule(w http.ResponseWriter, r *http.Request) {
	h.togglePause(w, r, false)
}

func (h *ScheduleHandler) togglePause(w http.ResponseWriter, r *http.Request, paused bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	schedule, err := h.scheduleService.TogglePause(r.Context(), userID, chi.URLParam(r, "uuid"), paused)
	if err != nil {
		respondServiceError(w, err, "failed to update schedule")
		return
	}

	response.RespondJSON(w, http.StatusOK, schedule)
}

// Runs handles GET requests for the run history of a schedule, newest first.
//
// Endpoint: GET /api/schedule/{uuid}/runs
// Query Parameters:
//   - status: comma-separated run statuses
//   - from, to: scheduled date range (YYYY-MM-DD)
//   - limit: maximum number of runs (1-200, default 50)
//
// Response: 200 OK with array of ScheduledDividendRun
// Error: 400 Bad Request if a filter is invalid
// Error: 404 Not Found if the schedule does not exist
func (h *ScheduleHandler) Runs(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filters, err := request.ParseRunFilters(q.Get("status"), q.Get("from"), q.Get("to"), q.Get("limit"))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid filters", err.Error())
		return
	}

	runs, err := h.runService.Runs(r.Context(), userID, chi.URLParam(r, "uuid"), filters)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveRuns.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, runs)
}

// Calendar handles GET requests for an iCalendar feed of upcoming runs over
// the next year. Paused and inactive schedules are left out.
//
// Endpoint: GET /api/schedule/calendar.ics
// Response: 200 OK with text/calendar
// Error: 500 Internal Server Error if the feed cannot be built
func (h *ScheduleHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	feed, err := h.scheduleService.Calendar(r.Context(), userID, today, today.Add(calendarHorizon))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to build calendar", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="dividends.ics"`)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // the client has gone away if this fails
	w.Write(feed)
}
