package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/scheduler"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// InternalHandler serves the endpoints used by external schedulers.
type InternalHandler struct {
	runnerService *service.RunnerService
	lock          scheduler.Locker
	lockTTL       time.Duration
}

// NewInternalHandler creates a new InternalHandler. The due scan runs under
// lock, the same lock the cron scheduler takes; a nil lock means a new LocalLock.
func NewInternalHandler(runnerService *service.RunnerService, lock scheduler.Locker, lockTTL time.Duration) *InternalHandler {
	if lock == nil {
		lock = scheduler.NewLocalLock()
	}
	return &InternalHandler{
		runnerService: runnerService,
		lock:          lock,
		lockTTL:       lockTTL,
	}
}

// RunDue handles POST requests to execute every schedule whose next run is due.
// Runs already recorded for a date are not repeated, so the trigger may fire
// more often than schedules fall due.
//
// Endpoint: POST /api/internal/run-due
// Response: 200 OK with RunDueSummary
// Error: 409 Conflict if a scan is already running
// Error: 500 Internal Server Error if due schedules cannot be loaded
func (h *InternalHandler) RunDue(w http.ResponseWriter, r *http.Request) {
	release, ok, err := h.lock.Acquire(r.Context(), scheduler.RunDueLockKey, h.lockTTL)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to acquire run-due lock", err.Error())
		return
	}
	if !ok {
		response.RespondError(w, http.StatusConflict, "a due run scan is already in progress", "")
		return
	}
	defer release()

	summary, err := h.runnerService.RunDue(r.Context(), time.Now().UTC())
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to run due schedules", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
