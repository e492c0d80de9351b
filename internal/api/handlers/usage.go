package handlers

import (
	"net/http"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// UsageHandler reports plan quotas.
type UsageHandler struct {
	usageService *service.UsageService
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
	}
}

// Usage handles GET requests for the caller's plan and this month's document counts.
//
// Endpoint: GET /api/usage
// Response: 200 OK with UsageSummary
// Error: 500 Internal Server Error if retrieval fails
func (h *UsageHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	summary, err := h.usageService.Summary(r.Context(), userID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveUsage.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}
