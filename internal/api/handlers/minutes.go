package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// MinutesHandler handles HTTP requests for board minutes.
type MinutesHandler struct {
	documentService *service.DocumentService
	downloadService *service.DownloadService
}

// NewMinutesHandler creates a new MinutesHandler with the provided service dependencies.
func NewMinutesHandler(documentService *service.DocumentService, downloadService *service.DownloadService) *MinutesHandler {
	return &MinutesHandler{
		documentService: documentService,
		downloadService: downloadService,
	}
}

// GenerateMinutes handles POST requests to render and store board minutes.
// Without resolutions, a dividend resolution for paymentDate is recorded.
//
// Endpoint: POST /api/minutes/generate
// Request Body: GenerateMinutesRequest (requestId, companyId, meetingDate, and resolutions or paymentDate)
// Response: 201 Created with Minutes
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 402 Payment Required if the monthly minutes quota is used up
// Error: 404 Not Found if the company does not exist
// Error: 500 Internal Server Error if generation fails
func (h *MinutesHandler) GenerateMinutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.GenerateMinutesRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	minutes, err := h.documentService.GenerateMinutes(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToGenerateDocument.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, minutes)
}

// Minutes handles GET requests to list board minutes, optionally for one company.
//
// Endpoint: GET /api/minutes?companyId={uuid}
// Response: 200 OK with array of Minutes
// Error: 500 Internal Server Error if retrieval fails
func (h *MinutesHandler) Minutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.documentService.ListMinutes(r.Context(), userID, r.URL.Query().Get("companyId"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveMinutes.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, list)
}

// GetMinutes handles GET requests for one minutes record.
//
// Endpoint: GET /api/minutes/{uuid}
// Response: 200 OK with Minutes
// Error: 404 Not Found if the record does not exist
func (h *MinutesHandler) GetMinutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	minutes, err := h.documentService.GetMinutes(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveMinutes.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, minutes)
}

// DeleteMinutes handles DELETE requests to remove minutes and their stored file.
//
// Endpoint: DELETE /api/minutes/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the record does not exist
func (h *MinutesHandler) DeleteMinutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.documentService.DeleteMinutes(r.Context(), userID, chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete minutes")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// DownloadMinutes handles GET requests for the stored minutes document.
// With ?link=true a signed download link is returned instead of the file.
//
// Endpoint: GET /api/minutes/{uuid}/download
// Response: 200 OK with the document, or DownloadLinkResponse
// Error: 404 Not Found if the record or its file does not exist
func (h *MinutesHandler) DownloadMinutes(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	minutes, err := h.documentService.GetMinutes(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveMinutes.Error())
		return
	}
	file, err := h.documentService.MinutesFile(r.Context(), userID, minutes.ID)
	if err != nil {
		respondServiceError(w, err, "failed to download minutes")
		return
	}

	if r.URL.Query().Get("link") == "true" {
		respondDownloadLink(w, h.downloadService, userID, minutes.FilePath, file)
		return
	}
	serveFile(w, file)
}
