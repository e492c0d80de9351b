package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// DownloadHandler redeems signed download links.
type DownloadHandler struct {
	downloadService *service.DownloadService
}

// NewDownloadHandler creates a new DownloadHandler.
func NewDownloadHandler(downloadService *service.DownloadService) *DownloadHandler {
	return &DownloadHandler{
		downloadService: downloadService,
	}
}

// Download handles unauthenticated GET requests carrying a signed token.
//
// Endpoint: GET /api/documents/download?token={token}
// Response: 200 OK with the document
// Error: 400 Bad Request if token is missing
// Error: 403 Forbidden if the token is invalid or expired
// Error: 404 Not Found if the document has been deleted
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "token is required")
		return
	}

	file, err := h.downloadService.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, apperrors.ErrFileNotFound) {
			response.RespondError(w, http.StatusNotFound, apperrors.ErrFileNotFound.Error(), "")
			return
		}
		respondServiceError(w, err, "failed to download document")
		return
	}

	serveFile(w, file)
}
