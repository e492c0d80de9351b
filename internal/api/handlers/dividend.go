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

// DividendHandler handles HTTP requests for dividend vouchers.
// It serves as the HTTP layer adapter, parsing requests and delegating
// business logic to the DocumentService.
type DividendHandler struct {
	documentService *service.DocumentService
	downloadService *service.DownloadService
}

// NewDividendHandler creates a new DividendHandler with the provided service dependencies.
func NewDividendHandler(documentService *service.DocumentService, downloadService *service.DownloadService) *DividendHandler {
	return &DividendHandler{
		documentService: documentService,
		downloadService: downloadService,
	}
}

// DownloadLinkResponse is a signed, expiring link to a stored document.
type DownloadLinkResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GenerateDividend handles POST requests to render and store a dividend voucher.
// Replaying a requestId returns the original voucher without counting it again.
//
// Endpoint: POST /api/dividend/generate
// Request Body: GenerateDividendRequest (requestId, companyId, shareholderId, shareClass, amountPerShare, paymentDate, and optionally shares, declarationDate, template, format)
// Response: 201 Created with DividendRecord
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 402 Payment Required if the monthly dividend quota is used up
// Error: 404 Not Found if the company or shareholder does not exist
// Error: 409 Conflict if the request id was recorded but its voucher cannot be returned
// Error: 500 Internal Server Error if generation fails
func (h *DividendHandler) GenerateDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.GenerateDividendRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	record, err := h.documentService.GenerateVoucher(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToGenerateDocument.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, record)
}

// Dividends handles GET requests to list vouchers, optionally for one company.
//
// Endpoint: GET /api/dividend?companyId={uuid}
// Response: 200 OK with array of DividendRecordDetail
// Error: 500 Internal Server Error if retrieval fails
func (h *DividendHandler) Dividends(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	records, err := h.documentService.ListDividends(r.Context(), userID, r.URL.Query().Get("companyId"))
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveDividends.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, records)
}

// GetDividend handles GET requests for one voucher record.
//
// Endpoint: GET /api/dividend/{uuid}
// Response: 200 OK with DividendRecordDetail
// Error: 404 Not Found if the record does not exist
func (h *DividendHandler) GetDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	record, err := h.documentService.GetDividend(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveDividends.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, record)
}

// DeleteDividend handles DELETE requests to remove a voucher and its stored file.
// The monthly usage counter is not decremented.
//
// Endpoint: DELETE /api/dividend/{uuid}
// Response: 204 No Content on successful deletion
// Error: 404 Not Found if the record does not exist
func (h *DividendHandler) DeleteDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.documentService.DeleteDividend(r.Context(), userID, chi.URLParam(r, "uuid")); err != nil {
		respondServiceError(w, err, "failed to delete dividend record")
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// DownloadDividend handles GET requests for the stored voucher file.
// With ?link=true a signed download link is returned instead of the file.
//
// Endpoint: GET /api/dividend/{uuid}/download
// Response: 200 OK with the document, or DownloadLinkResponse
// Error: 404 Not Found if the record or its file does not exist
func (h *DividendHandler) DownloadDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	record, err := h.documentService.GetDividend(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveDividends.Error())
		return
	}
	file, err := h.documentService.DividendFile(r.Context(), userID, record.ID)
	if err != nil {
		respondServiceError(w, err, "failed to download dividend voucher")
		return
	}

	if r.URL.Query().Get("link") == "true" {
		respondDownloadLink(w, h.downloadService, userID, record.FilePath, file)
		return
	}
	serveFile(w, file)
}

// VerificationResponse is the public result of scanning a voucher QR code.
type VerificationResponse struct {
	Valid   bool `json:"valid"`
	Voucher any  `json:"voucher,omitempty"`
}

// Verify handles unauthenticated GET requests from a voucher's QR code.
//
// Endpoint: GET /api/verify/{uuid}
// Response: 200 OK with VerificationResponse
// Error: 404 Not Found with valid=false if no such voucher exists
func (h *DividendHandler) Verify(w http.ResponseWriter, r *http.Request) {
	v, err := h.documentService.Verify(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		if errorIsNotFound(err) {
			response.RespondJSON(w, http.StatusNotFound, VerificationResponse{Valid: false})
			return
		}
		response.RespondError(w, http.StatusInternalServerError, "failed to verify voucher", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, VerificationResponse{Valid: true, Voucher: v})
}

func respondDownloadLink(w http.ResponseWriter, downloads *service.DownloadService, userID, key string, file *service.StoredFile) {
	token, err := downloads.Issue(userID, key, file.Filename, file.ContentType)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to issue download link", err.Error())
		return
	}
	response.RespondJSON(w, http.StatusOK, DownloadLinkResponse{
		Token:     token,
		URL:       downloadPath(token),
		ExpiresAt: time.Now().UTC().Add(downloads.TTL()),
	})
}
