package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/middleware"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
)

// maxBodyBytes caps request bodies; the largest legitimate body is a delivery
// request with custom HTML.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into a value of type T.
// An empty body or trailing data is an error.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is required")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is required")
		}
		return v, err
	}
	if dec.More() {
		return v, errors.New("request body must contain a single JSON object")
	}
	return v, nil
}

// currentUser returns the authenticated user id, responding 401 when there is none.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.RespondError(w, http.StatusUnauthorized, apperrors.ErrUnauthorized.Error(), "no authenticated user")
		return "", false
	}
	return userID, true
}

var notFoundErrors = []error{
	apperrors.ErrCompanyNotFound,
	apperrors.ErrShareholderNotFound,
	apperrors.ErrScheduleNotFound,
	apperrors.ErrRunNotFound,
	apperrors.ErrDividendRecordNotFound,
	apperrors.ErrMinutesNotFound,
	apperrors.ErrFileNotFound,
	apperrors.ErrCompanyHouseNotFound,
}

var badRequestErrors = []error{
	apperrors.ErrMixedPaymentDates,
	apperrors.ErrEmptySelection,
	apperrors.ErrUnsupportedFormat,
	apperrors.ErrUnsupportedTaxYear,
}

func errorIsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondServiceError maps a service error to a status code. Errors without a
// known sentinel are reported as 500 with fallback as the message.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
		return
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			response.RespondError(w, http.StatusNotFound, target.Error(), err.Error())
			return
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			response.RespondError(w, http.StatusBadRequest, target.Error(), err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, apperrors.ErrUsageLimitExceeded):
		response.RespondError(w, http.StatusPaymentRequired, apperrors.ErrUsageLimitExceeded.Error(),
			"upgrade your plan to generate more documents this month")
	case errors.Is(err, apperrors.ErrInvalidRunTransition), errors.Is(err, apperrors.ErrDuplicateRun),
		errors.Is(err, apperrors.ErrRequestConflict):
		response.RespondError(w, http.StatusConflict, fallback, err.Error())
	case errors.Is(err, apperrors.ErrInvalidDownloadToken):
		response.RespondError(w, http.StatusForbidden, apperrors.ErrInvalidDownloadToken.Error(), "")
	case errors.Is(err, apperrors.ErrFailedToQueryCompanyHouse), errors.Is(err, apperrors.ErrFailedToSendEmail):
		response.RespondError(w, http.StatusBadGateway, fallback, err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, fallback, err.Error())
	}
}

// serveFile writes a stored document as an attachment download.
func serveFile(w http.ResponseWriter, f *service.StoredFile) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // the client has gone away if this fails
	w.Write(f.Data)
}

// downloadPath is the public URL that redeems a signed download token.
func downloadPath(token string) string {
	return "/api/documents/download?token=" + url.QueryEscape(token)
}
