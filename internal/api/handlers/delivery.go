package handlers

import (
	"net/http"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// DeliveryHandler handles emailing stored documents.
type DeliveryHandler struct {
	deliveryService *service.DeliveryService
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(deliveryService *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
	}
}

// SendDocuments handles POST requests to email vouchers and minutes as
// attachments. Every attempt is recorded, including failed ones.
//
// Endpoint: POST /api/delivery
// Request Body: DeliveryRequest (recipients, subject, and optionally html, dividendRecordIds, minutesIds)
// Response: 201 Created with SentEmail
// Error: 400 Bad Request if validation fails or nothing is attached
// Error: 404 Not Found if an attached document does not exist
// Error: 502 Bad Gateway if the email provider rejects the message
func (h *DeliveryHandler) SendDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.DeliveryRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	sent, err := h.deliveryService.Send(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToSendEmail.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, sent)
}

// History handles GET requests for the caller's delivery attempts, newest first.
//
// Endpoint: GET /api/delivery
// Response: 200 OK with array of SentEmail
// Error: 500 Internal Server Error if retrieval fails
func (h *DeliveryHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	history, err := h.deliveryService.History(r.Context(), userID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, "failed to retrieve delivery history", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, history)
}
