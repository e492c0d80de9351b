package handlers

import (
	"net/http"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// TaxHandler serves the dividend tax estimate.
type TaxHandler struct {
	taxService *service.TaxService
}

// NewTaxHandler creates a new TaxHandler.
func NewTaxHandler(taxService *service.TaxService) *TaxHandler {
	return &TaxHandler{
		taxService: taxService,
	}
}

// Calculate handles POST requests to estimate the personal tax on a dividend.
//
// Endpoint: POST /api/tax/calculate
// Request Body: TaxCalculationRequest
// Response: 200 OK with Calculation
// Error: 400 Bad Request if validation fails or the tax year is not supported
func (h *TaxHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.TaxCalculationRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	calc, err := h.taxService.Calculate(req)
	if err != nil {
		respondServiceError(w, err, "failed to calculate tax")
		return
	}

	response.RespondJSON(w, http.StatusOK, calc)
}

// Years handles GET requests for the tax years the calculator supports.
//
// Endpoint: GET /api/tax/years
// Response: 200 OK with array of tax year labels
func (h *TaxHandler) Years(w http.ResponseWriter, _ *http.Request) {
	response.RespondJSON(w, http.StatusOK, h.taxService.SupportedYears())
}
