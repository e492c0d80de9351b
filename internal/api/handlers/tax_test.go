package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/handlers"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/tax"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

// TestTaxHandler_Calculate tests the POST /api/tax/calculate endpoint.
func TestTaxHandler_Calculate(t *testing.T) {
	handler := handlers.NewTaxHandler(service.NewTaxService())

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"tax year from payment date", request.TaxCalculationRequest{PaymentDate: "2025-03-31", OtherIncome: "12570", Dividends: "10000"}, http.StatusOK},
		{"explicit tax year", request.TaxCalculationRequest{TaxYear: "2025/26", Dividends: "10000"}, http.StatusOK},
		{"unsupported tax year", request.TaxCalculationRequest{TaxYear: "1999/00", Dividends: "10000"}, http.StatusBadRequest},
		{"negative dividends", request.TaxCalculationRequest{TaxYear: "2025/26", Dividends: "-1"}, http.StatusBadRequest},
		{"missing dividends", request.TaxCalculationRequest{TaxYear: "2025/26"}, http.StatusBadRequest},
		{"malformed body", `{"dividends":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(http.MethodPost, "/api/tax/calculate", tt.body, nil)
			w := httptest.NewRecorder()

			handler.Calculate(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}

	t.Run("uses the tax year of the payment date", func(t *testing.T) {
		req := testutil.NewJSONRequest(http.MethodPost, "/api/tax/calculate",
			request.TaxCalculationRequest{PaymentDate: "2025-03-31", OtherIncome: "12570", Dividends: "10000"}, nil)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		var response tax.Calculation
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)
		if response.TaxYear != "2024/25" {
			t.Errorf("Expected 2024/25, got %q", response.TaxYear)
		}
		if !response.TotalTax.IsPositive() {
			t.Errorf("Expected tax above the allowance, got %s", response.TotalTax)
		}
	})
}

// TestTaxHandler_Years tests the GET /api/tax/years endpoint.
func TestTaxHandler_Years(t *testing.T) {
	handler := handlers.NewTaxHandler(service.NewTaxService())
	w := httptest.NewRecorder()

	handler.Years(w, httptest.NewRequest(http.MethodGet, "/api/tax/years", nil))

	var years []string
	//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
	json.NewDecoder(w.Body).Decode(&years)
	if len(years) == 0 || years[0] != "2022/23" {
		t.Errorf("Expected years oldest first, got %v", years)
	}
}
