package handlers_test

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/handlers"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/companieshouse"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
)

// TestCompanyHandler_Companies tests the GET /api/company endpoint.
//
// WHY: Every other screen starts from the company list. It must only ever
// show the caller's own companies.
func TestCompanyHandler_Companies(t *testing.T) {
	setupHandler := func(t *testing.T) (*handlers.CompanyHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		return handlers.NewCompanyHandler(svc.Companies), db
	}

	t.Run("returns only the caller's companies", func(t *testing.T) {
		handler, db := setupHandler(t)
		fx := testutil.CreateCompanyFixture(t, db, "professional")
		testutil.CreateCompanyFixture(t, db, "professional")

		req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/company", nil), fx.Profile.ID)
		w := httptest.NewRecorder()

		handler.Companies(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var response []model.Company
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)
		if len(response) != 1 || response[0].ID != fx.Company.ID {
			t.Errorf("Expected only the caller's company, got %+v", response)
		}
	})

	t.Run("returns 401 without a user", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/company", nil)
		w := httptest.NewRecorder()

		handler.Companies(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status 401, got %d", w.Code)
		}
	})

	t.Run("returns 500 on database error", func(t *testing.T) {
		handler, db := setupHandler(t)
		db.Close()

		req := testutil.WithUser(httptest.NewRequest(http.MethodGet, "/api/company", nil), testutil.MakeID())
		w := httptest.NewRecorder()

		handler.Companies(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", w.Code)
		}
	})
}

// TestCompanyHandler_CreateCompany tests the POST /api/company endpoint.
func TestCompanyHandler_CreateCompany(t *testing.T) {
	setupHandler := func(t *testing.T) (*handlers.CompanyHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		return handlers.NewCompanyHandler(svc.Companies), db
	}

	t.Run("creates a company with its directors", func(t *testing.T) {
		handler, db := setupHandler(t)
		userID := testutil.MakeID()

		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/company", request.CreateCompanyRequest{
			Name:               "Acme Widgets Ltd",
			RegistrationNumber: "12345678",
			Directors:          []string{"Jane Smith"},
		}, nil), userID)
		w := httptest.NewRecorder()

		handler.CreateCompany(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		var response model.Company
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)
		if response.Name != "Acme Widgets Ltd" || len(response.Officers) != 1 {
			t.Errorf("Unexpected company %+v", response)
		}
		testutil.AssertRowCount(t, db, "companies", 1)
	})

	t.Run("returns 400 for missing directors", func(t *testing.T) {
		handler, db := setupHandler(t)

		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/company", request.CreateCompanyRequest{
			Name:               "Acme Widgets Ltd",
			RegistrationNumber: "12345678",
		}, nil), testutil.MakeID())
		w := httptest.NewRecorder()

		handler.CreateCompany(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
		testutil.AssertRowCount(t, db, "companies", 0)
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/company", `{"name":`, nil), testutil.MakeID())
		w := httptest.NewRecorder()

		handler.CreateCompany(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})
}

// TestCompanyHandler_GetCompany tests the GET /api/company/{uuid} endpoint.
func TestCompanyHandler_GetCompany(t *testing.T) {
	setupHandler := func(t *testing.T) (*handlers.CompanyHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		return handlers.NewCompanyHandler(svc.Companies), db
	}

	t.Run("returns the company", func(t *testing.T) {
		handler, db := setupHandler(t)
		fx := testutil.CreateCompanyFixture(t, db, "professional")

		req := testutil.WithUser(testutil.NewRequestWithURLParams(http.MethodGet, "/api/company/"+fx.Company.ID,
			map[string]string{"uuid": fx.Company.ID}), fx.Profile.ID)
		w := httptest.NewRecorder()

		handler.GetCompany(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 for another user's company", func(t *testing.T) {
		handler, db := setupHandler(t)
		fx := testutil.CreateCompanyFixture(t, db, "professional")

		req := testutil.WithUser(testutil.NewRequestWithURLParams(http.MethodGet, "/api/company/"+fx.Company.ID,
			map[string]string{"uuid": fx.Company.ID}), testutil.MakeID())
		w := httptest.NewRecorder()

		handler.GetCompany(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})
}

// TestCompanyHandler_Shareholders tests shareholder listing, creation and the cap table.
func TestCompanyHandler_Shareholders(t *testing.T) {
	setupHandler := func(t *testing.T) (*handlers.CompanyHandler, *sql.DB) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		return handlers.NewCompanyHandler(svc.Companies), db
	}

	t.Run("adds a shareholder and reports the cap table", func(t *testing.T) {
		handler, db := setupHandler(t)
		fx := testutil.CreateCompanyFixture(t, db, "professional")
		params := map[string]string{"uuid": fx.Company.ID}

		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/company/"+fx.Company.ID+"/shareholder",
			request.CreateShareholderRequest{Name: "John Smith", ShareClass: "Ordinary", Shares: 300}, params), fx.Profile.ID)
		w := httptest.NewRecorder()
		handler.CreateShareholder(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		req = testutil.WithUser(testutil.NewRequestWithURLParams(http.MethodGet, "/api/company/"+fx.Company.ID+"/cap-table",
			params), fx.Profile.ID)
		w = httptest.NewRecorder()
		handler.CapTable(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var table model.CapTable
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&table)
		if table.Totals["Ordinary"] != 400 {
			t.Errorf("Expected 400 Ordinary shares, got %v", table.Totals)
		}
		if len(table.Entries) != 2 {
			t.Errorf("Expected 2 entries, got %d", len(table.Entries))
		}

		req = testutil.WithUser(testutil.NewRequestWithURLParams(http.MethodGet, "/api/company/"+fx.Company.ID+"/shareholder",
			params), fx.Profile.ID)
		w = httptest.NewRecorder()
		handler.Shareholders(w, req)
		var holders []model.Shareholder
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&holders)
		if len(holders) != 2 {
			t.Errorf("Expected 2 shareholders, got %d", len(holders))
		}
	})

	t.Run("returns 400 for a non-positive holding", func(t *testing.T) {
		handler, db := setupHandler(t)
		fx := testutil.CreateCompanyFixture(t, db, "professional")

		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/company/"+fx.Company.ID+"/shareholder",
			request.CreateShareholderRequest{Name: "John Smith", ShareClass: "Ordinary"},
			map[string]string{"uuid": fx.Company.ID}), fx.Profile.ID)
		w := httptest.NewRecorder()

		handler.CreateShareholder(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("appoints a secretary", func(t *testing.T) {
		handler, db := setupHandler(t)
		fx := testutil.CreateCompanyFixture(t, db, "professional")

		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/api/company/"+fx.Company.ID+"/officer",
			request.CreateOfficerRequest{Name: "Pat Jones", Role: model.OfficerSecretary},
			map[string]string{"uuid": fx.Company.ID}), fx.Profile.ID)
		w := httptest.NewRecorder()

		handler.CreateOfficer(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
		}
		var officer model.Officer
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&officer)
		if officer.Role != model.OfficerSecretary {
			t.Errorf("Expected secretary, got %q", officer.Role)
		}
	})
}

// TestCompanyHandler_CompaniesHouse tests the Companies House proxy endpoints.
func TestCompanyHandler_CompaniesHouse(t *testing.T) {
	setupHandler := func(t *testing.T) (*handlers.CompanyHandler, *testutil.MockCompaniesHouse) {
		t.Helper()
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		svc.CompaniesHouse.Companies["12345678"] = companieshouse.CompanyProfile{
			CompanyNumber: "12345678",
			Name:          "ACME WIDGETS LTD",
			Status:        "active",
		}
		svc.CompaniesHouse.Appointments["12345678"] = []companieshouse.Officer{
			{Name: "SMITH, Jane", Role: "director"},
			{Name: "JONES, Old", Role: "director", ResignedOn: "2020-01-01"},
		}
		return handlers.NewCompanyHandler(svc.Companies), svc.CompaniesHouse
	}

	t.Run("search requires a query", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/companies-house/search", nil)
		w := httptest.NewRecorder()

		handler.SearchCompaniesHouse(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", w.Code)
		}
	})

	t.Run("search finds matching companies", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/companies-house/search",
			map[string]string{"q": "acme"})
		w := httptest.NewRecorder()

		handler.SearchCompaniesHouse(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		var results []companieshouse.SearchResult
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&results)
		if len(results) != 1 || results[0].CompanyNumber != "12345678" {
			t.Errorf("Unexpected results %+v", results)
		}
	})

	t.Run("officers lists active officers", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/companies-house/12345678/officers",
			map[string]string{"number": "12345678"})
		w := httptest.NewRecorder()

		handler.CompaniesHouseOfficers(w, req)

		var officers []companieshouse.Officer
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&officers)
		if len(officers) != 1 || officers[0].Name != "SMITH, Jane" {
			t.Errorf("Expected only the active officer, got %+v", officers)
		}
	})

	t.Run("unknown number returns 404", func(t *testing.T) {
		handler, _ := setupHandler(t)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/companies-house/99999999",
			map[string]string{"number": "99999999"})
		w := httptest.NewRecorder()

		handler.CompaniesHouseProfile(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
	})

	t.Run("upstream failure returns 502", func(t *testing.T) {
		handler, registry := setupHandler(t)
		registry.MockError = fmt.Errorf("%w: timeout", apperrors.ErrFailedToQueryCompanyHouse)

		req := testutil.NewRequestWithURLParams(http.MethodGet, "/api/companies-house/12345678",
			map[string]string{"number": "12345678"})
		w := httptest.NewRecorder()

		handler.CompaniesHouseProfile(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected status 502, got %d", w.Code)
		}
	})
}
