package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/response"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
)

// CompanyHandler handles HTTP requests for companies, their officers and
// shareholders, and the Companies House lookups used to pre-fill them.
type CompanyHandler struct {
	companyService *service.CompanyService
}

// NewCompanyHandler creates a new CompanyHandler with the provided service dependency.
func NewCompanyHandler(companyService *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
	}
}

// Companies handles GET requests to list the caller's companies.
//
// Endpoint: GET /api/company
// Response: 200 OK with array of Company
// Error: 500 Internal Server Error if retrieval fails
func (h *CompanyHandler) Companies(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	companies, err := h.companyService.List(r.Context(), userID)
	if err != nil {
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRetrieveCompanies.Error(), err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, companies)
}

// CreateCompany handles POST requests to register a company.
//
// Endpoint: POST /api/company
// Request Body: CreateCompanyRequest (name, registrationNumber, directors, and optionally registeredAddress, logoUrl, yearEnd, secretary)
// Response: 201 Created with Company
// Error: 400 Bad Request if validation fails or request body is invalid
// Error: 500 Internal Server Error if creation fails
func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.CreateCompanyRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	company, err := h.companyService.Create(r.Context(), userID, req)
	if err != nil {
		respondServiceError(w, err, "failed to create company")
		return
	}

	response.RespondJSON(w, http.StatusCreated, company)
}

// GetCompany handles GET requests for one company with its officers.
//
// Endpoint: GET /api/company/{uuid}
// Response: 200 OK with Company
// Error: 404 Not Found if the company does not exist or belongs to another user
func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	company, err := h.companyService.Get(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToRetrieveCompanies.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, company)
}

// CapTable handles GET requests for the current shareholdings of a company.
//
// Endpoint: GET /api/company/{uuid}/cap-table
// Response: 200 OK with CapTable
// Error: 404 Not Found if the company does not exist
func (h *CompanyHandler) CapTable(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	table, err := h.companyService.CapTable(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, "failed to build cap table")
		return
	}

	response.RespondJSON(w, http.StatusOK, table)
}

// Shareholders handles GET requests for the shareholders of a company.
//
// Endpoint: GET /api/company/{uuid}/shareholder
// Response: 200 OK with array of Shareholder
// Error: 404 Not Found if the company does not exist
func (h *CompanyHandler) Shareholders(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	holders, err := h.companyService.Shareholders(r.Context(), userID, chi.URLParam(r, "uuid"))
	if err != nil {
		respondServiceError(w, err, "failed to retrieve shareholders")
		return
	}

	response.RespondJSON(w, http.StatusOK, holders)
}

// CreateShareholder handles POST requests to add a shareholder with an initial holding.
//
// Endpoint: POST /api/company/{uuid}/shareholder
// Request Body: CreateShareholderRequest (name, shareClass, shares, and optionally address, email)
// Response: 201 Created with Shareholder
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the company does not exist
func (h *CompanyHandler) CreateShareholder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.CreateShareholderRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	holder, err := h.companyService.AddShareholder(r.Context(), userID, chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondServiceError(w, err, "failed to create shareholder")
		return
	}

	response.RespondJSON(w, http.StatusCreated, holder)
}

// CreateOfficer handles POST requests to appoint a director or secretary.
//
// Endpoint: POST /api/company/{uuid}/officer
// Request Body: CreateOfficerRequest (name, role)
// Response: 201 Created with Officer
// Error: 400 Bad Request if validation fails
// Error: 404 Not Found if the company does not exist
func (h *CompanyHandler) CreateOfficer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := parseJSON[request.CreateOfficerRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	officer, err := h.companyService.AddOfficer(r.Context(), userID, chi.URLParam(r, "uuid"), req)
	if err != nil {
		respondServiceError(w, err, "failed to create officer")
		return
	}

	response.RespondJSON(w, http.StatusCreated, officer)
}

// SearchCompaniesHouse proxies a company name search.
//
// Endpoint: GET /api/companies-house/search?q={query}
// Response: 200 OK with array of SearchResult
// Error: 400 Bad Request if q is missing
// Error: 502 Bad Gateway if Companies House cannot be queried
func (h *CompanyHandler) SearchCompaniesHouse(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.RespondError(w, http.StatusBadRequest, "validation failed", "q is required")
		return
	}

	results, err := h.companyService.SearchCompaniesHouse(r.Context(), query)
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToQueryCompanyHouse.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, results)
}

// CompaniesHouseProfile proxies a company profile lookup.
//
// Endpoint: GET /api/companies-house/{number}
// Response: 200 OK with CompanyProfile
// Error: 404 Not Found if the number is unknown
// Error: 502 Bad Gateway if Companies House cannot be queried
func (h *CompanyHandler) CompaniesHouseProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.companyService.CompaniesHouseProfile(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToQueryCompanyHouse.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, profile)
}

// CompaniesHouseOfficers proxies an officer listing, returning active officers.
//
// Endpoint: GET /api/companies-house/{number}/officers
// Response: 200 OK with array of Officer
// Error: 404 Not Found if the number is unknown
// Error: 502 Bad Gateway if Companies House cannot be queried
func (h *CompanyHandler) CompaniesHouseOfficers(w http.ResponseWriter, r *http.Request) {
	officers, err := h.companyService.CompaniesHouseOfficers(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		respondServiceError(w, err, apperrors.ErrFailedToQueryCompanyHouse.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, officers)
}
