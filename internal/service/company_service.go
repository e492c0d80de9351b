package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/companieshouse"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/repository"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
)

// CompanyService handles companies, their officers and shareholders, and the
// Companies House lookups used to pre-fill them.
type CompanyService struct {
	companyRepo *repository.CompanyRepository
	lookup      companieshouse.Client
}

// NewCompanyService creates a new CompanyService. lookup may be nil when no
// Companies House key is configured.
func NewCompanyService(companyRepo *repository.CompanyRepository, lookup companieshouse.Client) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		lookup:      lookup,
	}
}

// Create registers a company with its directors and optional secretary.
func (s *CompanyService) Create(ctx context.Context, userID string, req request.CreateCompanyRequest) (*model.Company, error) {
	if err := validation.ValidateCreateCompany(req); err != nil {
		return nil, err
	}

	c := &model.Company{
		ID:                 uuid.New().String(),
		UserID:             userID,
		Name:               strings.TrimSpace(req.Name),
		RegistrationNumber: strings.ToUpper(strings.TrimSpace(req.RegistrationNumber)),
		RegisteredAddress:  req.RegisteredAddress,
		LogoURL:            req.LogoURL,
		YearEnd:            req.YearEnd,
		CreatedAt:          time.Now().UTC(),
	}
	for _, name := range req.Directors {
		if name = strings.TrimSpace(name); name != "" {
			c.Officers = append(c.Officers, model.Officer{ID: uuid.New().String(), Name: name, Role: model.OfficerDirector})
		}
	}
	if name := strings.TrimSpace(req.Secretary); name != "" {
		c.Officers = append(c.Officers, model.Officer{ID: uuid.New().String(), Name: name, Role: model.OfficerSecretary})
	}

	if err := s.companyRepo.InsertCompany(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get retrieves a company with its officers.
func (s *CompanyService) Get(ctx context.Context, userID, id string) (*model.Company, error) {
	c, err := s.companyRepo.GetCompany(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List retrieves all companies of userID.
func (s *CompanyService) List(ctx context.Context, userID string) ([]model.Company, error) {
	companies, err := s.companyRepo.ListCompanies(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveCompanies, err)
	}
	return companies, nil
}

// AddOfficer appoints a director or secretary.
func (s *CompanyService) AddOfficer(ctx context.Context, userID, companyID string, req request.CreateOfficerRequest) (*model.Officer, error) {
	if err := validation.ValidateCreateOfficer(req); err != nil {
		return nil, err
	}
	if _, err := s.companyRepo.GetCompany(ctx, userID, companyID); err != nil {
		return nil, err
	}

	o := &model.Officer{ID: uuid.New().String(), CompanyID: companyID, Name: strings.TrimSpace(req.Name), Role: req.Role}
	if err := s.companyRepo.InsertOfficer(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// AddShareholder creates a shareholder and records their initial holding.
func (s *CompanyService) AddShareholder(ctx context.Context, userID, companyID string, req request.CreateShareholderRequest) (*model.Shareholder, error) {
	if err := validation.ValidateCreateShareholder(req); err != nil {
		return nil, err
	}
	if _, err := s.companyRepo.GetCompany(ctx, userID, companyID); err != nil {
		return nil, err
	}

	holder := &model.Shareholder{
		ID:        uuid.New().String(),
		UserID:    userID,
		CompanyID: companyID,
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.companyRepo.InsertShareholder(ctx, holder); err != nil {
		return nil, err
	}
	err := s.companyRepo.UpsertShareholding(ctx, &model.Shareholding{
		ID:            uuid.New().String(),
		CompanyID:     companyID,
		ShareholderID: holder.ID,
		ShareClass:    strings.TrimSpace(req.ShareClass),
		Shares:        req.Shares,
	})
	if err != nil {
		return nil, err
	}
	return holder, nil
}

// Shareholders lists the shareholders of a company.
func (s *CompanyService) Shareholders(ctx context.Context, userID, companyID string) ([]model.Shareholder, error) {
	if _, err := s.companyRepo.GetCompany(ctx, userID, companyID); err != nil {
		return nil, err
	}
	return s.companyRepo.ListShareholders(ctx, userID, companyID)
}

// CapTable returns the current shareholdings of a company with each holding's
// share of its class.
func (s *CompanyService) CapTable(ctx context.Context, userID, companyID string) (*model.CapTable, error) {
	if _, err := s.companyRepo.GetCompany(ctx, userID, companyID); err != nil {
		return nil, err
	}
	entries, err := s.companyRepo.ListCapTableRows(ctx, companyID)
	if err != nil {
		return nil, err
	}
	table := buildCapTable(companyID, entries, time.Now().UTC())
	return &table, nil
}

// SearchCompaniesHouse proxies a company name search.
func (s *CompanyService) SearchCompaniesHouse(ctx context.Context, query string) ([]companieshouse.SearchResult, error) {
	if s.lookup == nil {
		return nil, fmt.Errorf("%w: no api key configured", apperrors.ErrFailedToQueryCompanyHouse)
	}
	return s.lookup.Search(ctx, query)
}

// CompaniesHouseProfile proxies a company profile lookup.
func (s *CompanyService) CompaniesHouseProfile(ctx context.Context, number string) (*companieshouse.CompanyProfile, error) {
	if s.lookup == nil {
		return nil, fmt.Errorf("%w: no api key configured", apperrors.ErrFailedToQueryCompanyHouse)
	}
	p, err := s.lookup.Profile(ctx, number)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CompaniesHouseOfficers proxies an officer listing, returning active officers only.
func (s *CompanyService) CompaniesHouseOfficers(ctx context.Context, number string) ([]companieshouse.Officer, error) {
	if s.lookup == nil {
		return nil, fmt.Errorf("%w: no api key configured", apperrors.ErrFailedToQueryCompanyHouse)
	}
	officers, err := s.lookup.Officers(ctx, number)
	if err != nil {
		return nil, err
	}
	active := make([]companieshouse.Officer, 0, len(officers))
	for _, o := range officers {
		if o.Active() {
			active = append(active, o)
		}
	}
	return active, nil
}

// buildCapTable totals each share class and sets every entry's percentage of its class.
func buildCapTable(companyID string, entries []model.CapTableEntry, asOf time.Time) model.CapTable {
	totals := make(map[string]int64)
	for _, e := range entries {
		totals[e.ShareClass] += e.Shares
	}
	for i := range entries {
		entries[i].Percentage = percentOf(entries[i].Shares, totals[entries[i].ShareClass])
	}
	return model.CapTable{
		CompanyID: companyID,
		AsOf:      asOf,
		Entries:   entries,
		Totals:    totals,
	}
}
