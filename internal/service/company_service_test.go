package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/api/request"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/companieshouse"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/service"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/testutil"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/validation"
)

// TestCompanyService_Create tests registering companies.
func TestCompanyService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores directors and secretary", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		profile := testutil.NewProfile().Build(t, db)

		// Execute
		created, err := svc.Companies.Create(ctx, profile.ID, request.CreateCompanyRequest{
			Name:               "  Acme Widgets Ltd ",
			RegistrationNumber: "sc123456",
			RegisteredAddress:  "1 High Street\nLondon",
			YearEnd:            "03-31",
			Directors:          []string{"Jane Smith", " ", "John Smith"},
			Secretary:          "Pat Jones",
		})

		// Assert
		if err != nil {
			t.Fatalf("Create() returned unexpected error: %v", err)
		}
		if created.Name != "Acme Widgets Ltd" || created.RegistrationNumber != "SC123456" {
			t.Errorf("Expected trimmed name and upper-case number, got %q %q", created.Name, created.RegistrationNumber)
		}

		stored, err := svc.Companies.Get(ctx, profile.ID, created.ID)
		if err != nil {
			t.Fatalf("Get() returned unexpected error: %v", err)
		}
		directors := stored.Directors()
		if len(directors) != 2 {
			t.Errorf("Expected 2 directors, got %v", directors)
		}
		testutil.AssertRowCount(t, db, "officers", 3)
	})

	t.Run("requires a director", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)

		// Execute
		_, err := svc.Companies.Create(ctx, testutil.MakeID(), request.CreateCompanyRequest{
			Name:               "Acme Widgets Ltd",
			RegistrationNumber: "12345678",
			YearEnd:            "13-45",
		})

		// Assert
		var verr *validation.Error
		if !errors.As(err, &verr) {
			t.Fatalf("Expected validation error, got %v", err)
		}
		for _, field := range []string{"directors", "yearEnd"} {
			if _, ok := verr.Fields[field]; !ok {
				t.Errorf("Expected error for %s, got %v", field, verr.Fields)
			}
		}
	})
}

// TestCompanyService_CapTable tests shareholdings and the cap table.
//
// WHY: Vouchers and schedules take their share counts from the holdings, and
// the board pack prints the cap table, so percentages must add up per class.
func TestCompanyService_CapTable(t *testing.T) {
	ctx := context.Background()

	t.Run("percentages are per share class", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		fx := testutil.CreateCompanyFixture(t, db, "professional")
		_, err := svc.Companies.AddShareholder(ctx, fx.Profile.ID, fx.Company.ID, request.CreateShareholderRequest{
			Name:       "John Smith",
			ShareClass: "Ordinary",
			Shares:     300,
		})
		if err != nil {
			t.Fatalf("AddShareholder() returned unexpected error: %v", err)
		}
		_, err = svc.Companies.AddShareholder(ctx, fx.Profile.ID, fx.Company.ID, request.CreateShareholderRequest{
			Name:       "Pat Jones",
			ShareClass: "A Ordinary",
			Shares:     10,
		})
		if err != nil {
			t.Fatalf("AddShareholder() returned unexpected error: %v", err)
		}

		// Execute
		table, err := svc.Companies.CapTable(ctx, fx.Profile.ID, fx.Company.ID)

		// Assert
		if err != nil {
			t.Fatalf("CapTable() returned unexpected error: %v", err)
		}
		if table.Totals["Ordinary"] != 400 || table.Totals["A Ordinary"] != 10 {
			t.Errorf("Unexpected totals: %v", table.Totals)
		}
		for _, e := range table.Entries {
			want := map[string]string{"Jane Smith": "25", "John Smith": "75", "Pat Jones": "100"}[e.ShareholderName]
			if e.Percentage.String() != want {
				t.Errorf("%s: expected %s%%, got %s%%", e.ShareholderName, want, e.Percentage)
			}
		}
	})

	t.Run("another user's company is not found", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		fx := testutil.CreateCompanyFixture(t, db, "professional")

		// Execute
		_, err := svc.Companies.CapTable(ctx, testutil.MakeID(), fx.Company.ID)

		// Assert
		if !errors.Is(err, apperrors.ErrCompanyNotFound) {
			t.Errorf("Expected ErrCompanyNotFound, got %v", err)
		}
	})

	t.Run("appoints an officer", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		fx := testutil.CreateCompanyFixture(t, db, "professional")

		// Execute
		officer, err := svc.Companies.AddOfficer(ctx, fx.Profile.ID, fx.Company.ID, request.CreateOfficerRequest{
			Name: "Sam Green",
			Role: model.OfficerSecretary,
		})

		// Assert
		if err != nil {
			t.Fatalf("AddOfficer() returned unexpected error: %v", err)
		}
		if officer.CompanyID != fx.Company.ID {
			t.Errorf("Expected officer of %s, got %s", fx.Company.ID, officer.CompanyID)
		}
	})
}

// TestCompanyService_CompaniesHouse tests the registry lookups.
func TestCompanyService_CompaniesHouse(t *testing.T) {
	ctx := context.Background()

	t.Run("lists only active officers", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		svc.CompaniesHouse.Companies["12345678"] = companieshouse.CompanyProfile{Name: "ACME WIDGETS LTD"}
		svc.CompaniesHouse.Appointments["12345678"] = []companieshouse.Officer{
			{Name: "SMITH, Jane", Role: "director", AppointedOn: "2020-01-01"},
			{Name: "BROWN, Al", Role: "director", AppointedOn: "2019-01-01", ResignedOn: "2021-06-30"},
		}

		// Execute
		officers, err := svc.Companies.CompaniesHouseOfficers(ctx, "12345678")

		// Assert
		if err != nil {
			t.Fatalf("CompaniesHouseOfficers() returned unexpected error: %v", err)
		}
		if len(officers) != 1 || officers[0].Name != "SMITH, Jane" {
			t.Errorf("Expected only the active officer, got %+v", officers)
		}
	})

	t.Run("unknown company number", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)

		// Execute
		_, err := svc.Companies.CompaniesHouseProfile(ctx, "00000000")

		// Assert
		if !errors.Is(err, apperrors.ErrCompanyHouseNotFound) {
			t.Errorf("Expected ErrCompanyHouseNotFound, got %v", err)
		}
	})

	t.Run("no client configured", func(t *testing.T) {
		// Setup
		svc := service.NewCompanyService(nil, nil)

		// Execute
		_, err := svc.SearchCompaniesHouse(ctx, "acme")

		// Assert
		if !errors.Is(err, apperrors.ErrFailedToQueryCompanyHouse) {
			t.Errorf("Expected ErrFailedToQueryCompanyHouse, got %v", err)
		}
	})
}

// TestTaxService_Calculate tests dividend tax estimates through the service.
func TestTaxService_Calculate(t *testing.T) {
	svc := service.NewTaxService()

	t.Run("derives the tax year from the payment date", func(t *testing.T) {
		// Execute
		calc, err := svc.Calculate(request.TaxCalculationRequest{
			PaymentDate: "2024-04-05",
			OtherIncome: "12570",
			Dividends:   "10000",
		})

		// Assert
		if err != nil {
			t.Fatalf("Calculate() returned unexpected error: %v", err)
		}
		if calc.TaxYear != "2023/24" {
			t.Errorf("Expected 2023/24, got %s", calc.TaxYear)
		}
		// 1,000 allowance, 9,000 at 8.75%.
		if calc.TotalTax.String() != "787.5" {
			t.Errorf("Expected 787.5 tax, got %s", calc.TotalTax)
		}
	})

	t.Run("unsupported tax year", func(t *testing.T) {
		// Execute
		_, err := svc.Calculate(request.TaxCalculationRequest{TaxYear: "1999/00", Dividends: "100"})

		// Assert
		if !errors.Is(err, apperrors.ErrUnsupportedTaxYear) {
			t.Errorf("Expected ErrUnsupportedTaxYear, got %v", err)
		}
	})

	t.Run("lists supported years oldest first", func(t *testing.T) {
		years := svc.SupportedYears()
		if len(years) == 0 || years[0] != "2022/23" {
			t.Errorf("Unexpected supported years: %v", years)
		}
	})
}
