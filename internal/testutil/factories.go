package testutil

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
	"github.com/shopspring/decimal"
)

// ProfileBuilder provides a fluent interface for creating test profiles.
//
// Example usage:
//
//	profile := testutil.NewProfile().WithPlan("starter").WithDividendsUsed(2, "2025-03").Build(t, db)
type ProfileBuilder struct {
	ID          string
	Email       string
	Plan        string
	UsagePeriod string
	Dividends   int
	Minutes     int
}

// NewProfile creates a ProfileBuilder with sensible defaults.
func NewProfile() *ProfileBuilder {
	return &ProfileBuilder{
		ID:    MakeID(),
		Email: MakeEmail("director"),
		Plan:  "trial",
	}
}

// WithID sets a custom ID.
func (b *ProfileBuilder) WithID(id string) *ProfileBuilder {
	b.ID = id
	return b
}

// WithPlan sets the plan code.
func (b *ProfileBuilder) WithPlan(plan string) *ProfileBuilder {
	b.Plan = plan
	return b
}

// WithDividendsUsed sets the dividend counter for a usage period.
func (b *ProfileBuilder) WithDividendsUsed(n int, period string) *ProfileBuilder {
	b.Dividends = n
	b.UsagePeriod = period
	return b
}

// WithMinutesUsed sets the minutes counter for a usage period.
func (b *ProfileBuilder) WithMinutesUsed(n int, period string) *ProfileBuilder {
	b.Minutes = n
	b.UsagePeriod = period
	return b
}

// Build creates the profile in the database and returns it.
func (b *ProfileBuilder) Build(t *testing.T, db *sql.DB) model.Profile {
	t.Helper()

	query := `
		INSERT INTO profiles (id, email, plan, usage_period, current_month_dividends, current_month_minutes)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.Exec(query, b.ID, b.Email, b.Plan, b.UsagePeriod, b.Dividends, b.Minutes); err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return model.Profile{
		ID:                    b.ID,
		Email:                 b.Email,
		Plan:                  b.Plan,
		UsagePeriod:           b.UsagePeriod,
		CurrentMonthDividends: b.Dividends,
		CurrentMonthMinutes:   b.Minutes,
	}
}

// CompanyBuilder provides a fluent interface for creating test companies.
//
// Example usage:
//
//	company := testutil.NewCompany(userID).WithDirector("Jane Smith").Build(t, db)
type CompanyBuilder struct {
	ID                 string
	UserID             string
	Name               string
	RegistrationNumber string
	Address            string
	LogoURL            string
	YearEnd            string
	Officers           []model.Officer
}

// NewCompany creates a CompanyBuilder owned by userID with sensible defaults.
func NewCompany(userID string) *CompanyBuilder {
	return &CompanyBuilder{
		ID:                 MakeID(),
		UserID:             userID,
		Name:               MakeCompanyName("Test Trading"),
		RegistrationNumber: MakeCompanyNumber(),
		Address:            "1 High Street\nLondon\nEC1A 1AA",
		YearEnd:            "03-31",
	}
}

// WithName sets a custom name.
func (b *CompanyBuilder) WithName(name string) *CompanyBuilder {
	b.Name = name
	return b
}

// WithLogoURL sets a logo URL.
func (b *CompanyBuilder) WithLogoURL(url string) *CompanyBuilder {
	b.LogoURL = url
	return b
}

// WithDirector adds a director.
func (b *CompanyBuilder) WithDirector(name string) *CompanyBuilder {
	b.Officers = append(b.Officers, model.Officer{ID: MakeID(), Name: name, Role: model.OfficerDirector})
	return b
}

// WithSecretary adds a company secretary.
func (b *CompanyBuilder) WithSecretary(name string) *CompanyBuilder {
	b.Officers = append(b.Officers, model.Officer{ID: MakeID(), Name: name, Role: model.OfficerSecretary})
	return b
}

// Build creates the company and its officers in the database and returns it.
func (b *CompanyBuilder) Build(t *testing.T, db *sql.DB) model.Company {
	t.Helper()

	query := `
		INSERT INTO companies (id, user_id, name, registration_number, registered_address, logo_url, year_end)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := db.Exec(query, b.ID, b.UserID, b.Name, b.RegistrationNumber, b.Address, b.LogoURL, b.YearEnd); err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}

	officers := make([]model.Officer, 0, len(b.Officers))
	for _, o := range b.Officers {
		o.CompanyID = b.ID
		if _, err := db.Exec(`INSERT INTO officers (id, company_id, name, role) VALUES (?, ?, ?, ?)`,
			o.ID, o.CompanyID, o.Name, o.Role); err != nil {
			t.Fatalf("Failed to create test officer: %v", err)
		}
		officers = append(officers, o)
	}

	return model.Company{
		ID:                 b.ID,
		UserID:             b.UserID,
		Name:               b.Name,
		RegistrationNumber: b.RegistrationNumber,
		RegisteredAddress:  b.Address,
		LogoURL:            b.LogoURL,
		YearEnd:            b.YearEnd,
		Officers:           officers,
	}
}

// ShareholderBuilder provides a fluent interface for creating test shareholders
// together with their holding.
//
// Example usage:
//
//	holder := testutil.NewShareholder(userID, companyID).WithShares("Ordinary", 100).Build(t, db)
type ShareholderBuilder struct {
	ID         string
	UserID     string
	CompanyID  string
	Name       string
	Address    string
	Email      string
	ShareClass string
	Shares     int64
}

// NewShareholder creates a ShareholderBuilder holding 100 ordinary shares.
func NewShareholder(userID, companyID string) *ShareholderBuilder {
	return &ShareholderBuilder{
		ID:         MakeID(),
		UserID:     userID,
		CompanyID:  companyID,
		Name:       MakePersonName("Alex"),
		Address:    "2 Park Lane\nLondon\nW1K 1AA",
		Email:      MakeEmail("holder"),
		ShareClass: "Ordinary",
		Shares:     100,
	}
}

// WithName sets a custom name.
func (b *ShareholderBuilder) WithName(name string) *ShareholderBuilder {
	b.Name = name
	return b
}

// WithShares sets the share class and number of shares held.
func (b *ShareholderBuilder) WithShares(class string, shares int64) *ShareholderBuilder {
	b.ShareClass = class
	b.Shares = shares
	return b
}

// Build creates the shareholder and holding in the database and returns the shareholder.
func (b *ShareholderBuilder) Build(t *testing.T, db *sql.DB) model.Shareholder {
	t.Helper()

	query := `
		INSERT INTO shareholders (id, user_id, company_id, name, address, email)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.Exec(query, b.ID, b.UserID, b.CompanyID, b.Name, b.Address, b.Email); err != nil {
		t.Fatalf("Failed to create test shareholder: %v", err)
	}

	if b.Shares > 0 {
		if _, err := db.Exec(`
			INSERT INTO shareholdings (id, company_id, shareholder_id, share_class, shares)
			VALUES (?, ?, ?, ?, ?)`, MakeID(), b.CompanyID, b.ID, b.ShareClass, b.Shares); err != nil {
			t.Fatalf("Failed to create test shareholding: %v", err)
		}
	}

	return model.Shareholder{
		ID:        b.ID,
		UserID:    b.UserID,
		CompanyID: b.CompanyID,
		Name:      b.Name,
		Address:   b.Address,
		Email:     b.Email,
	}
}

// ScheduleBuilder provides a fluent interface for creating test recurring dividend schedules.
//
// Example usage:
//
//	schedule := testutil.NewSchedule(userID, companyID, holderID).
//	    WithFrequency(recurrence.Quarterly).
//	    WithNextRunAt(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)).
//	    Build(t, db)
type ScheduleBuilder struct {
	model.RecurringDividend
}

// NewSchedule creates a monthly schedule on the 15th, starting 2025-01-15.
func NewSchedule(userID, companyID, shareholderID string) *ScheduleBuilder {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	return &ScheduleBuilder{model.RecurringDividend{
		ID:              MakeID(),
		UserID:          userID,
		CompanyID:       companyID,
		ShareholderID:   shareholderID,
		AmountPerShare:  decimal.RequireFromString("10.00"),
		TotalAmount:     decimal.RequireFromString("1000.00"),
		ShareClass:      "Ordinary",
		ShareCount:      100,
		Frequency:       recurrence.Monthly,
		DayOfMonth:      15,
		StartDate:       start,
		IsActive:        true,
		EmailRecipients: []string{"accounts@example.com"},
		Template:        "classic",
		NextRunAt:       &start,
	}}
}

// WithFrequency sets the frequency.
func (b *ScheduleBuilder) WithFrequency(f recurrence.Frequency) *ScheduleBuilder {
	b.Frequency = f
	return b
}

// WithDayOfMonth sets the target day.
func (b *ScheduleBuilder) WithDayOfMonth(day int) *ScheduleBuilder {
	b.DayOfMonth = day
	return b
}

// WithStartDate sets the start date.
func (b *ScheduleBuilder) WithStartDate(d time.Time) *ScheduleBuilder {
	b.StartDate = d
	return b
}

// WithEndDate sets the end date.
func (b *ScheduleBuilder) WithEndDate(d time.Time) *ScheduleBuilder {
	b.EndDate = &d
	return b
}

// WithNextRunAt sets next_run_at.
func (b *ScheduleBuilder) WithNextRunAt(d time.Time) *ScheduleBuilder {
	b.NextRunAt = &d
	return b
}

// WithoutNextRun clears next_run_at.
func (b *ScheduleBuilder) WithoutNextRun() *ScheduleBuilder {
	b.NextRunAt = nil
	return b
}

// WithLastRunAt sets last_run_at.
func (b *ScheduleBuilder) WithLastRunAt(d time.Time) *ScheduleBuilder {
	b.LastRunAt = &d
	return b
}

// WithRecipients sets the email recipients.
func (b *ScheduleBuilder) WithRecipients(recipients ...string) *ScheduleBuilder {
	b.EmailRecipients = recipients
	return b
}

// WithBoardMinutes requests board minutes with each run.
func (b *ScheduleBuilder) WithBoardMinutes() *ScheduleBuilder {
	b.IncludeBoardMinutes = true
	return b
}

// Paused marks the schedule paused.
func (b *ScheduleBuilder) Paused() *ScheduleBuilder {
	b.IsPaused = true
	return b
}

// Inactive marks the schedule inactive.
func (b *ScheduleBuilder) Inactive() *ScheduleBuilder {
	b.IsActive = false
	return b
}

// Build creates the schedule in the database and returns it.
func (b *ScheduleBuilder) Build(t *testing.T, db *sql.DB) model.RecurringDividend {
	t.Helper()

	recipients, err := json.Marshal(b.EmailRecipients)
	if err != nil {
		t.Fatalf("Failed to encode recipients: %v", err)
	}

	query := `
		INSERT INTO recurring_dividends (id, user_id, company_id, shareholder_id, amount_per_share, total_amount,
			share_class, share_count, frequency, day_of_month, start_date, end_date, is_active, is_paused,
			email_recipients, include_board_minutes, template, last_run_at, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.Exec(query,
		b.ID, b.UserID, b.CompanyID, b.ShareholderID, b.AmountPerShare.String(), b.TotalAmount.String(),
		b.ShareClass, b.ShareCount, string(b.Frequency), b.DayOfMonth, dateString(&b.StartDate), dateString(b.EndDate),
		b.IsActive, b.IsPaused, string(recipients), b.IncludeBoardMinutes, b.Template,
		dateString(b.LastRunAt), dateString(b.NextRunAt),
	)
	if err != nil {
		t.Fatalf("Failed to create test schedule: %v", err)
	}

	return b.RecurringDividend
}

// DividendRecordBuilder provides a fluent interface for creating test dividend records.
type DividendRecordBuilder struct {
	model.DividendRecord
}

// NewDividendRecord creates a record of 100 shares at 10.00 paid on 2025-03-31.
func NewDividendRecord(userID, companyID, shareholderID string) *DividendRecordBuilder {
	return &DividendRecordBuilder{model.DividendRecord{
		ID:             MakeID(),
		UserID:         userID,
		CompanyID:      companyID,
		ShareholderID:  shareholderID,
		VoucherNumber:  "TEST-" + randomAlphanumeric(8),
		ShareClass:     "Ordinary",
		Shares:         100,
		AmountPerShare: decimal.RequireFromString("10.00"),
		TotalAmount:    decimal.RequireFromString("1000.00"),
		PaymentDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TaxYear:        "2024/25",
		Template:       "classic",
		Format:         "pdf",
	}}
}

// WithPaymentDate sets the payment date.
func (b *DividendRecordBuilder) WithPaymentDate(d time.Time) *DividendRecordBuilder {
	b.PaymentDate = d
	return b
}

// WithVoucherNumber sets the voucher number.
func (b *DividendRecordBuilder) WithVoucherNumber(number string) *DividendRecordBuilder {
	b.VoucherNumber = number
	return b
}

// WithFilePath sets the storage path.
func (b *DividendRecordBuilder) WithFilePath(path string) *DividendRecordBuilder {
	b.FilePath = path
	return b
}

// Build creates the record in the database and returns it.
func (b *DividendRecordBuilder) Build(t *testing.T, db *sql.DB) model.DividendRecord {
	t.Helper()

	if b.FilePath == "" {
		b.FilePath = b.UserID + "/dividends/" + b.ID + ".pdf"
	}
	query := `
		INSERT INTO dividend_records (id, user_id, company_id, shareholder_id, voucher_number, share_class, shares,
			amount_per_share, total_amount, payment_date, tax_year, template, format, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		b.ID, b.UserID, b.CompanyID, b.ShareholderID, b.VoucherNumber, b.ShareClass, b.Shares,
		b.AmountPerShare.String(), b.TotalAmount.String(), dateString(&b.PaymentDate), b.TaxYear,
		b.Template, b.Format, b.FilePath,
	)
	if err != nil {
		t.Fatalf("Failed to create test dividend record: %v", err)
	}

	return b.DividendRecord
}

// MinutesBuilder provides a fluent interface for creating test board minutes.
type MinutesBuilder struct {
	model.Minutes
}

// NewMinutes creates minutes of a board meeting on 2025-03-31.
func NewMinutes(userID, companyID string) *MinutesBuilder {
	return &MinutesBuilder{model.Minutes{
		ID:          MakeID(),
		UserID:      userID,
		CompanyID:   companyID,
		MeetingDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Title:       "Board meeting",
		Chair:       "Jane Smith",
		Attendees:   []string{"Jane Smith"},
		Resolutions: []model.Resolution{{Title: "Interim dividend", Text: "It was resolved to pay an interim dividend."}},
		Template:    "classic",
		Format:      "pdf",
	}}
}

// WithFilePath sets the storage path.
func (b *MinutesBuilder) WithFilePath(path string) *MinutesBuilder {
	b.FilePath = path
	return b
}

// Build creates the minutes in the database and returns them.
func (b *MinutesBuilder) Build(t *testing.T, db *sql.DB) model.Minutes {
	t.Helper()

	if b.FilePath == "" {
		b.FilePath = b.UserID + "/minutes/" + b.ID + ".pdf"
	}
	attendees, _ := json.Marshal(b.Attendees)
	resolutions, _ := json.Marshal(b.Resolutions)

	query := `
		INSERT INTO minutes (id, user_id, company_id, meeting_date, title, chair, attendees, resolutions,
			payment_date, template, format, file_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		b.ID, b.UserID, b.CompanyID, dateString(&b.MeetingDate), b.Title, b.Chair,
		string(attendees), string(resolutions), dateString(b.PaymentDate), b.Template, b.Format, b.FilePath,
	)
	if err != nil {
		t.Fatalf("Failed to create test minutes: %v", err)
	}

	return b.Minutes
}

// RunBuilder provides a fluent interface for creating test scheduled runs.
type RunBuilder struct {
	model.ScheduledDividendRun
}

// NewRun creates a pending run for schedule on scheduledFor.
func NewRun(schedule model.RecurringDividend, scheduledFor time.Time) *RunBuilder {
	return &RunBuilder{model.ScheduledDividendRun{
		ID:           MakeID(),
		ScheduleID:   schedule.ID,
		UserID:       schedule.UserID,
		CompanyID:    schedule.CompanyID,
		Status:       model.RunPending,
		ScheduledFor: scheduledFor,
	}}
}

// WithStatus sets the status.
func (b *RunBuilder) WithStatus(s model.RunStatus) *RunBuilder {
	b.Status = s
	return b
}

// Build creates the run in the database and returns it.
func (b *RunBuilder) Build(t *testing.T, db *sql.DB) model.ScheduledDividendRun {
	t.Helper()

	query := `
		INSERT INTO scheduled_dividend_runs (id, schedule_id, user_id, company_id, status, scheduled_for)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := db.Exec(query, b.ID, b.ScheduleID, b.UserID, b.CompanyID, string(b.Status), dateString(&b.ScheduledFor)); err != nil {
		t.Fatalf("Failed to create test run: %v", err)
	}

	return b.ScheduledDividendRun
}

func dateString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// Convenience functions

// CompanyFixture is a profile, company with one director and one shareholder.
type CompanyFixture struct {
	Profile     model.Profile
	Company     model.Company
	Shareholder model.Shareholder
}

// CreateCompanyFixture creates a user on plan with a company, a director and a 100-share holder.
//
// Example usage:
//
//	fx := testutil.CreateCompanyFixture(t, db, "professional")
func CreateCompanyFixture(t *testing.T, db *sql.DB, plan string) CompanyFixture {
	t.Helper()

	profile := NewProfile().WithPlan(plan).Build(t, db)
	company := NewCompany(profile.ID).WithDirector("Jane Smith").Build(t, db)
	holder := NewShareholder(profile.ID, company.ID).WithName("Jane Smith").Build(t, db)

	return CompanyFixture{Profile: profile, Company: company, Shareholder: holder}
}
