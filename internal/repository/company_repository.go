package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

// CompanyRepository provides data access methods for companies, officers,
// shareholders and shareholdings.
type CompanyRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewCompanyRepository creates a new CompanyRepository with the provided database connection.
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// WithTx returns a new CompanyRepository scoped to the provided transaction.
func (r *CompanyRepository) WithTx(tx *sql.Tx) *CompanyRepository {
	return &CompanyRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *CompanyRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const companyColumns = `id, user_id, name, registration_number, registered_address, logo_url, year_end, created_at`

func scanCompany(row rowScanner) (model.Company, error) {
	var c model.Company
	var createdStr string
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.RegistrationNumber,
		&c.RegisteredAddress,
		&c.LogoURL,
		&c.YearEnd,
		&createdStr,
	)
	if err != nil {
		return model.Company{}, err
	}
	if c.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.Company{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	c.Officers = []model.Officer{}
	return c, nil
}

// InsertCompany persists a company and its officers.
func (r *CompanyRepository) InsertCompany(ctx context.Context, c *model.Company) error {
	query := `INSERT INTO companies (` + companyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.getQuerier().ExecContext(ctx, query,
		c.ID,
		c.UserID,
		c.Name,
		c.RegistrationNumber,
		c.RegisteredAddress,
		c.LogoURL,
		c.YearEnd,
		formatTimestamp(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}

	for i := range c.Officers {
		c.Officers[i].CompanyID = c.ID
		if err := r.InsertOfficer(ctx, &c.Officers[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetCompany retrieves a company with its officers, scoped to userID.
func (r *CompanyRepository) GetCompany(ctx context.Context, userID, id string) (model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = ? AND user_id = ?`

	c, err := scanCompany(r.getQuerier().QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Company{}, apperrors.ErrCompanyNotFound
	}
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to get company: %w", err)
	}

	officers, err := r.ListOfficers(ctx, c.ID)
	if err != nil {
		return model.Company{}, err
	}
	c.Officers = officers
	return c, nil
}

// ListCompanies returns all companies owned by userID.
func (r *CompanyRepository) ListCompanies(ctx context.Context, userID string) ([]model.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE user_id = ? ORDER BY name ASC`

	rows, err := r.getQuerier().QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies table: %w", err)
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan companies results: %w", err)
		}
		companies = append(companies, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating companies table: %w", err)
	}
	return companies, nil
}

// InsertOfficer adds an officer to a company.
func (r *CompanyRepository) InsertOfficer(ctx context.Context, o *model.Officer) error {
	_, err := r.getQuerier().ExecContext(ctx,
		`INSERT INTO officers (id, company_id, name, role) VALUES (?, ?, ?, ?)`,
		o.ID, o.CompanyID, o.Name, o.Role,
	)
	if err != nil {
		return fmt.Errorf("failed to insert officer: %w", err)
	}
	return nil
}

// ListOfficers returns a company's officers ordered by role then name.
func (r *CompanyRepository) ListOfficers(ctx context.Context, companyID string) ([]model.Officer, error) {
	rows, err := r.getQuerier().QueryContext(ctx,
		`SELECT id, company_id, name, role FROM officers WHERE company_id = ? ORDER BY role ASC, name ASC`,
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query officers table: %w", err)
	}
	defer rows.Close()

	officers := []model.Officer{}
	for rows.Next() {
		var o model.Officer
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.Name, &o.Role); err != nil {
			return nil, fmt.Errorf("failed to scan officers results: %w", err)
		}
		officers = append(officers, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating officers table: %w", err)
	}
	return officers, nil
}

// InsertShareholder persists a shareholder.
func (r *CompanyRepository) InsertShareholder(ctx context.Context, s *model.Shareholder) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO shareholders (id, user_id, company_id, name, address, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.CompanyID, s.Name, s.Address, s.Email, formatTimestamp(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert shareholder: %w", err)
	}
	return nil
}

// GetShareholder retrieves a shareholder scoped to userID.
func (r *CompanyRepository) GetShareholder(ctx context.Context, userID, id string) (model.Shareholder, error) {
	var s model.Shareholder
	var createdStr string
	err := r.getQuerier().QueryRowContext(ctx, `
		SELECT id, user_id, company_id, name, address, email, created_at
		FROM shareholders WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&s.ID, &s.UserID, &s.CompanyID, &s.Name, &s.Address, &s.Email, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Shareholder{}, apperrors.ErrShareholderNotFound
	}
	if err != nil {
		return model.Shareholder{}, fmt.Errorf("failed to get shareholder: %w", err)
	}
	if s.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.Shareholder{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return s, nil
}

// ListShareholders returns a company's shareholders ordered by name.
func (r *CompanyRepository) ListShareholders(ctx context.Context, userID, companyID string) ([]model.Shareholder, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT id, user_id, company_id, name, address, email, created_at
		FROM shareholders WHERE user_id = ? AND company_id = ? ORDER BY name ASC`, userID, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query shareholders table: %w", err)
	}
	defer rows.Close()

	out := []model.Shareholder{}
	for rows.Next() {
		var s model.Shareholder
		var createdStr string
		if err := rows.Scan(&s.ID, &s.UserID, &s.CompanyID, &s.Name, &s.Address, &s.Email, &createdStr); err != nil {
			return nil, fmt.Errorf("failed to scan shareholders results: %w", err)
		}
		if s.CreatedAt, err = ParseTime(createdStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shareholders table: %w", err)
	}
	return out, nil
}

// UpsertShareholding sets the number of shares a holder has in a class.
func (r *CompanyRepository) UpsertShareholding(ctx context.Context, h *model.Shareholding) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO shareholdings (id, company_id, shareholder_id, share_class, shares)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (company_id, shareholder_id, share_class) DO UPDATE SET shares = excluded.shares`,
		h.ID, h.CompanyID, h.ShareholderID, h.ShareClass, h.Shares,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert shareholding: %w", err)
	}
	return nil
}

// GetShareholding returns the shares a holder has in a class, or zero if none.
func (r *CompanyRepository) GetShareholding(ctx context.Context, companyID, shareholderID, shareClass string) (int64, error) {
	var shares int64
	err := r.getQuerier().QueryRowContext(ctx, `
		SELECT shares FROM shareholdings
		WHERE company_id = ? AND shareholder_id = ? AND share_class = ?`,
		companyID, shareholderID, shareClass,
	).Scan(&shares)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get shareholding: %w", err)
	}
	return shares, nil
}

// ListCapTableRows returns every non-zero holding of a company with the holder's name,
// ordered by share class then holder name.
func (r *CompanyRepository) ListCapTableRows(ctx context.Context, companyID string) ([]model.CapTableEntry, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT h.shareholder_id, s.name, h.share_class, h.shares
		FROM shareholdings h
		INNER JOIN shareholders s ON s.id = h.shareholder_id
		WHERE h.company_id = ? AND h.shares > 0
		ORDER BY h.share_class ASC, s.name ASC`, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query shareholdings table: %w", err)
	}
	defer rows.Close()

	out := []model.CapTableEntry{}
	for rows.Next() {
		var e model.CapTableEntry
		if err := rows.Scan(&e.ShareholderID, &e.ShareholderName, &e.ShareClass, &e.Shares); err != nil {
			return nil, fmt.Errorf("failed to scan shareholdings results: %w", err)
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shareholdings table: %w", err)
	}
	return out, nil
}
