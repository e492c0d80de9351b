package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

// ErrDuplicateVoucherNumber is returned when a voucher number is already taken by the company.
var ErrDuplicateVoucherNumber = errors.New("voucher number already used")

// DividendRecordRepository provides data access methods for the dividend_records table.
type DividendRecordRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewDividendRecordRepository creates a new DividendRecordRepository with the provided database connection.
func NewDividendRecordRepository(db *sql.DB) *DividendRecordRepository {
	return &DividendRecordRepository{db: db}
}

// WithTx returns a new DividendRecordRepository scoped to the provided transaction.
func (r *DividendRecordRepository) WithTx(tx *sql.Tx) *DividendRecordRepository {
	return &DividendRecordRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *DividendRecordRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const dividendRecordColumns = `
	d.id, d.user_id, d.company_id, d.shareholder_id, d.voucher_number, d.share_class, d.shares,
	d.amount_per_share, d.total_amount, d.payment_date, d.tax_year, d.template, d.format,
	d.file_path, d.created_at
`

const dividendDetailColumns = dividendRecordColumns + `,
	COALESCE(sh.name, ''), COALESCE(sh.address, ''), COALESCE(c.name, '')
`

const dividendDetailFrom = `
	FROM dividend_records d
	LEFT JOIN shareholders sh ON sh.id = d.shareholder_id
	LEFT JOIN companies c ON c.id = d.company_id
`

func scanDividendRecord(row rowScanner, extra ...any) (model.DividendRecord, error) {
	var d model.DividendRecord
	var paymentStr, createdStr string

	dest := []any{
		&d.ID,
		&d.UserID,
		&d.CompanyID,
		&d.ShareholderID,
		&d.VoucherNumber,
		&d.ShareClass,
		&d.Shares,
		&d.AmountPerShare,
		&d.TotalAmount,
		&paymentStr,
		&d.TaxYear,
		&d.Template,
		&d.Format,
		&d.FilePath,
		&createdStr,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.DividendRecord{}, err
	}

	var err error
	if d.PaymentDate, err = ParseTime(paymentStr); err != nil {
		return model.DividendRecord{}, fmt.Errorf("failed to parse payment_date: %w", err)
	}
	if d.CreatedAt, err = ParseTime(createdStr); err != nil {
		return model.DividendRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return d, nil
}

func scanDividendDetail(row rowScanner) (model.DividendRecordDetail, error) {
	var detail model.DividendRecordDetail
	rec, err := scanDividendRecord(row, &detail.ShareholderName, &detail.ShareholderAddress, &detail.CompanyName)
	if err != nil {
		return model.DividendRecordDetail{}, err
	}
	detail.DividendRecord = rec
	return detail, nil
}

// InsertDividendRecord persists a generated voucher's record.
func (r *DividendRecordRepository) InsertDividendRecord(ctx context.Context, d *model.DividendRecord) error {
	query := `
		INSERT INTO dividend_records (id, user_id, company_id, shareholder_id, voucher_number, share_class,
			shares, amount_per_share, total_amount, payment_date, tax_year, template, format, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.getQuerier().ExecContext(ctx, query,
		d.ID,
		d.UserID,
		d.CompanyID,
		d.ShareholderID,
		d.VoucherNumber,
		d.ShareClass,
		d.Shares,
		d.AmountPerShare,
		d.TotalAmount,
		formatDate(d.PaymentDate),
		d.TaxYear,
		d.Template,
		d.Format,
		d.FilePath,
		formatTimestamp(d.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateVoucherNumber, d.VoucherNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to insert dividend_record: %w", err)
	}
	return nil
}

// NextVoucherNumber allocates the next voucher number for a company in the year
// of paymentDate, formatted as DIV-<year>-<nnnn>. Allocated numbers are never
// handed out again, even after the record is deleted. Call it inside the
// transaction that inserts the record so a failed insert releases the number.
func (r *DividendRecordRepository) NextVoucherNumber(ctx context.Context, companyID string, paymentDate time.Time) (string, error) {
	year := paymentDate.Year()

	var seq int
	err := r.getQuerier().QueryRowContext(ctx, `
		INSERT INTO voucher_sequences (company_id, year, last_number) VALUES (?, ?, 1)
		ON CONFLICT (company_id, year) DO UPDATE SET last_number = last_number + 1
		RETURNING last_number`,
		companyID, year,
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to allocate voucher number: %w", err)
	}
	return fmt.Sprintf("DIV-%d-%04d", year, seq), nil
}

// GetDividendRecord retrieves one record with display names, scoped to userID.
func (r *DividendRecordRepository) GetDividendRecord(ctx context.Context, userID, id string) (model.DividendRecordDetail, error) {
	query := `SELECT ` + dividendDetailColumns + dividendDetailFrom + ` WHERE d.id = ? AND d.user_id = ?`

	detail, err := scanDividendDetail(r.getQuerier().QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return model.DividendRecordDetail{}, apperrors.ErrDividendRecordNotFound
	}
	if err != nil {
		return model.DividendRecordDetail{}, fmt.Errorf("failed to get dividend_record: %w", err)
	}
	return detail, nil
}

// GetDividendRecords retrieves the given records in the order of ids.
// Returns ErrDividendRecordNotFound if any id is missing or owned by another user.
func (r *DividendRecordRepository) GetDividendRecords(ctx context.Context, userID string, ids []string) ([]model.DividendRecordDetail, error) {
	if len(ids) == 0 {
		return []model.DividendRecordDetail{}, nil
	}

	//nolint:gosec // G202: only placeholders are concatenated
	query := `SELECT ` + dividendDetailColumns + dividendDetailFrom +
		` WHERE d.user_id = ? AND d.id IN (` + placeholders(len(ids)) + `)`

	args := make([]any, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend_records table: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]model.DividendRecordDetail, len(ids))
	for rows.Next() {
		detail, err := scanDividendDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend_records results: %w", err)
		}
		byID[detail.ID] = detail
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend_records table: %w", err)
	}

	out := make([]model.DividendRecordDetail, 0, len(ids))
	for _, id := range ids {
		detail, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrDividendRecordNotFound, id)
		}
		out = append(out, detail)
	}
	return out, nil
}

// ListDividendRecords returns a user's records, newest payment first,
// optionally filtered by company.
func (r *DividendRecordRepository) ListDividendRecords(ctx context.Context, userID, companyID string) ([]model.DividendRecordDetail, error) {
	query := `SELECT ` + dividendDetailColumns + dividendDetailFrom + ` WHERE d.user_id = ?`
	args := []any{userID}
	if companyID != "" {
		query += ` AND d.company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY d.payment_date DESC, d.created_at DESC`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dividend_records table: %w", err)
	}
	defer rows.Close()

	records := []model.DividendRecordDetail{}
	for rows.Next() {
		detail, err := scanDividendDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dividend_records results: %w", err)
		}
		records = append(records, detail)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dividend_records table: %w", err)
	}
	return records, nil
}

// GetVerification returns the public voucher summary used by the QR verification link.
func (r *DividendRecordRepository) GetVerification(ctx context.Context, id string) (model.VoucherVerification, error) {
	query := `SELECT ` + dividendDetailColumns + dividendDetailFrom + ` WHERE d.id = ?`

	detail, err := scanDividendDetail(r.getQuerier().QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.VoucherVerification{}, apperrors.ErrDividendRecordNotFound
	}
	if err != nil {
		return model.VoucherVerification{}, fmt.Errorf("failed to get dividend_record: %w", err)
	}

	return model.VoucherVerification{
		VoucherNumber: detail.VoucherNumber,
		CompanyName:   detail.CompanyName,
		PaymentDate:   detail.PaymentDate,
		TotalAmount:   detail.TotalAmount,
		ShareClass:    detail.ShareClass,
	}, nil
}

// DeleteDividendRecord removes a record. Usage counters are not affected.
func (r *DividendRecordRepository) DeleteDividendRecord(ctx context.Context, userID, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM dividend_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete dividend_record: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrDividendRecordNotFound
	}
	return nil
}
