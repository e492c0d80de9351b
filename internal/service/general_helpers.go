package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const percentPrecision = 2

// usagePeriod returns the YYYY-MM period that monthly counters belong to.
func usagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// percentOf returns part as a percentage of total, rounded to two decimal places.
// A zero total yields zero.
//
// Example:
//
//	percentOf(1, 3)   // 33.33
//	percentOf(50, 50) // 100
func percentOf(part, total int64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).Round(percentPrecision)
}

// withTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// verifyURL is the public verification link encoded in a voucher's QR code.
func verifyURL(base, recordID string) string {
	if base == "" {
		return ""
	}
	return base + "/" + recordID
}
