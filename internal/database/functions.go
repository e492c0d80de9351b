package database

import (
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/recurrence"
	"modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var (
	registerOnce sync.Once
	registerErr  error
)

// registerFunctions exposes the recurrence calculator to SQL.
// calculate_next_run_date(frequency, day_of_month, start_date, last_run)
// evaluates against the current date; calculate_next_run_date_at takes the
// reference date as a fifth argument.
func registerFunctions() error {
	registerOnce.Do(func() {
		if err := sqlite.RegisterScalarFunction("calculate_next_run_date", 4, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			return calculateNextRunDate(args, time.Now().UTC())
		}); err != nil {
			registerErr = fmt.Errorf("failed to register calculate_next_run_date: %w", err)
			return
		}
		if err := sqlite.RegisterDeterministicScalarFunction("calculate_next_run_date_at", 5, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			today, err := dateArg(args[4])
			if err != nil || today == nil {
				return nil, fmt.Errorf("calculate_next_run_date_at: invalid reference date")
			}
			return calculateNextRunDate(args[:4], *today)
		}); err != nil {
			registerErr = fmt.Errorf("failed to register calculate_next_run_date_at: %w", err)
		}
	})
	return registerErr
}

func calculateNextRunDate(args []driver.Value, today time.Time) (driver.Value, error) {
	freq, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("calculate_next_run_date: frequency must be text")
	}

	day, ok := args[1].(int64)
	if !ok {
		return nil, fmt.Errorf("calculate_next_run_date: day_of_month must be an integer")
	}

	start, err := dateArg(args[2])
	if err != nil || start == nil {
		return nil, fmt.Errorf("calculate_next_run_date: invalid start_date")
	}

	lastRun, err := dateArg(args[3])
	if err != nil {
		return nil, fmt.Errorf("calculate_next_run_date: invalid last_run")
	}

	next, err := recurrence.Next(recurrence.Frequency(freq), int(day), *start, lastRun, today)
	if err != nil {
		return nil, err
	}
	return next.Format(dateLayout), nil
}

// dateArg accepts NULL, a date string, an RFC3339 timestamp string or a time value.
func dateArg(v driver.Value) (*time.Time, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &val, nil
	case []byte:
		return parseDate(string(val))
	case string:
		return parseDate(val)
	default:
		return nil, fmt.Errorf("unsupported date value %T", v)
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
