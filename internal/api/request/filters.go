package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/model"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 200
)

// ParseRunFilters extracts and validates run history filters from query parameters.
// All parameters are optional.
//
// Validation rules:
//   - status: comma-separated run statuses (pending, processing, completed, failed, skipped)
//   - from/to: YYYY-MM-DD, compared against the run's scheduled date
//   - limit: between 1 and 200 (defaults to 50)
func ParseRunFilters(statusParam, fromParam, toParam, limitParam string) (*model.RunFilters, error) {
	filters := &model.RunFilters{Limit: defaultRunLimit}

	if statusParam != "" {
		for _, s := range strings.Split(statusParam, ",") {
			status := model.RunStatus(strings.TrimSpace(strings.ToLower(s)))
			if !status.Valid() {
				return nil, fmt.Errorf("invalid run status: %s", s)
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}

	if fromParam != "" {
		from, err := time.Parse("2006-01-02", fromParam)
		if err != nil {
			return nil, fmt.Errorf("invalid from date: %w", err)
		}
		filters.From = &from
	}
	if toParam != "" {
		to, err := time.Parse("2006-01-02", toParam)
		if err != nil {
			return nil, fmt.Errorf("invalid to date: %w", err)
		}
		filters.To = &to
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return nil, fmt.Errorf("to date must not be before from date")
	}

	if limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 1 || limit > maxRunLimit {
			return nil, fmt.Errorf("limit must be between 1 and %d", maxRunLimit)
		}
		filters.Limit = limit
	}

	return filters, nil
}
