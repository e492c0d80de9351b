package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID      = fmt.Errorf("invalid UUID format")
	ErrInvalidDateRange = fmt.Errorf("invalid date range")
	ErrEmptySlice       = fmt.Errorf("slice cannot be empty")
)

var validate = validator.New()

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateUUIDs validates a slice of UUIDs
func ValidateUUIDs(ids []string) error {
	if len(ids) == 0 {
		return ErrEmptySlice
	}
	for _, id := range ids {
		if err := ValidateUUID(id); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEmail checks a single address with the validator "email" rule.
func ValidateEmail(address string) error {
	if err := validate.Var(address, "required,email"); err != nil {
		return fmt.Errorf("invalid email address %q", address)
	}
	return nil
}

// ValidateEmails checks that list is non-empty and every entry is a valid address.
func ValidateEmails(list []string) error {
	if len(list) == 0 {
		return ErrEmptySlice
	}
	for _, address := range list {
		if err := ValidateEmail(strings.TrimSpace(address)); err != nil {
			return err
		}
	}
	return nil
}

// checkUUID records a field error when id is not a UUID.
func checkUUID(errs map[string]string, field, id string) {
	if strings.TrimSpace(id) == "" {
		errs[field] = field + " is required"
		return
	}
	if err := ValidateUUID(id); err != nil {
		errs[field] = err.Error()
	}
}

// checkDate records a field error when value is not YYYY-MM-DD.
// An empty optional value is accepted.
func checkDate(errs map[string]string, field, value string, required bool) *time.Time {
	if strings.TrimSpace(value) == "" {
		if required {
			errs[field] = "date is required"
		}
		return nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		errs[field] = "must be in YYYY-MM-DD format"
		return nil
	}
	return &t
}

func result(errs map[string]string) error {
	if len(errs) > 0 {
		return &Error{Fields: errs}
	}
	return nil
}
