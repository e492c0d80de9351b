package testutil

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeCompanyName generates a unique limited company name for testing.
//
// Example usage:
//
//	name := testutil.MakeCompanyName("Acme")
//	// Returns: "Acme ABC123 Ltd"
func MakeCompanyName(base string) string {
	if base == "" {
		base = "Company"
	}
	return base + " " + randomAlphanumeric(6) + " Ltd"
}

// MakeCompanyNumber generates an eight-digit Companies House number.
func MakeCompanyNumber() string {
	//nolint:gosec // G404: Using math/rand for test data generation is acceptable
	return fmt.Sprintf("%08d", rand.Intn(100000000))
}

// MakePersonName generates a unique person name for testing.
//
// Example usage:
//
//	name := testutil.MakePersonName("Alex")
//	// Returns: "Alex Q7RT2Z"
func MakePersonName(first string) string {
	if first == "" {
		first = "Sam"
	}
	return first + " " + randomAlphanumeric(6)
}

// MakeEmail generates a unique example.com address for testing.
func MakeEmail(local string) string {
	if local == "" {
		local = "user"
	}
	return local + "." + strings.ToLower(randomAlphanumeric(6)) + "@example.com"
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
