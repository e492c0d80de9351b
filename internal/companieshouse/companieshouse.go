// Package companieshouse is a thin client for the Companies House public data API,
// used to pre-fill company and officer details.
package companieshouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
)

const defaultSearchLimit = 20

// Client defines the interface for Companies House lookups.
// This interface enables dependency injection and testing with mock implementations.
type Client interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
	Profile(ctx context.Context, number string) (CompanyProfile, error)
	Officers(ctx context.Context, number string) ([]Officer, error)
}

// APIClient queries the Companies House REST API with HTTP basic auth,
// the API key as user name and an empty password.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates a new Companies House client with a 10 second timeout.
//
// Returns:
//   - *APIClient: A new client instance ready for use
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return NewAPIClientWithHTTPClient(baseURL, apiKey, &http.Client{Timeout: 10 * time.Second})
}

// NewAPIClientWithHTTPClient creates a client using the given http.Client.
func NewAPIClientWithHTTPClient(baseURL, apiKey string, client *http.Client) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// Search finds companies whose name matches query.
//
// Parameters:
//   - ctx: Context for cancellation
//   - query: Company name or number fragment
//
// Returns:
//   - []SearchResult: Matching companies, at most 20
//   - error: If the query is empty or the API request fails
func (c *APIClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("items_per_page", fmt.Sprint(defaultSearchLimit))

	var raw searchResponse
	if err := c.get(ctx, "/search/companies?"+params.Encode(), &raw); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(raw.Items))
	for _, item := range raw.Items {
		results = append(results, SearchResult{
			CompanyNumber:  item.CompanyNumber,
			Name:           item.Title,
			Status:         item.CompanyStatus,
			Type:           item.CompanyType,
			IncorporatedOn: item.DateOfCreation,
			Address:        item.AddressSnippet,
		})
	}
	return results, nil
}

// Profile fetches the registered details of one company.
//
// Returns:
//   - CompanyProfile: Registered name, address and accounting reference date
//   - error: apperrors.ErrCompanyHouseNotFound for an unknown number, or a request failure
func (c *APIClient) Profile(ctx context.Context, number string) (CompanyProfile, error) {
	number, err := normaliseNumber(number)
	if err != nil {
		return CompanyProfile{}, err
	}

	var raw profileResponse
	if err := c.get(ctx, "/company/"+number, &raw); err != nil {
		return CompanyProfile{}, err
	}

	profile := CompanyProfile{
		CompanyNumber:     raw.CompanyNumber,
		Name:              raw.CompanyName,
		Status:            raw.CompanyStatus,
		Type:              raw.Type,
		IncorporatedOn:    raw.DateOfCreation,
		RegisteredAddress: raw.RegisteredOfficeAddress.lines(),
		SICCodes:          raw.SICCodes,
	}
	ard := raw.Accounts.AccountingReferenceDate
	month, mErr := strconv.Atoi(ard.Month)
	day, dErr := strconv.Atoi(ard.Day)
	if mErr == nil && dErr == nil {
		profile.YearEnd = fmt.Sprintf("%02d-%02d", month, day)
	}
	return profile, nil
}

// Officers lists the officers of one company, current and resigned.
func (c *APIClient) Officers(ctx context.Context, number string) ([]Officer, error) {
	number, err := normaliseNumber(number)
	if err != nil {
		return nil, err
	}

	var raw officersResponse
	if err := c.get(ctx, "/company/"+number+"/officers", &raw); err != nil {
		return nil, err
	}

	officers := make([]Officer, 0, len(raw.Items))
	for _, item := range raw.Items {
		officers = append(officers, Officer{
			Name:        item.Name,
			Role:        item.OfficerRole,
			AppointedOn: item.AppointedOn,
			ResignedOn:  item.ResignedOn,
			Address:     item.Address.lines(),
		})
	}
	return officers, nil
}

// get executes an authenticated GET and decodes the JSON body into out.
func (c *APIClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToQueryCompanyHouse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return apperrors.ErrCompanyHouseNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", apperrors.ErrFailedToQueryCompanyHouse, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrFailedToQueryCompanyHouse, err)
	}
	return nil
}

// normaliseNumber upper-cases a company number and left-pads purely numeric
// numbers to eight digits.
func normaliseNumber(number string) (string, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" || len(number) > 8 {
		return "", fmt.Errorf("invalid company number %q", number)
	}
	for _, r := range number {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return "", fmt.Errorf("invalid company number %q", number)
		}
	}
	if number[0] >= '0' && number[0] <= '9' {
		number = strings.Repeat("0", 8-len(number)) + number
	}
	return number, nil
}
