package request

// CreateCompanyRequest represents the request body for registering a company.
type CreateCompanyRequest struct {
	Name               string   `json:"name"`
	RegistrationNumber string   `json:"registrationNumber"`
	RegisteredAddress  string   `json:"registeredAddress"`
	LogoURL            string   `json:"logoUrl,omitempty"`
	YearEnd            string   `json:"yearEnd,omitempty"` // MM-DD
	Directors          []string `json:"directors"`
	Secretary          string   `json:"secretary,omitempty"`
}

// CreateShareholderRequest represents the request body for adding a shareholder
// with an initial holding.
type CreateShareholderRequest struct {
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	Email      string `json:"email,omitempty"`
	ShareClass string `json:"shareClass"`
	Shares     int64  `json:"shares"`
}

// CreateOfficerRequest represents the request body for appointing an officer.
type CreateOfficerRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// TaxCalculationRequest represents the request body for a dividend tax estimate.
// taxYear may be omitted when paymentDate is given.
type TaxCalculationRequest struct {
	TaxYear     string `json:"taxYear,omitempty"`
	PaymentDate string `json:"paymentDate,omitempty"`
	OtherIncome string `json:"otherIncome"`
	Dividends   string `json:"dividends"`
}
