package request

import "github.com/shopspring/decimal"

// GenerateDividendRequest represents the request body for generating a dividend voucher.
// requestId is a client generated UUID; replaying it returns the original record.
type GenerateDividendRequest struct {
	RequestID       string          `json:"requestId"`
	CompanyID       string          `json:"companyId"`
	ShareholderID   string          `json:"shareholderId"`
	ShareClass      string          `json:"shareClass"`
	Shares          int64           `json:"shares,omitempty"`
	AmountPerShare  decimal.Decimal `json:"amountPerShare"`
	PaymentDate     string          `json:"paymentDate"`
	DeclarationDate string          `json:"declarationDate,omitempty"`
	Template        string          `json:"template,omitempty"`
	Format          string          `json:"format,omitempty"`
}

// ResolutionRequest is one resolution in a minutes request.
type ResolutionRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// GenerateMinutesRequest represents the request body for generating board minutes.
// When resolutions are omitted and paymentDate is set, a standard dividend
// resolution is recorded.
type GenerateMinutesRequest struct {
	RequestID   string              `json:"requestId"`
	CompanyID   string              `json:"companyId"`
	MeetingDate string              `json:"meetingDate"`
	Title       string              `json:"title,omitempty"`
	Location    string              `json:"location,omitempty"`
	Chair       string              `json:"chair,omitempty"`
	Attendees   []string            `json:"attendees,omitempty"`
	Resolutions []ResolutionRequest `json:"resolutions,omitempty"`
	PaymentDate string              `json:"paymentDate,omitempty"`
	Template    string              `json:"template,omitempty"`
	Format      string              `json:"format,omitempty"`
}

// BoardPackRequest represents the request body for assembling a board pack.
// dividendRecordIds are rendered in the given order and must share one payment date.
type BoardPackRequest struct {
	CompanyID         string   `json:"companyId"`
	YearEnd           string   `json:"yearEnd"`
	PaymentDate       string   `json:"paymentDate"`
	DividendRecordIDs []string `json:"dividendRecordIds"`
	MinutesID         string   `json:"minutesId"`
	IncludeCapTable   bool     `json:"includeCapTable"`
	Template          string   `json:"template,omitempty"`
	PreparedBy        string   `json:"preparedBy,omitempty"`
}

// DeliveryRequest represents the request body for emailing stored documents.
type DeliveryRequest struct {
	Recipients        []string `json:"recipients"`
	Subject           string   `json:"subject"`
	HTML              string   `json:"html,omitempty"`
	DividendRecordIDs []string `json:"dividendRecordIds,omitempty"`
	MinutesIDs        []string `json:"minutesIds,omitempty"`
}
