package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind identifies the two generated document types that count
// against a plan's monthly quota.
type DocumentKind string

const (
	KindDividend DocumentKind = "dividend"
	KindMinutes  DocumentKind = "minutes"
)

// Valid reports whether k is a known document kind.
func (k DocumentKind) Valid() bool {
	return k == KindDividend || k == KindMinutes
}

// DividendRecord is a generated dividend voucher and the declaration it records.
type DividendRecord struct {
	ID             string          `json:"id"`
	UserID         string          `json:"userId"`
	CompanyID      string          `json:"companyId"`
	ShareholderID  string          `json:"shareholderId"`
	VoucherNumber  string          `json:"voucherNumber"`
	ShareClass     string          `json:"shareClass"`
	Shares         int64           `json:"shares"`
	AmountPerShare decimal.Decimal `json:"amountPerShare"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaymentDate    time.Time       `json:"paymentDate"`
	TaxYear        string          `json:"taxYear"`
	Template       string          `json:"template"`
	Format         string          `json:"format"`
	FilePath       string          `json:"filePath"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// DividendRecordDetail enriches a record with the names needed to render it.
type DividendRecordDetail struct {
	DividendRecord
	ShareholderName    string `json:"shareholderName"`
	ShareholderAddress string `json:"shareholderAddress"`
	CompanyName        string `json:"companyName"`
}

// Resolution is a single resolution recorded in board minutes.
type Resolution struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Minutes is a generated board minutes document.
type Minutes struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	CompanyID   string       `json:"companyId"`
	MeetingDate time.Time    `json:"meetingDate"`
	Title       string       `json:"title"`
	Chair       string       `json:"chair"`
	Attendees   []string     `json:"attendees"`
	Resolutions []Resolution `json:"resolutions"`
	PaymentDate *time.Time   `json:"paymentDate,omitempty"`
	Template    string       `json:"template"`
	Format      string       `json:"format"`
	FilePath    string       `json:"filePath"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// GenerationRequest records a processed client request id so that a retried
// generation returns the original record instead of creating another.
type GenerationRequest struct {
	RequestID string
	UserID    string
	Kind      DocumentKind
	RecordID  string
	FilePath  string
	CreatedAt time.Time
}

// VoucherVerification is the public subset of a voucher exposed for QR verification.
type VoucherVerification struct {
	VoucherNumber string          `json:"voucherNumber"`
	CompanyName   string          `json:"companyName"`
	PaymentDate   time.Time       `json:"paymentDate"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ShareClass    string          `json:"shareClass"`
}
