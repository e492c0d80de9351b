package document

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Party identifies a company or a person on a document.
type Party struct {
	Name    string
	Number  string // company registration number, empty for people
	Address string // newline separated
}

// VoucherData is everything a dividend voucher shows.
type VoucherData struct {
	VoucherNumber   string
	Company         Party
	Shareholder     Party
	ShareClass      string
	Shares          int64
	AmountPerShare  decimal.Decimal
	TotalAmount     decimal.Decimal
	PaymentDate     time.Time
	DeclarationDate time.Time
	TaxYear         string
	Signatory       string // director signing the voucher
	LogoURL         string
	VerifyURL       string // encoded as a QR code when set
}

// Resolution is one resolution recorded in minutes.
type Resolution struct {
	Title string
	Text  string
}

// MinutesData is everything board minutes show.
type MinutesData struct {
	Company     Party
	Title       string
	MeetingDate time.Time
	Location    string
	Chair       string
	Attendees   []string
	Resolutions []Resolution
	LogoURL     string
}

// CapTableRow is one holding in a cap table snapshot.
type CapTableRow struct {
	Holder     string
	ShareClass string
	Shares     int64
	Percentage decimal.Decimal
}

// CapTableData is a snapshot of shareholdings.
type CapTableData struct {
	AsOf time.Time
	Rows []CapTableRow
}

// FormatGBP renders an amount as pounds with thousands separators, e.g. £1,234.50.
func FormatGBP(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "£" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatLongDate renders a date as "2 January 2006".
func FormatLongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

func addressLines(addr string) []string {
	var out []string
	for _, line := range strings.Split(addr, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
