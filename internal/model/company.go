package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is a UK limited company administered by a user.
type Company struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Name               string    `json:"name"`
	RegistrationNumber string    `json:"registrationNumber"`
	RegisteredAddress  string    `json:"registeredAddress"`
	LogoURL            string    `json:"logoUrl,omitempty"`
	YearEnd            string    `json:"yearEnd,omitempty"` // MM-DD
	Officers           []Officer `json:"officers"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Directors returns the names of all officers with the director role.
func (c Company) Directors() []string {
	var out []string
	for _, o := range c.Officers {
		if o.Role == OfficerDirector {
			out = append(out, o.Name)
		}
	}
	return out
}

const (
	OfficerDirector  = "director"
	OfficerSecretary = "secretary"
)

// Officer is a director or secretary of a company.
type Officer struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// Shareholder is a holder of shares in a company.
type Shareholder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CompanyID string    `json:"companyId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Shareholding is the number of shares of one class held by a shareholder.
type Shareholding struct {
	ID            string `json:"id"`
	CompanyID     string `json:"companyId"`
	ShareholderID string `json:"shareholderId"`
	ShareClass    string `json:"shareClass"`
	Shares        int64  `json:"shares"`
}

// CapTableEntry is one row of a cap table snapshot.
type CapTableEntry struct {
	ShareholderID   string          `json:"shareholderId"`
	ShareholderName string          `json:"shareholderName"`
	ShareClass      string          `json:"shareClass"`
	Shares          int64           `json:"shares"`
	Percentage      decimal.Decimal `json:"percentage"` // of the share class
}

// CapTable is a snapshot of current shareholdings by class and holder.
type CapTable struct {
	CompanyID string           `json:"companyId"`
	AsOf      time.Time        `json:"asOf"`
	Entries   []CapTableEntry  `json:"entries"`
	Totals    map[string]int64 `json:"totals"` // shares issued per class
}
