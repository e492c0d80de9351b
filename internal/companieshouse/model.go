package companieshouse

// searchResponse is the raw JSON body of GET /search/companies.
type searchResponse struct {
	TotalResults int `json:"total_results"`
	Items        []struct {
		CompanyNumber  string `json:"company_number"`
		Title          string `json:"title"`
		CompanyStatus  string `json:"company_status"`
		CompanyType    string `json:"company_type"`
		DateOfCreation string `json:"date_of_creation"`
		AddressSnippet string `json:"address_snippet"`
	} `json:"items"`
}

// profileResponse is the raw JSON body of GET /company/{number}.
type profileResponse struct {
	CompanyNumber           string   `json:"company_number"`
	CompanyName             string   `json:"company_name"`
	CompanyStatus           string   `json:"company_status"`
	Type                    string   `json:"type"`
	DateOfCreation          string   `json:"date_of_creation"`
	RegisteredOfficeAddress address  `json:"registered_office_address"`
	SICCodes                []string `json:"sic_codes"`
	Accounts                struct {
		AccountingReferenceDate struct {
			Day   string `json:"day"`
			Month string `json:"month"`
		} `json:"accounting_reference_date"`
	} `json:"accounts"`
}

// officersResponse is the raw JSON body of GET /company/{number}/officers.
type officersResponse struct {
	Items []struct {
		Name        string  `json:"name"`
		OfficerRole string  `json:"officer_role"`
		AppointedOn string  `json:"appointed_on"`
		ResignedOn  string  `json:"resigned_on"`
		Address     address `json:"address"`
	} `json:"items"`
}

type address struct {
	PremisesLine string `json:"premises"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// lines joins the populated address parts, one per line.
func (a address) lines() string {
	var out string
	first := a.AddressLine1
	if a.PremisesLine != "" {
		first = a.PremisesLine + " " + first
	}
	for _, p := range []string{first, a.AddressLine2, a.Locality, a.Region, a.PostalCode, a.Country} {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += p
	}
	return out
}

// SearchResult is one company returned by a name search.
type SearchResult struct {
	CompanyNumber  string `json:"companyNumber"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	Type           string `json:"type"`
	IncorporatedOn string `json:"incorporatedOn,omitempty"`
	Address        string `json:"address,omitempty"`
}

// CompanyProfile is the registered detail of one company.
type CompanyProfile struct {
	CompanyNumber     string   `json:"companyNumber"`
	Name              string   `json:"name"`
	Status            string   `json:"status"`
	Type              string   `json:"type"`
	IncorporatedOn    string   `json:"incorporatedOn,omitempty"`
	RegisteredAddress string   `json:"registeredAddress"`
	SICCodes          []string `json:"sicCodes,omitempty"`
	YearEnd           string   `json:"yearEnd,omitempty"` // MM-DD accounting reference date
}

// Officer is one current or former company officer.
type Officer struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	AppointedOn string `json:"appointedOn,omitempty"`
	ResignedOn  string `json:"resignedOn,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Active reports whether the officer has not resigned.
func (o Officer) Active() bool { return o.ResignedOn == "" }
