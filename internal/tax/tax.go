// Package tax works out UK tax years and the personal dividend tax owed on
// dividends paid by the company.
package tax

import (
	"fmt"
	"sort"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/apperrors"
	"github.com/shopspring/decimal"
)

// YearRates is the rate table for one tax year.
type YearRates struct {
	PersonalAllowance decimal.Decimal
	TaperThreshold    decimal.Decimal // allowance falls by £1 for every £2 of income above this
	BasicBand         decimal.Decimal // width of the basic rate band of taxable income
	AdditionalFrom    decimal.Decimal // taxable income above which the additional rate applies
	DividendAllowance decimal.Decimal
	BasicRate         decimal.Decimal
	HigherRate        decimal.Decimal
	AdditionalRate    decimal.Decimal
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var years = map[string]YearRates{
	"2022/23": {d("12570"), d("100000"), d("37700"), d("150000"), d("2000"), d("0.0875"), d("0.3375"), d("0.3935")},
	"2023/24": {d("12570"), d("100000"), d("37700"), d("125140"), d("1000"), d("0.0875"), d("0.3375"), d("0.3935")},
	"2024/25": {d("12570"), d("100000"), d("37700"), d("125140"), d("500"), d("0.0875"), d("0.3375"), d("0.3935")},
	"2025/26": {d("12570"), d("100000"), d("37700"), d("125140"), d("500"), d("0.0875"), d("0.3375"), d("0.3935")},
}

// TaxYearFor returns the tax year containing date, formatted "2024/25".
// A UK tax year runs from 6 April to 5 April.
func TaxYearFor(date time.Time) string {
	y := date.Year()
	if date.Month() < time.April || (date.Month() == time.April && date.Day() < 6) {
		y--
	}
	return fmt.Sprintf("%d/%02d", y, (y+1)%100)
}

// SupportedYears lists tax years with a rate table, oldest first.
func SupportedYears() []string {
	out := make([]string, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Strings(out)
	return out
}

// Rates returns the rate table for taxYear.
func Rates(taxYear string) (YearRates, error) {
	r, ok := years[taxYear]
	if !ok {
		return YearRates{}, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedTaxYear, taxYear)
	}
	return r, nil
}

// BandSlice is the part of the dividends taxed at one rate.
type BandSlice struct {
	Band   string          `json:"band"`
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Tax    decimal.Decimal `json:"tax"`
}

// Calculation is the dividend tax owed by one individual for one tax year.
type Calculation struct {
	TaxYear           string          `json:"taxYear"`
	OtherIncome       decimal.Decimal `json:"otherIncome"`
	Dividends         decimal.Decimal `json:"dividends"`
	PersonalAllowance decimal.Decimal `json:"personalAllowance"`
	AllowanceUsed     decimal.Decimal `json:"dividendAllowanceUsed"`
	TaxableDividends  decimal.Decimal `json:"taxableDividends"`
	Bands             []BandSlice     `json:"bands"`
	TotalTax          decimal.Decimal `json:"totalTax"`
	EffectiveRate     decimal.Decimal `json:"effectiveRate"` // tax as a share of dividends
}

// Calculate works out the dividend tax on dividends received on top of
// otherIncome (salary and other non-savings income). Dividends are the top
// slice of income; the personal allowance is used against other income first.
func Calculate(taxYear string, otherIncome, dividends decimal.Decimal) (Calculation, error) {
	r, err := Rates(taxYear)
	if err != nil {
		return Calculation{}, err
	}
	if otherIncome.IsNegative() || dividends.IsNegative() {
		return Calculation{}, fmt.Errorf("income must not be negative")
	}

	zero := decimal.Zero
	pa := r.PersonalAllowance
	if total := otherIncome.Add(dividends); total.GreaterThan(r.TaperThreshold) {
		pa = decimal.Max(zero, pa.Sub(total.Sub(r.TaperThreshold).Div(d("2")).Floor()))
	}

	taxableOther := decimal.Max(zero, otherIncome.Sub(pa))
	paLeft := decimal.Max(zero, pa.Sub(otherIncome))
	taxableDividends := decimal.Max(zero, dividends.Sub(paLeft))

	// The dividend allowance is a nil rate band: it uses band space but attracts no tax.
	allowance := decimal.Min(r.DividendAllowance, taxableDividends)
	position := taxableOther.Add(allowance)
	remaining := taxableDividends.Sub(allowance)

	bands := []struct {
		name  string
		upper decimal.Decimal
		rate  decimal.Decimal
	}{
		{"basic", r.BasicBand, r.BasicRate},
		{"higher", r.AdditionalFrom, r.HigherRate},
		{"additional", decimal.NewFromInt(1 << 53), r.AdditionalRate},
	}

	calc := Calculation{
		TaxYear:           taxYear,
		OtherIncome:       otherIncome,
		Dividends:         dividends,
		PersonalAllowance: pa,
		AllowanceUsed:     allowance,
		TaxableDividends:  taxableDividends,
		TotalTax:          zero,
		EffectiveRate:     zero,
	}
	for _, b := range bands {
		if !remaining.IsPositive() {
			break
		}
		room := b.upper.Sub(position)
		if !room.IsPositive() {
			continue
		}
		amount := decimal.Min(room, remaining)
		tax := amount.Mul(b.rate).Round(2)
		calc.Bands = append(calc.Bands, BandSlice{Band: b.name, Amount: amount, Rate: b.rate, Tax: tax})
		calc.TotalTax = calc.TotalTax.Add(tax)
		position = position.Add(amount)
		remaining = remaining.Sub(amount)
	}

	if dividends.IsPositive() {
		calc.EffectiveRate = calc.TotalTax.Div(dividends).Round(4)
	}
	return calc, nil
}
