package document

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Board pack stage labels, reported in this order.
const (
	StageCover      = "Building cover page"
	StageMinutes    = "Adding board minutes"
	StageCapTable   = "Adding cap table"
	StageVouchers   = "Adding vouchers"
	StageFinalizing = "Finalizing"
)

// ProgressFunc receives the 1-based step, the total number of steps and the step label.
type ProgressFunc func(step, total int, label string)

// BoardPackInput is the content of one board pack.
type BoardPackInput struct {
	Company     Party
	YearEnd     time.Time
	PaymentDate time.Time
	Minutes     MinutesData
	CapTable    *CapTableData // nil skips the cap table stage
	Vouchers    []VoucherData // rendered in this order
	TemplateID  string
	LogoURL     string
	PreparedBy  string
}

// Section records where one part of the pack sits in the combined PDF.
type Section struct {
	Title     string `json:"title"`
	StartPage int    `json:"startPage"`
	EndPage   int    `json:"endPage"`
}

// BoardPack is a finished combined PDF.
type BoardPack struct {
	PDF      []byte
	Sections []Section
}

// BoardPackStages returns the stage labels for a pack with or without a cap table.
func BoardPackStages(includeCapTable bool) []string {
	if includeCapTable {
		return []string{StageCover, StageMinutes, StageCapTable, StageVouchers, StageFinalizing}
	}
	return []string{StageCover, StageMinutes, StageVouchers, StageFinalizing}
}

// BoardPack renders cover, minutes, optional cap table and vouchers into one PDF.
// Any failure aborts the whole pack; no partial output is returned.
func (g *Generator) BoardPack(ctx context.Context, in BoardPackInput, progress ProgressFunc) (*BoardPack, error) {
	if len(in.Vouchers) == 0 {
		return nil, errors.New("board pack needs at least one voucher")
	}
	for _, v := range in.Vouchers {
		if !sameDay(v.PaymentDate, in.PaymentDate) {
			return nil, fmt.Errorf("voucher %s is dated %s, pack payment date is %s",
				v.VoucherNumber, v.PaymentDate.Format("2006-01-02"), in.PaymentDate.Format("2006-01-02"))
		}
	}

	tpl, err := LookupTemplate(in.TemplateID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	w := newPDFWriter(tpl, "Board pack "+in.Company.Name)
	logo := g.logo(ctx, in.LogoURL)
	stages := BoardPackStages(in.CapTable != nil)
	pack := &BoardPack{}

	section := func(title string, render func()) error {
		start := w.pdf.PageNo() + 1
		render()
		if err := w.pdf.Error(); err != nil {
			return fmt.Errorf("%s: %w", title, err)
		}
		pack.Sections = append(pack.Sections, Section{Title: title, StartPage: start, EndPage: w.pdf.PageNo()})
		return nil
	}

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress(i+1, len(stages), stage)

		var err error
		switch stage {
		case StageCover:
			err = section("Cover", func() { w.coverPage(in, logo) })
		case StageMinutes:
			err = section("Board minutes", func() { w.minutesPages(in.Minutes, logo) })
		case StageCapTable:
			err = section("Cap table", func() { w.capTablePage(in.Company, *in.CapTable) })
		case StageVouchers:
			for _, v := range in.Vouchers {
				qr, qrErr := verificationQR(v.VerifyURL)
				if qrErr != nil {
					return nil, qrErr
				}
				if err = section("Voucher "+v.VoucherNumber, func() { w.voucherPage(v, logo, qr) }); err != nil {
					break
				}
			}
		case StageFinalizing:
			pack.PDF, err = w.bytes()
		}
		if err != nil {
			return nil, fmt.Errorf("board pack stage %q failed: %w", stage, err)
		}
	}

	return pack, nil
}

func (w *pdfWriter) coverPage(in BoardPackInput, logo *Image) {
	w.header("Board Pack", "", in.Company, logo)

	w.font("", w.tpl.BodySize)
	rows := [][2]string{
		{"Financial year end", FormatLongDate(in.YearEnd)},
		{"Dividend payment date", FormatLongDate(in.PaymentDate)},
		{"Vouchers included", strconv.Itoa(len(in.Vouchers))},
	}
	if in.PreparedBy != "" {
		rows = append(rows, [2]string{"Prepared by", in.PreparedBy})
	}
	w.keyValues(rows)

	w.font("B", w.tpl.BodySize)
	w.line("Contents")
	w.font("", w.tpl.BodySize)
	n := 1
	w.line(strconv.Itoa(n) + ". Board minutes")
	if in.CapTable != nil {
		n++
		w.line(strconv.Itoa(n) + ". Capitalisation table")
	}
	n++
	w.line(strconv.Itoa(n) + ". Dividend vouchers")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
