package document

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth    = 210.0
	marginX      = 20.0
	contentWidth = pageWidth - 2*marginX
	lineHeight   = 6.0
)

// pdfWriter appends styled pages to one fpdf document, so that vouchers,
// minutes and cap tables render identically standalone and inside a board pack.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tpl    Template
	tr     func(string) string
	images int
}

func newPDFWriter(tpl Template, title string) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, 20, marginX)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle(title, true)
	pdf.SetCreator("Dividend Admin", true)

	return &pdfWriter{
		pdf: pdf,
		tpl: tpl,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (w *pdfWriter) font(style string, size float64) {
	w.pdf.SetFont(w.tpl.Font, style, size)
}

func (w *pdfWriter) color(c RGB) {
	w.pdf.SetTextColor(c.R, c.G, c.B)
}

func (w *pdfWriter) line(text string) {
	w.pdf.CellFormat(contentWidth, lineHeight, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) paragraph(text string) {
	w.pdf.MultiCell(contentWidth, lineHeight, w.tr(text), "", "L", false)
}

// embedImage registers img under a unique name and draws it at x, y with width wd.
func (w *pdfWriter) embedImage(img Image, x, y, wd float64) {
	w.images++
	name := "img" + strconv.Itoa(w.images)
	opts := fpdf.ImageOptions{ImageType: img.Type}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	w.pdf.ImageOptions(name, x, y, wd, 0, false, opts, 0, "")
}

// header draws the title block and the issuing company's identity.
func (w *pdfWriter) header(title, reference string, company Party, logo *Image) {
	w.pdf.AddPage()
	top := w.pdf.GetY()

	if w.tpl.HeaderBand {
		w.pdf.SetFillColor(w.tpl.Primary.R, w.tpl.Primary.G, w.tpl.Primary.B)
		w.pdf.Rect(0, 0, pageWidth, 32, "F")
		w.pdf.SetTextColor(255, 255, 255)
		w.pdf.SetY(11)
	} else {
		w.color(w.tpl.Primary)
	}

	if logo != nil {
		w.embedImage(*logo, pageWidth-marginX-35, 6, 35)
	}

	w.font("B", w.tpl.TitleSize)
	w.pdf.CellFormat(contentWidth, 10, w.tr(title), "", 1, "L", false, 0, "")
	if reference != "" {
		w.font("", w.tpl.BodySize)
		w.line(reference)
	}

	if w.tpl.HeaderBand {
		w.pdf.SetY(40)
	} else {
		w.pdf.SetY(top + 24)
		w.pdf.SetDrawColor(w.tpl.Primary.R, w.tpl.Primary.G, w.tpl.Primary.B)
		w.pdf.Line(marginX, w.pdf.GetY()-4, pageWidth-marginX, w.pdf.GetY()-4)
	}

	w.color(w.tpl.Primary)
	w.font("B", w.tpl.BodySize+2)
	w.line(company.Name)
	w.color(w.tpl.Muted)
	w.font("", w.tpl.BodySize)
	if company.Number != "" {
		w.line("Company number " + company.Number)
	}
	for _, l := range addressLines(company.Address) {
		w.line(l)
	}
	w.pdf.Ln(6)
	w.color(RGB{0, 0, 0})
}

// keyValues draws a two-column table of label/value pairs.
func (w *pdfWriter) keyValues(rows [][2]string) {
	border := ""
	if w.tpl.Border {
		border = "1"
	}
	for _, kv := range rows {
		w.font("B", w.tpl.BodySize)
		w.pdf.CellFormat(60, lineHeight+2, w.tr(kv[0]), border, 0, "L", false, 0, "")
		w.font("", w.tpl.BodySize)
		w.pdf.CellFormat(contentWidth-60, lineHeight+2, w.tr(kv[1]), border, 1, "L", false, 0, "")
	}
	w.pdf.Ln(4)
}

func (w *pdfWriter) signature(role, name, date string) {
	w.pdf.Ln(10)
	w.font("", w.tpl.BodySize)
	w.line("Signed: ____________________________")
	if name != "" {
		w.line(role + ": " + name)
	}
	if date != "" {
		w.line("Date: " + date)
	}
}

func (w *pdfWriter) voucherPage(d VoucherData, logo *Image, qr *Image) {
	w.header("Dividend Voucher", "Voucher no. "+d.VoucherNumber, d.Company, logo)

	w.font("B", w.tpl.BodySize)
	w.line("Shareholder")
	w.font("", w.tpl.BodySize)
	w.line(d.Shareholder.Name)
	for _, l := range addressLines(d.Shareholder.Address) {
		w.line(l)
	}
	w.pdf.Ln(6)

	w.keyValues([][2]string{
		{"Payment date", FormatLongDate(d.PaymentDate)},
		{"Tax year", d.TaxYear},
		{"Share class", d.ShareClass},
		{"Shares held", strconv.FormatInt(d.Shares, 10)},
		{"Dividend per share", FormatGBP(d.AmountPerShare)},
		{"Total dividend paid", FormatGBP(d.TotalAmount)},
	})

	w.font("", w.tpl.BodySize)
	w.paragraph(fmt.Sprintf(
		"%s has paid a dividend of %s per %s share to the above shareholder in respect of %d shares, "+
			"a total of %s. Please retain this voucher as evidence of dividend income for your tax return.",
		d.Company.Name, FormatGBP(d.AmountPerShare), d.ShareClass, d.Shares, FormatGBP(d.TotalAmount),
	))

	declared := d.DeclarationDate
	if declared.IsZero() {
		declared = d.PaymentDate
	}
	w.signature("Director", d.Signatory, FormatLongDate(declared))

	if qr != nil {
		y := w.pdf.GetY() + 8
		w.embedImage(*qr, pageWidth-marginX-30, y, 30)
		w.pdf.SetXY(pageWidth-marginX-70, y+31)
		w.color(w.tpl.Muted)
		w.font("", 8)
		w.pdf.CellFormat(70, 4, "Scan to verify this voucher", "", 1, "R", false, 0, "")
		w.color(RGB{0, 0, 0})
	}
}

func (w *pdfWriter) minutesPages(d MinutesData, logo *Image) {
	title := d.Title
	if title == "" {
		title = "Minutes of a Meeting of the Board of Directors"
	}
	w.header(title, "", d.Company, logo)

	w.font("", w.tpl.BodySize)
	held := "Held on " + FormatLongDate(d.MeetingDate)
	if d.Location != "" {
		held += " at " + d.Location
	}
	w.line(held)
	w.pdf.Ln(2)

	w.keyValues([][2]string{
		{"Chair", d.Chair},
		{"Present", joinNames(d.Attendees)},
	})

	w.font("", w.tpl.BodySize)
	w.paragraph("The chair noted that a quorum was present and declared the meeting open.")
	w.pdf.Ln(4)

	for i, r := range d.Resolutions {
		w.color(w.tpl.Primary)
		w.font("B", w.tpl.BodySize)
		w.line(fmt.Sprintf("%d. %s", i+1, r.Title))
		w.color(RGB{0, 0, 0})
		w.font("", w.tpl.BodySize)
		w.paragraph(r.Text)
		w.pdf.Ln(3)
	}

	w.paragraph("There being no further business, the meeting was closed.")
	w.signature("Chair", d.Chair, FormatLongDate(d.MeetingDate))
}

func (w *pdfWriter) capTablePage(company Party, c CapTableData) {
	w.header("Capitalisation Table", "As at "+FormatLongDate(c.AsOf), company, nil)

	widths := []float64{70, 40, 30, 30}
	headings := []string{"Shareholder", "Share class", "Shares", "% of class"}

	w.pdf.SetFillColor(w.tpl.Primary.R, w.tpl.Primary.G, w.tpl.Primary.B)
	w.pdf.SetTextColor(255, 255, 255)
	w.font("B", w.tpl.BodySize)
	for i, h := range headings {
		w.pdf.CellFormat(widths[i], lineHeight+2, h, "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(-1)

	w.color(RGB{0, 0, 0})
	w.font("", w.tpl.BodySize)
	for _, r := range c.Rows {
		w.pdf.CellFormat(widths[0], lineHeight+2, w.tr(r.Holder), "1", 0, "L", false, 0, "")
		w.pdf.CellFormat(widths[1], lineHeight+2, w.tr(r.ShareClass), "1", 0, "L", false, 0, "")
		w.pdf.CellFormat(widths[2], lineHeight+2, strconv.FormatInt(r.Shares, 10), "1", 0, "R", false, 0, "")
		w.pdf.CellFormat(widths[3], lineHeight+2, r.Percentage.StringFixed(2)+"%", "1", 1, "R", false, 0, "")
	}
}

func (w *pdfWriter) bytes() ([]byte, error) {
	if err := w.pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	out := ""
	for i, n := range names {
		switch {
		case i == 0:
			out = n
		case i == len(names)-1:
			out += " and " + n
		default:
			out += ", " + n
		}
	}
	return out
}
