package document

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

// borderedTableStyle is the grid style shipped in the default godocx template.
const borderedTableStyle = "TableGrid"

// docxWriter lays a voucher or minutes out as a single-section Word document.
type docxWriter struct {
	tpl Template
	doc *docx.RootDoc
}

func newDocxWriter(tpl Template) (*docxWriter, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("failed to create docx: %w", err)
	}
	return &docxWriter{tpl: tpl, doc: doc}, nil
}

// run styles one text run; size is in points.
func (w *docxWriter) run(p *docx.Paragraph, text string, bold bool, size float64, color string) {
	r := p.AddText(text).Size(uint64(size))
	if bold {
		r.Bold(true)
	}
	if color != "" {
		r.Color(color)
	}
}

func (w *docxWriter) line(text string, bold bool, size float64, color string) {
	w.run(w.doc.AddEmptyParagraph(), text, bold, size, color)
}

func (w *docxWriter) title(text string) {
	w.line(text, true, w.tpl.TitleSize, w.tpl.DocxPrimary)
}

func (w *docxWriter) heading(text string) {
	w.line(text, true, w.tpl.BodySize+2, w.tpl.DocxPrimary)
}

func (w *docxWriter) text(text string) {
	w.line(text, false, w.tpl.BodySize, "")
}

func (w *docxWriter) bold(text string) {
	w.line(text, true, w.tpl.BodySize, "")
}

func (w *docxWriter) blank() {
	w.doc.AddEmptyParagraph()
}

func (w *docxWriter) party(p Party) {
	w.heading(p.Name)
	if p.Number != "" {
		w.text("Company number " + p.Number)
	}
	for _, l := range addressLines(p.Address) {
		w.text(l)
	}
	w.blank()
}

// table renders rows of cells; the first column is bold.
func (w *docxWriter) table(rows [][]string) {
	tbl := w.doc.AddTable()
	if w.tpl.Border {
		tbl.Style(borderedTableStyle)
	}
	for _, row := range rows {
		tr := tbl.AddRow()
		for i, cell := range row {
			w.run(tr.AddCell().AddParagraph(""), cell, i == 0, w.tpl.BodySize, "")
		}
	}
	w.blank()
}

func (w *docxWriter) signature(role, name, date string) {
	w.blank()
	w.text("Signed: ____________________________")
	if name != "" {
		w.text(role + ": " + name)
	}
	if date != "" {
		w.text("Date: " + date)
	}
}

func (w *docxWriter) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}
	return buf.Bytes(), nil
}

func voucherDocx(tpl Template, d VoucherData) ([]byte, error) {
	w, err := newDocxWriter(tpl)
	if err != nil {
		return nil, err
	}
	w.title("Dividend Voucher")
	w.text("Voucher no. " + d.VoucherNumber)
	w.blank()
	w.party(d.Company)

	w.bold("Shareholder")
	w.text(d.Shareholder.Name)
	for _, l := range addressLines(d.Shareholder.Address) {
		w.text(l)
	}
	w.blank()

	w.table([][]string{
		{"Payment date", FormatLongDate(d.PaymentDate)},
		{"Tax year", d.TaxYear},
		{"Share class", d.ShareClass},
		{"Shares held", strconv.FormatInt(d.Shares, 10)},
		{"Dividend per share", FormatGBP(d.AmountPerShare)},
		{"Total dividend paid", FormatGBP(d.TotalAmount)},
	})

	w.text(fmt.Sprintf(
		"%s has paid a dividend of %s per %s share to the above shareholder in respect of %d shares, "+
			"a total of %s. Please retain this voucher as evidence of dividend income for your tax return.",
		d.Company.Name, FormatGBP(d.AmountPerShare), d.ShareClass, d.Shares, FormatGBP(d.TotalAmount),
	))

	declared := d.DeclarationDate
	if declared.IsZero() {
		declared = d.PaymentDate
	}
	w.signature("Director", d.Signatory, FormatLongDate(declared))
	if d.VerifyURL != "" {
		w.blank()
		w.text("Verify this voucher at " + d.VerifyURL)
	}
	return w.bytes()
}

func minutesDocx(tpl Template, d MinutesData) ([]byte, error) {
	w, err := newDocxWriter(tpl)
	if err != nil {
		return nil, err
	}
	title := d.Title
	if title == "" {
		title = "Minutes of a Meeting of the Board of Directors"
	}
	w.title(title)
	w.blank()
	w.party(d.Company)

	held := "Held on " + FormatLongDate(d.MeetingDate)
	if d.Location != "" {
		held += " at " + d.Location
	}
	w.text(held)
	w.table([][]string{
		{"Chair", d.Chair},
		{"Present", joinNames(d.Attendees)},
	})

	w.text("The chair noted that a quorum was present and declared the meeting open.")
	w.blank()
	for i, r := range d.Resolutions {
		w.heading(fmt.Sprintf("%d. %s", i+1, r.Title))
		w.text(r.Text)
	}
	w.blank()
	w.text("There being no further business, the meeting was closed.")
	w.signature("Chair", d.Chair, FormatLongDate(d.MeetingDate))
	return w.bytes()
}
