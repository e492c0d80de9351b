package document_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ndewijer/Dividend-Admin-Backend/internal/document"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

func sampleVoucher() document.VoucherData {
	return document.VoucherData{
		VoucherNumber:  "DIV-2025-0001",
		Company:        document.Party{Name: "Acme Widgets Ltd", Number: "01234567", Address: "1 High Street\nLondon"},
		Shareholder:    document.Party{Name: "Jane Smith", Address: "2 Park Lane\nLondon"},
		ShareClass:     "Ordinary",
		Shares:         100,
		AmountPerShare: decimal.RequireFromString("12.5"),
		TotalAmount:    decimal.RequireFromString("1250"),
		PaymentDate:    time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		TaxYear:        "2024/25",
		Signatory:      "Jane Smith",
		VerifyURL:      "https://example.com/verify/abc",
	}
}

func sampleMinutes() document.MinutesData {
	return document.MinutesData{
		Company:     document.Party{Name: "Acme Widgets Ltd", Number: "01234567"},
		MeetingDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Chair:       "Jane Smith",
		Attendees:   []string{"Jane Smith", "John Smith"},
		Resolutions: []document.Resolution{{Title: "Interim dividend", Text: "Resolved to pay £12.50 per share."}},
	}
}

type failingLogos struct{ calls int }

func (f *failingLogos) FetchLogo(context.Context, string) (document.Image, error) {
	f.calls++
	return document.Image{}, errors.New("connection refused")
}

// TestGenerator_Voucher tests voucher rendering in both formats.
//
// WHY: Vouchers are the legal record of a dividend payment; both formats must
// render and the Word file must carry the amounts.
func TestGenerator_Voucher(t *testing.T) {
	gen := document.NewGenerator(nil, nil)
	ctx := context.Background()

	t.Run("pdf", func(t *testing.T) {
		out, err := gen.Voucher(ctx, sampleVoucher(), "classic", document.FormatPDF)
		if err != nil {
			t.Fatalf("Voucher() returned unexpected error: %v", err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF")) {
			t.Errorf("Expected PDF header, got %q", out[:min(8, len(out))])
		}
	})

	t.Run("docx", func(t *testing.T) {
		out, err := gen.Voucher(ctx, sampleVoucher(), "modern", document.FormatDOCX)
		if err != nil {
			t.Fatalf("Voucher() returned unexpected error: %v", err)
		}
		body := readDocxBody(t, out)
		for _, want := range []string{"Jane Smith", "£1,250.00", "DIV-2025-0001", "https://example.com/verify/abc"} {
			if !strings.Contains(body, want) {
				t.Errorf("Expected document.xml to contain %q", want)
			}
		}
	})

	t.Run("docx table border follows the template", func(t *testing.T) {
		for tpl, bordered := range map[string]bool{"classic": true, "modern": false} {
			out, err := gen.Voucher(ctx, sampleVoucher(), tpl, document.FormatDOCX)
			if err != nil {
				t.Fatalf("Voucher(%s) returned unexpected error: %v", tpl, err)
			}
			if got := strings.Contains(readDocxBody(t, out), "TableGrid"); got != bordered {
				t.Errorf("Template %s: expected bordered table %v, got %v", tpl, bordered, got)
			}
		}
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := gen.Voucher(ctx, sampleVoucher(), "baroque", document.FormatPDF)
		if !errors.Is(err, document.ErrUnknownTemplate) {
			t.Errorf("Expected ErrUnknownTemplate, got %v", err)
		}
	})

	t.Run("every template renders", func(t *testing.T) {
		for _, id := range document.TemplateIDs() {
			if _, err := gen.Voucher(ctx, sampleVoucher(), id, document.FormatPDF); err != nil {
				t.Errorf("template %s: unexpected error: %v", id, err)
			}
		}
	})
}

// TestGenerator_Logo tests the optional logo fetch.
//
// WHY: A broken logo URL must never block a voucher.
func TestGenerator_Logo(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch failure renders without logo", func(t *testing.T) {
		logos := &failingLogos{}
		gen := document.NewGenerator(logos, nil)

		d := sampleVoucher()
		d.LogoURL = "https://logo.invalid/logo.png"
		if _, err := gen.Voucher(ctx, d, "classic", document.FormatPDF); err != nil {
			t.Fatalf("Voucher() returned unexpected error: %v", err)
		}
		if logos.calls != 1 {
			t.Errorf("Expected 1 logo fetch, got %d", logos.calls)
		}
	})

	t.Run("png logo over http", func(t *testing.T) {
		png, err := qrcode.Encode("logo", qrcode.Low, 64)
		if err != nil {
			t.Fatalf("Failed to build test png: %v", err)
		}
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		}))
		defer server.Close()

		src := document.NewHTTPLogoSourceWithClient(server.Client())
		img, err := src.FetchLogo(ctx, server.URL)
		if err != nil {
			t.Fatalf("FetchLogo() returned unexpected error: %v", err)
		}
		if img.Type != "PNG" {
			t.Errorf("Expected PNG, got %s", img.Type)
		}

		gen := document.NewGenerator(src, nil)
		d := sampleVoucher()
		d.LogoURL = server.URL
		if _, err := gen.Voucher(ctx, d, "modern", document.FormatPDF); err != nil {
			t.Fatalf("Voucher() returned unexpected error: %v", err)
		}
	})

	t.Run("non-image response is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("<html>not an image</html>"))
		}))
		defer server.Close()

		_, err := document.NewHTTPLogoSourceWithClient(server.Client()).FetchLogo(ctx, server.URL)
		if err == nil {
			t.Error("Expected error for html logo, got nil")
		}
	})
}

// TestGenerator_Minutes tests minutes rendering.
func TestGenerator_Minutes(t *testing.T) {
	gen := document.NewGenerator(nil, nil)

	out, err := gen.Minutes(context.Background(), sampleMinutes(), "minimal", document.FormatDOCX)
	if err != nil {
		t.Fatalf("Minutes() returned unexpected error: %v", err)
	}
	body := readDocxBody(t, out)
	if !strings.Contains(body, "Jane Smith and John Smith") {
		t.Error("Expected attendees to be listed")
	}
	if !strings.Contains(body, "1. Interim dividend") {
		t.Error("Expected numbered resolution")
	}

	pdf, err := gen.Minutes(context.Background(), sampleMinutes(), "classic", document.FormatPDF)
	if err != nil {
		t.Fatalf("Minutes() returned unexpected error: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Error("Expected PDF output")
	}
}

// TestGenerator_BoardPack tests stage reporting and ordering.
//
// WHY: The UI renders a determinate progress bar from these callbacks, and the
// pack order is fixed: cover, minutes, cap table, vouchers.
func TestGenerator_BoardPack(t *testing.T) {
	gen := document.NewGenerator(nil, nil)
	ctx := context.Background()
	payDate := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	vouchers := make([]document.VoucherData, 3)
	for i := range vouchers {
		vouchers[i] = sampleVoucher()
		vouchers[i].VoucherNumber = "DIV-2025-000" + string(rune('1'+i))
	}

	input := document.BoardPackInput{
		Company:     document.Party{Name: "Acme Widgets Ltd", Number: "01234567"},
		YearEnd:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		PaymentDate: payDate,
		Minutes:     sampleMinutes(),
		CapTable: &document.CapTableData{
			AsOf: payDate,
			Rows: []document.CapTableRow{{Holder: "Jane Smith", ShareClass: "Ordinary", Shares: 100, Percentage: decimal.NewFromInt(100)}},
		},
		Vouchers: vouchers,
	}

	t.Run("with cap table reports five stages in order", func(t *testing.T) {
		var labels []string
		var totals []int
		pack, err := gen.BoardPack(ctx, input, func(step, total int, label string) {
			if step != len(labels)+1 {
				t.Errorf("Expected step %d, got %d", len(labels)+1, step)
			}
			labels = append(labels, label)
			totals = append(totals, total)
		})
		if err != nil {
			t.Fatalf("BoardPack() returned unexpected error: %v", err)
		}

		want := []string{document.StageCover, document.StageMinutes, document.StageCapTable, document.StageVouchers, document.StageFinalizing}
		if strings.Join(labels, "|") != strings.Join(want, "|") {
			t.Errorf("Expected stages %v, got %v", want, labels)
		}
		for _, total := range totals {
			if total != 5 {
				t.Errorf("Expected total 5, got %d", total)
			}
		}

		var titles []string
		for _, s := range pack.Sections {
			titles = append(titles, s.Title)
		}
		wantTitles := "Cover|Board minutes|Cap table|Voucher DIV-2025-0001|Voucher DIV-2025-0002|Voucher DIV-2025-0003"
		if strings.Join(titles, "|") != wantTitles {
			t.Errorf("Expected sections %s, got %s", wantTitles, strings.Join(titles, "|"))
		}
		if !bytes.HasPrefix(pack.PDF, []byte("%PDF")) {
			t.Error("Expected PDF output")
		}
	})

	t.Run("without cap table skips the stage", func(t *testing.T) {
		in := input
		in.CapTable = nil

		var labels []string
		_, err := gen.BoardPack(ctx, in, func(_, total int, label string) {
			if total != 4 {
				t.Errorf("Expected total 4, got %d", total)
			}
			labels = append(labels, label)
		})
		if err != nil {
			t.Fatalf("BoardPack() returned unexpected error: %v", err)
		}
		for _, l := range labels {
			if l == document.StageCapTable {
				t.Error("Cap table stage must not run")
			}
		}
		if len(labels) != 4 {
			t.Errorf("Expected 4 stages, got %d", len(labels))
		}
	})

	t.Run("mixed payment dates abort before any stage", func(t *testing.T) {
		in := input
		in.Vouchers = append([]document.VoucherData{}, vouchers...)
		in.Vouchers[1].PaymentDate = payDate.AddDate(0, 1, 0)

		called := false
		pack, err := gen.BoardPack(ctx, in, func(int, int, string) { called = true })
		if err == nil {
			t.Fatal("Expected error for mixed payment dates, got nil")
		}
		if pack != nil {
			t.Error("Expected no partial pack")
		}
		if called {
			t.Error("Expected no progress callbacks")
		}
	})
}

func TestFormatGBP(t *testing.T) {
	tests := map[string]string{
		"0":           "£0.00",
		"12.5":        "£12.50",
		"1250":        "£1,250.00",
		"1234567.891": "£1,234,567.89",
		"-100":        "-£100.00",
	}
	for in, want := range tests {
		if got := document.FormatGBP(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatGBP(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]document.Format{"": document.FormatPDF, "PDF": document.FormatPDF, "docx": document.FormatDOCX} {
		got, err := document.ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := document.ParseFormat("odt"); !errors.Is(err, document.ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func readDocxBody(t *testing.T, data []byte) string {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Output is not a zip package: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open document.xml: %v", err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("Failed to read document.xml: %v", err)
		}
		return string(b)
	}
	t.Fatal("word/document.xml missing from package")
	return ""
}
