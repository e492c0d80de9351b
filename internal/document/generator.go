package document

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skip2/go-qrcode"
)

// Generator renders documents. It holds no per-document state and is safe for
// concurrent use.
type Generator struct {
	logos  LogoSource
	logger *slog.Logger
}

// NewGenerator creates a Generator. A nil logos source renders without logos.
func NewGenerator(logos LogoSource, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logos: logos, logger: logger}
}

// Voucher renders a dividend voucher.
func (g *Generator) Voucher(ctx context.Context, d VoucherData, templateID string, format Format) ([]byte, error) {
	tpl, err := LookupTemplate(templateID)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		w := newPDFWriter(tpl, "Dividend voucher "+d.VoucherNumber)
		qr, err := verificationQR(d.VerifyURL)
		if err != nil {
			return nil, err
		}
		w.voucherPage(d, g.logo(ctx, d.LogoURL), qr)
		return w.bytes()
	case FormatDOCX:
		return voucherDocx(tpl, d)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Minutes renders board minutes.
func (g *Generator) Minutes(ctx context.Context, d MinutesData, templateID string, format Format) ([]byte, error) {
	tpl, err := LookupTemplate(templateID)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		w := newPDFWriter(tpl, "Board minutes "+FormatLongDate(d.MeetingDate))
		w.minutesPages(d, g.logo(ctx, d.LogoURL))
		return w.bytes()
	case FormatDOCX:
		return minutesDocx(tpl, d)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// logo fetches a logo, returning nil when there is none or the fetch fails.
func (g *Generator) logo(ctx context.Context, url string) *Image {
	if url == "" || g.logos == nil {
		return nil
	}
	img, err := g.logos.FetchLogo(ctx, url)
	if err != nil {
		g.logger.WarnContext(ctx, "rendering without logo", "url", url, "error", err)
		return nil
	}
	return &img
}

func verificationQR(url string) (*Image, error) {
	if url == "" {
		return nil, nil
	}
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode verification qr code: %w", err)
	}
	return &Image{Data: png, Type: "PNG"}, nil
}
