// Package document renders dividend vouchers, board minutes and board packs.
//
// Generators are pure functions of their input apart from the optional remote
// logo fetch. They never persist anything: callers upload the returned bytes
// and write the matching database record.
package document

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the output file format of a generated document.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var (
	ErrUnknownTemplate   = errors.New("unknown document template")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ParseFormat maps a user supplied format to a Format. Empty means PDF.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "docx", "word":
		return FormatDOCX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// RGB is a colour in 0-255 components.
type RGB struct{ R, G, B int }

// Template controls the visual style of a document.
type Template struct {
	ID          string
	Name        string
	Font        string // core PDF font family
	Primary     RGB
	Muted       RGB
	HeaderBand  bool // filled colour band behind the title
	Border      bool // frame around the voucher body
	TitleSize   float64
	BodySize    float64
	DocxPrimary string // hex without '#'
}

// DefaultTemplate is used when no template is requested.
const DefaultTemplate = "classic"

var templates = map[string]Template{
	"classic": {
		ID:          "classic",
		Name:        "Classic",
		Font:        "Times",
		Primary:     RGB{20, 33, 61},
		Muted:       RGB{90, 90, 90},
		Border:      true,
		TitleSize:   20,
		BodySize:    11,
		DocxPrimary: "14213D",
	},
	"modern": {
		ID:          "modern",
		Name:        "Modern",
		Font:        "Helvetica",
		Primary:     RGB{0, 112, 192},
		Muted:       RGB{110, 117, 125},
		HeaderBand:  true,
		TitleSize:   22,
		BodySize:    10,
		DocxPrimary: "0070C0",
	},
	"minimal": {
		ID:          "minimal",
		Name:        "Minimal",
		Font:        "Helvetica",
		Primary:     RGB{0, 0, 0},
		Muted:       RGB{128, 128, 128},
		TitleSize:   16,
		BodySize:    10,
		DocxPrimary: "000000",
	},
}

// LookupTemplate returns the template for id; an empty id selects the default.
func LookupTemplate(id string) (Template, error) {
	if id == "" {
		id = DefaultTemplate
	}
	t, ok := templates[strings.ToLower(id)]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t, nil
}

// TemplateIDs lists the available template identifiers.
func TemplateIDs() []string {
	return []string{"classic", "modern", "minimal"}
}
