package document

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxLogoBytes = 2 << 20

// Image is a decoded-enough image ready to embed: raw bytes plus the fpdf type name.
type Image struct {
	Data []byte
	Type string // "PNG" or "JPG"
}

// LogoSource fetches company logos.
type LogoSource interface {
	FetchLogo(ctx context.Context, url string) (Image, error)
}

// HTTPLogoSource fetches logos over HTTP.
type HTTPLogoSource struct {
	client *http.Client
}

// NewHTTPLogoSource creates a logo source with a short timeout.
func NewHTTPLogoSource() *HTTPLogoSource {
	return &HTTPLogoSource{client: &http.Client{Timeout: 5 * time.Second}}
}

// NewHTTPLogoSourceWithClient creates a logo source using client.
func NewHTTPLogoSourceWithClient(client *http.Client) *HTTPLogoSource {
	return &HTTPLogoSource{client: client}
}

// FetchLogo downloads url and identifies it as PNG or JPEG.
func (s *HTTPLogoSource) FetchLogo(ctx context.Context, url string) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Image{}, fmt.Errorf("failed to create logo request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("logo request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return Image{}, fmt.Errorf("failed to read logo: %w", err)
	}

	switch http.DetectContentType(data) {
	case "image/png":
		return Image{Data: data, Type: "PNG"}, nil
	case "image/jpeg":
		return Image{Data: data, Type: "JPG"}, nil
	default:
		return Image{}, fmt.Errorf("unsupported logo type %q", http.DetectContentType(data))
	}
}
