package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPStore talks to a bucket-style object API:
//
//	POST   {base}/object/{key}   upload (x-upsert: true)
//	GET    {base}/object/{key}   download
//	DELETE {base}/object/{key}   delete
//
// Requests authenticate with the service key as a bearer token.
type HTTPStore struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewHTTPStore creates an HTTP object store client.
func NewHTTPStore(baseURL, serviceKey string) *HTTPStore {
	return NewHTTPStoreWithClient(baseURL, serviceKey, &http.Client{Timeout: 30 * time.Second})
}

// NewHTTPStoreWithClient creates an HTTP object store client using client.
func NewHTTPStoreWithClient(baseURL, serviceKey string, client *http.Client) *HTTPStore {
	return &HTTPStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: client,
	}
}

func (s *HTTPStore) objectURL(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	parts := strings.Split(k, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/object/" + strings.Join(parts, "/"), nil
}

func (s *HTTPStore) do(ctx context.Context, method, key string, body []byte, contentType string) (*http.Response, error) {
	u, err := s.objectURL(key)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("x-upsert", "true")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage request failed: %w", err)
	}
	return resp, nil
}

// Upload stores data at key, replacing any existing object.
func (s *HTTPStore) Upload(ctx context.Context, key, contentType string, data []byte) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp, err := s.do(ctx, http.MethodPost, key, data, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError("upload", key, resp)
	}
	return nil
}

// Download fetches the object at key.
func (s *HTTPStore) Download(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.do(ctx, http.MethodGet, key, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("download", key, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the object at key. A missing object is not an error.
func (s *HTTPStore) Delete(ctx context.Context, key string) error {
	resp, err := s.do(ctx, http.MethodDelete, key, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode/100 == 2 {
		return nil
	}
	return statusError("delete", key, resp)
}

func statusError(op, key string, resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("storage %s of %s returned status %d: %s", op, key, resp.StatusCode, strings.TrimSpace(string(msg)))
}
