// Package email sends transactional mail through an HTTP email API.
package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client defines the interface for sending email.
// This interface enables dependency injection and testing with mock implementations.
type Client interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// APIClient sends email through the provider's REST API.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewAPIClient creates a new email API client with a 30 second timeout.
//
// Returns:
//   - *APIClient: A new client instance ready for use
func NewAPIClient(baseURL, apiKey string) *APIClient {
	return NewAPIClientWithHTTPClient(baseURL, apiKey, &http.Client{Timeout: 30 * time.Second})
}

// NewAPIClientWithHTTPClient creates a client using the given http.Client.
func NewAPIClientWithHTTPClient(baseURL, apiKey string, client *http.Client) *APIClient {
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// Send delivers msg and returns the provider's message id.
// The message is sent exactly once; callers decide whether to retry.
//
// Parameters:
//   - ctx: Context for cancellation
//   - msg: The message; From, To and Subject are required
//
// Returns:
//   - string: Provider message id
//   - error: If the message is incomplete, the request fails, or the provider rejects it
func (c *APIClient) Send(ctx context.Context, msg Message) (string, error) {
	if msg.From == "" || len(msg.To) == 0 || msg.Subject == "" {
		return "", errors.New("email needs a sender, at least one recipient and a subject")
	}
	if c.apiKey == "" {
		return "", errors.New("email API key is not configured")
	}

	body := sendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		body.Attachments = append(body.Attachments, sendAttachment{
			Filename:    a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode/100 != 2 {
		var apiErr errorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return "", fmt.Errorf("email provider error %d (%s): %s", resp.StatusCode, apiErr.Name, apiErr.Message)
		}
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var out sendResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to decode email response: %w", err)
	}
	return out.ID, nil
}
