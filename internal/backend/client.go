package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds each backend call; the engine treats a
// timeout like any other transport failure.
const DefaultRequestTimeout = 30 * time.Second

// Opts holds configuration options for the backend client.
type Opts struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Option defines a configuration option for the backend client.
type Option func(*Opts)

// WithBaseURL sets the broker API base URL.
func WithBaseURL(u string) Option {
	return func(o *Opts) { o.BaseURL = u }
}

// WithAPIKey sets the service API key sent on every request.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithHTTPClient injects a custom HTTP client (used by tests).
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client implements Gateway against the broker REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a backend client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Backend NewClient options set", "baseURL_set", cfg.BaseURL != "", "apiKey_set", cfg.APIKey != "")

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL must be provided")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &Client{baseURL: cfg.BaseURL, apiKey: cfg.APIKey, httpClient: httpClient}, nil
}

// apiEnvelope is the standard response wrapper of the broker API.
type apiEnvelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// doJSON issues one request and decodes the enveloped response into out.
// Non-2xx statuses become *APIError carrying the upstream code and message.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Backend request failed", "error", err, "method", method, "path", path)
		return fmt.Errorf("backend request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Backend response read failed", "error", err, "method", method, "path", path)
		return fmt.Errorf("failed to read backend response: %w", err)
	}

	var envelope apiEnvelope
	if len(respBytes) > 0 {
		// A malformed body on a success status is still an error; on a
		// failure status the status code alone classifies it.
		if err := json.Unmarshal(respBytes, &envelope); err != nil && resp.StatusCode < 300 {
			slog.Error("Backend response decode failed", "error", err, "method", method, "path", path)
			return fmt.Errorf("failed to decode backend response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: envelope.Code, Message: envelope.Message}
		slog.Warn("Backend returned error status", "status", resp.StatusCode, "code", envelope.Code, "method", method, "path", path)
		return apiErr
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode backend response data: %w", err)
		}
	}
	return nil
}
