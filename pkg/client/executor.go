// Package client talks to the learning platform REST API and to the AI
// assistant API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Request describes one API call.
type Request struct {
	URI     string
	Method  string
	Headers map[string]string
	Body    any
}

// Response is the envelope every platform endpoint answers with.
type Response[T any] struct {
	Data    T      `json:"data"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

// Executor performs a request and returns the raw 2xx response body.
// Non-2xx responses are returned as *StatusError or *RateLimitError.
type Executor interface {
	Execute(ctx context.Context, req Request) ([]byte, error)
}

// Do executes req and decodes the response envelope.
func Do[T any](ctx context.Context, exec Executor, req Request) (*Response[T], error) {
	body, err := exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	var resp Response[T]
	if len(bytes.TrimSpace(body)) == 0 {
		return &resp, nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", req.Method, req.URI, err)
	}
	return &resp, nil
}

// TokenSource supplies the bearer token of the logged-in user.
type TokenSource interface {
	Token() string
}

// AuthClearer drops the persisted login when the backend rejects the token.
type AuthClearer interface {
	ClearAuth(ctx context.Context) error
}

// HTTPOptions configures an HTTPExecutor.
type HTTPOptions struct {
	BaseURL string
	Timeout time.Duration
	Tokens  TokenSource
	// OnUnauthorized is called for 401 responses.
	OnUnauthorized AuthClearer
	HTTPClient     *http.Client
	Logger         *slog.Logger
	// Name labels log lines, e.g. "regular" or "ai".
	Name string
}

// HTTPExecutor is an Executor over net/http.
type HTTPExecutor struct {
	baseURL    string
	tokens     TokenSource
	onUnauth   AuthClearer
	httpClient *http.Client
	log        *slog.Logger
	name       string
}

// NewHTTPExecutor creates an executor for the API at opts.BaseURL.
func NewHTTPExecutor(opts HTTPOptions) (*HTTPExecutor, error) {
	normalized, err := normalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &HTTPExecutor{
		baseURL:    normalized,
		tokens:     opts.Tokens,
		onUnauth:   opts.OnUnauthorized,
		httpClient: httpClient,
		log:        log,
		name:       opts.Name,
	}, nil
}

// BaseURL returns the normalized base URL.
func (e *HTTPExecutor) BaseURL() string {
	return e.baseURL
}

func (e *HTTPExecutor) Execute(ctx context.Context, r Request) ([]byte, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if r.Body != nil {
		jsonBytes, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBytes)
	}

	req, err := e.newRequest(ctx, method, r.URI, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	e.log.Debug("api request", "api", e.name, "method", method, "uri", r.URI)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, r.URI, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, e.statusError(ctx, method, r.URI, resp.StatusCode, body)
}

func (e *HTTPExecutor) statusError(ctx context.Context, method, uri string, status int, body []byte) error {
	var envelope struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &envelope)

	switch status {
	case http.StatusUnauthorized:
		if e.onUnauth != nil {
			if err := e.onUnauth.ClearAuth(ctx); err != nil {
				e.log.Error("failed to clear auth after 401", "error", err)
			}
		}
	case http.StatusTooManyRequests:
		msg := envelope.Message
		if msg == "" {
			msg = DefaultRateLimitMessage
		}
		return &RateLimitError{Message: msg, Data: json.RawMessage(body)}
	}

	return &StatusError{
		Method:  method,
		URI:     uri,
		Code:    status,
		Message: envelope.Message,
		Body:    string(body),
	}
}

func (e *HTTPExecutor) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	target := strings.TrimRight(e.baseURL, "/")
	if path != "" {
		target = target + "/" + strings.TrimLeft(path, "/")
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if e.tokens != nil {
		if token := e.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("server URL is empty")
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		raw = strings.TrimRight(raw, "/")
	} else if strings.HasPrefix(raw, ":") {
		raw = "http://localhost" + raw
	} else {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid server URL: %q", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}
