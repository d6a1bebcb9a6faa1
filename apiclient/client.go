// Package apiclient talks to the remote project/task service.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"prism-sync/internal/consts"
)

// TokenSource returns the bearer token for the current session.
// An empty token sends the request unauthenticated.
type TokenSource func() string

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return func() string { return tok }
}

// Client wraps http.Client with helpers for JSON requests.
type Client struct {
	BaseURL string
	Token   TokenSource
	HTTP    *http.Client
}

// New creates a new Client.
func New(baseURL string, token TokenSource) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: consts.DefaultHTTPTimeout},
	}
}

// APIError is a non-2xx response. Message is copied from the service's
// {"message": ...} payload when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message returns the user facing message carried by err.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(consts.RequestIDHeader, uuid.NewString())
	if c.Token != nil {
		if tok := c.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var payload struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := sonic.Unmarshal(data, &payload); err == nil {
		if payload.Message == "" {
			payload.Message = payload.Msg
		}
		if payload.Message != "" {
			return &APIError{Status: status, Message: payload.Message}
		}
	}
	return &APIError{Status: status, Message: http.StatusText(status)}
}
