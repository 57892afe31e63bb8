// Package client is a typed Go client for the church admin JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"

	"churchadmin/internal/models"
)

const csrfHeaderName = "X-CSRF-Token"

// APIError is a non-2xx response, or a request refused locally (StatusCode 0).
// Message is what a user should see.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client talks to one API server. Sign in with Login before calling staff endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu        sync.RWMutex
	csrfToken string

	Lessons        *LessonsAPI
	Progress       *ProgressAPI
	SessionReports *SessionReportsAPI
	Finance        *FinanceAPI
}

// New creates a client for baseURL. A nil httpClient gets a default one with a cookie jar.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Jar == nil {
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	c.Lessons = &LessonsAPI{c: c}
	c.Progress = &ProgressAPI{c: c}
	c.SessionReports = &SessionReportsAPI{c: c}
	c.Finance = &FinanceAPI{c: c}
	return c
}

// Login starts a staff session and remembers its CSRF token
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		User      *models.User `json:"user"`
		CSRFToken string       `json:"csrf_token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.csrfToken = resp.CSRFToken
	c.mu.Unlock()
	return resp.User, nil
}

// do sends body as JSON and decodes a successful response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// send performs the request and turns any non-2xx response into an *APIError.
// The caller closes the body of a successful response.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.csrfToken != "" {
		req.Header.Set(csrfHeaderName, c.csrfToken)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseError(resp)
	}
	return resp, nil
}

// parseError prefers the detail message, then the first message of the first
// invalid field, then a generic message.
func parseError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Request failed with status %d.", resp.StatusCode),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return apiErr
	}

	var detail string
	if raw, ok := fields["detail"]; ok && json.Unmarshal(raw, &detail) == nil && detail != "" {
		apiErr.Message = detail
		return apiErr
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var messages []string
		if json.Unmarshal(fields[name], &messages) == nil && len(messages) > 0 {
			apiErr.Message = messages[0]
			return apiErr
		}
	}
	return apiErr
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}
