package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is the unified error body returned by the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Category   string `json:"category"`
	Action     string `json:"action"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Client is the single chokepoint for every API call. It injects the
// bearer token when one is stored and clears the store on any 401 or
// 403 before the error reaches the caller. It never retries and never
// navigates.
type Client struct {
	baseURL string
	store   *TokenStore
	http    *http.Client
}

// NewClient builds a Client over the given base URL and token store.
func NewClient(baseURL string, store *TokenStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Do performs a request against the API. body is JSON-encoded when
// non-nil; out is JSON-decoded from the response body when non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.store.Token()
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(apiErr); decodeErr != nil {
			apiErr.Code = "UNKNOWN"
			apiErr.Message = resp.Status
		}

		// an auth rejection invalidates the session before the caller
		// sees the error
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			if clearErr := c.store.Clear(); clearErr != nil {
				return fmt.Errorf("failed to clear token store after auth rejection: %w", clearErr)
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// Login authenticates and stores the token plus the canonical resolved
// identity in one write.
func (c *Client) Login(ctx context.Context, username, password string) (*StoredIdentity, error) {
	var loginOut struct {
		Token string `json:"token"`
	}
	err := c.Do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &loginOut)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(loginOut.Token, nil); err != nil {
		return nil, err
	}

	identity, err := NewResolver(c).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(loginOut.Token, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Logout deletes the server session and clears the store. Clearing
// happens even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	reqErr := c.Do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	return reqErr
}
