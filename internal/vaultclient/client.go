// Package vaultclient wraps outbound vault API calls with authentication:
// every request gets the stored vault origin and a bearer token, and a
// request failing with 401 token_expired triggers exactly one coordinated
// refresh-and-retry, shared across all concurrently failing requests.
package vaultclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/clipvault/clipvault/internal/auth/session"
)

// tokenExpiredCode is the server error code that makes a 401 recoverable.
const tokenExpiredCode = "token_expired"

// Response is a fully-read API response. Bodies are buffered so a recovered
// request can be replayed and so callers never manage stream lifecycles.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ErrorCode extracts the server error code from the response body, or ""
// when the body carries none.
func (r *Response) ErrorCode() string {
	return gjson.GetBytes(r.Body, "error").String()
}

// Client issues authenticated requests against the session's vault origin.
type Client struct {
	session    *session.Manager
	httpClient *http.Client
}

// New creates an authenticated client over the given session manager.
func New(sess *session.Manager, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		session:    sess,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do sends one API request. Preparation resolves the stored origin and a
// valid access token (which may itself trigger a proactive refresh) and sets
// the Authorization header; a missing token lets the request proceed
// unauthenticated, to fail at the server.
//
// Recovery applies only when the response is 401 with error code
// token_expired and the request has not been retried yet: the refresh is
// single-flight across the process, the request replays itself once with the
// new token, and a failed refresh surfaces to every waiting request after a
// full logout. Any other failure is returned as-is.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	origin := c.session.VaultOrigin()
	if origin == "" {
		return nil, fmt.Errorf("no vault origin is stored; log in first")
	}

	token, err := c.session.GetAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, method, origin, path, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || resp.ErrorCode() != tokenExpiredCode {
		return resp, nil
	}

	// One coordinated refresh; concurrent expired requests share its outcome.
	log.Debugf("%s %s returned 401 %s, refreshing token", method, path, tokenExpiredCode)
	newToken, err := c.session.ForceRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	return c.send(ctx, method, origin, path, body, newToken)
}

// send performs a single HTTP round trip and buffers the response.
func (c *Client) send(ctx context.Context, method, origin, path string, body []byte, token string) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(origin, "/")+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}
