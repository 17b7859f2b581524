// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package rtdb is a typed client for the hierarchical JSON key-value
// store that coordinates the snapshot debugger: breakpoint records,
// debuggee registrations, and the breakpoint ID counter all live under
// paths in one database reachable over HTTPS.
//
// The REST dialect is the Firebase Realtime Database one: a node at
// "breakpoints/d-123/active/b-1" is read with GET <base>/breakpoints/
// d-123/active/b-1.json, written with PUT, and removed with DELETE.
// An absent node reads as the JSON literal null. Conditional writes
// use ETags: GetWithETag requests the node's current ETag and
// SetIfMatch sends it back in an if-match header; the server answers
// 412 when another writer got there first. That 412 is the concurrency
// control point for breakpoint ID allocation.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/snapshot-debugger/snapdbg/lib/clock"
)

// defaultMaxRetries is the number of retries (beyond the first
// attempt) for transient failures. Three retries with exponential
// backoff (1s, 2s, 4s) rides out brief rate limits and server hiccups
// without hanging an interactive command for long.
const defaultMaxRetries = 3

// Config holds configuration for creating a Client.
type Config struct {
	// DatabaseURL is the base URL of the database
	// (e.g. "https://my-project-cdbg.firebaseio.com").
	DatabaseURL string

	// AccessToken, when non-empty, is sent as a bearer token on every
	// request. The emulator accepts unauthenticated requests.
	AccessToken string

	// HTTPClient is used for all requests. If nil, http.DefaultClient.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger

	// Clock drives retry backoff. If nil, clock.Real().
	Clock clock.Clock

	// MaxRetries overrides the transient-failure retry budget when
	// positive.
	MaxRetries int
}

// Client is a typed facade over the database REST endpoint. All
// methods are safe for concurrent use.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
	clock       clock.Clock
	maxRetries  int
}

// NewClient validates the database URL and returns a Client.
func NewClient(config Config) (*Client, error) {
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("rtdb: DatabaseURL is required")
	}
	parsed, err := url.Parse(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("rtdb: invalid DatabaseURL %q: %w", config.DatabaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("rtdb: DatabaseURL %q must be http or https", config.DatabaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Client{
		baseURL:     strings.TrimRight(config.DatabaseURL, "/"),
		accessToken: config.AccessToken,
		httpClient:  httpClient,
		logger:      logger,
		clock:       clk,
		maxRetries:  maxRetries,
	}, nil
}

// Get reads the value at path. Returns nil (and no error) when the
// node is absent.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	response, err := c.do(ctx, http.MethodGet, path, nil, false, "")
	if err != nil {
		return nil, err
	}
	return nullToNil(response.body), nil
}

// GetWithETag reads the value at path along with the node's current
// ETag. The ETag identifies the node's exact state — including the
// absent state — and feeds SetIfMatch for conditional writes.
func (c *Client) GetWithETag(ctx context.Context, path string) (json.RawMessage, string, error) {
	response, err := c.do(ctx, http.MethodGet, path, nil, true, "")
	if err != nil {
		return nil, "", err
	}
	return nullToNil(response.body), response.etag, nil
}

// Set unconditionally overwrites the value at path and returns the
// committed value as echoed by the server, with any server-value
// sentinel (see ServerTimestamp) already resolved.
func (c *Client) Set(ctx context.Context, path string, value any) (json.RawMessage, error) {
	response, err := c.do(ctx, http.MethodPut, path, value, false, "")
	if err != nil {
		return nil, err
	}
	return nullToNil(response.body), nil
}

// SetIfMatch writes value at path only if the node's current ETag
// still equals etag. Returns false (and no error) when another writer
// changed the node since the ETag was read — the caller should re-read
// and decide whether to retry.
func (c *Client) SetIfMatch(ctx context.Context, path, etag string, value any) (bool, error) {
	response, err := c.do(ctx, http.MethodPut, path, value, false, etag)
	if err != nil {
		return false, err
	}
	if response.status == http.StatusPreconditionFailed {
		return false, nil
	}
	return true, nil
}

// Delete removes the node at path. Deleting an absent node succeeds.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, false, "")
	return err
}

// List reads the node at path as a mapping of child key to child
// value. An absent node yields an empty map.
func (c *Client) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	body, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return map[string]json.RawMessage{}, nil
	}
	children := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &children); err != nil {
		return nil, fmt.Errorf("rtdb: node at %q is not a mapping: %w", path, err)
	}
	return children, nil
}

// response is the outcome of a successful (or 412) exchange.
type response struct {
	status int
	body   []byte
	etag   string
}

// do performs one logical request with bounded retry on transient
// failures. Retrying is safe for every verb the client issues: GET and
// DELETE are idempotent, PUT overwrites, and a conditional PUT can
// only commit once for a given ETag.
//
// A 412 response is returned to the caller as a normal response, never
// retried — it is the CAS-conflict signal, not a failure.
func (c *Client) do(ctx context.Context, method, path string, value any, wantETag bool, ifMatch string) (*response, error) {
	requestURL := c.baseURL + "/" + strings.Trim(path, "/") + ".json"

	var payload []byte
	if value != nil {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("rtdb: failed to encode value for %s %s: %w", method, path, err)
		}
		payload = encoded
	}

	// One request ID across every attempt of this logical request, so
	// retries correlate in the logs (and server-side, if forwarded).
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-c.clock.After(backoff):
			}
		}

		c.logger.Debug("sending database request",
			"request_id", requestID,
			"method", method,
			"path", path,
			"attempt", attempt+1,
		)

		resp, err := c.attempt(ctx, method, requestURL, requestID, payload, wantETag, ifMatch)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err

		if storeErr, ok := err.(*Error); ok && !storeErr.Transient() {
			return nil, err
		}

		c.logger.Warn("transient database request failure, retrying",
			"request_id", requestID,
			"method", method,
			"path", path,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, lastErr
}

// attempt performs a single HTTP exchange. Returns *Error for non-2xx
// statuses other than the 412 CAS conflict.
func (c *Client) attempt(ctx context.Context, method, requestURL, requestID string, payload []byte, wantETag bool, ifMatch string) (*response, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("rtdb: failed to create request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if wantETag {
		request.Header.Set("X-Firebase-ETag", "true")
	}
	if ifMatch != "" {
		request.Header.Set("If-Match", ifMatch)
	}
	request.Header.Set("X-Request-Id", requestID)

	httpResponse, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("rtdb: request failed: %w", err)
	}
	defer httpResponse.Body.Close()

	responseBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, fmt.Errorf("rtdb: failed to read response body: %w", err)
	}

	switch {
	case httpResponse.StatusCode >= 200 && httpResponse.StatusCode < 300:
		return &response{
			status: httpResponse.StatusCode,
			body:   responseBody,
			etag:   httpResponse.Header.Get("ETag"),
		}, nil
	case httpResponse.StatusCode == http.StatusPreconditionFailed && ifMatch != "":
		return &response{
			status: httpResponse.StatusCode,
			body:   responseBody,
			etag:   httpResponse.Header.Get("ETag"),
		}, nil
	default:
		return nil, &Error{
			StatusCode: httpResponse.StatusCode,
			Method:     method,
			Path:       request.URL.Path,
			Message:    errorMessage(responseBody),
		}
	}
}

// errorMessage extracts the backend's error text. Error responses are
// {"error": "..."}; anything else is reported raw (truncated).
func errorMessage(body []byte) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

// nullToNil maps the JSON literal null (an absent node) to a nil
// RawMessage so callers can distinguish absence without parsing.
func nullToNil(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.RawMessage(trimmed)
}
