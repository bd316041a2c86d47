// Package callapi implements the CallBackend port against the external
// call-initiation HTTP service.
package callapi

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

	"github.com/ericfisherdev/callpanel/internal/domain/model"
	"github.com/ericfisherdev/callpanel/internal/domain/port/driven"
)

// InitiatePath is the backend endpoint that places a call.
const InitiatePath = "/api/initiate-call"

// Compile-time interface satisfaction check.
var _ driven.CallBackend = (*Client)(nil)

// Client posts call requests to the backend. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	http     *http.Client
	endpoint string
	logger   *slog.Logger
}

// initiateRequest is the JSON body of POST /api/initiate-call.
type initiateRequest struct {
	To     string `json:"to"`
	Prompt string `json:"prompt"`
}

// initiateResponse is the JSON success body. Field names must match the
// backend exactly.
type initiateResponse struct {
	CallSID    string `json:"callSid"`
	AIResponse string `json:"aiResponse"`
}

// NewClient creates a Client for the backend rooted at baseURL. A timeout of
// zero means requests are bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	return NewClientWithHTTPClient(&http.Client{Timeout: timeout}, baseURL, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client. Tests
// use it to point at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL %q must use http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + InitiatePath

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:     httpClient,
		endpoint: u.String(),
		logger:   logger,
	}, nil
}

// Endpoint returns the absolute URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// InitiateCall sends one POST to the backend. A non-2xx status yields an
// *HTTPStatusError without reading the body. Transport and decode failures
// are returned unwrapped since their text is shown to the user verbatim.
func (c *Client) InitiateCall(ctx context.Context, req model.CallRequest) (model.CallResponse, error) {
	body, err := json.Marshal(initiateRequest{To: req.To, Prompt: req.Prompt})
	if err != nil {
		return model.CallResponse{}, fmt.Errorf("encoding call request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.CallResponse{}, fmt.Errorf("building call request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("call backend unreachable", "endpoint", c.endpoint, "error", err)
		return model.CallResponse{}, err
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	c.logger.Debug("call backend responded",
		"status", resp.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("call backend rejected request", "status", resp.StatusCode)
		return model.CallResponse{}, &HTTPStatusError{StatusCode: resp.StatusCode}
	}

	var decoded initiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Warn("call backend sent an unreadable response", "endpoint", c.endpoint, "error", err)
		return model.CallResponse{}, err
	}

	return model.CallResponse{
		CallSID:    decoded.CallSID,
		AIResponse: decoded.AIResponse,
	}, nil
}
