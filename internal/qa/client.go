// Copyright (c) 2025 Janet Alwanga / NutriWise Assistant
// SPDX-License-Identifier: AGPL-3.0-or-later

package qa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultEndpoint is the local development server's question route.
	DefaultEndpoint = "http://127.0.0.1:5000/ask"

	DefaultTimeout       = 30 * time.Second
	DefaultHealthTimeout = 10 * time.Second
	DefaultUserAgent     = "nutriwise-cli"

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// ClientConfig holds configuration options for the question client.
type ClientConfig struct {
	// Endpoint receives POST {"question": ...} (default: DefaultEndpoint).
	Endpoint string

	// HealthURL is probed by CheckHealth. Empty means the endpoint with its
	// path replaced by /health.
	HealthURL string

	// Timeout bounds a single Ask, including reading the body (default: 30s).
	Timeout time.Duration

	// HealthTimeout bounds CheckHealth (default: 10s).
	HealthTimeout time.Duration

	UserAgent string

	// Logger receives debug-level request traces. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Endpoint:      DefaultEndpoint,
		Timeout:       DefaultTimeout,
		HealthTimeout: DefaultHealthTimeout,
		UserAgent:     DefaultUserAgent,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends questions to the NutriWise answer service.
//
// The Client is safe for concurrent use; the endpoint may be changed while
// requests are in flight and only affects later requests.
//
// Example:
//
//	client := qa.NewClient()
//	ans, err := client.Ask(ctx, "What should I eat for breakfast?")
//	if err != nil {
//	    fmt.Println(qa.KindOf(err).Message())
//	}
type Client struct {
	mu             sync.RWMutex
	endpoint       string
	healthURL      string
	healthExplicit bool

	timeout       time.Duration
	healthTimeout time.Duration
	userAgent     string
	httpClient    *http.Client
	log           zerolog.Logger
}

// NewClient creates a client with the default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values with defaults.
// An invalid endpoint falls back to DefaultEndpoint; use SetEndpoint to get
// a validation error instead.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	c := &Client{
		timeout:       config.Timeout,
		healthTimeout: config.HealthTimeout,
		userAgent:     config.UserAgent,
		// Deadlines come from the request context.
		httpClient: &http.Client{},
		log:        zerolog.Nop(),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = DefaultHealthTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if config.Logger != nil {
		c.log = config.Logger.With().Str("component", "qa").Logger()
	}

	endpoint := config.Endpoint
	if ValidateEndpoint(endpoint) != nil {
		endpoint = DefaultEndpoint
	}
	c.endpoint = endpoint
	if config.HealthURL != "" && ValidateEndpoint(config.HealthURL) == nil {
		c.healthURL = config.HealthURL
		c.healthExplicit = true
	} else {
		c.healthURL = HealthURLFor(endpoint)
	}

	return c
}

// =============================================================================
// ENDPOINT
// =============================================================================

// ValidateEndpoint checks that raw is an absolute http(s) URL with a host.
func ValidateEndpoint(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("endpoint is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: missing host", raw)
	}
	return nil
}

// HealthURLFor derives the health probe URL from a question endpoint.
func HealthURLFor(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	u.Path = "/health"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// SetEndpoint changes the question endpoint. A derived health URL follows it.
func (c *Client) SetEndpoint(endpoint string) error {
	if err := ValidateEndpoint(endpoint); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = endpoint
	if !c.healthExplicit {
		c.healthURL = HealthURLFor(endpoint)
	}
	return nil
}

// Endpoint returns the current question endpoint.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// HealthURL returns the current health probe URL.
func (c *Client) HealthURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.healthURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// =============================================================================
// ASK
// =============================================================================

// Ask sends one question and waits for the answer. Every error it returns
// is a *Failure.
func (c *Client) Ask(ctx context.Context, question string) (*Answer, error) {
	endpoint := c.Endpoint()

	body, err := json.Marshal(AskRequest{Question: question})
	if err != nil {
		return nil, newFailure(KindMalformedResponse, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, newFailure(KindNetworkUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	c.log.Debug().Str("endpoint", endpoint).Int("question_len", len(question)).Msg("dispatching question")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		f := classifyTransportError(ctx, err)
		c.log.Debug().Err(err).Str("kind", f.Kind.String()).Dur("elapsed", time.Since(start)).Msg("request failed")
		return nil, f
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f := classifyTransportError(ctx, err)
		f.StatusCode = resp.StatusCode
		return nil, f
	}

	latency := time.Since(start)
	c.log.Debug().Int("status", resp.StatusCode).Dur("elapsed", latency).Int("bytes", len(raw)).Msg("response received")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusFailure(resp.StatusCode, raw)
	}

	var decoded askResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		f := newFailure(KindMalformedResponse, err)
		f.StatusCode = resp.StatusCode
		return nil, f
	}
	if decoded.Answer == nil || strings.TrimSpace(*decoded.Answer) == "" {
		f := newFailure(KindMalformedResponse, nil)
		f.StatusCode = resp.StatusCode
		f.Detail = "response has no answer"
		return nil, f
	}

	return &Answer{Text: *decoded.Answer, StatusCode: resp.StatusCode, Latency: latency}, nil
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckHealth probes the health endpoint. Errors are *Failure values
// classified the same way as Ask.
func (c *Client) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	healthURL := c.HealthURL()

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return nil, newFailure(KindNetworkUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusFailure(resp.StatusCode, raw)
	}

	var status HealthStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		f := newFailure(KindMalformedResponse, err)
		f.StatusCode = resp.StatusCode
		return nil, f
	}
	c.log.Debug().Str("status", status.Status).Bool("gemini_configured", status.GeminiConfigured).Msg("health probed")
	return &status, nil
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// classifyTransportError maps an error from sending the request or reading
// its body. A cancelled parent context counts as a timeout.
func classifyTransportError(ctx context.Context, err error) *Failure {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newFailure(KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newFailure(KindTimeout, err)
	}
	return newFailure(KindNetworkUnreachable, err)
}

// statusFailure builds the failure for a non-2xx response, keeping the
// server's {"error": ...} text as detail.
func statusFailure(code int, body []byte) *Failure {
	kind := KindUnexpectedStatus
	if code >= 500 && code <= 599 {
		kind = KindServerError
	}
	f := newFailure(kind, nil)
	f.StatusCode = code

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		f.Detail = env.Error
	} else {
		f.Detail = http.StatusText(code)
	}
	return f
}
