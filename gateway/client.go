// Package gateway implements the client for the external authorization
// service. The Gateway proves the operator is entitled to mint a given
// digest without ever seeing the underlying prompt: requests carry the
// content digest and metadata only.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	promptmint "github.com/promptmint/promptmint"
)

// Config configures the Gateway client.
type Config struct {
	// URL is the base URL of the Gateway.
	URL string

	// APIKey is the service-level credential sent on every request.
	APIKey string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *http.Client

	// Timeout per request (optional, defaults to 30s). Ignored when
	// HTTPClient is set.
	Timeout time.Duration

	// MaxAttempts bounds retries of transient failures (optional).
	MaxAttempts int

	// BaseDelay is the first backoff interval (optional).
	BaseDelay time.Duration

	// Log is the structured logger (optional).
	Log *slog.Logger
}

// Client talks to the Gateway over HTTPS and classifies every failure into
// the pipeline's error taxonomy. Transient classes are retried internally
// with exponential backoff; fatal classes return immediately.
type Client struct {
	url         string
	apiKey      string
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	log         *slog.Logger
	schema      *gojsonschema.Schema

	mu        sync.Mutex
	lastQuota *promptmint.QuotaSnapshot
}

var _ promptmint.GatewayClient = (*Client)(nil)

// NewClient creates a Gateway client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxAttempts := config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	baseDelay := config.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	log := config.Log
	if log == nil {
		log = slog.Default()
	}

	// The schema is a compile-time constant; a failure here is a bug.
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(responseSchema))
	if err != nil {
		panic(fmt.Sprintf("gateway: invalid response schema: %v", err))
	}

	return &Client{
		url:         config.URL,
		apiKey:      config.APIKey,
		httpClient:  httpClient,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		log:         log.With("component", "gateway"),
		schema:      schema,
	}
}

// RequestAuthorization submits the digest plus metadata and returns the
// signature proof. The request never contains prompt content and neither do
// any errors or logs produced here.
func (c *Client) RequestAuthorization(ctx context.Context, req promptmint.AuthorizationRequest) (*promptmint.AuthorizationProof, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authorization request: %w", err)
	}

	var lastErr *promptmint.MintError
	for attempt := 0; ; attempt++ {
		proof, classified := c.doRequest(ctx, body)
		if classified == nil {
			return proof, nil
		}
		lastErr = classified

		decision := NextAction(classified.Code, attempt, c.maxAttempts, c.baseDelay)
		if decision.Action == GiveUp {
			return nil, lastErr
		}

		c.log.Warn("gateway request failed, retrying",
			"code", classified.Code, "attempt", attempt+1, "delay", decision.Delay)

		select {
		case <-time.After(decision.Delay):
		case <-ctx.Done():
			return nil, promptmint.Errorf(promptmint.ErrCodeGatewayTimeout,
				"authorization canceled while backing off: %v", ctx.Err())
		}
	}
}

// Quota returns the most recent quota snapshot observed on a successful
// authorization, or nil if none has been seen yet.
func (c *Client) Quota() *promptmint.QuotaSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuota
}

// doRequest performs one HTTP round-trip and classifies the outcome.
func (c *Client) doRequest(ctx context.Context, body []byte) (*promptmint.AuthorizationProof, *promptmint.MintError) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.url+"/v1/authorize", bytes.NewReader(body))
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeGatewayError,
			"failed to create authorization request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeGatewayUnavailable,
			"failed to read gateway response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, responseBody)
	}

	return c.parseSuccess(responseBody)
}

// parseSuccess validates the 2xx body against the response schema and
// extracts the proof. Schema violations classify as gateway_error
// immediately instead of letting malformed data propagate inward.
func (c *Client) parseSuccess(responseBody []byte) (*promptmint.AuthorizationProof, *promptmint.MintError) {
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(responseBody))
	if err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeGatewayError,
			"gateway response is not valid JSON: %v", err)
	}
	if !result.Valid() {
		return nil, promptmint.Errorf(promptmint.ErrCodeGatewayError,
			"gateway response violates schema: %v", result.Errors())
	}

	var parsed authorizationResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return nil, promptmint.Errorf(promptmint.ErrCodeGatewayError,
			"failed to decode gateway response: %v", err)
	}

	if parsed.Quota != nil {
		snapshot := &promptmint.QuotaSnapshot{
			Used:      parsed.Quota.Used,
			Limit:     parsed.Quota.Limit,
			Plan:      parsed.Quota.Plan,
			FetchedAt: time.Now(),
		}
		if parsed.Quota.ResetsAt != "" {
			if resetsAt, err := time.Parse(time.RFC3339, parsed.Quota.ResetsAt); err == nil {
				snapshot.ResetsAt = resetsAt
			}
		}
		c.mu.Lock()
		c.lastQuota = snapshot
		c.mu.Unlock()
		c.log.Info("gateway quota snapshot",
			"used", snapshot.Used, "limit", snapshot.Limit, "plan", snapshot.Plan)
	}

	c.log.Debug("authorization granted",
		"signature", TruncateSignature(parsed.Authorization.Signature))

	return &promptmint.AuthorizationProof{
		Signature: parsed.Authorization.Signature,
		Nonce:     parsed.Authorization.Nonce,
		Expiry:    parsed.Authorization.Expiry,
	}, nil
}

// classifyTransportError maps a failed round-trip to the taxonomy: timeouts
// are gateway_timeout, everything else (refused connection, DNS failure,
// reset) is gateway_unavailable. Both are retryable.
func classifyTransportError(err error) *promptmint.MintError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return promptmint.Errorf(promptmint.ErrCodeGatewayTimeout,
			"gateway request timed out: %v", err)
	}
	return promptmint.Errorf(promptmint.ErrCodeGatewayUnavailable,
		"gateway unreachable: %v", err)
}

// classifyStatus maps a non-2xx status to the taxonomy.
func classifyStatus(status int, responseBody []byte) *promptmint.MintError {
	message := gatewayMessage(responseBody)

	switch status {
	case http.StatusUnauthorized:
		return promptmint.Errorf(promptmint.ErrCodeInvalidCredentials,
			"gateway rejected credentials: %s", message)
	case http.StatusPaymentRequired:
		return promptmint.Errorf(promptmint.ErrCodeQuotaExceeded,
			"gateway quota exceeded, upgrade plan or wait for reset: %s", message)
	case http.StatusForbidden:
		return promptmint.Errorf(promptmint.ErrCodeTierNotAllowed,
			"operation not allowed for current tier: %s", message)
	case http.StatusTooManyRequests:
		return promptmint.Errorf(promptmint.ErrCodeRateLimited,
			"gateway rate limited: %s", message)
	case http.StatusServiceUnavailable:
		return promptmint.Errorf(promptmint.ErrCodeGatewayUnavailable,
			"gateway unavailable: %s", message)
	default:
		return promptmint.Errorf(promptmint.ErrCodeGatewayError,
			"gateway returned %d: %s", status, message)
	}
}

// gatewayMessage pulls the error message out of a non-2xx body, falling back
// to the raw body when it does not match the error schema.
func gatewayMessage(responseBody []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(responseBody, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(responseBody) > 256 {
		responseBody = responseBody[:256]
	}
	return string(responseBody)
}

// TruncateSignature shortens a signature for logging. Full signatures never
// appear in logs.
func TruncateSignature(sig string) string {
	const keep = 14
	if len(sig) <= keep {
		return sig
	}
	return sig[:keep] + "..."
}
