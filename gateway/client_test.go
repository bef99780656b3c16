package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	promptmint "github.com/promptmint/promptmint"
)

func testRequest() promptmint.AuthorizationRequest {
	return promptmint.AuthorizationRequest{
		Digest:        "0x8509974b1782e5f11bc2bea2973802345c5d50a9199bdc39fcd6ff817a1b1eef",
		Beneficiary:   "0x742d35Cc6634C0532925a3b8D4C9db96C4b4deb1",
		RewardAmount:  "0x000000000000000000000000000000000000000000000000000000000000000a",
		SignerContext: "0x0000000000000000000000000000000000000001",
		ChainID:       8453,
		Timestamp:     1700000000,
	}
}

func newTestClient(url string, maxAttempts int) *Client {
	return NewClient(&Config{
		URL:         url,
		APIKey:      "test-key",
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
	})
}

func code(t *testing.T, err error) string {
	t.Helper()
	var mintErr *promptmint.MintError
	if !errors.As(err, &mintErr) {
		t.Fatalf("expected *MintError, got %T: %v", err, err)
	}
	return mintErr.Code
}

func TestRequestAuthorizationSuccess(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/authorize" {
			t.Errorf("expected path /v1/authorize, got %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "test-key" {
			t.Errorf("missing credential header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"authorization": map[string]interface{}{
				"signature": "0xabcdef1234",
				"nonce":     "7",
				"expiry":    1700003600,
			},
			"quota": map[string]interface{}{
				"used":  10,
				"limit": 100,
				"plan":  "pro",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	proof, err := client.RequestAuthorization(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("RequestAuthorization() error = %v", err)
	}

	if proof.Signature != "0xabcdef1234" {
		t.Errorf("signature = %s", proof.Signature)
	}
	if proof.Nonce != "7" || proof.Expiry != 1700003600 {
		t.Errorf("proof fields = %+v", proof)
	}

	// The request body carries the digest, never content.
	if gotBody["digest"] != testRequest().Digest {
		t.Errorf("request digest = %v", gotBody["digest"])
	}
	if _, hasContent := gotBody["content"]; hasContent {
		t.Error("request body must never contain prompt content")
	}

	quota := client.Quota()
	if quota == nil || quota.Used != 10 || quota.Limit != 100 || quota.Plan != "pro" {
		t.Errorf("quota snapshot = %+v", quota)
	}
}

func TestRequestAuthorizationRetriesTransient(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Transient twice, then success on the third attempt.
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"authorization": map[string]interface{}{"signature": "0xfeed"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	proof, err := client.RequestAuthorization(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("RequestAuthorization() error = %v", err)
	}
	if proof.Signature != "0xfeed" {
		t.Errorf("signature = %s", proof.Signature)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("gateway called %d times, want 3", got)
	}
}

func TestRequestAuthorizationExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)
	_, err := client.RequestAuthorization(context.Background(), testRequest())
	if got := code(t, err); got != promptmint.ErrCodeRateLimited {
		t.Errorf("code = %s, want %s", got, promptmint.ErrCodeRateLimited)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("gateway called %d times, want exactly max attempts (3)", got)
	}
}

func TestRequestAuthorizationFatalNoRetry(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{name: "401 invalid credentials", status: http.StatusUnauthorized, wantCode: promptmint.ErrCodeInvalidCredentials},
		{name: "402 quota exceeded", status: http.StatusPaymentRequired, wantCode: promptmint.ErrCodeQuotaExceeded},
		{name: "403 tier not allowed", status: http.StatusForbidden, wantCode: promptmint.ErrCodeTierNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": map[string]interface{}{"message": "nope"},
				})
			}))
			defer server.Close()

			client := newTestClient(server.URL, 5)
			_, err := client.RequestAuthorization(context.Background(), testRequest())
			if got := code(t, err); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
			if got := calls.Load(); got != 1 {
				t.Errorf("fatal class called gateway %d times, want exactly 1", got)
			}
		})
	}
}

func TestRequestAuthorizationSchemaViolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with a body missing the required authorization object.
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 1)
	_, err := client.RequestAuthorization(context.Background(), testRequest())
	if got := code(t, err); got != promptmint.ErrCodeGatewayError {
		t.Errorf("code = %s, want %s", got, promptmint.ErrCodeGatewayError)
	}
}

func TestRequestAuthorizationConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := newTestClient(server.URL, 1)
	_, err := client.RequestAuthorization(context.Background(), testRequest())
	if got := code(t, err); got != promptmint.ErrCodeGatewayUnavailable {
		t.Errorf("code = %s, want %s", got, promptmint.ErrCodeGatewayUnavailable)
	}
}

func TestTruncateSignature(t *testing.T) {
	long := "0x" + "ab" + "cd" + "ef" + "0123456789abcdef0123456789abcdef"
	got := TruncateSignature(long)
	if len(got) != 17 || got[14:] != "..." {
		t.Errorf("TruncateSignature() = %q", got)
	}
	if TruncateSignature("0xshort") != "0xshort" {
		t.Error("short signatures pass through")
	}
}
