package promptmint

import "fmt"

// MintError is the structured error returned by every pipeline component.
// Code is a stable machine-readable identifier; Message is human-readable.
type MintError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *MintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Input validation errors. Rejected before any network call.
const (
	ErrCodeInputValidation = "input_validation"
)

// Gateway error classes. The three fatal classes short-circuit retries;
// the retryable classes are retried with exponential backoff up to the
// configured attempt budget.
const (
	ErrCodeInvalidCredentials = "invalid_credentials" // HTTP 401, fatal
	ErrCodeQuotaExceeded      = "quota_exceeded"      // HTTP 402, fatal
	ErrCodeTierNotAllowed     = "tier_not_allowed"    // HTTP 403, fatal
	ErrCodeGatewayTimeout     = "gateway_timeout"     // transport timeout, retryable
	ErrCodeGatewayUnavailable = "gateway_unavailable" // no response / HTTP 503, retryable
	ErrCodeRateLimited        = "rate_limited"        // HTTP 429, retryable
	ErrCodeGatewayError       = "gateway_error"       // any other non-2xx, retryable
)

// Nonce allocator errors.
const (
	ErrCodeNonceNotInitialized = "nonce_not_initialized"
)

// Ledger submission errors. Never retried automatically: resubmission risks
// double-spend or wasted gas.
const (
	ErrCodeAlreadyMinted     = "already_minted"
	ErrCodeInsufficientFunds = "insufficient_funds"
	ErrCodeInvalidProof      = "invalid_proof"
	ErrCodeNonceConflict     = "nonce_conflict"
	ErrCodeSubmissionFailed  = "submission_failed"
)

// Meta-transaction protocol errors. Surfaced, never retried.
const (
	ErrCodeMetaTxExpired       = "meta_tx_expired"
	ErrCodeInvalidForwardSig   = "invalid_forward_signature"
	ErrCodeForwarderNotTrusted = "forwarder_not_trusted"
)

// NewMintError creates a new MintError.
func NewMintError(code, message string, details map[string]interface{}) *MintError {
	return &MintError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Errorf creates a MintError with a formatted message and no details.
func Errorf(code, format string, args ...interface{}) *MintError {
	return &MintError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsRetryable reports whether an error code names a transient Gateway
// condition that may be retried with backoff.
func IsRetryable(code string) bool {
	switch code {
	case ErrCodeGatewayTimeout, ErrCodeGatewayUnavailable, ErrCodeRateLimited, ErrCodeGatewayError:
		return true
	}
	return false
}
