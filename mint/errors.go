package mint

import (
	"errors"
	"strings"

	promptmint "github.com/promptmint/promptmint"
)

// Ledger and forwarder failures arrive as opaque RPC error strings; these
// translators map them onto the pipeline's stable codes. None of the
// resulting classes are retried automatically: resubmitting risks
// double-spend or wasted gas.

// translateSubmissionError classifies a failed ledger submission.
func translateSubmissionError(err error) *promptmint.MintError {
	var mintErr *promptmint.MintError
	if errors.As(err, &mintErr) {
		return mintErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "nonce too low"),
		strings.Contains(msg, "already known"),
		strings.Contains(msg, "replacement transaction underpriced"):
		return promptmint.Errorf(promptmint.ErrCodeNonceConflict,
			"transaction sequence number conflict: %v", err)
	case strings.Contains(msg, "insufficient funds"):
		return promptmint.Errorf(promptmint.ErrCodeInsufficientFunds,
			"submitting wallet cannot cover gas: %v", err)
	case strings.Contains(msg, "already minted"):
		return promptmint.Errorf(promptmint.ErrCodeAlreadyMinted,
			"content digest already recorded on-chain: %v", err)
	case strings.Contains(msg, "invalid authorization"),
		strings.Contains(msg, "authorization expired"),
		strings.Contains(msg, "invalid proof"):
		return promptmint.Errorf(promptmint.ErrCodeInvalidProof,
			"ledger rejected the authorization proof: %v", err)
	default:
		return promptmint.Errorf(promptmint.ErrCodeSubmissionFailed,
			"ledger submission failed: %v", err)
	}
}

// translateForwarderError classifies a failed forwarder execute call,
// mapping the forwarder's revert reasons onto the meta-tx protocol codes
// before falling back to the generic submission translation.
func translateForwarderError(err error) *promptmint.MintError {
	var mintErr *promptmint.MintError
	if errors.As(err, &mintErr) {
		return mintErr
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadline"), strings.Contains(msg, "request expired"):
		return promptmint.Errorf(promptmint.ErrCodeMetaTxExpired,
			"forward request deadline passed: %v", err)
	case strings.Contains(msg, "signature does not match"),
		strings.Contains(msg, "signer mismatch"),
		strings.Contains(msg, "invalid signature"):
		return promptmint.Errorf(promptmint.ErrCodeInvalidForwardSig,
			"forward request signature does not match signer: %v", err)
	case strings.Contains(msg, "untrusted"), strings.Contains(msg, "not trusted"):
		return promptmint.Errorf(promptmint.ErrCodeForwarderNotTrusted,
			"target does not trust this forwarder: %v", err)
	default:
		return translateSubmissionError(err)
	}
}
