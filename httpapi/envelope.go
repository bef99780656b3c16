package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	promptmint "github.com/promptmint/promptmint"
)

// envelope is the uniform response shape: {"success": true, "data": ...} or
// {"success": false, "error": {"code": ..., "message": ...}}.
type envelope struct {
	Success bool                  `json:"success"`
	Data    interface{}           `json:"data,omitempty"`
	Error   *promptmint.MintError `json:"error,omitempty"`
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, err error) {
	var mintErr *promptmint.MintError
	if !errors.As(err, &mintErr) {
		mintErr = promptmint.Errorf(promptmint.ErrCodeSubmissionFailed, "internal error")
	}
	c.JSON(statusForCode(mintErr.Code), envelope{Success: false, Error: mintErr})
}

// statusForCode maps pipeline error codes onto HTTP statuses. The code in the
// body is the contract; the status is a convenience for generic clients.
func statusForCode(code string) int {
	switch code {
	case promptmint.ErrCodeInputValidation:
		return http.StatusBadRequest
	case promptmint.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case promptmint.ErrCodeQuotaExceeded:
		return http.StatusPaymentRequired
	case promptmint.ErrCodeTierNotAllowed:
		return http.StatusForbidden
	case promptmint.ErrCodeAlreadyMinted:
		return http.StatusConflict
	case promptmint.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case promptmint.ErrCodeMetaTxExpired, promptmint.ErrCodeInvalidForwardSig, promptmint.ErrCodeForwarderNotTrusted:
		return http.StatusUnprocessableEntity
	case promptmint.ErrCodeGatewayTimeout, promptmint.ErrCodeGatewayUnavailable, promptmint.ErrCodeGatewayError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
