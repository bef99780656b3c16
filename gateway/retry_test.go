package gateway

import (
	"testing"
	"time"

	promptmint "github.com/promptmint/promptmint"
)

func TestNextAction(t *testing.T) {
	base := 1 * time.Second

	tests := []struct {
		name       string
		code       string
		attempt    int
		max        int
		wantAction Action
		wantDelay  time.Duration
	}{
		{name: "transient first attempt", code: promptmint.ErrCodeGatewayTimeout, attempt: 0, max: 3, wantAction: RetryAfterDelay, wantDelay: 1 * time.Second},
		{name: "transient second attempt doubles", code: promptmint.ErrCodeGatewayUnavailable, attempt: 1, max: 3, wantAction: RetryAfterDelay, wantDelay: 2 * time.Second},
		{name: "transient third attempt doubles again", code: promptmint.ErrCodeRateLimited, attempt: 2, max: 5, wantAction: RetryAfterDelay, wantDelay: 4 * time.Second},
		{name: "budget exhausted", code: promptmint.ErrCodeGatewayTimeout, attempt: 2, max: 3, wantAction: GiveUp},
		{name: "fatal credentials", code: promptmint.ErrCodeInvalidCredentials, attempt: 0, max: 3, wantAction: GiveUp},
		{name: "fatal quota", code: promptmint.ErrCodeQuotaExceeded, attempt: 0, max: 10, wantAction: GiveUp},
		{name: "fatal tier", code: promptmint.ErrCodeTierNotAllowed, attempt: 0, max: 10, wantAction: GiveUp},
		{name: "generic gateway error retries", code: promptmint.ErrCodeGatewayError, attempt: 0, max: 2, wantAction: RetryAfterDelay, wantDelay: 1 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAction(tt.code, tt.attempt, tt.max, base)
			if got.Action != tt.wantAction {
				t.Fatalf("action = %v, want %v", got.Action, tt.wantAction)
			}
			if got.Action == RetryAfterDelay && got.Delay != tt.wantDelay {
				t.Errorf("delay = %v, want %v", got.Delay, tt.wantDelay)
			}
		})
	}
}
