package llm

import (
	"errors"
	"fmt"
	"time"
)

// ErrDegraded accompanies DegradedMessage when every target of a kind
// failed. Callers may show the message or treat the call as failed.
var ErrDegraded = errors.New("llm: all targets failed")

// ErrRateLimit is a 429 from the vendor. RetryAfter is zero when the
// vendor did not say how long to wait.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the call succeeded but produced nothing usable.
type ErrInvalidResponse struct {
	Err error
}

func (e *ErrInvalidResponse) Error() string { return "unusable model reply: " + e.Err.Error() }

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers outages, transport failures and any vendor
// error other than a rate limit.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "model provider unavailable"
	}
	return "model provider unavailable: " + e.Err.Error()
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the token budget ran out before any text was
// produced. Retrying with the same budget cannot help.
type ErrMaxTokensExceeded struct {
	Partial string
}

func (e *ErrMaxTokensExceeded) Error() string { return "model reply truncated by max tokens" }
