package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// modelAliases expands the short names accepted in LLM_* variables into
// vendor model IDs. Names not listed are sent to the vendor as given.
var modelAliases = map[string]map[string]string{
	ProviderAnthropic: {
		"claude-sonnet": "claude-sonnet-4-20250514",
		"claude-haiku":  "claude-haiku-4-5-20251001",
	},
	ProviderGemini: {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	},
}

// ResolveModel returns the vendor model ID for an alias of provider.
func ResolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

// reply is what a vendor SDK call produced, before normalization.
type reply struct {
	text  string
	model string
	stop  StopReason
	usage Usage
}

// backend is the vendor-specific half of a provider: one SDK call that
// maps the request in and the reply out. Errors are already classified.
type backend interface {
	chat(ctx context.Context, model string, req Request) (reply, error)
}

// chatProvider adapts a backend to Provider and applies the rules every
// vendor shares: replies are trimmed, blank replies are errors, and the
// served model defaults to the configured one.
type chatProvider struct {
	vendor  string
	model   string
	backend backend
}

func newChatProvider(vendor, model string, b backend) *chatProvider {
	return &chatProvider{vendor: vendor, model: ResolveModel(vendor, model), backend: b}
}

func (p *chatProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	r, err := p.backend.chat(ctx, p.model, req)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(r.text)
	if text == "" {
		if r.stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Partial: r.text}
		}
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("%s returned no text", p.vendor)}
	}

	model := r.model
	if model == "" {
		model = p.model
	}
	if r.stop == "" {
		r.stop = StopEnd
	}
	return &Response{Text: text, Usage: r.usage, Model: model, Stop: r.stop}, nil
}

func (p *chatProvider) ModelID() string { return p.model }

// classifyStatus wraps a failed SDK call by its HTTP status. Everything
// except a rate limit counts as the vendor being unavailable, including
// transport errors that never got a status.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// withRetryAfter copies a Retry-After header given in seconds onto a rate
// limit error. Other errors and malformed headers pass through.
func withRetryAfter(err error, h http.Header) error {
	var rl *ErrRateLimit
	if h == nil || !errors.As(err, &rl) {
		return err
	}
	if secs, convErr := strconv.Atoi(h.Get("Retry-After")); convErr == nil && secs > 0 {
		rl.RetryAfter = time.Duration(secs) * time.Second
	}
	return err
}

// usage fills the total when a vendor reports only the parts.
func usage(in, out, total int) Usage {
	if total == 0 {
		total = in + out
	}
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: total}
}
