package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/spincoach/internal/logger"
)

// DegradedMessage is returned to the user when every target of a kind failed.
const DegradedMessage = "Произошла ошибка при генерации ответа. Попробуйте ещё раз позже."

// Delegate turns a system prompt and a user message into text for a call
// kind. On total failure it returns DegradedMessage together with an error
// wrapping ErrDegraded, so callers may either show the text or fall back.
type Delegate interface {
	Invoke(ctx context.Context, kind Kind, system, user string) (string, error)
}

// DelegateFunc adapts a function to the Delegate interface.
type DelegateFunc func(ctx context.Context, kind Kind, system, user string) (string, error)

func (f DelegateFunc) Invoke(ctx context.Context, kind Kind, system, user string) (string, error) {
	return f(ctx, kind, system, user)
}

// Invoker executes the per-kind primary/fallback policy.
type Invoker struct {
	cfg      Config
	registry *Registry
	log      *logger.Logger
}

// NewInvoker creates an Invoker. Providers are resolved lazily through the
// registry, so a misconfigured target only fails the calls that use it.
func NewInvoker(cfg Config, registry *Registry, log *logger.Logger) *Invoker {
	return &Invoker{cfg: cfg, registry: registry, log: logger.OrNop(log)}
}

// Invoke tries the primary target MaxRetries+1 times, then the fallback
// target once.
func (i *Invoker) Invoke(ctx context.Context, kind Kind, system, user string) (string, error) {
	policy, ok := i.cfg.Policies[kind]
	if !ok {
		return DegradedMessage, fmt.Errorf("%w: no policy for kind %q", ErrDegraded, kind)
	}

	req := NewRequest(kind, system, user)

	text, primaryErr := i.try(ctx, policy.Primary, req, policy.MaxRetries+1)
	if primaryErr == nil {
		return text, nil
	}
	if errors.Is(primaryErr, context.Canceled) {
		return DegradedMessage, fmt.Errorf("%w: %v", ErrDegraded, primaryErr)
	}
	i.log.Warn("primary target failed, using fallback",
		"kind", kind,
		"primary", policy.Primary.String(),
		"fallback", policy.Fallback.String(),
		"error", primaryErr,
	)

	text, fallbackErr := i.try(ctx, policy.Fallback, req, 1)
	if fallbackErr == nil {
		return text, nil
	}

	i.log.Error("all LLM targets failed",
		"kind", kind,
		"primary", policy.Primary.String(),
		"fallback", policy.Fallback.String(),
		"primary_error", primaryErr,
		"fallback_error", fallbackErr,
	)
	return DegradedMessage, fmt.Errorf("%w: primary %s: %v; fallback %s: %v",
		ErrDegraded, policy.Primary, primaryErr, policy.Fallback, fallbackErr)
}

func (i *Invoker) try(ctx context.Context, t Target, req Request, attempts int) (string, error) {
	p, err := i.registry.Get(ctx, t)
	if err != nil {
		return "", err
	}

	retryCfg := i.cfg.Retry
	retryCfg.MaxAttempts = attempts
	p = WithRetry(withTimeout(p, i.cfg.Timeout), retryCfg, i.log)

	resp, err := p.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// timeoutProvider bounds each attempt with its own deadline.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

func withTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string { return t.inner.ModelID() }
