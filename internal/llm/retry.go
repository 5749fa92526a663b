package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/spincoach/internal/logger"
)

// RetryProvider repeats failed calls with jittered exponential backoff.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	log    *logger.Logger
}

// WithRetry wraps p so each Generate makes up to cfg.MaxAttempts calls.
// Fewer than one attempt is treated as one.
func WithRetry(p Provider, cfg RetryConfig, log *logger.Logger) Provider {
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	return &RetryProvider{inner: p, config: cfg, log: logger.OrNop(log)}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var emptyReplies int
	for attempt := 1; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		var invalid *ErrInvalidResponse
		if errors.As(err, &invalid) {
			emptyReplies++
		}
		// A per-attempt deadline is retryable; the caller's is not.
		if ctx.Err() != nil || !retryable(err, emptyReplies) || attempt >= r.config.MaxAttempts {
			return nil, err
		}

		wait := r.wait(attempt, err)
		r.log.Warn("llm attempt failed, retrying",
			"model", r.inner.ModelID(),
			"kind", req.Kind,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// retryable reports whether another attempt could succeed. Truncation is a
// configuration problem and a blank reply is retried only once; outages,
// rate limits and transport errors are all transient.
func retryable(err error, emptyReplies int) bool {
	var truncated *ErrMaxTokensExceeded
	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.As(err, &truncated):
		return false
	case emptyReplies > 1:
		return false
	}
	return true
}

// wait is how long to sleep after the given 1-based attempt. A vendor
// Retry-After wins over the computed backoff.
func (r *RetryProvider) wait(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	base := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt-1))
	base = math.Min(base, float64(r.config.MaxWait))
	jittered := base * (0.8 + 0.4*rand.Float64())
	return time.Duration(math.Max(jittered, 0))
}
