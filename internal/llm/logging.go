package llm

import (
	"context"
	"strings"
	"time"

	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/store"
)

// auditedProvider times each attempt, logs it and appends it to the audit
// log. Retries wrap it from the outside so every attempt gets its own row.
type auditedProvider struct {
	next   Provider
	vendor string
	events store.EventRepo
	log    *logger.Logger
}

// WithLogging wraps p so each call is logged. A nil repo skips the audit
// log and keeps only the structured log lines.
func WithLogging(p Provider, provider string, repo store.EventRepo, log *logger.Logger) Provider {
	return &auditedProvider{next: p, vendor: provider, events: repo, log: logger.OrNop(log)}
}

func (a *auditedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	began := time.Now()
	resp, err := a.next.Generate(ctx, req)
	row := a.record(req, resp, err, time.Since(began))

	fields := []any{"provider", a.vendor, "model", row.Model, "kind", req.Kind, "latency_ms", row.LatencyMs}
	if err != nil {
		a.log.Warn("llm request failed", append(fields, "error", err)...)
	} else {
		a.log.Debug("llm request", append(fields, "input_tokens", row.InputTokens, "output_tokens", row.OutputTokens)...)
	}

	if a.events != nil {
		// Audit failures are logged and swallowed.
		if aerr := a.events.AppendLLMRequest(context.WithoutCancel(ctx), row); aerr != nil {
			a.log.Warn("append llm request event", "error", aerr)
		}
	}
	return resp, err
}

func (a *auditedProvider) ModelID() string { return a.next.ModelID() }

func (a *auditedProvider) record(req Request, resp *Response, err error, took time.Duration) store.LLMRequestEventData {
	row := store.LLMRequestEventData{
		Provider:    a.vendor,
		Model:       a.next.ModelID(),
		Kind:        string(req.Kind),
		LatencyMs:   took.Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if err != nil {
		row.ErrorMessage = err.Error()
	}
	if resp != nil {
		if resp.Model != "" {
			row.Model = resp.Model
		}
		row.InputTokens, row.OutputTokens = resp.Usage.InputTokens, resp.Usage.OutputTokens
		row.ResponseBody = resp.Text
	}
	return row
}

// transcript renders a request the way `spincoach llm view` shows it.
func transcript(req Request) string {
	parts := make([]string, 0, 2)
	if req.System != "" {
		parts = append(parts, "[system]\n"+req.System)
	}
	parts = append(parts, "[user]\n"+req.User)
	return strings.Join(parts, "\n\n")
}
