package llm

import "context"

// Provider turns one prompt into one text reply from a fixed model.
// Decorators (retry, timeout, audit logging) wrap it and the Invoker picks
// one per call kind.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the resolved model identifier, after alias expansion.
	ModelID() string
}

// Request is a single-turn prompt. The trainer never replays history to
// the model: every call is a system prompt plus one user message.
type Request struct {
	Kind   Kind
	System string
	User   string
	Params
}

// NewRequest builds a request carrying the generation parameters of kind.
func NewRequest(kind Kind, system, user string) Request {
	return Request{Kind: kind, System: system, User: user, Params: ParamsFor(kind)}
}

// StopReason is why the model stopped producing text.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

type Response struct {
	// Text is never empty; providers reject blank replies.
	Text  string
	Usage Usage
	// Model is what actually served the call, which may differ from the
	// configured alias.
	Model string
	Stop  StopReason
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
