// Package classify decides which question type a trainee's question is and
// whether it builds on the client's previous answer.
//
// Both decisions run in two tiers. The model tier asks the LLM delegate and
// validates its label; the heuristic tier is a pure function of the text.
// Any model-tier failure silently degrades to the heuristic tier, so the
// exported entry points never fail once a taxonomy is loaded.
package classify

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/scenario"
)

// Tier identifies which stage produced a result.
type Tier int

const (
	TierModel Tier = iota + 1
	TierHeuristic
)

func (t Tier) String() string {
	switch t {
	case TierModel:
		return "model"
	case TierHeuristic:
		return "heuristic"
	}
	return "unknown"
}

var (
	// ErrNoDelegate means the model tier was skipped.
	ErrNoDelegate = errors.New("no LLM delegate configured")

	// ErrNoPrompt means the scenario has no context_check prompt.
	ErrNoPrompt = errors.New("no prompt configured")

	// ErrEmptyTaxonomy is returned by Keyword when there are no types.
	ErrEmptyTaxonomy = errors.New("empty question taxonomy")
)

// LabelError is returned when the model's answer is not an acceptable label.
type LabelError struct {
	Raw string
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("unrecognized label %q", e.Raw)
}

// Result is a question-type decision.
type Result struct {
	Type scenario.QuestionType
	Tier Tier

	// Fallback is why the model tier was not used, or nil.
	Fallback error
}

// ContextResult is an active-listening decision.
type ContextResult struct {
	Contextual bool
	Tier       Tier
	Fallback   error
}

// Classifier runs both pipelines for one scenario.
type Classifier struct {
	cfg      *scenario.Config
	delegate llm.Delegate
	log      *logger.Logger
}

// New returns a Classifier. A nil delegate disables the model tier.
func New(cfg *scenario.Config, delegate llm.Delegate, log *logger.Logger) *Classifier {
	return &Classifier{cfg: cfg, delegate: delegate, log: logger.OrNop(log)}
}

// Classify returns the question type for question. caseText is the
// rendered client case given to the model as context.
func (c *Classifier) Classify(ctx context.Context, question, caseText string) Result {
	t, err := c.modelType(ctx, question, caseText)
	if err == nil {
		c.log.Debug("question classified", "tier", TierModel, "type", t.ID)
		return Result{Type: t, Tier: TierModel}
	}
	if !errors.Is(err, ErrNoDelegate) {
		c.log.Warn("model classification failed, using keywords", "error", err)
	}

	t, kerr := Keyword(question, c.cfg.QuestionTypes)
	if kerr != nil {
		c.log.Error("keyword classification failed", "error", kerr)
	}
	c.log.Debug("question classified", "tier", TierHeuristic, "type", t.ID)
	return Result{Type: t, Tier: TierHeuristic, Fallback: err}
}

// UsesContext reports whether question builds on previous, the client's
// last answer. An empty previous answer is never built upon.
func (c *Classifier) UsesContext(ctx context.Context, question, previous string) ContextResult {
	if previous == "" {
		return ContextResult{Tier: TierHeuristic}
	}
	yes, err := c.modelContext(ctx, question, previous)
	if err == nil {
		return ContextResult{Contextual: yes, Tier: TierModel}
	}
	if !errors.Is(err, ErrNoDelegate) && !errors.Is(err, ErrNoPrompt) {
		c.log.Warn("model context check failed, using heuristic", "error", err)
	}
	return ContextResult{
		Contextual: ContextHeuristic(question, previous),
		Tier:       TierHeuristic,
		Fallback:   err,
	}
}

// ClarityGain is the clarity a question of type id adds.
func (c *Classifier) ClarityGain(id string) int {
	t, _ := c.cfg.QuestionType(id)
	return t.ClarityPoints
}
