package classify

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/scenario"
)

const (
	promptClassification = "classification"
	promptContextCheck   = "context_check"
)

const defaultClassificationPrompt = `Ты эксперт по методике SPIN-продаж. Определи тип вопроса продавца.

Контекст кейса:
{case}

Допустимые типы (id: название):
{types}

Вопрос продавца: {question}

Ответь только id типа, без пояснений.`

func (c *Classifier) modelType(ctx context.Context, question, caseText string) (scenario.QuestionType, error) {
	if c.delegate == nil {
		return scenario.QuestionType{}, ErrNoDelegate
	}

	vars := scenario.Vars{"case": caseText, "types": c.cfg.Taxonomy(), "question": question}
	tmpl := defaultClassificationPrompt
	if p, ok := c.cfg.Prompts[promptClassification]; ok {
		tmpl = p
	}
	system, err := scenario.Format(tmpl, vars)
	if err != nil {
		return scenario.QuestionType{}, fmt.Errorf("render classification prompt: %w", err)
	}

	raw, err := c.delegate.Invoke(ctx, llm.KindClassification, system, question)
	if err != nil {
		return scenario.QuestionType{}, fmt.Errorf("classification call: %w", err)
	}

	label := NormalizeLabel(raw)
	for _, t := range c.cfg.QuestionTypes {
		if NormalizeLabel(t.ID) == label {
			return t, nil
		}
	}
	return scenario.QuestionType{}, &LabelError{Raw: raw}
}

func (c *Classifier) modelContext(ctx context.Context, question, previous string) (bool, error) {
	if c.delegate == nil {
		return false, ErrNoDelegate
	}
	if !c.cfg.HasPrompt(promptContextCheck) {
		return false, fmt.Errorf("%w: %s", ErrNoPrompt, promptContextCheck)
	}
	system, err := c.cfg.Prompt(promptContextCheck, scenario.Vars{
		"previous_response": previous,
		"question":          question,
	})
	if err != nil {
		return false, fmt.Errorf("render context prompt: %w", err)
	}
	raw, err := c.delegate.Invoke(ctx, llm.KindContext, system, question)
	if err != nil {
		return false, fmt.Errorf("context call: %w", err)
	}
	return ParseYesNo(raw)
}

// NormalizeLabel canonicalizes a model label: first line only, trimmed,
// lower-cased, quotes and punctuation dropped, and runs of spaces or
// hyphens folded to a single underscore.
func NormalizeLabel(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

var (
	yesWords = []string{"да", "yes"}
	noWords  = []string{"нет", "no"}
)

// ParseYesNo reads a yes/no answer. Answers containing both or neither
// are rejected.
func ParseYesNo(s string) (bool, error) {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var yes, no bool
	for _, w := range words {
		for _, y := range yesWords {
			yes = yes || w == y
		}
		for _, n := range noWords {
			no = no || w == n
		}
	}
	if yes == no {
		return false, &LabelError{Raw: s}
	}
	return yes, nil
}
