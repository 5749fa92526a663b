package scenario

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTemplate is returned for a message or prompt name the
	// scenario does not define.
	ErrUnknownTemplate = errors.New("unknown template")

	// ErrMissingPlaceholder is returned when a template names a
	// placeholder absent from the supplied values.
	ErrMissingPlaceholder = errors.New("missing placeholder value")
)

// Vars are placeholder values for Format.
type Vars map[string]any

// Format substitutes {name} placeholders in tmpl. "{{" and "}}" produce
// literal braces. Every placeholder must have a value.
func Format(tmpl string, vars Vars) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		ch := tmpl[i]
		switch ch {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unclosed placeholder at offset %d", i)
			}
			name := strings.TrimSpace(tmpl[i+1 : i+1+end])
			v, ok := vars[name]
			if !ok {
				return "", fmt.Errorf("%w: {%s}", ErrMissingPlaceholder, name)
			}
			fmt.Fprint(&b, v)
			i += end + 1
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i++
			}
			b.WriteByte('}')
		default:
			b.WriteByte(ch)
		}
	}
	return b.String(), nil
}

// Message renders the named message template.
func (c *Config) Message(name string, vars Vars) (string, error) {
	tmpl, ok := c.Messages[name]
	if !ok {
		return "", fmt.Errorf("%w: message %q", ErrUnknownTemplate, name)
	}
	return Format(tmpl, vars)
}

// Prompt renders the named prompt template.
func (c *Config) Prompt(name string, vars Vars) (string, error) {
	tmpl, ok := c.Prompts[name]
	if !ok {
		return "", fmt.Errorf("%w: prompt %q", ErrUnknownTemplate, name)
	}
	return Format(tmpl, vars)
}

// HasPrompt reports whether the scenario defines the named prompt.
func (c *Config) HasPrompt(name string) bool {
	_, ok := c.Prompts[name]
	return ok
}

// MessageOr renders the named message, returning fallback when the
// message is missing or cannot be rendered.
func (c *Config) MessageOr(name string, vars Vars, fallback string) string {
	s, err := c.Message(name, vars)
	if err != nil {
		return fallback
	}
	return s
}

// Taxonomy renders the question types as "id: name" lines, used when
// describing the allowed labels to a classifier.
func (c *Config) Taxonomy() string {
	lines := make([]string, len(c.QuestionTypes))
	for i, q := range c.QuestionTypes {
		lines[i] = fmt.Sprintf("%s: %s", q.ID, q.DisplayName())
	}
	return strings.Join(lines, "\n")
}
