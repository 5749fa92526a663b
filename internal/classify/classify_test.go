package classify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/scenario"
)

func loadSample(t *testing.T) *scenario.Config {
	t.Helper()
	cfg, err := scenario.Load("../../scenarios/spin/config.json")
	require.NoError(t, err)
	return cfg
}

type call struct {
	kind         llm.Kind
	system, user string
}

// scriptedDelegate replies from a fixed queue and records every call.
type scriptedDelegate struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   []call
}

func (d *scriptedDelegate) Invoke(_ context.Context, kind llm.Kind, system, user string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := len(d.calls)
	d.calls = append(d.calls, call{kind, system, user})
	var err error
	if i < len(d.errs) {
		err = d.errs[i]
	}
	if err != nil {
		return llm.DegradedMessage, err
	}
	if i < len(d.replies) {
		return d.replies[i], nil
	}
	return "", nil
}

func englishTaxonomy() []scenario.QuestionType {
	return []scenario.QuestionType{
		{ID: "situational", Keywords: []string{"how many", "what is"}},
		{ID: "problem", Keywords: []string{"problem", "difficult"}},
		{ID: "implication", Keywords: []string{"impact"}},
		{ID: "need_payoff", Keywords: []string{"would it help"}},
	}
}

func TestKeyword(t *testing.T) {
	types := englishTaxonomy()
	tests := []struct {
		question string
		want     string
	}{
		{"What problems are you experiencing with your current supplier?", "problem"},
		{"HOW MANY trucks do you run?", "situational"},
		{"What is the impact of late deliveries?", "situational"},
		{"What impact do late deliveries have?", "implication"},
		{"Would it help to have a backup supplier?", "need_payoff"},
		{"Tell me about your week.", "situational"},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got, err := Keyword(tt.question, types)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.ID)
		})
	}

	_, err := Keyword("anything", nil)
	assert.ErrorIs(t, err, ErrEmptyTaxonomy)
}

func TestKeywordRussian(t *testing.T) {
	cfg := loadSample(t)
	tests := []struct {
		question string
		want     string
	}{
		{"Сколько поставщиков у вас сейчас?", "situational"},
		{"С какими сложностями вы сталкиваетесь при поставках?", "problem"},
		{"Как это влияет на выручку?", "implication"},
		{"Если бы поставки были точными, что бы это дало?", "need_payoff"},
		{"Расскажите о себе", "situational"},
	}
	for _, tt := range tests {
		got, err := Keyword(tt.question, cfg.QuestionTypes)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.ID, tt.question)
	}
}

func TestClassifyWithoutDelegate(t *testing.T) {
	cfg := loadSample(t)
	cfg.QuestionTypes = englishTaxonomy()
	c := New(cfg, nil, nil)

	r := c.Classify(context.Background(), "What problems are you experiencing with your current supplier?", "case")
	assert.Equal(t, "problem", r.Type.ID)
	assert.Equal(t, TierHeuristic, r.Tier)
	assert.ErrorIs(t, r.Fallback, ErrNoDelegate)
}

func TestClassifyModelTier(t *testing.T) {
	cfg := loadSample(t)
	d := &scriptedDelegate{replies: []string{"  \"Need-Payoff\".\n"}}
	c := New(cfg, d, nil)

	r := c.Classify(context.Background(), "Сколько стоит простой?", "КЕЙС")
	assert.Equal(t, "need_payoff", r.Type.ID)
	assert.Equal(t, TierModel, r.Tier)
	assert.NoError(t, r.Fallback)

	require.Len(t, d.calls, 1)
	assert.Equal(t, llm.KindClassification, d.calls[0].kind)
	assert.Contains(t, d.calls[0].system, "КЕЙС")
	assert.Contains(t, d.calls[0].system, "implication: Извлекающий")
	assert.Contains(t, d.calls[0].system, "Сколько стоит простой?")
	assert.Equal(t, "Сколько стоит простой?", d.calls[0].user)
}

func TestClassifyDefaultPrompt(t *testing.T) {
	cfg := loadSample(t)
	delete(cfg.Prompts, "classification")
	d := &scriptedDelegate{replies: []string{"problem"}}
	c := New(cfg, d, nil)

	r := c.Classify(context.Background(), "Что вас не устраивает?", "КЕЙС")
	assert.Equal(t, "problem", r.Type.ID)
	require.Len(t, d.calls, 1)
	assert.Contains(t, d.calls[0].system, "Ты эксперт по методике SPIN-продаж")
}

func TestClassifyFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		d       *scriptedDelegate
		wantErr func(error) bool
	}{
		{
			name: "unknown label",
			d:    &scriptedDelegate{replies: []string{"closing"}},
			wantErr: func(err error) bool {
				var le *LabelError
				return errors.As(err, &le) && le.Raw == "closing"
			},
		},
		{
			name:    "empty label",
			d:       &scriptedDelegate{replies: []string{""}},
			wantErr: func(err error) bool { var le *LabelError; return errors.As(err, &le) },
		},
		{
			name:    "degraded delegate",
			d:       &scriptedDelegate{errs: []error{llm.ErrDegraded}},
			wantErr: func(err error) bool { return errors.Is(err, llm.ErrDegraded) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(loadSample(t), tt.d, nil)
			r := c.Classify(context.Background(), "С какими проблемами вы сталкиваетесь?", "case")
			assert.Equal(t, "problem", r.Type.ID)
			assert.Equal(t, TierHeuristic, r.Tier)
			assert.True(t, tt.wantErr(r.Fallback), "fallback error: %v", r.Fallback)
		})
	}
}

// The real invoker returns the degraded text with an error; the classifier
// must not mistake that text for a label.
func TestClassifyThroughInvoker(t *testing.T) {
	cfg := llm.DefaultConfig()
	cfg.Retry = llm.RetryConfig{InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
	for _, k := range llm.Kinds {
		cfg.Policies[k] = llm.Policy{
			Primary:  llm.Target{Provider: llm.ProviderMock, Model: "primary"},
			Fallback: llm.Target{Provider: llm.ProviderMock, Model: "fallback"},
		}
	}
	mocks := map[string]*llm.MockProvider{
		"primary":  llm.NewNamedMockProvider("primary", llm.MockResponse{Err: &llm.ErrProviderUnavailable{}}),
		"fallback": llm.NewNamedMockProvider("fallback", llm.MockResponse{Text: "implication"}),
	}
	reg := llm.NewRegistryWith(func(_ context.Context, tgt llm.Target) (llm.Provider, error) {
		return mocks[tgt.Model], nil
	}, nil, nil)
	c := New(loadSample(t), llm.NewInvoker(cfg, reg, nil), nil)

	r := c.Classify(context.Background(), "Сколько это стоит компании?", "case")
	assert.Equal(t, "implication", r.Type.ID)
	assert.Equal(t, TierModel, r.Tier)

	// Both mocks are now empty, so the next call degrades.
	r = c.Classify(context.Background(), "Сколько это стоит компании?", "case")
	assert.Equal(t, "situational", r.Type.ID)
	assert.Equal(t, TierHeuristic, r.Tier)
	assert.ErrorIs(t, r.Fallback, llm.ErrDegraded)
}

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		"problem":            "problem",
		"  Problem. ":        "problem",
		"need-payoff":        "need_payoff",
		"Need Payoff":        "need_payoff",
		"need - payoff":      "need_payoff",
		"«implication»":      "implication",
		"'situational'\nwhy": "situational",
		"need_payoff!":       "need_payoff",
		"":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLabel(in), "input %q", in)
	}
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"да", true, false},
		{"Да.", true, false},
		{"YES", true, false},
		{"нет", false, false},
		{"No, it does not.", false, false},
		{"да и нет", false, true},
		{"yes/no", false, true},
		{"не знаю", false, true},
		{"", false, true},
		{"nothing", false, true},
	}
	for _, tt := range tests {
		got, err := ParseYesNo(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestContextHeuristic(t *testing.T) {
	prev := "We receive 12 trucks per month from two suppliers."
	tests := []struct {
		name     string
		question string
		previous string
		want     bool
	}{
		{"shared number", "What happens when fewer than 12 trucks arrive?", prev, true},
		{"no overlap", "Which regions do you serve?", prev, false},
		{"different number", "Do you ever need 120 trucks?", prev, false},
		{"english marker", "As you said, deliveries slip. Why?", prev, true},
		{"russian marker", "Вы упомянули задержки. Насколько часто?", "Бывают задержки.", true},
		{"decimal", "Цена выросла на 3,5%?", "Рост цен 3,5% за квартал", true},
		{"no previous", "As you said?", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextHeuristic(tt.question, tt.previous))
		})
	}
}

func TestUsesContext(t *testing.T) {
	ctx := context.Background()
	prev := "Закупаем 40 тонн в месяц."

	t.Run("model says yes", func(t *testing.T) {
		d := &scriptedDelegate{replies: []string{"Да"}}
		r := New(loadSample(t), d, nil).UsesContext(ctx, "Как вы это планируете?", prev)
		assert.True(t, r.Contextual)
		assert.Equal(t, TierModel, r.Tier)
		require.Len(t, d.calls, 1)
		assert.Equal(t, llm.KindContext, d.calls[0].kind)
		assert.Contains(t, d.calls[0].system, prev)
	})

	t.Run("ambiguous answer falls back", func(t *testing.T) {
		d := &scriptedDelegate{replies: []string{"да, нет"}}
		r := New(loadSample(t), d, nil).UsesContext(ctx, "А 40 тонн хватает?", prev)
		assert.True(t, r.Contextual)
		assert.Equal(t, TierHeuristic, r.Tier)
		var le *LabelError
		assert.True(t, errors.As(r.Fallback, &le))
	})

	t.Run("no prompt uses heuristic", func(t *testing.T) {
		cfg := loadSample(t)
		delete(cfg.Prompts, "context_check")
		d := &scriptedDelegate{}
		r := New(cfg, d, nil).UsesContext(ctx, "Какие регионы?", prev)
		assert.False(t, r.Contextual)
		assert.ErrorIs(t, r.Fallback, ErrNoPrompt)
		assert.Empty(t, d.calls)
	})

	t.Run("empty previous skips both tiers", func(t *testing.T) {
		d := &scriptedDelegate{replies: []string{"да"}}
		r := New(loadSample(t), d, nil).UsesContext(ctx, "Вопрос?", "")
		assert.False(t, r.Contextual)
		assert.Empty(t, d.calls)
	})
}

func TestClarityGain(t *testing.T) {
	c := New(loadSample(t), nil, nil)
	assert.Equal(t, 15, c.ClarityGain("implication"))
	assert.Equal(t, 0, c.ClarityGain("unknown"))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "model", TierModel.String())
	assert.Equal(t, "heuristic", TierHeuristic.String())
	assert.Equal(t, "unknown", Tier(0).String())
}
