package scenario

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePath = "../../scenarios/spin/config.json"

func loadSample(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(samplePath)
	require.NoError(t, err)
	return cfg
}

// sampleDoc returns the sample scenario as a generic document for mutation.
func sampleDoc(t *testing.T) map[string]any {
	t.Helper()
	data, err := os.ReadFile(samplePath)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func writeDoc(t *testing.T, doc any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func section(doc map[string]any, key string) map[string]any {
	return doc[key].(map[string]any)
}

func TestLoadSample(t *testing.T) {
	cfg := loadSample(t)

	assert.Equal(t, "2.1.0", cfg.Info.Version)
	assert.Equal(t, []string{"situational", "problem", "implication", "need_payoff"}, cfg.TypeIDs())
	assert.Equal(t, 10, cfg.GameRules.MaxQuestions)
	assert.Equal(t, 5, cfg.Scoring.ContextualBonus())
	assert.Equal(t, 221, cfg.Scoring.Master())
	assert.Equal(t, "ДА", cfg.UI.Command("feedback", "да"))
	assert.Equal(t, "/help", cfg.UI.Command("help", "/help"))
	require.NotNil(t, cfg.CaseVariants)
	assert.Len(t, cfg.CaseVariants.Products, 5)
	assert.True(t, filepath.IsAbs(cfg.Path))
	assert.Empty(t, cfg.Warnings)

	q, ok := cfg.QuestionType("implication")
	require.True(t, ok)
	assert.Equal(t, 25, q.ScoreMultiplier)
	_, ok = cfg.QuestionType("nope")
	assert.False(t, ok)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"scenario_info": `), 0o644))

	_, err := Load(path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %T: %v", err, err)
	assert.Equal(t, path, pe.Path)
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
		want   string
	}{
		{
			name:   "missing section",
			mutate: func(doc map[string]any) { delete(doc, "game_rules") },
			want:   "game_rules",
		},
		{
			name:   "empty question types",
			mutate: func(doc map[string]any) { doc["question_types"] = []any{} },
			want:   "/question_types",
		},
		{
			name:   "missing message",
			mutate: func(doc map[string]any) { delete(section(doc, "messages"), "welcome") },
			want:   "welcome",
		},
		{
			name:   "missing prompt",
			mutate: func(doc map[string]any) { delete(section(doc, "prompts"), "feedback") },
			want:   "feedback",
		},
		{
			name:   "missing game rule",
			mutate: func(doc map[string]any) { delete(section(doc, "game_rules"), "target_clarity") },
			want:   "target_clarity",
		},
		{
			name:   "badges not a list",
			mutate: func(doc map[string]any) { section(doc, "scoring")["badges"] = "gold" },
			want:   "/scoring/badges",
		},
		{
			name: "duplicate question type",
			mutate: func(doc map[string]any) {
				qt := doc["question_types"].([]any)
				doc["question_types"] = append(qt, qt[0])
			},
			want: `duplicate id "situational"`,
		},
		{
			name: "inverted badge",
			mutate: func(doc map[string]any) {
				b := section(doc, "scoring")["badges"].([]any)[0].(map[string]any)
				b["min_score"] = 500
			},
			want: "min_score 500 > max_score 79",
		},
		{
			name: "unknown weight key",
			mutate: func(doc map[string]any) {
				section(section(doc, "scoring"), "question_weights")["closing"] = 3
			},
			want: `"closing" is not a question type id`,
		},
		{
			name: "negative contextual bonus",
			mutate: func(doc map[string]any) {
				section(section(doc, "scoring"), "question_weights")["contextual_bonus"] = -50
			},
			want: "/scoring/question_weights/contextual_bonus",
		},
		{
			name: "negative clarity points",
			mutate: func(doc map[string]any) {
				doc["question_types"].([]any)[1].(map[string]any)["clarity_points"] = -5
			},
			want: "/question_types/1/clarity_points",
		},
		{
			name: "badge gap",
			mutate: func(doc map[string]any) {
				b := section(doc, "scoring")["badges"].([]any)[1].(map[string]any)
				b["min_score"] = 100
			},
			want: "scoring.badges leave score 80 uncovered",
		},
		{
			name: "badges start above zero",
			mutate: func(doc map[string]any) {
				b := section(doc, "scoring")["badges"].([]any)[0].(map[string]any)
				b["min_score"] = 10
			},
			want: "leave score 0 uncovered",
		},
		{
			name: "level hole",
			mutate: func(doc map[string]any) {
				l := section(doc, "ranking")["levels"].([]any)[3].(map[string]any)
				l["level"] = 6
			},
			want: "ranking.levels skip from 3 to 6",
		},
		{
			name: "levels not from one",
			mutate: func(doc map[string]any) {
				r := section(doc, "ranking")
				r["levels"] = r["levels"].([]any)[1:]
			},
			want: "ranking.levels start at 2, not 1",
		},
		{
			name: "min_xp decreasing",
			mutate: func(doc map[string]any) {
				l := section(doc, "ranking")["levels"].([]any)[2].(map[string]any)
				l["min_xp"] = 100
			},
			want: "level 3 min_xp 100 is below level 2 min_xp 300",
		},
		{
			name:   "bad version",
			mutate: func(doc map[string]any) { section(doc, "scenario_info")["version"] = "latest" },
			want:   "not a semantic version",
		},
		{
			name:   "future major",
			mutate: func(doc map[string]any) { section(doc, "scenario_info")["version"] = "3.0.0" },
			want:   "newer than supported major",
		},
		{
			name: "duplicate level",
			mutate: func(doc map[string]any) {
				r := section(doc, "ranking")
				levels := r["levels"].([]any)
				r["levels"] = append(levels, levels[1])
			},
			want: "duplicate level 2",
		},
		{
			name: "catalog key empty",
			mutate: func(doc map[string]any) {
				section(doc, "case_variants")["regions"] = []any{}
			},
			want: "case_variants.regions is required",
		},
		{
			name: "no positions",
			mutate: func(doc map[string]any) {
				delete(section(doc, "case_variants"), "positions_by_size")
			},
			want: "either positions or positions_by_size",
		},
		{
			name: "situation without template",
			mutate: func(doc map[string]any) {
				s := section(doc, "case_variants")["base_situations"].([]any)[0].(map[string]any)
				delete(s, "template")
			},
			want: "base_situations[0] needs both type and template",
		},
		{
			name: "unknown typical size",
			mutate: func(doc map[string]any) {
				co := section(doc, "case_variants")["companies"].([]any)[0].(map[string]any)
				co["typical_sizes"] = []any{"гигант"}
			},
			want: `typical size "гигант"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDoc(t)
			tt.mutate(doc)
			_, err := Load(writeDoc(t, doc))

			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %T: %v", err, err)
			assert.Contains(t, ve.Error(), tt.want)
		})
	}
}

func TestValidationCollectsAllProblems(t *testing.T) {
	doc := sampleDoc(t)
	section(doc, "scenario_info")["version"] = "nope"
	section(section(doc, "scoring"), "question_weights")["closing"] = 1
	section(doc, "game_rules")["min_questions_for_completion"] = 50

	_, err := Load(writeDoc(t, doc))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Problems, 3)
}

func TestValidateRejectsNegativeWeights(t *testing.T) {
	cfg := loadSample(t)
	cfg.Scoring.QuestionWeights = map[string]int{ContextualBonusKey: -50}
	cfg.QuestionTypes[0].ClarityPoints = -1

	problems, _ := validate(cfg)
	assert.Contains(t, problems, "scoring.question_weights.contextual_bonus: -50 is negative")
	assert.Contains(t, problems, `question type "situational": clarity_points -1 is negative`)
}

func TestBadgeGap(t *testing.T) {
	tests := []struct {
		name   string
		badges []Badge
		gap    int
		hasGap bool
	}{
		{"contiguous", []Badge{{MinScore: 0, MaxScore: 9}, {MinScore: 10, MaxScore: 20}}, 0, false},
		{"unsorted overlap", []Badge{{MinScore: 5, MaxScore: 30}, {MinScore: 0, MaxScore: 7}}, 0, false},
		{"hole", []Badge{{MinScore: 0, MaxScore: 9}, {MinScore: 12, MaxScore: 20}}, 10, true},
		{"above zero", []Badge{{MinScore: 1, MaxScore: 9}}, 0, true},
	}
	for _, tt := range tests {
		gap, ok := badgeGap(tt.badges)
		assert.Equal(t, tt.hasGap, ok, tt.name)
		assert.Equal(t, tt.gap, gap, tt.name)
	}
}

func TestLoadWarnings(t *testing.T) {
	doc := sampleDoc(t)
	p := section(doc, "case_variants")["products"].([]any)[0].(map[string]any)
	delete(p, "unit")
	ach := section(doc, "achievements")["list"].([]any)
	ach[0].(map[string]any)["condition"] = "__import__('os')"
	ach[1].(map[string]any)["condition"] = "secret_field > 1"

	cfg, err := Load(writeDoc(t, doc))
	require.NoError(t, err)
	require.Len(t, cfg.Warnings, 3)
	assert.Contains(t, cfg.Warnings[0], "will never hold")
	assert.Contains(t, cfg.Warnings[1], "secret_field")
	assert.Contains(t, cfg.Warnings[2], "missing unit")
}

func TestCaseVariantsOptional(t *testing.T) {
	doc := sampleDoc(t)
	delete(doc, "case_variants")
	cfg, err := Load(writeDoc(t, doc))
	require.NoError(t, err)
	assert.Nil(t, cfg.CaseVariants)
}

func TestStoreMemoizes(t *testing.T) {
	calls := 0
	s := NewStore(samplePath, nil)
	s.load = func(path string) (*Config, error) {
		calls++
		return Load(path)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Get()
		}()
	}
	wg.Wait()

	a, err := s.Get()
	require.NoError(t, err)
	b, _ := s.Get()
	assert.Same(t, a, b)
	assert.Equal(t, 1, calls)
}

func TestStoreMemoizesFailure(t *testing.T) {
	calls := 0
	s := NewStore("missing.json", nil)
	s.load = func(path string) (*Config, error) {
		calls++
		return Load(path)
	}
	_, err1 := s.Get()
	_, err2 := s.Get()
	assert.ErrorIs(t, err1, ErrNotFound)
	assert.Equal(t, err1, err2)
	assert.Equal(t, 1, calls)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		vars    Vars
		want    string
		wantErr error
	}{
		{"plain", "hello", nil, "hello", nil},
		{"substitute", "{count}/{max}", Vars{"count": 3, "max": 10}, "3/10", nil},
		{"spaces in braces", "{ name }!", Vars{"name": "Анна"}, "Анна!", nil},
		{"escaped braces", "{{literal}} {x}", Vars{"x": 1}, "{literal} 1", nil},
		{"missing", "{nope}", Vars{}, "", ErrMissingPlaceholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.tmpl, tt.vars)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Format("{open", nil)
	assert.Error(t, err)
}

func TestMessageAndPrompt(t *testing.T) {
	cfg := loadSample(t)

	got, err := cfg.Message("progress", Vars{"count": 2, "max": 10, "clarity": 15})
	require.NoError(t, err)
	assert.Equal(t, "📊 Вопросов: 2/10 | Ясность: 15%", got)

	_, err = cfg.Message("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
	assert.Equal(t, "fallback", cfg.MessageOr("nope", nil, "fallback"))

	_, err = cfg.Prompt("context_check", Vars{"question": "q"})
	assert.ErrorIs(t, err, ErrMissingPlaceholder)
	assert.True(t, cfg.HasPrompt("classification"))
	assert.False(t, cfg.HasPrompt("closing"))
}

func TestTaxonomy(t *testing.T) {
	cfg := loadSample(t)
	lines := strings.Split(cfg.Taxonomy(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "situational: Ситуационный", lines[0])
}

func TestAudit(t *testing.T) {
	cfg := loadSample(t)
	r := Audit(cfg.CaseVariants)
	assert.Empty(t, r.Errors)
	assert.Equal(t, []string{"⚠️ Промышленный погрузчик: нет поля frequency_options"}, r.Warnings)

	cv := *cfg.CaseVariants
	cv.Companies = append(cv.Companies, Company{Type: "Банк"})
	cv.PositionsBySize = map[string][]string{cv.CompanySizes[0]: {"Владелец"}}
	r = Audit(&cv)
	assert.Contains(t, r.Errors, "❌ Банк: нет совместимых продуктов!")
	assert.Len(t, r.Errors, 1+len(cv.CompanySizes)-1)
	assert.Contains(t, r.String(), "🚨 ОШИБКИ:")

	assert.False(t, Audit(nil).OK())
	assert.Contains(t, AuditReport{}.String(), "Конфигурация корректна")
}

func TestBadgeLabel(t *testing.T) {
	assert.Equal(t, "👑 Маэстро", Badge{Name: "Маэстро", Emoji: "👑"}.Label())
	assert.Equal(t, "Маэстро", Badge{Name: "Маэстро"}.Label())
}
