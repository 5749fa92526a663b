package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/spincoach/internal/casegen"
	"github.com/abhisek/spincoach/internal/scenario"
	"github.com/abhisek/spincoach/internal/scoring"
)

func loadSample(t *testing.T) *scenario.Config {
	t.Helper()
	cfg, err := scenario.Load("../../scenarios/spin/config.json")
	require.NoError(t, err)
	return cfg
}

func sampleCase(cfg *scenario.Config) *casegen.Case {
	cv := cfg.CaseVariants
	return &casegen.Case{
		Position:       "Директор по закупкам",
		Company:        cv.Companies[2],
		CompanySize:    cv.CompanySizes[3],
		Region:         "Казань",
		Product:        cv.Products[0],
		Situation:      cv.BaseSituations[1],
		Volume:         120,
		Unit:           "тонн",
		SuppliersCount: 2,
		Frequency:      "ежемесячно",
		Urgency:        "новый проект",
	}
}

func TestRecommendationsBuiltin(t *testing.T) {
	cfg := loadSample(t)
	cfg.Report.Recommendations = nil

	tests := []struct {
		name    string
		session Session
		want    []string
	}{
		{
			name:    "only situational",
			session: Session{Counts: map[string]int{"situational": 3}, ClarityLevel: 15},
			want: []string{
				"• Сокращайте количество ситуационных вопросов",
				"• Обязательно задавайте проблемные вопросы для выявления потребностей",
				"• Используйте извлекающие вопросы для развития проблем",
				"• Добавьте направляющие вопросы для обсуждения выгод решения",
				"• Глубже исследуйте потребности клиента",
			},
		},
		{
			name:    "balanced",
			session: Session{Counts: map[string]int{"situational": 2, "problem": 2, "implication": 1, "need_payoff": 1}, ClarityLevel: 80},
			want:    []string{congratulation},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommendations(cfg, tt.session, 0))
		})
	}
}

func TestRecommendationsBuiltinSkipUndeclaredTypes(t *testing.T) {
	cfg := loadSample(t)
	cfg.Report.Recommendations = nil
	cfg.QuestionTypes = []scenario.QuestionType{
		{ID: "opening", Name: "Открывающий"},
		{ID: "closing", Name: "Закрывающий"},
	}

	recs := Recommendations(cfg, Session{Counts: map[string]int{"opening": 4}, ClarityLevel: 70}, 0)
	assert.Equal(t, []string{congratulation}, recs)

	recs = Recommendations(cfg, Session{Counts: map[string]int{}, ClarityLevel: 20}, 0)
	assert.Equal(t, []string{"• Глубже исследуйте потребности клиента"}, recs)
}

func TestRecommendationsFromScenario(t *testing.T) {
	cfg := loadSample(t)

	recs := Recommendations(cfg, Session{
		QuestionCount:       5,
		ClarityLevel:        85,
		ContextualQuestions: 1,
		Counts:              map[string]int{"situational": 1, "problem": 2, "implication": 1, "need_payoff": 1},
	}, 95)
	assert.Equal(t, []string{"• Стройте следующие вопросы на фактах из ответов клиента"}, recs)

	// Division by zero in the last rule is guarded by question_count > 0.
	recs = Recommendations(cfg, Session{Counts: map[string]int{}}, 0)
	assert.Len(t, recs, 4)

	cfg.Report.Recommendations = []scenario.Recommendation{
		{Condition: "bogus > 1", Text: "never"},
		{Condition: "score >= 90", Text: "high"},
	}
	assert.Equal(t, []string{"high"}, Recommendations(cfg, Session{}, 95))
	assert.Equal(t, []string{congratulation}, Recommendations(cfg, Session{}, 10))
}

func TestFinal(t *testing.T) {
	cfg := loadSample(t)
	engine := scoring.New(cfg, nil)
	p := scoring.NewProgression()
	p.TotalXP = 250
	counts := map[string]int{"situational": 3, "problem": 2, "implication": 1, "need_payoff": 1}
	d := engine.Complete(&p, scoring.Outcome{Counts: counts, QuestionCount: 7, ContextualQuestions: 5})

	out := Final(Input{
		Config: cfg,
		Engine: engine,
		Session: Session{
			QuestionCount:       7,
			ClarityLevel:        85,
			Counts:              counts,
			ContextualQuestions: 5,
			Case:                sampleCase(cfg),
		},
		Progression: p,
		Delta:       d,
	})

	for _, want := range []string{
		"🏁 ТРЕНИРОВКА ЗАВЕРШЕНА!",
		"Задано вопросов: 7/10",
		"Уровень ясности: 85%",
		"🔍 Ситуационный: 3\n⚠️ Проблемный: 2\n💥 Извлекающий: 1\n🎯 Направляющий: 1",
		"🏅 Ваш результат: 📘 Практик",
		"Общий балл: 105",
		"📋 ИНФОРМАЦИЯ О КЕЙСЕ:",
		"Объём: 120 тонн",
		"Пройдено тренировок: 1",
		"Контекстуальных вопросов: 5/7 (71%)",
		"🏆 Отлично! Вы внимательно слушаете клиента!",
		"📘 Уровень 2: Продавец",
		"Опыт (XP): 355",
		"До следующего уровня: 445 XP",
		"🎊 ПОЗДРАВЛЯЕМ! ВЫ ПОВЫСИЛИ УРОВЕНЬ!",
		"📘 Уровень 1 → Уровень 2: Продавец",
		"🎖️ НОВЫЕ ДОСТИЖЕНИЯ:",
		"🎉 Первый шаг - Завершите первую тренировку",
		"👂 Активный слушатель",
	} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasSuffix(out, `напишите "начать" или используйте /help для справки`))
}

func TestFinalWithoutCaseOrBadge(t *testing.T) {
	cfg := loadSample(t)
	out := Final(Input{Config: cfg, Engine: scoring.New(cfg, nil), Progression: scoring.NewProgression()})
	assert.NotContains(t, out, "ИНФОРМАЦИЯ О КЕЙСЕ")
	assert.Contains(t, out, "🏅 Ваш результат: —")
	assert.NotContains(t, out, "ПОВЫСИЛИ УРОВЕНЬ")
	assert.NotContains(t, out, "НОВЫЕ ДОСТИЖЕНИЯ")
}

func TestListening(t *testing.T) {
	tests := []struct {
		contextual, questions int
		want                  string
	}{
		{7, 10, "🏆 Отлично!"},
		{4, 10, "💡 Хорошо"},
		{3, 10, "⚠️ Совет"},
		{0, 0, "(0%)"},
	}
	for _, tt := range tests {
		assert.Contains(t, listening(tt.contextual, tt.questions), tt.want)
	}
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[░░░░░░░░░░] 0%", ProgressBar(-5))
	assert.Equal(t, "[████░░░░░░] 45%", ProgressBar(45))
	assert.Equal(t, "[██████████] 100%", ProgressBar(250))
}

func TestRank(t *testing.T) {
	cfg := loadSample(t)
	p := scoring.NewProgression()
	p.CurrentLevel = 2
	p.TotalXP = 550
	p.AchievementsUnlocked = []string{"first_training"}

	out := Rank(cfg, scoring.New(cfg, nil), p)
	assert.Contains(t, out, "📘 Уровень 2: Продавец")
	assert.Contains(t, out, "💎 Опыт: 550 XP")
	assert.Contains(t, out, "📊 До уровня 3 \"Эксперт\":\nНужно: 250 XP\n[█████░░░░░] 50%")
	assert.Contains(t, out, "🎖️ ДОСТИЖЕНИЯ (1/6):")
	assert.Contains(t, out, "✅ 🎉 Первый шаг")
	assert.Contains(t, out, "⬜ 🏃 Марафонец")

	p.CurrentLevel = 4
	p.TotalXP = 2500
	assert.Contains(t, Rank(cfg, scoring.New(cfg, nil), p), "🏆 Вы достигли максимального уровня!")

	cfg.Ranking.Levels = nil
	p.CurrentLevel = 1
	assert.Contains(t, Rank(cfg, scoring.New(cfg, nil), p), "🌱 Уровень 1: Новичок")
}

func TestStats(t *testing.T) {
	cfg := loadSample(t)
	p := scoring.NewProgression()
	out := Stats(cfg, p, "❌ Нет активной тренировки")
	assert.Contains(t, out, "• Пока нет наград")
	assert.Contains(t, out, "Ещё не проводилась")
	assert.Contains(t, out, "❌ Нет активной тренировки")

	p.TotalTrainings = 7
	p.BadgesEarned = []string{"a", "b", "c", "d", "e", "f"}
	p.LastTrainingAt = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)
	out = Stats(cfg, p, "ok")
	assert.Contains(t, out, "- Пройдено тренировок: 7")
	assert.Contains(t, out, "b\nc\nd\ne\nf")
	assert.NotContains(t, out, "a\nb")
	assert.Contains(t, out, "2026-05-04 18:30")
}

func TestCaseInfo(t *testing.T) {
	cfg := loadSample(t)
	out := Case(cfg, Session{QuestionCount: 3, ClarityLevel: 30, Case: sampleCase(cfg)})
	assert.Contains(t, out, "- Компания: Производственное предприятие")
	assert.Contains(t, out, "- Объём закупок: 120 тонн")
	assert.Contains(t, out, "🎯 Ситуация: delivery_problems")
	assert.Contains(t, out, "- Вопросов задано: 3/10")

	assert.Equal(t, "Данные кейса недоступны", Case(cfg, Session{}))
}

func TestHelpScenarioFeedback(t *testing.T) {
	cfg := loadSample(t)
	assert.Contains(t, Help(cfg), `• "ДА" - получить обратную связь от наставника`)
	assert.Contains(t, Scenario(cfg), "v2.1.0")
	assert.True(t, strings.HasPrefix(Feedback("Спросите о последствиях."), "📊 ОБРАТНАЯ СВЯЗЬ ОТ НАСТАВНИКА:"))
}
