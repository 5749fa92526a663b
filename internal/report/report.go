// Package report renders the texts shown to a trainee. Every function is
// a pure function of its arguments.
package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/spincoach/internal/casegen"
	"github.com/abhisek/spincoach/internal/rules"
	"github.com/abhisek/spincoach/internal/scenario"
	"github.com/abhisek/spincoach/internal/scoring"
)

// Session is the part of a training session the reports read.
type Session struct {
	QuestionCount       int
	ClarityLevel        int
	Counts              map[string]int
	ContextualQuestions int
	Case                *casegen.Case
}

// Input is everything the final report needs. Progression must already
// include the session, and Delta is what Engine.Complete returned.
type Input struct {
	Config      *scenario.Config
	Engine      *scoring.Engine
	Session     Session
	Progression scoring.Progression
	Delta       scoring.Delta
}

const congratulation = "• Отличная работа! Все типы вопросов использованы правильно."

// Final renders the end-of-training report.
func Final(in Input) string {
	cfg := in.Config
	s := in.Session
	var b strings.Builder

	b.WriteString("🏁 ТРЕНИРОВКА ЗАВЕРШЕНА!\n\n")
	b.WriteString("📊 РЕЗУЛЬТАТЫ:\n")
	fmt.Fprintf(&b, "Задано вопросов: %d/%d\n", s.QuestionCount, cfg.GameRules.MaxQuestions)
	fmt.Fprintf(&b, "Уровень ясности: %d%%\n\n", s.ClarityLevel)

	b.WriteString("📈 ПО ТИПАМ:\n")
	for _, t := range cfg.QuestionTypes {
		fmt.Fprintf(&b, "%s %s: %d\n", t.Emoji, t.DisplayName(), s.Counts[t.ID])
	}

	badge := "—"
	if in.Delta.HasBadge {
		badge = in.Delta.Badge.Label()
	}
	fmt.Fprintf(&b, "\n🏅 Ваш результат: %s\n", badge)
	fmt.Fprintf(&b, "Общий балл: %d\n\n", in.Delta.Score)

	b.WriteString("💡 РЕКОМЕНДАЦИИ:\n")
	b.WriteString(strings.Join(Recommendations(cfg, s, in.Delta.Score), "\n"))
	b.WriteString("\n")

	if c := s.Case; c != nil {
		b.WriteString("\n📋 ИНФОРМАЦИЯ О КЕЙСЕ:\n")
		fmt.Fprintf(&b, "Должность: %s\n", c.Position)
		fmt.Fprintf(&b, "Компания: %s\n", c.Company.Type)
		fmt.Fprintf(&b, "Продукт: %s\n", c.Product.Name)
		fmt.Fprintf(&b, "Объём: %s\n", c.VolumeText())
	}

	p := in.Progression
	b.WriteString("\n📈 ВАША ОБЩАЯ СТАТИСТИКА:\n")
	fmt.Fprintf(&b, "Пройдено тренировок: %d\n", p.TotalTrainings)
	fmt.Fprintf(&b, "Всего вопросов задано: %d\n", p.TotalQuestions)
	fmt.Fprintf(&b, "Лучший результат: %d баллов\n", p.BestScore)

	b.WriteString(listening(s.ContextualQuestions, s.QuestionCount))

	cur := currentLevel(in.Engine, p.CurrentLevel)
	b.WriteString("\n⭐ ВАШ РАНГ:\n")
	fmt.Fprintf(&b, "%s Уровень %d: %s\n", cur.Emoji, cur.Level, cur.Name)
	fmt.Fprintf(&b, "Опыт (XP): %d", p.TotalXP)
	if next, ok := in.Engine.NextLevel(p.TotalXP); ok {
		fmt.Fprintf(&b, "\nДо следующего уровня: %d XP", next.MinXP-p.TotalXP)
	}
	b.WriteString("\n")
	if cur.Description != "" {
		b.WriteString(cur.Description + "\n")
	}

	if in.Delta.LeveledUp() {
		emoji, name := "🎉", ""
		if l, ok := in.Engine.LevelInfo(in.Delta.NewLevel); ok {
			emoji, name = l.Emoji, l.Name
		}
		b.WriteString("\n🎊 ПОЗДРАВЛЯЕМ! ВЫ ПОВЫСИЛИ УРОВЕНЬ!\n")
		fmt.Fprintf(&b, "%s Уровень %d → Уровень %d: %s\n", emoji, in.Delta.OldLevel, in.Delta.NewLevel, name)
	}

	if len(in.Delta.NewAchievements) > 0 {
		b.WriteString("\n🎖️ НОВЫЕ ДОСТИЖЕНИЯ:\n")
		for _, a := range in.Delta.NewAchievements {
			fmt.Fprintf(&b, "%s %s - %s\n", a.Emoji, a.Name, a.Description)
		}
	}

	fmt.Fprintf(&b, "\n🎯 Для новой тренировки напишите \"%s\" или используйте /help для справки",
		cfg.UI.Command("start", "начать"))
	return b.String()
}

func listening(contextual, questions int) string {
	pct := 0
	if questions > 0 {
		pct = contextual * 100 / questions
	}
	var b strings.Builder
	b.WriteString("\n👂 АКТИВНОЕ СЛУШАНИЕ:\n")
	fmt.Fprintf(&b, "Контекстуальных вопросов: %d/%d (%d%%)\n", contextual, questions, pct)
	switch {
	case pct >= 70:
		b.WriteString("🏆 Отлично! Вы внимательно слушаете клиента!\n")
	case pct >= 40:
		b.WriteString("💡 Хорошо, но можно чаще использовать факты из ответов\n")
	default:
		b.WriteString("⚠️ Совет: стройте вопросы на основе ответов клиента\n")
	}
	return b.String()
}

// Recommendations returns coaching lines for a finished session. Scenario
// recommendations replace the built-in ones when declared; a condition
// that fails to evaluate is skipped.
func Recommendations(cfg *scenario.Config, s Session, score int) []string {
	var recs []string
	if list := cfg.Report.Recommendations; len(list) > 0 {
		env := sessionEnv(cfg, s, score)
		for _, r := range list {
			if ok, err := rules.Test(r.Condition, env); err == nil && ok {
				recs = append(recs, r.Text)
			}
		}
	} else {
		recs = builtinRecommendations(cfg, s)
	}
	if len(recs) == 0 {
		recs = append(recs, congratulation)
	}
	return recs
}

// builtinRecommendations coaches the SPIN taxonomy. A rule that names a
// type id the scenario does not declare is skipped.
func builtinRecommendations(cfg *scenario.Config, s Session) []string {
	c := s.Counts
	declared := func(ids ...string) bool {
		for _, id := range ids {
			if _, ok := cfg.QuestionType(id); !ok {
				return false
			}
		}
		return true
	}
	var recs []string
	if declared("situational", "problem") && c["situational"] > c["problem"]*2 {
		recs = append(recs, "• Сокращайте количество ситуационных вопросов")
	}
	if declared("problem") && c["problem"] == 0 {
		recs = append(recs, "• Обязательно задавайте проблемные вопросы для выявления потребностей")
	}
	if declared("implication") && c["implication"] == 0 {
		recs = append(recs, "• Используйте извлекающие вопросы для развития проблем")
	}
	if declared("need_payoff") && c["need_payoff"] == 0 {
		recs = append(recs, "• Добавьте направляющие вопросы для обсуждения выгод решения")
	}
	if s.ClarityLevel < 50 {
		recs = append(recs, "• Глубже исследуйте потребности клиента")
	}
	return recs
}

// sessionEnv exposes session counters to recommendation conditions under
// the names in scenario.RecommendationVars plus one count per type id.
func sessionEnv(cfg *scenario.Config, s Session, score int) rules.Env {
	env := rules.Env{
		"question_count":       s.QuestionCount,
		"clarity_level":        s.ClarityLevel,
		"contextual_questions": s.ContextualQuestions,
		"score":                score,
		"max_questions":        cfg.GameRules.MaxQuestions,
	}
	for _, t := range cfg.QuestionTypes {
		env[t.ID] = s.Counts[t.ID]
	}
	return env
}
