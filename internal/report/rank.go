package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/spincoach/internal/scenario"
	"github.com/abhisek/spincoach/internal/scoring"
)

var defaultLevel = scenario.Level{Level: 1, Name: "Новичок", Emoji: "🌱"}

func currentLevel(e *scoring.Engine, n int) scenario.Level {
	if l, ok := e.LevelInfo(n); ok {
		return l
	}
	if levels := e.Levels(); len(levels) > 0 {
		return levels[0]
	}
	return defaultLevel
}

// ProgressBar renders percent (clamped to 0..100) as ten cells.
func ProgressBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := percent / 10
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat("█", filled), strings.Repeat("░", 10-filled), percent)
}

// Rank renders the level, progress to the next level and the achievement
// checklist. e must be built from cfg.
func Rank(cfg *scenario.Config, e *scoring.Engine, p scoring.Progression) string {
	cur := currentLevel(e, p.CurrentLevel)
	var b strings.Builder

	b.WriteString("⭐ ВАШ РАНГ\n\n")
	fmt.Fprintf(&b, "%s Уровень %d: %s\n", cur.Emoji, cur.Level, cur.Name)
	if cur.Description != "" {
		b.WriteString(cur.Description + "\n")
	}
	fmt.Fprintf(&b, "\n💎 Опыт: %d XP", p.TotalXP)

	if next, ok := e.NextLevel(p.TotalXP); ok {
		needed := next.MinXP - cur.MinXP
		have := p.TotalXP - cur.MinXP
		pct := 100
		if needed > 0 {
			pct = have * 100 / needed
		}
		fmt.Fprintf(&b, "\n\n📊 До уровня %d \"%s\":\n", next.Level, next.Name)
		fmt.Fprintf(&b, "Нужно: %d XP\n%s", max(next.MinXP-p.TotalXP, 0), ProgressBar(pct))
	} else {
		b.WriteString("\n\n🏆 Вы достигли максимального уровня!")
	}

	list := cfg.Achievements.List
	fmt.Fprintf(&b, "\n\n🎖️ ДОСТИЖЕНИЯ (%d/%d):\n", len(p.AchievementsUnlocked), len(list))
	for _, a := range list {
		status := "⬜"
		if p.HasAchievement(a.ID) {
			status = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s\n", status, a.Emoji, a.Name)
	}
	b.WriteString("\n🎯 Продолжайте тренировки для повышения уровня!")
	return b.String()
}

// maxBadgesShown bounds the badge list in Stats.
const maxBadgesShown = 5

// Stats renders cumulative statistics. status describes the current
// session, e.g. from session.Trainer.
func Stats(cfg *scenario.Config, p scoring.Progression, status string) string {
	var b strings.Builder
	b.WriteString("📊 ВАША СТАТИСТИКА:\n\n")
	b.WriteString("🎯 Общие показатели:\n")
	fmt.Fprintf(&b, "- Пройдено тренировок: %d\n", p.TotalTrainings)
	fmt.Fprintf(&b, "- Всего задано вопросов: %d\n", p.TotalQuestions)
	fmt.Fprintf(&b, "- Лучший результат: %d баллов\n", p.BestScore)
	fmt.Fprintf(&b, "- Контекстуальных вопросов: %d\n\n", p.TotalContextualQuestions)

	b.WriteString("🏆 Заработанные награды:\n")
	if badges := p.BadgesEarned; len(badges) > 0 {
		if len(badges) > maxBadgesShown {
			badges = badges[len(badges)-maxBadgesShown:]
		}
		b.WriteString(strings.Join(badges, "\n"))
	} else {
		b.WriteString("• Пока нет наград")
	}

	b.WriteString("\n\n⏱ Последняя тренировка:\n")
	if p.LastTrainingAt.IsZero() {
		b.WriteString("Ещё не проводилась")
	} else {
		b.WriteString(p.LastTrainingAt.Format("2006-01-02 15:04"))
	}

	b.WriteString("\n\n📍 Текущий статус:\n" + status)
	fmt.Fprintf(&b, "\n\n💡 Для новой тренировки напишите \"%s\" или /start", cfg.UI.Command("start", "начать"))
	return b.String()
}
