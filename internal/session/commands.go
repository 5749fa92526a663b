package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/spincoach/internal/report"
	"github.com/abhisek/spincoach/internal/scenario"
)

// command handles slash commands. None of them call the delegate.
func (tr *turn) command(ctx context.Context, text string) []string {
	name, _, _ := strings.Cut(text, " ")
	// Telegram style "/cmd@botname".
	name, _, _ = strings.Cut(strings.ToLower(name), "@")

	cfg := tr.cfg()
	switch name {
	case "/start":
		return []string{tr.greet()}
	case "/help":
		return []string{report.Help(cfg)}
	case "/scenario":
		return []string{report.Scenario(cfg)}
	case "/stats":
		return []string{report.Stats(cfg, tr.st.Progression, tr.status())}
	case "/rank":
		return []string{report.Rank(cfg, tr.t.engine, tr.st.Progression)}
	case "/case":
		return []string{tr.caseInfo()}
	case "/validate":
		return []string{validation(cfg)}
	}
	tr.log.Debug("unknown command", "command", name)
	return []string{msgUnknownCommand}
}

func (tr *turn) status() string {
	training := &tr.st.Training
	switch training.State {
	case StateWaitingStart:
		return "⏳ Ожидается начало тренировки"
	case StateActive:
		return fmt.Sprintf("✅ Активная тренировка (%d/%d вопросов)",
			training.QuestionCount, tr.cfg().GameRules.MaxQuestions)
	}
	return "❌ Нет активной тренировки"
}

func (tr *turn) caseInfo() string {
	training := &tr.st.Training
	switch training.State {
	case StateNew:
		return msgStartFirst
	case StateWaitingStart:
		return fmt.Sprintf(msgNoActiveCase, tr.t.startWord())
	}
	return report.Case(tr.cfg(), training.reportSession())
}

func validation(cfg *scenario.Config) string {
	var b strings.Builder
	b.WriteString("🔍 ПРОВЕРКА КОНФИГУРАЦИИ\n\n")
	fmt.Fprintf(&b, "Сценарий: %s v%s\n\n", cfg.Info.Name, cfg.Info.Version)
	if len(cfg.Warnings) > 0 {
		b.WriteString("Предупреждения загрузки:\n")
		for _, w := range cfg.Warnings {
			b.WriteString("⚠️ " + w + "\n")
		}
		b.WriteString("\n")
	}
	if cfg.CaseVariants == nil {
		b.WriteString("Каталог кейсов не задан, кейсы создаёт модель.")
		return b.String()
	}
	b.WriteString(scenario.Audit(cfg.CaseVariants).String())
	return b.String()
}
