package report

import (
	"fmt"
	"strings"

	"github.com/abhisek/spincoach/internal/scenario"
)

// Case renders the current case with the session's progress.
func Case(cfg *scenario.Config, s Session) string {
	c := s.Case
	if c == nil {
		return "Данные кейса недоступны"
	}
	description := c.Product.Description
	if description == "" {
		description = "Не указано"
	}

	var b strings.Builder
	b.WriteString("📋 ТЕКУЩИЙ КЕЙС:\n\n")
	b.WriteString("👤 Клиент:\n")
	fmt.Fprintf(&b, "- Должность: %s\n", c.Position)
	fmt.Fprintf(&b, "- Компания: %s\n", c.Company.Type)
	fmt.Fprintf(&b, "- Размер: %s\n", c.CompanySize)
	fmt.Fprintf(&b, "- Регион: %s\n\n", c.Region)
	fmt.Fprintf(&b, "📦 Продукт: %s\n", c.Product.Name)
	fmt.Fprintf(&b, "- Описание: %s\n", description)
	fmt.Fprintf(&b, "- Объём закупок: %s\n", c.VolumeText())
	fmt.Fprintf(&b, "- Частота: %s\n\n", c.Frequency)
	fmt.Fprintf(&b, "🎯 Ситуация: %s\n\n", c.Situation.Type)
	b.WriteString("📊 Ваш прогресс:\n")
	fmt.Fprintf(&b, "- Вопросов задано: %d/%d\n", s.QuestionCount, cfg.GameRules.MaxQuestions)
	fmt.Fprintf(&b, "- Уровень ясности: %d%%\n\n", s.ClarityLevel)
	b.WriteString("💬 Продолжайте задавать вопросы клиенту!")
	return b.String()
}

// Scenario describes the loaded scenario.
func Scenario(cfg *scenario.Config) string {
	return fmt.Sprintf("Сценарий: %s v%s\nОписание: %s\nПуть: %s",
		cfg.Info.Name, cfg.Info.Version, cfg.Info.Description, cfg.Path)
}

// Help lists the chat commands.
func Help(cfg *scenario.Config) string {
	ui := cfg.UI
	return fmt.Sprintf(`📖 ДОСТУПНЫЕ КОМАНДЫ:

🎯 Основные:
/start - Начать новую тренировку
/stats - Ваша общая статистика
/rank - Детальная информация о ранге и достижениях
/case - Информация о текущем кейсе

🔧 Дополнительные:
/scenario - Информация о сценарии
/validate - Проверка конфигурации (для разработчиков)
/help - Показать эту справку

💬 Команды в чате:
• "%s" - начать тренировку
• "%s" - получить обратную связь от наставника
• "%s" - завершить текущую тренировку`,
		ui.Command("start", "начать"), ui.Command("feedback", "ДА"), ui.Command("finish", "завершить"))
}

// Feedback wraps mentor advice for display.
func Feedback(advice string) string {
	return "📊 ОБРАТНАЯ СВЯЗЬ ОТ НАСТАВНИКА:\n\n" + advice + "\n\nТеперь попробуйте задать улучшенный вопрос."
}
