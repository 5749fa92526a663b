package casegen

import (
	"fmt"
	"strings"

	"github.com/abhisek/spincoach/internal/scenario"
)

// situationSpecifics holds phrasings for well-known situation types. Other
// types fall back to the situation's short description.
var situationSpecifics = map[string][]string{
	"seasonal_demand": {
		"пиковые нагрузки весной и осенью",
		"сезонные колебания спроса",
		"требуется гибкость при сезонности",
	},
	"quality_issues": {
		"участились рекламации от клиентов",
		"вопросы качества требуют внимания",
		"клиенты отмечают проблемы с качеством",
	},
	"delivery_problems": {
		"требуется чёткий график поставок",
		"сроки поставок критичны",
		"нужна стабильность в логистике",
	},
	"price_pressure": {
		"бюджет закупок под давлением",
		"сильное давление на закупочные цены",
	},
	"logistics_issues": {
		"производство в 2 смены, логистика критична",
		"логистика ключевой фактор исполнения",
	},
	"technical_requirements": {
		"новые требования к сертификации",
		"усилены требования к качеству",
	},
	"storage_problems": {
		"ограниченные складские площади",
		"нужна оптимизация складской оборачиваемости",
	},
	"cash_flow": {
		"требуется оптимизация отсрочки платежей",
		"важны условия оплаты и отсрочка",
	},
	"competition": {
		"усилилось конкурентное давление",
		"агрессивное ценообразование конкурентов",
	},
	"client_requirements": {
		"клиенты ужесточают требования к срокам",
		"ужесточаются SLA по срокам",
	},
	"expansion": {
		"планируется расширение производства",
		"запуск нового участка в ближайшие месяцы",
	},
	"supplier_change": {
		"нужна замена одного из поставщиков",
		"источник поставок меняется",
	},
}

const defaultSpecifics = "требуется оптимизация процессов"

func (g *Generator) specifics(s scenario.Situation) string {
	if variants, ok := situationSpecifics[s.Type]; ok {
		g.mu.Lock()
		defer g.mu.Unlock()
		return pick(g.rng, variants)
	}
	if s.DescriptionShort != "" {
		return s.DescriptionShort
	}
	return defaultSpecifics
}

// RenderDirect formats c for the trainee without any model call.
func (g *Generator) RenderDirect(c *Case) string {
	regionText := ""
	if !strings.Contains(c.Company.Type, c.Region) {
		regionText = ", " + c.Region
	}
	productLine := "📦 ВЫ ПРОДАЕТЕ: " + c.Product.Name
	if c.Product.Description != "" {
		productLine += "\n(" + c.Product.Description + ")"
	}

	var b strings.Builder
	b.WriteString("🎯 КЛИЕНТСКИЙ КЕЙС:\n\n")
	fmt.Fprintf(&b, "Должность клиента: %s\n", c.Position)
	fmt.Fprintf(&b, "Компания: %s, %s%s\n\n", c.Company.Type, c.CompanySize, regionText)
	b.WriteString(productLine + "\n\n")
	b.WriteString("ℹ️ БАЗОВАЯ СИТУАЦИЯ:\n\n")
	fmt.Fprintf(&b, "🏭 Компания: %s, %s\n", c.Company.Type, c.CompanySize)
	fmt.Fprintf(&b, "📦 Объём: %s %s\n", c.VolumeText(), c.Frequency)
	fmt.Fprintf(&b, "🤝 Поставщиков: %d\n", c.SuppliersCount)
	fmt.Fprintf(&b, "📈 Характер закупки: %s\n", c.Urgency)
	fmt.Fprintf(&b, "💼 Специфика: %s\n\n", g.specifics(c.Situation))
	b.WriteString("Теперь можете задать первый вопрос клиенту.\n\n---\n")
	fmt.Fprintf(&b, "Если нужна обратная связь от наставника, напишите %s.\n", g.feedbackWord)
	fmt.Fprintf(&b, "Для завершения напишите \"%s\".", g.finishWord)
	return b.String()
}

// SituationDetails fills the situation template with the case values. A
// template that names unknown placeholders is returned unfilled.
func SituationDetails(c *Case) string {
	s, err := scenario.Format(c.Situation.Template, scenario.Vars{
		"volume":          c.VolumeText(),
		"suppliers_count": c.SuppliersCount,
		"frequency":       c.Frequency,
		"product":         c.Product.Name,
	})
	if err != nil {
		return c.Situation.Template
	}
	return s
}

// RenderPrompt builds a model prompt that asks for a narrative version of c.
//
// Deprecated: RenderDirect is instant and deterministic in shape; this is
// kept for comparing the two renderings.
func RenderPrompt(c *Case) string {
	var b strings.Builder
	b.WriteString("Создай клиентский кейс для тренировки SPIN-продаж со следующими параметрами:\n\n")
	b.WriteString("🎯 ПАРАМЕТРЫ КЕЙСА:\n")
	fmt.Fprintf(&b, "Должность клиента: %s\n", c.Position)
	fmt.Fprintf(&b, "Компания: %s, размер: %s\n", c.Company.Type, c.CompanySize)
	fmt.Fprintf(&b, "Регион: %s\n", c.Region)
	fmt.Fprintf(&b, "Характер закупки: %s\n\n", c.Urgency)
	fmt.Fprintf(&b, "📦 ПРОДУКТ: %s\n", c.Product.Name)
	fmt.Fprintf(&b, "Описание: %s\n\n", c.Product.Description)
	fmt.Fprintf(&b, "ℹ️ БАЗОВАЯ СИТУАЦИЯ:\n%s\n\n", SituationDetails(c))
	b.WriteString("ФОРМАТ ОТВЕТА:\n🎯 КЛИЕНТСКИЙ КЕЙС:\n\n")
	fmt.Fprintf(&b, "Должность клиента: %s\n", c.Position)
	fmt.Fprintf(&b, "Компания: %s, %s\n\n", c.Company.Type, c.CompanySize)
	fmt.Fprintf(&b, "📦 ВЫ ПРОДАЕТЕ: %s\n\n", c.Product.Name)
	b.WriteString("ℹ️ БАЗОВАЯ СИТУАЦИЯ:\n")
	b.WriteString("[Перепиши базовую ситуацию своими словами, добавь 2-3 конкретных факта с цифрами. ")
	b.WriteString("НЕ упоминай проблемы напрямую, они должны выявляться через SPIN-вопросы!]\n\n")
	b.WriteString("ТРЕБОВАНИЯ:\n")
	b.WriteString("- Используй конкретные цифры и факты\n")
	b.WriteString("- Пиши нейтрально, без упоминания проблем\n")
	b.WriteString("- Добавь реалистичные детали про процессы компании\n")
	b.WriteString("- Объём ответа: 3-5 предложений")
	return b.String()
}

// Summary is the one-line form used in logs and the cases command.
func (c *Case) Summary() string {
	return fmt.Sprintf("%s | %s (%s) | %s | %s %s",
		c.Position, c.Company.Type, c.CompanySize, c.Product.Name, c.VolumeText(), c.Frequency)
}
