package scenario

import (
	"fmt"
	"strings"
)

// AuditReport is the result of a catalog consistency check.
type AuditReport struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the audit found nothing.
func (r AuditReport) OK() bool { return len(r.Errors) == 0 && len(r.Warnings) == 0 }

// String renders the report for a terminal or chat.
func (r AuditReport) String() string {
	var b strings.Builder
	b.WriteString("📊 РЕЗУЛЬТАТЫ ПРОВЕРКИ:\n\n")
	if len(r.Errors) > 0 {
		b.WriteString("🚨 ОШИБКИ:\n" + strings.Join(r.Errors, "\n") + "\n\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("⚠️ ПРЕДУПРЕЖДЕНИЯ:\n" + strings.Join(r.Warnings, "\n") + "\n\n")
	}
	if r.OK() {
		b.WriteString("✅ Конфигурация корректна! Логических ошибок не найдено.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Audit checks the case catalog for combinations the generator cannot
// satisfy. Unlike load validation it looks at cross-references between
// entries rather than shape.
func Audit(cv *CaseVariants) AuditReport {
	var r AuditReport
	if cv == nil {
		r.Errors = append(r.Errors, "❌ case_variants отсутствует")
		return r
	}

	for _, co := range cv.Companies {
		found := false
		for _, p := range cv.Products {
			if p.CompatibleWith(co.Type) {
				found = true
				break
			}
		}
		if !found {
			r.Errors = append(r.Errors, fmt.Sprintf("❌ %s: нет совместимых продуктов!", co.Type))
		}
	}

	if len(cv.PositionsBySize) > 0 {
		for _, size := range cv.CompanySizes {
			if len(cv.PositionsBySize[size]) == 0 {
				r.Errors = append(r.Errors, fmt.Sprintf("❌ %s: нет должностей!", size))
			}
		}
	}

	for _, p := range cv.Products {
		if p.CompatibleCompanies == nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("⚠️ %s: нет поля compatible_companies", p.Name))
		}
		if p.FrequencyOptions == nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("⚠️ %s: нет поля frequency_options", p.Name))
		}
		if p.VolumeRange == nil {
			r.Warnings = append(r.Warnings, fmt.Sprintf("⚠️ %s: нет поля volume_range", p.Name))
		}
	}
	return r
}
