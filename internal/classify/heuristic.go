package classify

import (
	"regexp"
	"strings"

	"github.com/abhisek/spincoach/internal/scenario"
)

// Keyword returns the first type with a keyword contained in the
// lower-cased question, or the first type when nothing matches.
func Keyword(question string, types []scenario.QuestionType) (scenario.QuestionType, error) {
	if len(types) == 0 {
		return scenario.QuestionType{}, ErrEmptyTaxonomy
	}
	text := strings.ToLower(question)
	for _, t := range types {
		for _, kw := range t.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				return t, nil
			}
		}
	}
	return types[0], nil
}

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// referenceMarkers are phrases that point back at what the client said.
var referenceMarkers = []string{
	"как вы сказали",
	"как вы упомянули",
	"вы упомянули",
	"вы сказали",
	"вы говорили",
	"вы отметили",
	"вы назвали",
	"можете уточнить",
	"уточните",
	"если я правильно понял",
	"правильно ли я понимаю",
	"по поводу этого",
	"относительно этого",
	"возвращаясь к",
	"as you said",
	"as you mentioned",
	"you mentioned",
	"you said",
	"could you clarify",
	"can you clarify",
	"regarding that",
	"if i understood correctly",
	"going back to",
}

// ContextHeuristic reports whether question reuses a number from previous
// or contains a referential marker phrase.
func ContextHeuristic(question, previous string) bool {
	if previous == "" {
		return false
	}
	nums := make(map[string]bool)
	for _, n := range numberRe.FindAllString(previous, -1) {
		nums[n] = true
	}
	for _, n := range numberRe.FindAllString(question, -1) {
		if nums[n] {
			return true
		}
	}
	q := strings.ToLower(question)
	for _, m := range referenceMarkers {
		if strings.Contains(q, m) {
			return true
		}
	}
	return false
}
