package scenario

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/abhisek/spincoach/internal/rules"
)

// SupportedMajor is the highest scenario_info.version major this build reads.
const SupportedMajor = 2

// AchievementVars are the progression fields achievement conditions may read.
var AchievementVars = []string{
	"total_trainings",
	"total_questions",
	"best_score",
	"total_xp",
	"current_level",
	"master_streak",
	"total_contextual_questions",
	"last_contextual_questions",
	"last_score",
	"badges_count",
	"achievements_count",
}

// RecommendationVars are the session fields report recommendations may
// read, in addition to one count per question type id.
var RecommendationVars = []string{
	"question_count",
	"clarity_level",
	"contextual_questions",
	"score",
	"max_questions",
}

// validate runs every semantic check and returns all problems plus
// non-fatal warnings.
func validate(c *Config) (problems, warnings []string) {
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }
	warn := func(format string, args ...any) { warnings = append(warnings, fmt.Sprintf(format, args...)) }

	v := "v" + strings.TrimPrefix(c.Info.Version, "v")
	switch {
	case !semver.IsValid(v):
		add("scenario_info.version %q is not a semantic version", c.Info.Version)
	case semver.Compare(semver.Major(v), fmt.Sprintf("v%d", SupportedMajor)) > 0:
		add("scenario_info.version %s is newer than supported major v%d", c.Info.Version, SupportedMajor)
	}

	ids := make(map[string]bool, len(c.QuestionTypes))
	for i, q := range c.QuestionTypes {
		if q.ID == "" {
			add("question_types[%d].id is empty", i)
			continue
		}
		if ids[q.ID] {
			add("question_types[%d]: duplicate id %q", i, q.ID)
		}
		ids[q.ID] = true
		if q.ClarityPoints < 0 {
			add("question type %q: clarity_points %d is negative", q.ID, q.ClarityPoints)
		}
		if len(q.Keywords) == 0 {
			warn("question type %q has no keywords; keyword classification will never pick it", q.ID)
		}
	}

	r := c.GameRules
	if r.MinQuestionsForCompletion > r.MaxQuestions {
		add("game_rules.min_questions_for_completion (%d) exceeds max_questions (%d)", r.MinQuestionsForCompletion, r.MaxQuestions)
	}

	if len(c.Scoring.Badges) == 0 {
		add("scoring.badges must not be empty")
	}
	for i, b := range c.Scoring.Badges {
		if b.MinScore > b.MaxScore {
			add("scoring.badges[%d] %q: min_score %d > max_score %d", i, b.Name, b.MinScore, b.MaxScore)
		}
	}
	if len(c.Scoring.Badges) > 0 {
		if gap, ok := badgeGap(c.Scoring.Badges); ok {
			add("scoring.badges leave score %d uncovered", gap)
		}
	}
	for key, w := range c.Scoring.QuestionWeights {
		if key != ContextualBonusKey && !ids[key] {
			add("scoring.question_weights: %q is not a question type id", key)
		}
		if w < 0 {
			add("scoring.question_weights.%s: %d is negative", key, w)
		}
	}

	problems = append(problems, levelProblems(c.Ranking.Levels)...)

	achIDs := make(map[string]bool)
	for i, a := range c.Achievements.List {
		if achIDs[a.ID] {
			add("achievements.list[%d]: duplicate id %q", i, a.ID)
		}
		achIDs[a.ID] = true
		warnings = append(warnings, conditionWarnings("achievement "+a.ID, a.Condition, AchievementVars)...)
	}

	recVars := append(append([]string{}, RecommendationVars...), c.TypeIDs()...)
	for i, rec := range c.Report.Recommendations {
		warnings = append(warnings, conditionWarnings(fmt.Sprintf("report.recommendations[%d]", i), rec.Condition, recVars)...)
	}

	if cv := c.CaseVariants; cv != nil {
		p, w := validateCaseVariants(cv)
		problems = append(problems, p...)
		warnings = append(warnings, w...)
	}
	return problems, warnings
}

// conditionWarnings reports conditions that will never evaluate. They
// are not load errors: such a rule simply never fires.
func conditionWarnings(what, cond string, known []string) []string {
	e, err := rules.Compile(cond)
	if err != nil {
		return []string{fmt.Sprintf("%s: condition %q will never hold: %v", what, cond, err)}
	}
	if missing := e.Check(known); len(missing) > 0 {
		return []string{fmt.Sprintf("%s: condition %q reads unknown names %s", what, cond, strings.Join(missing, ", "))}
	}
	return nil
}

// badgeGap returns the lowest score from 0 up to the highest max_score
// that no badge covers. Scores above every badge are left to the caller.
func badgeGap(badges []Badge) (int, bool) {
	sorted := append([]Badge(nil), badges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })
	next := 0
	for _, b := range sorted {
		if b.MinScore > next {
			return next, true
		}
		next = max(next, b.MaxScore+1)
	}
	return 0, false
}

// levelProblems requires level numbers 1..n with no holes and min_xp
// that never decreases as the level rises.
func levelProblems(levels []Level) []string {
	var problems []string
	seen := make(map[int]bool, len(levels))
	for i, l := range levels {
		if seen[l.Level] {
			problems = append(problems, fmt.Sprintf("ranking.levels[%d]: duplicate level %d", i, l.Level))
		}
		seen[l.Level] = true
	}

	sorted := append([]Level(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	for i, l := range sorted {
		if i == 0 {
			if l.Level != 1 {
				problems = append(problems, fmt.Sprintf("ranking.levels start at %d, not 1", l.Level))
			}
			continue
		}
		prev := sorted[i-1]
		if l.Level > prev.Level+1 {
			problems = append(problems, fmt.Sprintf("ranking.levels skip from %d to %d", prev.Level, l.Level))
		}
		if l.MinXP < prev.MinXP {
			problems = append(problems, fmt.Sprintf("ranking.levels: level %d min_xp %d is below level %d min_xp %d",
				l.Level, l.MinXP, prev.Level, prev.MinXP))
		}
	}
	return problems
}

func validateCaseVariants(cv *CaseVariants) (problems, warnings []string) {
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	required := []struct {
		key   string
		empty bool
	}{
		{"companies", len(cv.Companies) == 0},
		{"company_sizes", len(cv.CompanySizes) == 0},
		{"regions", len(cv.Regions) == 0},
		{"products", len(cv.Products) == 0},
		{"base_situations", len(cv.BaseSituations) == 0},
	}
	for _, r := range required {
		if r.empty {
			add("case_variants.%s is required and must not be empty", r.key)
		}
	}
	if len(cv.Positions) == 0 && len(cv.PositionsBySize) == 0 {
		add("case_variants must contain either positions or positions_by_size")
	}

	sizes := make(map[string]bool, len(cv.CompanySizes))
	for _, s := range cv.CompanySizes {
		sizes[s] = true
	}
	companies := make(map[string]bool, len(cv.Companies))
	for i, co := range cv.Companies {
		if co.Type == "" {
			add("case_variants.companies[%d].type is empty", i)
		}
		companies[co.Type] = true
		for _, s := range co.TypicalSizes {
			if !sizes[s] {
				add("case_variants.companies[%d] %q: typical size %q is not in company_sizes", i, co.Type, s)
			}
		}
	}
	for s := range cv.PositionsBySize {
		if !sizes[s] {
			add("case_variants.positions_by_size: %q is not in company_sizes", s)
		}
	}

	for i, p := range cv.Products {
		if p.Name == "" {
			add("case_variants.products[%d] is missing name", i)
			continue
		}
		if p.Unit == "" {
			warnings = append(warnings, fmt.Sprintf("product %q is missing unit, a default will be used", p.Name))
		}
		if p.VolumeRange != nil && p.VolumeRange.Min > p.VolumeRange.Max {
			add("product %q: volume_range min %d > max %d", p.Name, p.VolumeRange.Min, p.VolumeRange.Max)
		}
		for _, c := range p.CompatibleCompanies {
			if !companies[c] {
				warnings = append(warnings, fmt.Sprintf("product %q lists unknown company type %q", p.Name, c))
			}
		}
	}
	for i, s := range cv.BaseSituations {
		if s.Type == "" || s.Template == "" {
			add("case_variants.base_situations[%d] needs both type and template", i)
		}
	}
	return problems, warnings
}
