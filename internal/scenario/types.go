// Package scenario loads and validates the JSON scenario definition that
// drives a training: texts, prompt templates, the question taxonomy, game
// and scoring rules, and the case-variant catalog.
package scenario

import "slices"

// Config is a loaded, validated scenario. It is read-only after Load and
// safe to share between goroutines.
type Config struct {
	Info          Info              `json:"scenario_info"`
	Messages      map[string]string `json:"messages"`
	Prompts       map[string]string `json:"prompts"`
	QuestionTypes []QuestionType    `json:"question_types"`
	GameRules     GameRules         `json:"game_rules"`
	Scoring       Scoring           `json:"scoring"`
	UI            UI                `json:"ui"`
	CaseVariants  *CaseVariants     `json:"case_variants,omitempty"`
	Ranking       Ranking           `json:"ranking"`
	Achievements  Achievements      `json:"achievements"`
	Report        Report            `json:"report"`

	// Path is the resolved file the config was read from.
	Path string `json:"-"`

	// Warnings lists non-fatal data-quality findings from validation.
	Warnings []string `json:"-"`
}

type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// QuestionType is one entry of the taxonomy. Declaration order matters:
// keyword matching returns the first hit and the first entry is the default.
type QuestionType struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Emoji           string   `json:"emoji"`
	Keywords        []string `json:"keywords"`
	ClarityPoints   int      `json:"clarity_points"`
	ScoreMultiplier int      `json:"score_multiplier"`
}

// DisplayName returns Name, or ID when no name is configured.
func (q QuestionType) DisplayName() string {
	if q.Name != "" {
		return q.Name
	}
	return q.ID
}

type GameRules struct {
	MaxQuestions              int `json:"max_questions"`
	MinQuestionsForCompletion int `json:"min_questions_for_completion"`
	TargetClarity             int `json:"target_clarity"`
	ShortQuestionThreshold    int `json:"short_question_threshold"`
}

type Scoring struct {
	Badges          []Badge        `json:"badges"`
	QuestionWeights map[string]int `json:"question_weights"`

	// MasterThreshold is the session score that extends the master streak.
	MasterThreshold int `json:"master_threshold"`
}

// ContextualBonusKey is the reserved question_weights key holding the
// clarity bonus for questions that build on the client's last answer.
const ContextualBonusKey = "contextual_bonus"

// DefaultMasterThreshold applies when scoring.master_threshold is unset.
const DefaultMasterThreshold = 221

// ContextualBonus returns the configured clarity bonus, or 0.
func (s Scoring) ContextualBonus() int {
	return s.QuestionWeights[ContextualBonusKey]
}

// Master returns the effective master-streak threshold.
func (s Scoring) Master() int {
	if s.MasterThreshold > 0 {
		return s.MasterThreshold
	}
	return DefaultMasterThreshold
}

type Badge struct {
	MinScore int    `json:"min_score"`
	MaxScore int    `json:"max_score"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
}

// Label is the badge as shown to the user.
func (b Badge) Label() string {
	switch {
	case b.Emoji == "":
		return b.Name
	case b.Name == "":
		return b.Emoji
	}
	return b.Emoji + " " + b.Name
}

type UI struct {
	ProgressFormat string            `json:"progress_format"`
	Commands       map[string]string `json:"commands"`
}

// Command returns the configured chat word for a command, or def.
func (u UI) Command(name, def string) string {
	if v := u.Commands[name]; v != "" {
		return v
	}
	return def
}

type CaseVariants struct {
	Companies       []Company           `json:"companies"`
	CompanySizes    []string            `json:"company_sizes"`
	Regions         []string            `json:"regions"`
	Products        []Product           `json:"products"`
	BaseSituations  []Situation         `json:"base_situations"`
	Positions       []string            `json:"positions,omitempty"`
	PositionsBySize map[string][]string `json:"positions_by_size,omitempty"`
}

type Company struct {
	Type         string   `json:"type"`
	TypicalSizes []string `json:"typical_sizes,omitempty"`
}

type Product struct {
	Name                string       `json:"name"`
	Description         string       `json:"description,omitempty"`
	Unit                string       `json:"unit,omitempty"`
	CompatibleCompanies []string     `json:"compatible_companies,omitempty"`
	VolumeRange         *VolumeRange `json:"volume_range,omitempty"`
	FrequencyOptions    []string     `json:"frequency_options,omitempty"`
	IsCapitalEquipment  bool         `json:"is_capital_equipment,omitempty"`
}

// CompatibleWith reports whether the product may be sold to companyType.
func (p Product) CompatibleWith(companyType string) bool {
	return slices.Contains(p.CompatibleCompanies, companyType)
}

type VolumeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type Situation struct {
	Type             string `json:"type"`
	Template         string `json:"template"`
	DescriptionShort string `json:"description_short,omitempty"`
}

type Ranking struct {
	Levels []Level `json:"levels,omitempty"`
}

type Level struct {
	Level       int    `json:"level"`
	MinXP       int    `json:"min_xp"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
}

type Achievements struct {
	List []Achievement `json:"list,omitempty"`
}

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	Condition   string `json:"condition"`
}

// Report holds optional report heuristics.
type Report struct {
	Recommendations []Recommendation `json:"recommendations,omitempty"`
}

// Recommendation is shown in the final report when Condition holds over
// the session variables.
type Recommendation struct {
	Condition string `json:"condition"`
	Text      string `json:"text"`
}

// QuestionType returns the taxonomy entry with the given id.
func (c *Config) QuestionType(id string) (QuestionType, bool) {
	for _, q := range c.QuestionTypes {
		if q.ID == id {
			return q, true
		}
	}
	return QuestionType{}, false
}

// TypeIDs returns the taxonomy ids in declaration order.
func (c *Config) TypeIDs() []string {
	ids := make([]string, len(c.QuestionTypes))
	for i, q := range c.QuestionTypes {
		ids[i] = q.ID
	}
	return ids
}
