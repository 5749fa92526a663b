package scoring

import (
	"slices"
	"time"

	"github.com/abhisek/spincoach/internal/rules"
)

// Progression is a user's cross-session record. It only changes when a
// session completes.
type Progression struct {
	TotalTrainings           int
	TotalQuestions           int
	BestScore                int
	LastScore                int
	TotalXP                  int
	CurrentLevel             int
	BadgesEarned             []string
	AchievementsUnlocked     []string
	MasterStreak             int
	TotalContextualQuestions int
	LastContextualQuestions  int
	LastTrainingAt           time.Time
	RecentCases              []string
}

// NewProgression returns the record for a user who never trained.
func NewProgression() Progression {
	return Progression{CurrentLevel: 1}
}

// Clone returns a deep copy.
func (p Progression) Clone() Progression {
	p.BadgesEarned = slices.Clone(p.BadgesEarned)
	p.AchievementsUnlocked = slices.Clone(p.AchievementsUnlocked)
	p.RecentCases = slices.Clone(p.RecentCases)
	return p
}

// HasAchievement reports whether id is already unlocked.
func (p *Progression) HasAchievement(id string) bool {
	return slices.Contains(p.AchievementsUnlocked, id)
}

// Env exposes the numeric progression fields to achievement conditions.
// The names match scenario.AchievementVars.
func (p *Progression) Env() rules.Env {
	return rules.Env{
		"total_trainings":            p.TotalTrainings,
		"total_questions":            p.TotalQuestions,
		"best_score":                 p.BestScore,
		"total_xp":                   p.TotalXP,
		"current_level":              p.CurrentLevel,
		"master_streak":              p.MasterStreak,
		"total_contextual_questions": p.TotalContextualQuestions,
		"last_contextual_questions":  p.LastContextualQuestions,
		"last_score":                 p.LastScore,
		"badges_count":               len(p.BadgesEarned),
		"achievements_count":         len(p.AchievementsUnlocked),
	}
}
