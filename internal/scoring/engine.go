// Package scoring turns finished sessions into scores, badges, XP levels,
// streaks and achievements.
package scoring

import (
	"slices"
	"sort"
	"time"

	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/rules"
	"github.com/abhisek/spincoach/internal/scenario"
)

// Score sums count × multiplier over the taxonomy. Counts for ids outside
// the taxonomy are ignored.
func Score(counts map[string]int, types []scenario.QuestionType) int {
	total := 0
	for _, t := range types {
		total += counts[t.ID] * t.ScoreMultiplier
	}
	return total
}

// BadgeFor returns the first badge whose range contains score.
func BadgeFor(score int, badges []scenario.Badge) (scenario.Badge, bool) {
	for _, b := range badges {
		if score >= b.MinScore && score <= b.MaxScore {
			return b, true
		}
	}
	return scenario.Badge{}, false
}

// LevelFor returns the highest level number whose min_xp is reached, or 1.
func LevelFor(xp int, levels []scenario.Level) int {
	best := 0
	for _, l := range levels {
		if xp >= l.MinXP && l.Level > best {
			best = l.Level
		}
	}
	if best == 0 {
		return 1
	}
	return best
}

// Outcome is what a finished session contributes to progression.
type Outcome struct {
	Counts              map[string]int
	QuestionCount       int
	ContextualQuestions int
	FinishedAt          time.Time
}

// Delta describes what Complete changed.
type Delta struct {
	Score           int
	Badge           scenario.Badge
	HasBadge        bool
	XPGained        int
	OldLevel        int
	NewLevel        int
	MasterStreak    int
	NewAchievements []scenario.Achievement
}

// LeveledUp reports whether the session raised the user's level.
func (d Delta) LeveledUp() bool { return d.NewLevel > d.OldLevel }

// Engine applies one scenario's scoring rules. It holds no per-user state
// and is safe for concurrent use.
type Engine struct {
	cfg    *scenario.Config
	log    *logger.Logger
	levels []scenario.Level
	conds  map[string]*rules.Expr
	broken map[string]error
}

// New compiles the scenario's achievement conditions. Conditions that do
// not compile are remembered and never unlock.
func New(cfg *scenario.Config, log *logger.Logger) *Engine {
	e := &Engine{
		cfg:    cfg,
		log:    logger.OrNop(log),
		levels: slices.Clone(cfg.Ranking.Levels),
		conds:  make(map[string]*rules.Expr),
		broken: make(map[string]error),
	}
	sort.SliceStable(e.levels, func(i, j int) bool { return e.levels[i].MinXP < e.levels[j].MinXP })
	for _, a := range cfg.Achievements.List {
		expr, err := rules.Compile(a.Condition)
		if err != nil {
			e.broken[a.ID] = err
			e.log.Error("achievement condition rejected", "achievement", a.ID, "condition", a.Condition, "error", err)
			continue
		}
		e.conds[a.ID] = expr
	}
	return e
}

func (e *Engine) Score(counts map[string]int) int {
	return Score(counts, e.cfg.QuestionTypes)
}

func (e *Engine) Badge(score int) (scenario.Badge, bool) {
	return BadgeFor(score, e.cfg.Scoring.Badges)
}

func (e *Engine) Level(xp int) int {
	return LevelFor(xp, e.levels)
}

// LevelInfo returns the declared level with number n.
func (e *Engine) LevelInfo(n int) (scenario.Level, bool) {
	for _, l := range e.levels {
		if l.Level == n {
			return l, true
		}
	}
	return scenario.Level{}, false
}

// NextLevel returns the first level requiring more XP than xp.
func (e *Engine) NextLevel(xp int) (scenario.Level, bool) {
	for _, l := range e.levels {
		if l.MinXP > xp {
			return l, true
		}
	}
	return scenario.Level{}, false
}

// Levels returns the declared levels sorted by min_xp.
func (e *Engine) Levels() []scenario.Level { return e.levels }

// Evaluate unlocks every achievement whose condition now holds and
// returns the newly unlocked ones. Already unlocked achievements are
// skipped, and a condition that fails to evaluate counts as not met.
func (e *Engine) Evaluate(p *Progression) []scenario.Achievement {
	env := p.Env()
	var unlocked []scenario.Achievement
	for _, a := range e.cfg.Achievements.List {
		if p.HasAchievement(a.ID) {
			continue
		}
		expr, ok := e.conds[a.ID]
		if !ok {
			continue
		}
		met, err := expr.Test(env)
		if err != nil {
			e.log.Error("achievement evaluation failed", "achievement", a.ID, "condition", a.Condition, "error", err)
			continue
		}
		if !met {
			continue
		}
		p.AchievementsUnlocked = append(p.AchievementsUnlocked, a.ID)
		unlocked = append(unlocked, a)
		e.log.Info("achievement unlocked", "achievement", a.ID)
	}
	return unlocked
}

// Complete folds a finished session into p and reports the change.
func (e *Engine) Complete(p *Progression, o Outcome) Delta {
	score := e.Score(o.Counts)
	d := Delta{Score: score, XPGained: score, OldLevel: p.CurrentLevel}
	if d.OldLevel == 0 {
		d.OldLevel = 1
	}

	p.TotalTrainings++
	p.TotalQuestions += o.QuestionCount
	p.BestScore = max(p.BestScore, score)
	p.LastScore = score
	p.TotalXP += score
	p.CurrentLevel = e.Level(p.TotalXP)
	p.LastContextualQuestions = o.ContextualQuestions
	p.TotalContextualQuestions += o.ContextualQuestions
	if !o.FinishedAt.IsZero() {
		p.LastTrainingAt = o.FinishedAt
	}

	if score >= e.cfg.Scoring.Master() {
		p.MasterStreak++
	} else {
		p.MasterStreak = 0
	}

	d.Badge, d.HasBadge = e.Badge(score)
	if d.HasBadge && !slices.Contains(p.BadgesEarned, d.Badge.Name) {
		p.BadgesEarned = append(p.BadgesEarned, d.Badge.Name)
	}

	d.NewLevel = p.CurrentLevel
	d.MasterStreak = p.MasterStreak
	d.NewAchievements = e.Evaluate(p)
	if d.LeveledUp() {
		e.log.Info("level up", "from", d.OldLevel, "to", d.NewLevel)
	}
	return d
}
