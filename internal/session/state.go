package session

import (
	"maps"
	"time"

	"github.com/abhisek/spincoach/internal/casegen"
	"github.com/abhisek/spincoach/internal/report"
	"github.com/abhisek/spincoach/internal/scoring"
)

// ChatState is where a user is in the training conversation.
type ChatState int

const (
	StateNew          ChatState = iota // Never greeted
	StateWaitingStart                  // Waiting for the start word
	StateActive                        // Training in progress
)

func (s ChatState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateWaitingStart:
		return "waiting_start"
	case StateActive:
		return "training_active"
	}
	return "unknown"
}

// Training is the state of one training session.
type Training struct {
	// ID is the UUID assigned when the case is generated.
	ID string

	// State is the chat state this session is in.
	State ChatState

	// StartedAt is when the case was generated.
	StartedAt time.Time

	// QuestionCount is the number of classified questions.
	QuestionCount int

	// Clarity is the clarity level, 0 to 100. It never decreases within a session.
	Clarity int

	// Counts holds questions per type id. Its values sum to QuestionCount.
	Counts map[string]int

	// LastQuestionType is the display name of the last classified type.
	LastQuestionType string

	// ClientCase is the case text shown to the trainee.
	ClientCase string

	// Case is the generated case, or nil when the text came from the LLM.
	Case *casegen.Case

	// ContextualQuestions counts questions that built on the previous answer.
	ContextualQuestions int

	// LastClientResponse is the client's most recent answer.
	LastClientResponse string
}

func newTraining(state ChatState, typeIDs []string) Training {
	counts := make(map[string]int, len(typeIDs))
	for _, id := range typeIDs {
		counts[id] = 0
	}
	return Training{State: state, Counts: counts}
}

// Clone returns a deep copy of t.
func (t Training) Clone() Training {
	t.Counts = maps.Clone(t.Counts)
	return t
}

func (t *Training) reportSession() report.Session {
	return report.Session{
		QuestionCount:       t.QuestionCount,
		ClarityLevel:        t.Clarity,
		Counts:              t.Counts,
		ContextualQuestions: t.ContextualQuestions,
		Case:                t.Case,
	}
}

// UserState is everything kept for one user for the life of the process.
type UserState struct {
	Training    Training
	Progression scoring.Progression
}
