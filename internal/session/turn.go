package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/spincoach/internal/casegen"
	"github.com/abhisek/spincoach/internal/classify"
	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/report"
	"github.com/abhisek/spincoach/internal/scenario"
	"github.com/abhisek/spincoach/internal/scoring"
	"github.com/abhisek/spincoach/internal/store"
)

// turn handles one message while the user's semaphore is held.
type turn struct {
	t      *Trainer
	userID string
	st     *UserState
	log    *logger.Logger
}

func (tr *turn) cfg() *scenario.Config { return tr.t.cfg }

func (tr *turn) errorGeneric() string {
	return tr.cfg().MessageOr("error_generic", nil, "Что-то пошло не так. Попробуйте ещё раз.")
}

func (tr *turn) message(ctx context.Context, text string) []string {
	switch tr.st.Training.State {
	case StateNew, StateWaitingStart:
		if strings.EqualFold(text, tr.t.startWord()) || strings.EqualFold(text, startAlias) {
			return tr.start(ctx)
		}
		return []string{fmt.Sprintf(msgStartHint, tr.t.startWord())}
	}

	switch {
	case strings.EqualFold(text, tr.t.feedbackWord()):
		return []string{tr.feedback(ctx)}
	case strings.EqualFold(text, tr.t.finishWord()):
		return []string{tr.finish(ctx)}
	case len([]rune(text)) <= tr.cfg().GameRules.ShortQuestionThreshold:
		return []string{fmt.Sprintf(msgLongerQuestion, tr.t.startWord())}
	case tr.st.Training.QuestionCount >= tr.cfg().GameRules.MaxQuestions:
		return []string{tr.finish(ctx)}
	}
	return tr.question(ctx, text)
}

// greet resets the session and returns the welcome text.
func (tr *turn) greet() string {
	tr.st.Training = newTraining(StateWaitingStart, tr.cfg().TypeIDs())
	return tr.cfg().MessageOr("welcome", nil, fmt.Sprintf(msgStartHint, tr.t.startWord()))
}

// start draws a case and activates the session.
func (tr *turn) start(ctx context.Context) []string {
	tr.st.Training = newTraining(StateWaitingStart, tr.cfg().TypeIDs())
	training := &tr.st.Training

	if gen := tr.t.gen; gen != nil {
		c := gen.Generate(tr.st.Progression.RecentCases)
		training.Case = c
		training.ClientCase = gen.RenderDirect(c)
		tr.st.Progression.RecentCases = casegen.Remember(tr.st.Progression.RecentCases, c.Fingerprint())
		if !c.Valid {
			tr.log.Warn("serving case that failed consistency checks",
				"violations", c.Violations, "attempts", c.Attempts)
		}
		tr.log.Info("case generated",
			"position", c.Position,
			"company", c.Company.Type,
			"product", c.Product.Name,
			"duplicate", c.Duplicate)
	} else {
		text, err := tr.generateCaseText(ctx)
		if err != nil {
			tr.log.Error("case generation failed", "error", err)
			return []string{fmt.Sprintf(msgCaseFailed, tr.t.startWord())}
		}
		training.ClientCase = text
	}

	training.ID = newSessionID()
	training.StartedAt = tr.t.now()
	training.State = StateActive
	tr.t.recordEvent(ctx, tr.log, store.TrainingEventData{
		SessionID: training.ID,
		UserID:    tr.userID,
		Action:    store.ActionStart,
		Level:     tr.st.Progression.CurrentLevel,
	})
	return []string{training.ClientCase}
}

func (tr *turn) generateCaseText(ctx context.Context) (string, error) {
	if tr.t.delegate == nil {
		return "", classify.ErrNoDelegate
	}
	prompt, err := tr.cfg().Prompt("case_generation", nil)
	if err != nil {
		return "", err
	}
	text, err := tr.t.delegate.Invoke(ctx, llm.KindResponse, prompt, caseRequest)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty case text")
	}
	return text, nil
}

// feedback asks the mentor prompt about the session so far.
func (tr *turn) feedback(ctx context.Context) string {
	training := &tr.st.Training
	if training.LastQuestionType == "" {
		return msgAskFirst
	}

	vars := scenario.Vars{
		"last_question_type": training.LastQuestionType,
		"question_count":     training.QuestionCount,
		"clarity_level":      training.Clarity,
	}
	for id, n := range training.Counts {
		vars[id+"_q"] = n
	}
	prompt, err := tr.cfg().Prompt("feedback", vars)
	if err != nil {
		tr.log.Error("failed to render feedback prompt", "error", err)
		return tr.errorGeneric()
	}
	advice, err := tr.invoke(ctx, llm.KindFeedback, prompt, feedbackRequest)
	if err != nil {
		tr.log.Error("mentor feedback failed", "error", err)
		if advice == "" {
			return tr.errorGeneric()
		}
		return advice
	}
	return report.Feedback(advice)
}

// invoke calls the delegate. Without one it behaves as if every target
// had failed.
func (tr *turn) invoke(ctx context.Context, kind llm.Kind, system, user string) (string, error) {
	if tr.t.delegate == nil {
		return llm.DegradedMessage, fmt.Errorf("%w: %w", llm.ErrDegraded, classify.ErrNoDelegate)
	}
	return tr.t.delegate.Invoke(ctx, kind, system, user)
}

// question classifies a trainee question, gets the client's answer and
// applies the completion rules.
func (tr *turn) question(ctx context.Context, text string) []string {
	cfg := tr.cfg()
	training := &tr.st.Training

	result := tr.t.classifier.Classify(ctx, text, training.ClientCase)
	if result.Type.ID == "" {
		return []string{tr.errorGeneric()}
	}

	prompt, err := cfg.Prompt("client_response", tr.responseVars(text))
	if err != nil {
		tr.log.Error("failed to render client response prompt", "error", err)
		return []string{tr.errorGeneric()}
	}
	answer, err := tr.invoke(ctx, llm.KindResponse, prompt, responseRequest)
	if err != nil {
		tr.log.Error("client response failed", "error", err)
		if answer == "" {
			return []string{tr.errorGeneric()}
		}
	}
	listened := tr.t.classifier.UsesContext(ctx, text, training.LastClientResponse)

	// Every delegate call has returned; only now is the session touched.
	qt := result.Type
	training.QuestionCount++
	training.Counts[qt.ID]++
	training.LastQuestionType = qt.DisplayName()
	training.Clarity = raiseClarity(training.Clarity, tr.t.classifier.ClarityGain(qt.ID))
	label := qt.DisplayName()
	if listened.Contextual {
		training.ContextualQuestions++
		training.Clarity = raiseClarity(training.Clarity, cfg.Scoring.ContextualBonus())
		label += contextMark
	}
	training.LastClientResponse = answer

	tr.log.Info("question handled",
		"type", qt.ID,
		"tier", result.Tier,
		"contextual", listened.Contextual,
		"count", training.QuestionCount,
		"clarity", training.Clarity)

	reply := tr.turnReply(label, answer)
	rules := cfg.GameRules
	switch {
	case training.QuestionCount >= rules.MaxQuestions:
		return []string{reply, tr.finish(ctx)}
	case training.Clarity >= rules.TargetClarity && training.QuestionCount >= rules.MinQuestionsForCompletion:
		reached := cfg.MessageOr("clarity_reached", scenario.Vars{"clarity": training.Clarity},
			fmt.Sprintf("Ясность %d%% достигнута!", training.Clarity))
		return []string{reply, reached}
	}
	return []string{reply}
}

// raiseClarity adds gain to clarity. The result never drops below the
// current value and never exceeds 100.
func raiseClarity(clarity, gain int) int {
	return max(clarity, min(clarity+gain, 100))
}

func (tr *turn) responseVars(question string) scenario.Vars {
	training := &tr.st.Training
	vars := scenario.Vars{
		"client_case":     training.ClientCase,
		"question":        question,
		"position":        "",
		"company":         "",
		"volume":          "",
		"frequency":       "",
		"suppliers_count": "",
		"situation_type":  "",
		"urgency":         "",
	}
	if c := training.Case; c != nil {
		vars["position"] = c.Position
		vars["company"] = c.Company.Type
		vars["volume"] = c.VolumeText()
		vars["frequency"] = c.Frequency
		vars["suppliers_count"] = c.SuppliersCount
		vars["situation_type"] = c.Situation.Type
		vars["urgency"] = c.Urgency
	}
	return vars
}

func (tr *turn) progressLine() string {
	cfg := tr.cfg()
	training := &tr.st.Training
	vars := scenario.Vars{
		"count":   training.QuestionCount,
		"max":     cfg.GameRules.MaxQuestions,
		"clarity": training.Clarity,
	}
	if line, err := cfg.Message("progress", vars); err == nil {
		return line
	}
	line, err := scenario.Format(cfg.UI.ProgressFormat, vars)
	if err != nil {
		tr.log.Warn("bad progress format", "error", err)
		return fmt.Sprintf("%d/%d | %d%%", training.QuestionCount, cfg.GameRules.MaxQuestions, training.Clarity)
	}
	return line
}

func (tr *turn) turnReply(label, answer string) string {
	vars := scenario.Vars{
		"question_type":   label,
		"client_response": answer,
		"progress_line":   tr.progressLine(),
	}
	reply, err := tr.cfg().Message("question_feedback", vars)
	if err != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", label, answer, vars["progress_line"])
	}
	return reply
}

// finish folds the session into the progression, renders the final
// report and returns the user to waiting_start.
func (tr *turn) finish(ctx context.Context) string {
	training := &tr.st.Training
	progression := &tr.st.Progression

	delta := tr.t.engine.Complete(progression, scoring.Outcome{
		Counts:              training.Counts,
		QuestionCount:       training.QuestionCount,
		ContextualQuestions: training.ContextualQuestions,
		FinishedAt:          tr.t.now(),
	})
	text := report.Final(report.Input{
		Config:      tr.cfg(),
		Engine:      tr.t.engine,
		Session:     training.reportSession(),
		Progression: progression.Clone(),
		Delta:       delta,
	})

	ids := make([]string, 0, len(delta.NewAchievements))
	for _, a := range delta.NewAchievements {
		ids = append(ids, a.ID)
	}
	tr.log.Info("training finished",
		"session", training.ID,
		"questions", training.QuestionCount,
		"clarity", training.Clarity,
		"score", delta.Score,
		"level", delta.NewLevel)
	tr.t.recordEvent(ctx, tr.log, store.TrainingEventData{
		SessionID:    training.ID,
		UserID:       tr.userID,
		Action:       store.ActionFinish,
		Questions:    training.QuestionCount,
		Clarity:      training.Clarity,
		Score:        delta.Score,
		Badge:        delta.Badge.Name,
		XPGained:     delta.XPGained,
		Level:        delta.NewLevel,
		Achievements: ids,
	})

	tr.st.Training = newTraining(StateWaitingStart, tr.cfg().TypeIDs())
	return text
}
