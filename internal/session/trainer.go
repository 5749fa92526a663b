// Package session runs the per-user training conversation. A Trainer is the
// single entry point a chat transport calls: it owns every user's session
// and progression and serializes each user's turns.
package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/abhisek/spincoach/internal/casegen"
	"github.com/abhisek/spincoach/internal/classify"
	"github.com/abhisek/spincoach/internal/llm"
	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/scenario"
	"github.com/abhisek/spincoach/internal/scoring"
	"github.com/abhisek/spincoach/internal/store"
)

// Fixed replies that the scenario does not template.
const (
	startAlias        = "старт"
	msgStartHint      = "Напишите \"%s\" для старта тренировки"
	msgAskFirst       = "Сначала задайте вопрос клиенту."
	msgLongerQuestion = "Задайте более развернутый вопрос клиенту или напишите \"%s\" для новой тренировки."
	msgCaseFailed     = "Произошла ошибка при генерации кейса. Попробуйте ещё раз написать \"%s\"."
	msgNoActiveCase   = "Нет активного кейса. Начните тренировку написав \"%s\""
	msgStartFirst     = "Начните тренировку командой /start"
	msgUnknownCommand = "Неизвестная команда. Используйте /help для справки."

	// User messages paired with the scenario prompts.
	feedbackRequest = "Проанализируй ситуацию"
	responseRequest = "Ответь на вопрос как клиент"
	caseRequest     = "Создай кейс"

	contextMark = " 👂"
)

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(t *Trainer) { t.log = logger.OrNop(l) }
}

// WithEventRepo records session starts and finishes in repo.
func WithEventRepo(repo store.EventRepo) Option {
	return func(t *Trainer) { t.events = repo }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) { t.now = now }
}

// WithRand seeds case generation.
func WithRand(r *rand.Rand) Option {
	return func(t *Trainer) { t.rng = r }
}

// Trainer holds all users' state. It is safe for concurrent use; turns
// of the same user run one at a time, turns of different users run in
// parallel.
type Trainer struct {
	cfg        *scenario.Config
	delegate   llm.Delegate
	classifier *classify.Classifier
	engine     *scoring.Engine
	gen        *casegen.Generator
	events     store.EventRepo
	log        *logger.Logger
	now        func() time.Time
	rng        *rand.Rand

	mu    sync.Mutex
	users map[string]*user
}

type user struct {
	sem   *semaphore.Weighted
	state UserState
}

// New creates a Trainer for cfg. delegate may be nil, in which case
// classification uses keywords only and client answers are the degraded
// message.
func New(cfg *scenario.Config, delegate llm.Delegate, opts ...Option) (*Trainer, error) {
	t := &Trainer{
		cfg:      cfg,
		delegate: delegate,
		log:      logger.Nop(),
		now:      time.Now,
		users:    make(map[string]*user),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.classifier = classify.New(cfg, delegate, t.log)
	t.engine = scoring.New(cfg, t.log)

	if cfg.CaseVariants != nil {
		genOpts := []casegen.Option{
			casegen.WithLogger(t.log),
			casegen.WithCommands(t.feedbackWord(), t.finishWord()),
		}
		if t.rng != nil {
			genOpts = append(genOpts, casegen.WithRand(t.rng))
		}
		gen, err := casegen.New(cfg.CaseVariants, genOpts...)
		if err != nil {
			return nil, fmt.Errorf("case generator: %w", err)
		}
		t.gen = gen
	}
	return t, nil
}

func (t *Trainer) startWord() string    { return t.cfg.UI.Command("start", "начать") }
func (t *Trainer) feedbackWord() string { return t.cfg.UI.Command("feedback", "ДА") }
func (t *Trainer) finishWord() string   { return t.cfg.UI.Command("finish", "завершить") }

// userFor returns the entry for id, creating it on first contact.
func (t *Trainer) userFor(id string) *user {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, ok := t.users[id]
	if !ok {
		u = &user{
			sem: semaphore.NewWeighted(1),
			state: UserState{
				Training:    newTraining(StateNew, t.cfg.TypeIDs()),
				Progression: scoring.NewProgression(),
			},
		}
		t.users[id] = u
	}
	return u
}

// Handle processes one incoming message and returns the replies to send,
// in order. It fails only when ctx ends while waiting for the user's
// previous turn.
func (t *Trainer) Handle(ctx context.Context, userID, text string) ([]string, error) {
	u := t.userFor(userID)
	if err := u.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for user %s: %w", userID, err)
	}
	defer u.sem.Release(1)

	text = strings.TrimSpace(text)
	turn := &turn{t: t, userID: userID, st: &u.state, log: t.log.With("user", userID)}
	if strings.HasPrefix(text, "/") {
		return turn.command(ctx, text), nil
	}
	return turn.message(ctx, text), nil
}

// Snapshot returns a copy of the user's state.
func (t *Trainer) Snapshot(ctx context.Context, userID string) (UserState, error) {
	u := t.userFor(userID)
	if err := u.sem.Acquire(ctx, 1); err != nil {
		return UserState{}, fmt.Errorf("wait for user %s: %w", userID, err)
	}
	defer u.sem.Release(1)

	return UserState{
		Training:    u.state.Training.Clone(),
		Progression: u.state.Progression.Clone(),
	}, nil
}

func (t *Trainer) recordEvent(ctx context.Context, log *logger.Logger, data store.TrainingEventData) {
	if t.events == nil {
		return
	}
	if err := t.events.AppendTrainingEvent(ctx, data); err != nil {
		log.Warn("failed to record training event", "action", data.Action, "error", err)
	}
}

func newSessionID() string {
	return uuid.New().String()
}
