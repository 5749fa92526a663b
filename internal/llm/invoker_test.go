package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/spincoach/internal/store"
)

// recordingRepo captures audit events; other EventRepo methods are unused.
type recordingRepo struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return nil
}

func testConfig(retries int) Config {
	cfg := DefaultConfig()
	cfg.Retry = RetryConfig{InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 1}
	for _, k := range Kinds {
		cfg.Policies[k] = Policy{
			Primary:    Target{Provider: ProviderMock, Model: "primary"},
			Fallback:   Target{Provider: ProviderMock, Model: "fallback"},
			MaxRetries: retries,
		}
	}
	return cfg
}

func newTestInvoker(t *testing.T, cfg Config, mocks map[string]*MockProvider, repo store.EventRepo) *Invoker {
	t.Helper()
	reg := NewRegistryWith(func(_ context.Context, tgt Target) (Provider, error) {
		m, ok := mocks[tgt.Model]
		if !ok {
			return nil, errors.New("no mock for " + tgt.Model)
		}
		return m, nil
	}, repo, nil)
	return NewInvoker(cfg, reg, nil)
}

func TestInvoker_PrimarySucceeds(t *testing.T) {
	primary := NewNamedMockProvider("primary", MockResponse{Text: "problem"})
	fallback := NewNamedMockProvider("fallback")
	repo := &recordingRepo{}
	inv := newTestInvoker(t, testConfig(1), map[string]*MockProvider{"primary": primary, "fallback": fallback}, repo)

	text, err := inv.Invoke(context.Background(), KindClassification, "sys", "Какие проблемы?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "problem" {
		t.Fatalf("text = %q, want problem", text)
	}
	if fallback.CallCount() != 0 {
		t.Fatalf("fallback should not be called")
	}

	call := primary.Calls[0]
	if call.MaxTokens != 20 || call.Temperature != 0 {
		t.Errorf("classification params = %d/%v, want 20/0", call.MaxTokens, call.Temperature)
	}
	if call.System != "sys" || call.User != "Какие проблемы?" || call.Kind != KindClassification {
		t.Errorf("unexpected request: %+v", call)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.Kind != "classification" || ev.Provider != "mock" || !ev.Success {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}

func TestInvoker_RetriesPrimaryThenFallback(t *testing.T) {
	down := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	primary := NewNamedMockProvider("primary", down, down, down)
	fallback := NewNamedMockProvider("fallback", MockResponse{Text: "Хороший вопрос."})
	inv := newTestInvoker(t, testConfig(2), map[string]*MockProvider{"primary": primary, "fallback": fallback}, nil)

	text, err := inv.Invoke(context.Background(), KindResponse, "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Хороший вопрос." {
		t.Fatalf("text = %q", text)
	}
	if primary.CallCount() != 3 {
		t.Errorf("primary calls = %d, want 3 (MaxRetries+1)", primary.CallCount())
	}
	if fallback.CallCount() != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.CallCount())
	}
}

func TestInvoker_DegradedWhenAllFail(t *testing.T) {
	down := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	primary := NewNamedMockProvider("primary", down, down)
	fallback := NewNamedMockProvider("fallback", down, down)
	inv := newTestInvoker(t, testConfig(1), map[string]*MockProvider{"primary": primary, "fallback": fallback}, nil)

	text, err := inv.Invoke(context.Background(), KindFeedback, "sys", "user")
	if !errors.Is(err, ErrDegraded) {
		t.Fatalf("expected ErrDegraded, got %v", err)
	}
	if text != DegradedMessage {
		t.Fatalf("text = %q, want degraded message", text)
	}
	if fallback.CallCount() != 1 {
		t.Errorf("fallback calls = %d, want exactly 1", fallback.CallCount())
	}
}

func TestInvoker_ConstructorFailureFallsBack(t *testing.T) {
	fallback := NewNamedMockProvider("fallback", MockResponse{Text: "да"})
	inv := newTestInvoker(t, testConfig(1), map[string]*MockProvider{"fallback": fallback}, nil)

	text, err := inv.Invoke(context.Background(), KindContext, "sys", "user")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "да" {
		t.Fatalf("text = %q", text)
	}
}

func TestInvoker_UnknownKind(t *testing.T) {
	inv := newTestInvoker(t, testConfig(0), nil, nil)
	text, err := inv.Invoke(context.Background(), Kind("poetry"), "", "")
	if !errors.Is(err, ErrDegraded) || text != DegradedMessage {
		t.Fatalf("got %q, %v", text, err)
	}
}

func TestRegistry_CachesProviders(t *testing.T) {
	builds := 0
	reg := NewRegistryWith(func(_ context.Context, tgt Target) (Provider, error) {
		builds++
		return NewNamedMockProvider(tgt.Model), nil
	}, nil, nil)

	tgt := Target{Provider: ProviderMock, Model: "m"}
	for range 3 {
		if _, err := reg.Get(context.Background(), tgt); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if builds != 1 {
		t.Fatalf("builds = %d, want 1", builds)
	}
}

func TestDelegateFunc(t *testing.T) {
	var d Delegate = DelegateFunc(func(_ context.Context, kind Kind, _, user string) (string, error) {
		return string(kind) + ":" + user, nil
	})
	got, err := d.Invoke(context.Background(), KindResponse, "", "hi")
	if err != nil || got != "response:hi" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestAuditCapturesPromptAndReply(t *testing.T) {
	repo := &recordingRepo{}
	p := WithLogging(NewMockProvider(MockResponse{Text: "Сроки срываются."}), ProviderMock, repo, nil)

	_, err := p.Generate(context.Background(), NewRequest(KindResponse, "Ты клиент.", "Что не так с поставками?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if want := "[system]\nТы клиент.\n\n[user]\nЧто не так с поставками?"; ev.RequestBody != want {
		t.Errorf("request body = %q, want %q", ev.RequestBody, want)
	}
	if ev.ResponseBody != "Сроки срываются." || ev.Kind != "response" {
		t.Errorf("unexpected audit event: %+v", ev)
	}
}
