package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/spincoach/internal/logger"
	"github.com/abhisek/spincoach/internal/store"
)

// NewProvider creates the base Provider for a target, without middleware.
func NewProvider(ctx context.Context, cfg Config, t Target) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch t.Provider {
	case ProviderOpenAI:
		c := cfg.OpenAI
		c.Model = t.Model
		p, err = NewOpenAIProvider(c)
	case ProviderAnthropic:
		c := cfg.Anthropic
		c.Model = t.Model
		p, err = NewAnthropicProvider(c)
	case ProviderGemini:
		c := cfg.Gemini
		c.Model = t.Model
		p, err = NewGeminiProvider(ctx, c)
	case ProviderOpenRouter:
		c := cfg.OpenRouter
		c.Model = t.Model
		p, err = NewOpenRouterProvider(c)
	case ProviderMock:
		return NewNamedMockProvider(t.Model), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", t.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", t.Provider, err)
	}
	return p, nil
}

// Constructor builds a base provider for a target. Tests replace it to
// inject mocks.
type Constructor func(ctx context.Context, t Target) (Provider, error)

// Registry caches one logged provider per target so SDK clients are
// created once and shared by every kind that uses the same target.
type Registry struct {
	mu        sync.Mutex
	build     Constructor
	eventRepo store.EventRepo
	log       *logger.Logger
	providers map[Target]Provider
}

// NewRegistry creates a Registry backed by NewProvider. A nil eventRepo
// disables the audit log.
func NewRegistry(cfg Config, eventRepo store.EventRepo, log *logger.Logger) *Registry {
	return NewRegistryWith(func(ctx context.Context, t Target) (Provider, error) {
		return NewProvider(ctx, cfg, t)
	}, eventRepo, log)
}

// NewRegistryWith creates a Registry with a custom constructor.
func NewRegistryWith(build Constructor, eventRepo store.EventRepo, log *logger.Logger) *Registry {
	return &Registry{
		build:     build,
		eventRepo: eventRepo,
		log:       logger.OrNop(log),
		providers: make(map[Target]Provider),
	}
}

// Get returns the provider for t, creating it on first use.
func (r *Registry) Get(ctx context.Context, t Target) (Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[t]; ok {
		return p, nil
	}

	base, err := r.build(ctx, t)
	if err != nil {
		return nil, err
	}

	// caller → retry (per policy) → logging → base
	p := WithLogging(base, t.Provider, r.eventRepo, r.log)
	r.providers[t] = p
	return p, nil
}
