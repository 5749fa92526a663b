package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted in a Target.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Target is a provider/model pair.
type Target struct {
	Provider string
	Model    string
}

func (t Target) String() string {
	return t.Provider + "/" + t.Model
}

// Policy is the primary/fallback selection for one call kind.
type Policy struct {
	Primary  Target
	Fallback Target

	// MaxRetries is the number of extra attempts on the primary target.
	// The fallback is always tried exactly once.
	MaxRetries int
}

// Config holds all LLM configuration for the trainer.
type Config struct {
	Policies map[Kind]Policy

	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single attempt against one target. Default: 30s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures backoff between attempts on the primary target.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

const (
	defaultPrimaryModel  = "gpt-4o-mini"
	defaultFallbackModel = "gpt-5-mini"
	defaultMaxRetries    = 1
)

// DefaultConfig returns a Config where every kind uses OpenAI with the
// default primary and fallback models.
func DefaultConfig() Config {
	cfg := Config{
		Policies: make(map[Kind]Policy, len(Kinds)),
		Retry: RetryConfig{
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
	for _, k := range Kinds {
		cfg.Policies[k] = Policy{
			Primary:    Target{Provider: ProviderOpenAI, Model: defaultPrimaryModel},
			Fallback:   Target{Provider: ProviderOpenAI, Model: defaultFallbackModel},
			MaxRetries: defaultMaxRetries,
		}
	}
	return cfg
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
//
// Global: PRIMARY_MODEL, FALLBACK_MODEL, LLM_MAX_RETRIES, LLM_TIMEOUT_SEC.
// Per kind: <KIND>_PRIMARY_PROVIDER, <KIND>_PRIMARY_MODEL,
// <KIND>_FALLBACK_PROVIDER, <KIND>_FALLBACK_MODEL.
// Credentials: OPENAI_API_KEY, OPENAI_BASE_URL, ANTHROPIC_API_KEY,
// GEMINI_API_KEY, OPENROUTER_API_KEY, OPENROUTER_BASE_URL.
func ConfigFromEnv() Config {
	return configFromLookup(os.Getenv)
}

func configFromLookup(getenv func(string) string) Config {
	cfg := DefaultConfig()

	primaryModel := envOr(getenv, "PRIMARY_MODEL", defaultPrimaryModel)
	fallbackModel := envOr(getenv, "FALLBACK_MODEL", defaultFallbackModel)

	retries := defaultMaxRetries
	if v := getenv("LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			retries = n
		}
	}
	if v := getenv("LLM_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Timeout = time.Duration(n) * time.Second
		}
	}

	for _, k := range Kinds {
		prefix := strings.ToUpper(string(k))
		cfg.Policies[k] = Policy{
			Primary: Target{
				Provider: strings.ToLower(envOr(getenv, prefix+"_PRIMARY_PROVIDER", ProviderOpenAI)),
				Model:    envOr(getenv, prefix+"_PRIMARY_MODEL", primaryModel),
			},
			Fallback: Target{
				Provider: strings.ToLower(envOr(getenv, prefix+"_FALLBACK_PROVIDER", ProviderOpenAI)),
				Model:    envOr(getenv, prefix+"_FALLBACK_MODEL", fallbackModel),
			},
			MaxRetries: retries,
		}
	}

	cfg.OpenAI.APIKey = getenv("OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = getenv("OPENAI_BASE_URL")
	cfg.Anthropic.APIKey = getenv("ANTHROPIC_API_KEY")
	cfg.Gemini.APIKey = getenv("GEMINI_API_KEY")
	cfg.OpenRouter.APIKey = getenv("OPENROUTER_API_KEY")
	cfg.OpenRouter.BaseURL = getenv("OPENROUTER_BASE_URL")

	return cfg
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

// Validate checks that every provider referenced by a policy is known and
// has its API key set.
func (c Config) Validate() error {
	var errs []string
	for _, k := range Kinds {
		p, ok := c.Policies[k]
		if !ok {
			errs = append(errs, fmt.Sprintf("no policy for kind %q", k))
			continue
		}
		for _, t := range []Target{p.Primary, p.Fallback} {
			if err := c.checkTarget(t); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", k, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("llm config:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c Config) checkTarget(t Target) error {
	if t.Model == "" && t.Provider != ProviderMock {
		return fmt.Errorf("empty model for provider %q", t.Provider)
	}
	switch t.Provider {
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", t.Provider)
	}
	return nil
}
