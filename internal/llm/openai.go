package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openaiBackend speaks the chat completions protocol. OpenRouter and other
// compatible gateways differ only in base URL.
type openaiBackend struct {
	client *openai.Client
}

func newOpenAIBackend(apiKey, baseURL string) *openaiBackend {
	c := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	return &openaiBackend{client: openai.NewClientWithConfig(c)}
}

// NewOpenAIProvider serves a target from OpenAI or any endpoint set in
// cfg.BaseURL.
func NewOpenAIProvider(cfg OpenAIConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return newChatProvider(ProviderOpenAI, cfg.Model, newOpenAIBackend(cfg.APIKey, cfg.BaseURL)), nil
}

// NewOpenRouterProvider serves a target through OpenRouter. Models are
// given in OpenRouter's vendor/model form.
func NewOpenRouterProvider(cfg OpenRouterConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	return newChatProvider(ProviderOpenRouter, cfg.Model, newOpenAIBackend(cfg.APIKey, baseURL)), nil
}

// wireTemperature keeps a zero temperature on the wire. go-openai omits a
// zero Temperature and the vendor then applies its default of 1.
func wireTemperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (b *openaiBackend) chat(ctx context.Context, model string, req Request) (reply, error) {
	var msgs []openai.ChatCompletionMessage
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               model,
		Messages:            msgs,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         wireTemperature(req.Temperature),
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return reply{}, classifyStatus(apiErr.HTTPStatusCode, err)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return reply{}, classifyStatus(reqErr.HTTPStatusCode, err)
		}
		return reply{}, classifyStatus(0, err)
	}
	if len(resp.Choices) == 0 {
		return reply{}, &ErrInvalidResponse{Err: errors.New("completion has no choices")}
	}

	choice := resp.Choices[0]
	stop := StopEnd
	if choice.FinishReason == openai.FinishReasonLength {
		stop = StopMaxTokens
	}
	return reply{
		text:  choice.Message.Content,
		model: resp.Model,
		stop:  stop,
		usage: usage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens),
	}, nil
}
