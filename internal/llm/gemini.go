package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

type geminiBackend struct {
	client *genai.Client
}

// NewGeminiProvider serves a target from the Gemini API. Creating the
// client does not touch the network.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return newChatProvider(ProviderGemini, cfg.Model, &geminiBackend{client: client}), nil
}

func (b *geminiBackend) chat(ctx context.Context, model string, req Request) (reply, error) {
	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     &temp,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	result, err := b.client.Models.GenerateContent(ctx, model, genai.Text(req.User), config)
	if err != nil {
		return reply{}, classifyStatus(geminiStatus(err), err)
	}

	r := reply{text: result.Text(), model: result.ModelVersion, stop: geminiStop(result)}
	if m := result.UsageMetadata; m != nil {
		r.usage = usage(int(m.PromptTokenCount), int(m.CandidatesTokenCount), int(m.TotalTokenCount))
	}
	return r, nil
}

func geminiStop(result *genai.GenerateContentResponse) StopReason {
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		return StopMaxTokens
	}
	return StopEnd
}

// geminiStatus digs the HTTP status out of an SDK error, which may come
// back as either a value or a pointer.
func geminiStatus(err error) int {
	var v genai.APIError
	if errors.As(err, &v) {
		return v.Code
	}
	var p *genai.APIError
	if errors.As(err, &p) {
		return p.Code
	}
	return 0
}
