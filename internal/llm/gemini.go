package llm

import (
	"context"
	"strings"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
	chat  ChatOptions
}

func NewGeminiClient(ctx context.Context, apiKey, model string, chat ChatOptions) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiClient{cli: cli, model: model, chat: chat.withDefaults()}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Generate(ctx context.Context, prompt, system string, temperature float32) (string, error) {
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}
	return g.generate(ctx, contents, system, temperature)
}

func (g *GeminiClient) Chat(ctx context.Context, message string, history []Message) (string, error) {
	history = g.chat.trim(history)
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}
	contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: message}}})
	return g.generate(ctx, contents, g.chat.System, g.chat.Temperature)
}

func (g *GeminiClient) generate(ctx context.Context, contents []*genai.Content, system string, temperature float32) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if strings.TrimSpace(system) != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", unavailable(g.Name(), err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", unavailable(g.Name(), nil)
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", unavailable(g.Name(), nil)
	}
	return text, nil
}
