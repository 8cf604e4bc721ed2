package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultMistralBaseURL = "https://api.mistral.ai/v1"

// MistralClient calls the Mistral chat completions API through its
// OpenAI-compatible endpoint.
type MistralClient struct {
	cli   *openai.Client
	model string
	chat  ChatOptions
}

func NewMistralClient(apiKey, baseURL, model string, chat ChatOptions) *MistralClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = defaultMistralBaseURL
	if u := strings.TrimSpace(baseURL); u != "" {
		cfg.BaseURL = strings.TrimRight(u, "/")
	}
	if strings.TrimSpace(model) == "" {
		model = "mistral-large-latest"
	}
	return &MistralClient{
		cli:   openai.NewClientWithConfig(cfg),
		model: model,
		chat:  chat.withDefaults(),
	}
}

func (m *MistralClient) Name() string { return "Mistral:" + m.model }
func (m *MistralClient) Close() error { return nil }

func (m *MistralClient) Generate(ctx context.Context, prompt, system string, temperature float32) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
	return m.complete(ctx, msgs, temperature)
}

func (m *MistralClient) Chat(ctx context.Context, message string, history []Message) (string, error) {
	history = m.chat.trim(history)
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.chat.System})
	for _, h := range history {
		role := openai.ChatMessageRoleUser
		if h.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: h.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
	return m.complete(ctx, msgs, m.chat.Temperature)
}

func (m *MistralClient) complete(ctx context.Context, msgs []openai.ChatCompletionMessage, temperature float32) (string, error) {
	resp, err := m.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    msgs,
		Temperature: temperature,
	})
	if err != nil {
		return "", unavailable(m.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", unavailable(m.Name(), nil)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", unavailable(m.Name(), nil)
	}
	return text, nil
}
