package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable marks any failure to obtain text from the generation
// service: transport errors, timeouts, empty candidates.
var ErrUnavailable = errors.New("llm: generation unavailable")

// Role of a chat message sent to the model.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prior turn handed to Chat.
type Message struct {
	Role    Role
	Content string
}

// Gateway is the boundary to an external text-generation service.
type Gateway interface {
	Name() string
	// Generate sends a single prompt with its role-establishing system
	// instruction and returns the raw text.
	Generate(ctx context.Context, prompt, system string, temperature float32) (string, error)
	// Chat continues a free conversation with the given prior messages.
	Chat(ctx context.Context, message string, history []Message) (string, error)
	Close() error
}

// ChatOptions configures the free-chat call shared by all providers.
type ChatOptions struct {
	System      string
	Temperature float32
	MaxHistory  int
}

func (o ChatOptions) withDefaults() ChatOptions {
	if o.Temperature <= 0 {
		o.Temperature = 0.7
	}
	if o.MaxHistory <= 0 {
		o.MaxHistory = 10
	}
	return o
}

func (o ChatOptions) trim(history []Message) []Message {
	if len(history) > o.MaxHistory {
		return history[len(history)-o.MaxHistory:]
	}
	return history
}

func unavailable(provider string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s: empty response", ErrUnavailable, provider)
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, provider, err)
}
