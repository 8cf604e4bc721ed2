package audit

import (
	"strings"
	"time"
)

// Speaker identifies who authored a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is one message of a conversation. Turns are never edited after they
// are appended; their position in the History is their only link to the rest
// of the conversation.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func UserTurn(text string, at time.Time) Turn {
	return Turn{Speaker: SpeakerUser, Text: text, CreatedAt: at}
}

func AssistantTurn(text string, at time.Time) Turn {
	return Turn{Speaker: SpeakerAssistant, Text: text, CreatedAt: at}
}

func (t Turn) IsUser() bool      { return t.Speaker == SpeakerUser }
func (t Turn) IsAssistant() bool { return t.Speaker == SpeakerAssistant }

// History is a conversation in insertion order.
type History []Turn

// Append returns a new History with t added at the end. The receiver is not
// modified, so callers holding the old slice keep a stable view.
func (h History) Append(t Turn) History {
	out := make(History, 0, len(h)+1)
	out = append(out, h...)
	return append(out, t)
}

// AssistantTexts returns the text of every assistant turn, in order.
func (h History) AssistantTexts() []string {
	out := make([]string, 0, len(h)/2+1)
	for _, t := range h {
		if t.IsAssistant() {
			out = append(out, t.Text)
		}
	}
	return out
}

func (h History) HasAssistantTurn() bool {
	for _, t := range h {
		if t.IsAssistant() {
			return true
		}
	}
	return false
}

// Tail returns at most the last n turns.
func (h History) Tail(n int) History {
	if n <= 0 {
		return History{}
	}
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}

// tokenCount counts whitespace-separated tokens.
func tokenCount(s string) int {
	return len(strings.Fields(s))
}
