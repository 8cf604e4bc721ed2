package chat

import (
	"context"
	"errors"
	"time"

	"auditflow/internal/audit"
)

// Chat is a conversation owned by one user.
type Chat struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

// Message is a stored turn. Seq is its 1-based position in the chat.
type Message struct {
	ID     string
	ChatID string
	Seq    int64
	Turn   audit.Turn
}

// Store persists chats and their append-only turns. Deleting a chat removes
// its messages.
type Store interface {
	CreateChat(ctx context.Context, c Chat) error
	GetChat(ctx context.Context, id string) (Chat, error)
	ListChats(ctx context.Context, ownerID string) ([]Chat, error)
	DeleteChat(ctx context.Context, id string) error
	AppendMessages(ctx context.Context, chatID string, turns ...audit.Turn) ([]Message, error)
	Messages(ctx context.Context, chatID string) ([]Message, error)
}

var ErrNotFound = errors.New("chat not found")

// History converts stored messages back into a conversation.
func History(msgs []Message) audit.History {
	h := make(audit.History, 0, len(msgs))
	for _, m := range msgs {
		h = append(h, m.Turn)
	}
	return h
}

func messageID(seq int64) string {
	return "msg_" + itoa(seq)
}
