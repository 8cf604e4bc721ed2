package handler

import (
	"time"

	chatsvc "auditflow/internal/gateway/service/chat"
)

// Wire shapes follow the front-end contract: chats carry _id/chatName,
// stored messages carry _id/message/type with type "user" or "bot".

type chatJSON struct {
	ID        string   `json:"_id"`
	Name      string   `json:"chatName"`
	CreatedAt string   `json:"createdAt"`
	User      userJSON `json:"user"`
}

type userJSON struct {
	ID string `json:"_id"`
}

type storedMessageJSON struct {
	ID        string `json:"_id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt string `json:"createdAt"`
}

// replyMessageJSON is the assistant turn returned by /chat/message.
type replyMessageJSON struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

type createChatRequest struct {
	ChatName string `json:"chatName"`
}

type chatIDRequest struct {
	ChatID string `json:"chatId"`
}

type sendMessageRequest struct {
	ChatID string `json:"chatId"`
	Prompt string `json:"prompt"`
}

type sendMessageResponse struct {
	Message  replyMessageJSON `json:"message"`
	Phase    string           `json:"phase"`
	Degraded bool             `json:"degraded,omitempty"`
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toChatJSON(c chatsvc.Chat) chatJSON {
	return chatJSON{ID: c.ID, Name: c.Name, CreatedAt: timestamp(c.CreatedAt), User: userJSON{ID: c.OwnerID}}
}

func sender(m chatsvc.Message) string {
	if m.Turn.IsUser() {
		return "user"
	}
	return "bot"
}

func toStoredMessageJSON(m chatsvc.Message) storedMessageJSON {
	return storedMessageJSON{ID: m.ID, Message: m.Turn.Text, Type: sender(m), CreatedAt: timestamp(m.Turn.CreatedAt)}
}

func toSendMessageResponse(res chatsvc.SendResult) sendMessageResponse {
	return sendMessageResponse{
		Message: replyMessageJSON{
			ID:        res.Message.ID,
			Text:      res.Message.Turn.Text,
			Sender:    sender(res.Message),
			Timestamp: timestamp(res.Message.Turn.CreatedAt),
		},
		Phase:    string(res.Phase),
		Degraded: res.Degraded,
	}
}
