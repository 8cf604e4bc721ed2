package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"auditflow/internal/gateway/middleware"
	chatsvc "auditflow/internal/gateway/service/chat"
	"auditflow/internal/render"
)

// ChatService is the part of the chat service the transports need.
type ChatService interface {
	Create(ctx context.Context, ownerID, name string) (chatsvc.Chat, error)
	List(ctx context.Context, ownerID string) ([]chatsvc.Chat, error)
	Messages(ctx context.Context, ownerID, chatID string) ([]chatsvc.Message, error)
	Delete(ctx context.Context, ownerID, chatID string) error
	SendMessage(ctx context.Context, ownerID, chatID, prompt string) (chatsvc.SendResult, error)
	Export(ctx context.Context, ownerID, chatID string, kind render.Kind) (chatsvc.ExportResult, error)
}

var _ ChatService = (*chatsvc.Service)(nil)

// ChatHandler serves the JSON REST surface under /chat/.
type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeBadRequest(w, "invalid json body")
		return false
	}
	return true
}

// owner returns the caller identity set by middleware.Identity.
func owner(r *http.Request) string {
	id, _ := middleware.UserID(r.Context())
	return id
}

func (h *ChatHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	chats, err := h.svc.List(r.Context(), owner(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]chatJSON, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatJSON(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ChatHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createChatRequest
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), owner(r), in.ChatName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chat": toChatJSON(c)})
}

func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var in sendMessageRequest
	if !decode(w, r, &in) {
		return
	}
	res, err := h.svc.SendMessage(r.Context(), owner(r), in.ChatID, in.Prompt)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Audit-Phase", string(res.Phase))
	writeJSON(w, http.StatusOK, toSendMessageResponse(res))
}

func (h *ChatHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	var in chatIDRequest
	if !decode(w, r, &in) {
		return
	}
	msgs, err := h.svc.Messages(r.Context(), owner(r), in.ChatID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]storedMessageJSON, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toStoredMessageJSON(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *ChatHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var in chatIDRequest
	if !decode(w, r, &in) {
		return
	}
	if err := h.svc.Delete(r.Context(), owner(r), in.ChatID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Chat deleted successfully"})
}

func (h *ChatHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, ok := render.ParseKind(q.Get("kind"))
	if !ok {
		writeBadRequest(w, fmt.Sprintf("unknown export kind %q", q.Get("kind")))
		return
	}
	res, err := h.svc.Export(r.Context(), owner(r), strings.TrimSpace(q.Get("chatId")), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	doc := res.Document
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	if res.URL != "" {
		w.Header().Set("X-Document-URL", res.URL)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
