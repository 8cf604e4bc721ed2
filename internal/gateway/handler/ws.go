package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt,omitempty"`
}

type chatWSOutbound struct {
	Type    string `json:"type"`
	Phase   string `json:"phase,omitempty"`
	Code    string `json:"code,omitempty"`
	// Message is a replyMessageJSON for replies and a string for errors.
	Message any    `json:"message,omitempty"`
}

// HandleWS streams workflow turns of one chat over a WebSocket. Ownership is
// checked before the upgrade so failures surface as plain HTTP errors.
func (h *ChatHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	chatID := strings.TrimSpace(r.URL.Query().Get("chatId"))
	if chatID == "" {
		writeBadRequest(w, "chatId is required")
		return
	}
	userID := owner(r)
	if _, err := h.svc.Messages(r.Context(), userID, chatID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		log.Printf("chat ws: set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			pushChatWS(ctx, writeCh, chatWSOutbound{Type: "pong"})
		case "send":
			res, err := h.svc.SendMessage(ctx, userID, chatID, in.Prompt)
			if err != nil {
				code := classify(err)
				msg := err.Error()
				if httpStatus(code) == http.StatusInternalServerError {
					log.Printf("chat ws: %s: %v", chatID, err)
					msg = "internal error"
				}
				pushChatWS(ctx, writeCh, chatWSOutbound{Type: "error", Code: code.String(), Message: msg})
				continue
			}
			reply := toSendMessageResponse(res)
			pushChatWS(ctx, writeCh, chatWSOutbound{Type: "reply", Phase: reply.Phase, Message: reply.Message})
		default:
			pushChatWS(ctx, writeCh, chatWSOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type})
		}
	}
}

// pushChatWS blocks until the writer accepts out. Replies are never dropped;
// a closed connection unblocks through ctx.
func pushChatWS(ctx context.Context, writeCh chan<- chatWSOutbound, out chatWSOutbound) {
	select {
	case writeCh <- out:
	case <-ctx.Done():
	}
}
