package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditflow/internal/audit"
	"auditflow/internal/gateway/handler"
	"auditflow/internal/gateway/middleware"
	chatrepo "auditflow/internal/gateway/repository/chat"
	"auditflow/internal/gateway/repository/document"
	chatsvc "auditflow/internal/gateway/service/chat"
	"auditflow/internal/llm"
	"auditflow/internal/render"
	"auditflow/internal/workflow"
)

func newTestServer(t *testing.T) (*httptest.Server, *llm.FakeClient) {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	fake := llm.NewFakeClient()
	p := workflow.New(audit.NewClassifier(audit.DefaultVocabulary()), fake, workflow.WithLogger(quiet))
	svc := chatsvc.New(chatsvc.Deps{
		Chats:     chatrepo.NewMemoryStore(),
		Documents: document.NewMemoryStore(),
		Pipeline:  p,
		Logger:    quiet,
	})
	srv := httptest.NewServer(NewMux(handler.NewChatHandler(svc), svc))
	t.Cleanup(srv.Close)
	return srv, fake
}

func call(t *testing.T, srv *httptest.Server, method, path, user string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.UserIDHeader, user)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func createChat(t *testing.T, srv *httptest.Server, user string) string {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/chat/create", user, map[string]string{"chatName": "Audit SI"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Chat struct {
			ID   string `json:"_id"`
			Name string `json:"chatName"`
		} `json:"chat"`
	}
	decodeBody(t, resp, &out)
	require.Equal(t, "Audit SI", out.Chat.Name)
	return out.Chat.ID
}

func TestHealthNeedsNoIdentity(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := call(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/chat/list", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createChat(t, srv, "alice")

	resp := call(t, srv, http.MethodPost, "/chat/message", "alice", map[string]string{
		"chatId": id,
		"prompt": "Nous voulons auditer la sécurité du système d'information de la banque",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(audit.PhaseQuestions), resp.Header.Get("X-Audit-Phase"))
	var sent struct {
		Message struct {
			ID     string `json:"id"`
			Text   string `json:"text"`
			Sender string `json:"sender"`
		} `json:"message"`
		Phase string `json:"phase"`
	}
	decodeBody(t, resp, &sent)
	assert.Equal(t, "msg_2", sent.Message.ID)
	assert.Equal(t, "bot", sent.Message.Sender)
	assert.Equal(t, string(audit.PhaseQuestions), sent.Phase)
	assert.NotEmpty(t, sent.Message.Text)

	resp = call(t, srv, http.MethodPost, "/chat/messages", "alice", map[string]string{"chatId": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []struct {
			ID   string `json:"_id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	decodeBody(t, resp, &list)
	require.Len(t, list.Data, 2)
	assert.Equal(t, "user", list.Data[0].Type)
	assert.Equal(t, "bot", list.Data[1].Type)

	resp = call(t, srv, http.MethodGet, "/chat/list", "alice", nil)
	var chats []map[string]any
	decodeBody(t, resp, &chats)
	assert.Len(t, chats, 1)

	resp = call(t, srv, http.MethodPost, "/chat/delete", "alice", map[string]string{"chatId": id})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = call(t, srv, http.MethodPost, "/chat/messages", "alice", map[string]string{"chatId": id})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createChat(t, srv, "alice")

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{"unknown chat", http.MethodPost, "/chat/message", "alice", map[string]string{"chatId": "nope", "prompt": "x"}, http.StatusNotFound, "not_found"},
		{"other owner", http.MethodPost, "/chat/message", "bob", map[string]string{"chatId": id, "prompt": "x"}, http.StatusForbidden, "permission_denied"},
		{"empty prompt", http.MethodPost, "/chat/message", "alice", map[string]string{"chatId": id}, http.StatusBadRequest, "invalid_argument"},
		{"unknown kind", http.MethodGet, "/chat/export?chatId=" + id + "&kind=zip", "alice", nil, http.StatusBadRequest, "invalid_argument"},
		{"nothing to export", http.MethodGet, "/chat/export?chatId=" + id + "&kind=constat", "alice", nil, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, srv, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			var e struct {
				Code string `json:"code"`
			}
			decodeBody(t, resp, &e)
			assert.Equal(t, tt.code, e.Code)
		})
	}
}

func TestExportReport(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createChat(t, srv, "alice")

	resp := call(t, srv, http.MethodPost, "/chat/message", "alice", map[string]string{"chatId": id, "prompt": "J'ai trouvé une faille sur le pare-feu"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/chat/export?chatId="+id+"&kind=rapport", "alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, render.ContentTypePDF, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "rapport.pdf")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestDegradedReplyStillStored(t *testing.T) {
	srv, fake := newTestServer(t)
	fake.Err = errors.New("upstream down")
	id := createChat(t, srv, "alice")

	resp := call(t, srv, http.MethodPost, "/chat/message", "alice", map[string]string{"chatId": id, "prompt": "checklist des contrôles"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sent struct {
		Message struct {
			Text string `json:"text"`
		} `json:"message"`
		Phase    string `json:"phase"`
		Degraded bool   `json:"degraded"`
	}
	decodeBody(t, resp, &sent)
	assert.Equal(t, workflow.Apology, sent.Message.Text)
	assert.Equal(t, string(audit.PhaseChecklist), sent.Phase)
	assert.True(t, sent.Degraded)
}

func TestConnectSendMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createChat(t, srv, "alice")

	resp := call(t, srv, http.MethodPost, handler.SendMessageProcedure, "alice", map[string]string{"chatId": id, "prompt": "bonjour"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sent struct {
		Message struct {
			ID string `json:"id"`
		} `json:"message"`
		Phase string `json:"phase"`
	}
	decodeBody(t, resp, &sent)
	assert.Equal(t, "msg_2", sent.Message.ID)
	assert.Equal(t, string(audit.PhaseDefault), sent.Phase)

	resp = call(t, srv, http.MethodPost, handler.SendMessageProcedure, "bob", map[string]string{"chatId": id, "prompt": "bonjour"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketTurn(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createChat(t, srv, "alice")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws?chatId=" + id
	header := http.Header{}
	header.Set(middleware.UserIDHeader, "alice")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "send", "prompt": "Je veux la synthèse de la mission"}))
	var out struct {
		Type    string `json:"type"`
		Phase   string `json:"phase"`
		Message struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"message"`
	}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "reply", out.Type)
	assert.Equal(t, string(audit.PhaseSynthesis), out.Phase)
	assert.Equal(t, "msg_2", out.Message.ID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "send", "prompt": " "}))
	var e struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, conn.ReadJSON(&e))
	assert.Equal(t, "error", e.Type)
	assert.Equal(t, "invalid_argument", e.Code)
}

func TestWebSocketRejectsOtherOwner(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createChat(t, srv, "alice")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws?chatId=" + id + "&user_id=bob"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
