package handler

import (
	"context"
	"encoding/json"
	"errors"

	"connectrpc.com/connect"

	"auditflow/internal/gateway/middleware"
)

// SendMessageProcedure is the Connect unary route for one workflow turn.
const SendMessageProcedure = "/audit.v1.ChatService/SendMessage"

// jsonCodec lets Connect carry plain Go structs. It registers under the
// "json" name so application/json and application/connect+json requests
// use it.
type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (jsonCodec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// NewConnectHandler mounts the ChatService RPCs. Identity is read from the
// context set by middleware.Identity.
func NewConnectHandler(svc ChatService) (string, *connect.Handler) {
	send := func(ctx context.Context, req *connect.Request[sendMessageRequest]) (*connect.Response[sendMessageResponse], error) {
		userID, ok := middleware.UserID(ctx)
		if !ok {
			return nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing caller identity"))
		}
		res, err := svc.SendMessage(ctx, userID, req.Msg.ChatID, req.Msg.Prompt)
		if err != nil {
			return nil, toConnectError(err)
		}
		msg := toSendMessageResponse(res)
		return connect.NewResponse(&msg), nil
	}
	return SendMessageProcedure, connect.NewUnaryHandler(SendMessageProcedure, send, connect.WithCodec(jsonCodec{}))
}
