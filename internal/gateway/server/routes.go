package server

import (
	"net/http"

	"auditflow/internal/gateway/handler"
	"auditflow/internal/gateway/middleware"
)

func NewMux(chat *handler.ChatHandler, svc handler.ChatService) http.Handler {
	api := http.NewServeMux()

	// REST
	api.HandleFunc("GET /chat/list", chat.HandleList)
	api.HandleFunc("POST /chat/create", chat.HandleCreate)
	api.HandleFunc("POST /chat/message", chat.HandleMessage)
	api.HandleFunc("POST /chat/messages", chat.HandleMessages)
	api.HandleFunc("POST /chat/delete", chat.HandleDelete)
	api.HandleFunc("GET /chat/export", chat.HandleExport)
	api.HandleFunc("GET /chat/ws", chat.HandleWS)

	// RPC
	api.Handle(handler.NewConnectHandler(svc))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HandleHealth)
	mux.Handle("/", middleware.Identity(api))

	return middleware.CORS(mux)
}
