package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"connectrpc.com/connect"

	chatsvc "auditflow/internal/gateway/service/chat"
	"auditflow/internal/workflow"
)

type errorJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps service errors onto a transport-neutral code.
func classify(err error) connect.Code {
	switch {
	case errors.Is(err, chatsvc.ErrNotFound), errors.Is(err, workflow.ErrNoRecord):
		return connect.CodeNotFound
	case errors.Is(err, chatsvc.ErrForbidden):
		return connect.CodePermissionDenied
	case errors.Is(err, chatsvc.ErrInvalidInput):
		return connect.CodeInvalidArgument
	default:
		return connect.CodeInternal
	}
}

func httpStatus(code connect.Code) int {
	switch code {
	case connect.CodeNotFound:
		return http.StatusNotFound
	case connect.CodePermissionDenied:
		return http.StatusForbidden
	case connect.CodeInvalidArgument:
		return http.StatusBadRequest
	case connect.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := classify(err)
	msg := err.Error()
	if code == connect.CodeInternal {
		log.Printf("handler: %v", err)
		msg = "internal error"
	}
	writeJSON(w, httpStatus(code), errorJSON{Code: code.String(), Message: msg})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorJSON{Code: connect.CodeInvalidArgument.String(), Message: msg})
}

func toConnectError(err error) error {
	code := classify(err)
	if code == connect.CodeInternal {
		log.Printf("handler: %v", err)
		return connect.NewError(code, errors.New("internal error"))
	}
	return connect.NewError(code, err)
}
