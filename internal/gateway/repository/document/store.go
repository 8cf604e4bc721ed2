package document

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store persists rendered exports under "<chat_id>/<name>".
type Store interface {
	Put(ctx context.Context, chatID, name, contentType string, content []byte) error
	Get(ctx context.Context, chatID, name string) ([]byte, error)
	// GetURL returns a download URL, or "" when the backend cannot serve one.
	GetURL(ctx context.Context, chatID, name string) (string, error)
	List(ctx context.Context, chatID string) ([]string, error)
	DeleteAll(ctx context.Context, chatID string) error
}

var ErrNotFound = errors.New("document not found")

func objectKey(chatID, name string) string {
	return strings.TrimSuffix(chatID, "/") + "/" + strings.TrimLeft(name, "/")
}

func normalize(chatID, name string) (string, string, error) {
	chatID = strings.TrimSpace(chatID)
	name = strings.TrimSpace(name)
	if chatID == "" {
		return "", "", fmt.Errorf("chat_id is required")
	}
	if name == "" {
		return "", "", fmt.Errorf("name is required")
	}
	return chatID, name, nil
}
