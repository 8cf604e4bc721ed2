package chat

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"auditflow/internal/audit"
)

type MemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]Chat
	messages map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]Chat),
		messages: make(map[string][]Message),
	}
}

func (s *MemoryStore) CreateChat(_ context.Context, c Chat) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return fmt.Errorf("chat id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.ID]; ok {
		return fmt.Errorf("chat %s already exists", c.ID)
	}
	s.chats[c.ID] = c
	s.messages[c.ID] = nil
	return nil
}

func (s *MemoryStore) GetChat(_ context.Context, id string) (Chat, error) {
	if s == nil {
		return Chat{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.chats[strings.TrimSpace(id)]
	if !ok {
		return Chat{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListChats(_ context.Context, ownerID string) ([]Chat, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chat, 0, 8)
	for _, c := range s.chats {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteChat(_ context.Context, id string) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[id]; !ok {
		return ErrNotFound
	}
	delete(s.chats, id)
	delete(s.messages, id)
	return nil
}

func (s *MemoryStore) AppendMessages(_ context.Context, chatID string, turns ...audit.Turn) ([]Message, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	chatID = strings.TrimSpace(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, ErrNotFound
	}
	cur := s.messages[chatID]
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		seq := int64(len(cur) + 1)
		m := Message{ID: messageID(seq), ChatID: chatID, Seq: seq, Turn: t}
		cur = append(cur, m)
		out = append(out, m)
	}
	s.messages[chatID] = cur
	return out, nil
}

func (s *MemoryStore) Messages(_ context.Context, chatID string) ([]Message, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	chatID = strings.TrimSpace(chatID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, ErrNotFound
	}
	return append([]Message(nil), s.messages[chatID]...), nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
