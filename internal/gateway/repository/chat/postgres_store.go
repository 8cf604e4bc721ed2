package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"auditflow/internal/audit"
)

const (
	tableChats    = "chats"
	tableMessages = "chat_messages"
)

var (
	chatColumns    = []string{"id", "name", "owner_id", "created_at"}
	messageColumns = []string{"seq", "speaker", "text", "created_at"}
)

type PostgresStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// NewPostgresStore opens dsn with the pgx driver and checks connectivity.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS chats (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  owner_id TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_chats_owner_id ON chats (owner_id);

CREATE TABLE IF NOT EXISTS chat_messages (
  chat_id TEXT NOT NULL REFERENCES chats (id) ON DELETE CASCADE,
  seq BIGINT NOT NULL,
  speaker TEXT NOT NULL,
  text TEXT NOT NULL,
  created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  PRIMARY KEY (chat_id, seq)
);
`)
	})
	return s.schemaErr
}

func pg() *entsql.DialectBuilder { return entsql.Dialect(dialect.Postgres) }

func insertChatQuery(c Chat) (string, []any) {
	return pg().Insert(tableChats).
		Columns(chatColumns...).
		Values(c.ID, c.Name, c.OwnerID, c.CreatedAt.UTC()).
		Query()
}

func getChatQuery(id string) (string, []any) {
	return pg().Select(chatColumns...).
		From(pg().Table(tableChats)).
		Where(entsql.EQ("id", id)).
		Query()
}

func listChatsQuery(ownerID string) (string, []any) {
	return pg().Select(chatColumns...).
		From(pg().Table(tableChats)).
		Where(entsql.EQ("owner_id", ownerID)).
		OrderBy(entsql.Desc("created_at"), entsql.Asc("id")).
		Query()
}

func deleteChatQuery(id string) (string, []any) {
	return pg().Delete(tableChats).Where(entsql.EQ("id", id)).Query()
}

func lastSeqQuery(chatID string) (string, []any) {
	return pg().Select("seq").
		From(pg().Table(tableMessages)).
		Where(entsql.EQ("chat_id", chatID)).
		OrderBy(entsql.Desc("seq")).
		Limit(1).
		Query()
}

func insertMessagesQuery(chatID string, first int64, turns []audit.Turn) (string, []any) {
	ins := pg().Insert(tableMessages).Columns("chat_id", "seq", "speaker", "text", "created_at")
	for i, t := range turns {
		ins.Values(chatID, first+int64(i), string(t.Speaker), t.Text, t.CreatedAt.UTC())
	}
	return ins.Query()
}

func messagesQuery(chatID string) (string, []any) {
	return pg().Select(messageColumns...).
		From(pg().Table(tableMessages)).
		Where(entsql.EQ("chat_id", chatID)).
		OrderBy(entsql.Asc("seq")).
		Query()
}

func (s *PostgresStore) CreateChat(ctx context.Context, c Chat) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return fmt.Errorf("chat id is required")
	}
	q, args := insertChatQuery(c)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChat(ctx context.Context, id string) (Chat, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Chat{}, fmt.Errorf("ensure schema: %w", err)
	}
	q, args := getChatQuery(strings.TrimSpace(id))
	var c Chat
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Chat{}, ErrNotFound
	}
	if err != nil {
		return Chat{}, err
	}
	return c, nil
}

func (s *PostgresStore) ListChats(ctx context.Context, ownerID string) ([]Chat, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	q, args := listChatsQuery(ownerID)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Chat, 0, 8)
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteChat(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	q, args := deleteChatQuery(strings.TrimSpace(id))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendMessages(ctx context.Context, chatID string, turns ...audit.Turn) ([]Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chatID = strings.TrimSpace(chatID)
	if _, err := s.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	if len(turns) == 0 {
		return []Message{}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	q, args := lastSeqQuery(chatID)
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&last); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	q, args = insertMessagesQuery(chatID, last+1, turns)
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return nil, fmt.Errorf("insert messages: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	out := make([]Message, 0, len(turns))
	for i, t := range turns {
		seq := last + 1 + int64(i)
		out = append(out, Message{ID: messageID(seq), ChatID: chatID, Seq: seq, Turn: t})
	}
	return out, nil
}

func (s *PostgresStore) Messages(ctx context.Context, chatID string) ([]Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chatID = strings.TrimSpace(chatID)
	if _, err := s.GetChat(ctx, chatID); err != nil {
		return nil, err
	}
	q, args := messagesQuery(chatID)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Message, 0, 16)
	for rows.Next() {
		var (
			m       Message
			speaker string
			at      time.Time
		)
		if err := rows.Scan(&m.Seq, &speaker, &m.Turn.Text, &at); err != nil {
			return nil, err
		}
		m.ID = messageID(m.Seq)
		m.ChatID = chatID
		m.Turn.Speaker = audit.Speaker(speaker)
		m.Turn.CreatedAt = at
		out = append(out, m)
	}
	return out, rows.Err()
}
