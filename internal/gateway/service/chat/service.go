package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"auditflow/internal/audit"
	chatrepo "auditflow/internal/gateway/repository/chat"
	"auditflow/internal/gateway/repository/document"
	"auditflow/internal/render"
	"auditflow/internal/workflow"
)

var (
	ErrNotFound     = chatrepo.ErrNotFound
	ErrForbidden    = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
)

type (
	Chat    = chatrepo.Chat
	Message = chatrepo.Message
)

const defaultChatName = "Nouvelle mission"

type Service struct {
	chats    chatrepo.Store
	docs     document.Store
	pipeline *workflow.Pipeline
	locks    *keyedMutex
	log      *log.Logger
	now      func() time.Time
	newID    func() string
}

type Deps struct {
	Chats     chatrepo.Store
	Documents document.Store
	Pipeline  *workflow.Pipeline
	Logger    *log.Logger
	Clock     func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		chats:    d.Chats,
		docs:     d.Documents,
		pipeline: d.Pipeline,
		locks:    newKeyedMutex(),
		log:      d.Logger,
		now:      d.Clock,
		newID:    uuid.NewString,
	}
	if s.log == nil {
		s.log = log.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

func (s *Service) Create(ctx context.Context, ownerID, name string) (Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultChatName
	}
	c := Chat{ID: s.newID(), Name: name, OwnerID: ownerID, CreatedAt: s.now()}
	if err := s.chats.CreateChat(ctx, c); err != nil {
		return Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]Chat, error) {
	return s.chats.ListChats(ctx, ownerID)
}

// authorize loads the chat and checks that ownerID owns it.
func (s *Service) authorize(ctx context.Context, ownerID, chatID string) (Chat, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return Chat{}, fmt.Errorf("%w: chatId is required", ErrInvalidInput)
	}
	c, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return Chat{}, err
	}
	if c.OwnerID != ownerID {
		return Chat{}, ErrForbidden
	}
	return c, nil
}

func (s *Service) Messages(ctx context.Context, ownerID, chatID string) ([]Message, error) {
	c, err := s.authorize(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}
	return s.chats.Messages(ctx, c.ID)
}

func (s *Service) Delete(ctx context.Context, ownerID, chatID string) error {
	c, err := s.authorize(ctx, ownerID, chatID)
	if err != nil {
		return err
	}
	unlock := s.locks.Lock(c.ID)
	defer unlock()
	if err := s.chats.DeleteChat(ctx, c.ID); err != nil {
		return err
	}
	if s.docs != nil {
		if err := s.docs.DeleteAll(ctx, c.ID); err != nil {
			s.log.Printf("chat: delete documents of %s: %v", c.ID, err)
		}
	}
	return nil
}

// SendResult is the assistant turn produced for one user message.
type SendResult struct {
	Phase    audit.Phase
	Message  Message
	Degraded bool
}

// SendMessage runs one workflow turn. Turns of the same chat are serialized so
// each sees the complete history of the previous one.
func (s *Service) SendMessage(ctx context.Context, ownerID, chatID, prompt string) (SendResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return SendResult{}, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	c, err := s.authorize(ctx, ownerID, chatID)
	if err != nil {
		return SendResult{}, err
	}
	unlock := s.locks.Lock(c.ID)
	defer unlock()

	received := s.now()
	msgs, err := s.chats.Messages(ctx, c.ID)
	if err != nil {
		return SendResult{}, err
	}
	reply := s.pipeline.Respond(ctx, prompt, chatrepo.History(msgs))

	added, err := s.chats.AppendMessages(ctx, c.ID,
		audit.UserTurn(prompt, received),
		audit.AssistantTurn(reply.Text, s.now()),
	)
	if err != nil {
		return SendResult{}, fmt.Errorf("append messages: %w", err)
	}
	s.log.Printf("chat: %s turn=%d phase=%s degraded=%t", c.ID, added[1].Seq, reply.Phase, reply.Degraded)
	return SendResult{Phase: reply.Phase, Message: added[1], Degraded: reply.Degraded}, nil
}

// ExportResult is a rendered document plus its download URL when the
// document store can produce one.
type ExportResult struct {
	Document render.Document
	URL      string
}

func (s *Service) Export(ctx context.Context, ownerID, chatID string, kind render.Kind) (ExportResult, error) {
	c, err := s.authorize(ctx, ownerID, chatID)
	if err != nil {
		return ExportResult{}, err
	}
	msgs, err := s.chats.Messages(ctx, c.ID)
	if err != nil {
		return ExportResult{}, err
	}
	doc, err := s.pipeline.Export(chatrepo.History(msgs), kind)
	if err != nil {
		return ExportResult{}, err
	}
	out := ExportResult{Document: doc}
	if s.docs == nil {
		return out, nil
	}
	if err := s.docs.Put(ctx, c.ID, doc.Name, doc.ContentType, doc.Data); err != nil {
		s.log.Printf("chat: store %s/%s: %v", c.ID, doc.Name, err)
		return out, nil
	}
	if url, err := s.docs.GetURL(ctx, c.ID, doc.Name); err == nil {
		out.URL = url
	} else {
		s.log.Printf("chat: url %s/%s: %v", c.ID, doc.Name, err)
	}
	return out, nil
}
