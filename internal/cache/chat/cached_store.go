package chat

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"auditflow/internal/audit"
	chatrepo "auditflow/internal/gateway/repository/chat"
)

type (
	Store   = chatrepo.Store
	Chat    = chatrepo.Chat
	Message = chatrepo.Message
)

const defaultMaxEntries = 1024

type MetricsSnapshot struct {
	ChatHits       uint64
	ChatMisses     uint64
	MessageHits    uint64
	MessageMisses  uint64
	ListHits       uint64
	ListMisses     uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type Metrics struct {
	chatHits       atomic.Uint64
	chatMisses     atomic.Uint64
	messageHits    atomic.Uint64
	messageMisses  atomic.Uint64
	listHits       atomic.Uint64
	listMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		ChatHits:       m.chatHits.Load(),
		ChatMisses:     m.chatMisses.Load(),
		MessageHits:    m.messageHits.Load(),
		MessageMisses:  m.messageMisses.Load(),
		ListHits:       m.listHits.Load(),
		ListMisses:     m.listMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through LRU in front of a chat Store. Writes go to
// the origin first and then drop the affected entries. A read that overlaps a
// write of the same key does not fill the cache, so an entry never holds data
// older than the origin.
type CachedStore struct {
	origin Store

	chats    *lru.Cache[string, Chat]
	messages *lru.Cache[string, []Message]
	lists    *lru.Cache[string, []Chat]
	metrics  Metrics
	// loads collapses concurrent chat misses into one origin read.
	loads singleflight.Group

	// mu orders fills against invalidations; gens counts invalidations per
	// key slot.
	mu   sync.Mutex
	gens [genSlots]uint64
}

const genSlots = 256

func NewCachedStore(origin Store, maxEntries int) (*CachedStore, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	chats, err := lru.New[string, Chat](maxEntries)
	if err != nil {
		return nil, err
	}
	messages, err := lru.New[string, []Message](maxEntries)
	if err != nil {
		return nil, err
	}
	lists, err := lru.New[string, []Chat](maxEntries)
	if err != nil {
		return nil, err
	}
	return &CachedStore{origin: origin, chats: chats, messages: messages, lists: lists}, nil
}

func slot(k string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(k))
	return int(h.Sum32() % genSlots)
}

func listKey(ownerID string) string { return "list:" + ownerID }

// generation is taken before an origin read and handed to fill.
func (s *CachedStore) generation(k string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[slot(k)]
}

// fill runs add only when no invalidation of k happened since gen was taken.
func (s *CachedStore) fill(k string, gen uint64, add func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[slot(k)] == gen {
		add()
	}
}

// invalidate bumps the generation of k and runs drop under the same lock.
func (s *CachedStore) invalidate(k string, drop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[slot(k)]++
	drop()
}

func (s *CachedStore) invalidateAllLists() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.gens {
		s.gens[i]++
	}
	s.lists.Purge()
}

func (s *CachedStore) CreateChat(ctx context.Context, c Chat) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.CreateChat(ctx, c); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	k := key(c.ID)
	s.invalidate(k, func() { s.chats.Add(k, c) })
	s.invalidate(listKey(c.OwnerID), func() { s.lists.Remove(c.OwnerID) })
	return nil
}

func (s *CachedStore) GetChat(ctx context.Context, id string) (Chat, error) {
	k := key(id)
	if c, ok := s.chats.Get(k); ok {
		s.metrics.chatHits.Add(1)
		return c, nil
	}
	s.metrics.chatMisses.Add(1)
	v, err, _ := s.loads.Do(k, func() (any, error) {
		gen := s.generation(k)
		s.metrics.originReads.Add(1)
		c, err := s.origin.GetChat(ctx, id)
		if err != nil {
			s.metrics.originReadErr.Add(1)
			return Chat{}, err
		}
		s.fill(k, gen, func() { s.chats.Add(k, c) })
		return c, nil
	})
	if err != nil {
		return Chat{}, err
	}
	return v.(Chat), nil
}

func (s *CachedStore) ListChats(ctx context.Context, ownerID string) ([]Chat, error) {
	if list, ok := s.lists.Get(ownerID); ok {
		s.metrics.listHits.Add(1)
		return append([]Chat(nil), list...), nil
	}
	s.metrics.listMisses.Add(1)
	gen := s.generation(listKey(ownerID))
	s.metrics.originReads.Add(1)
	list, err := s.origin.ListChats(ctx, ownerID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.fill(listKey(ownerID), gen, func() { s.lists.Add(ownerID, append([]Chat(nil), list...)) })
	return list, nil
}

func (s *CachedStore) DeleteChat(ctx context.Context, id string) error {
	k := key(id)
	owner := ""
	if c, ok := s.chats.Peek(k); ok {
		owner = c.OwnerID
	}
	s.metrics.originWrites.Add(1)
	err := s.origin.DeleteChat(ctx, id)
	s.invalidate(k, func() {
		s.chats.Remove(k)
		s.messages.Remove(k)
	})
	if owner != "" {
		s.invalidate(listKey(owner), func() { s.lists.Remove(owner) })
	} else {
		s.invalidateAllLists()
	}
	if err != nil {
		s.metrics.originWriteErr.Add(1)
	}
	return err
}

func (s *CachedStore) AppendMessages(ctx context.Context, chatID string, turns ...audit.Turn) ([]Message, error) {
	k := key(chatID)
	s.metrics.originWrites.Add(1)
	added, err := s.origin.AppendMessages(ctx, chatID, turns...)
	s.invalidate(k, func() { s.messages.Remove(k) })
	if err != nil {
		s.metrics.originWriteErr.Add(1)
		return nil, err
	}
	return added, nil
}

func (s *CachedStore) Messages(ctx context.Context, chatID string) ([]Message, error) {
	k := key(chatID)
	if msgs, ok := s.messages.Get(k); ok {
		s.metrics.messageHits.Add(1)
		return append([]Message(nil), msgs...), nil
	}
	s.metrics.messageMisses.Add(1)
	gen := s.generation(k)
	s.metrics.originReads.Add(1)
	msgs, err := s.origin.Messages(ctx, chatID)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	s.fill(k, gen, func() { s.messages.Add(k, append([]Message(nil), msgs...)) })
	return msgs, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}

func key(id string) string { return strings.TrimSpace(id) }
