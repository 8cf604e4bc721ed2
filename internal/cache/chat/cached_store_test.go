package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditflow/internal/audit"
	chatrepo "auditflow/internal/gateway/repository/chat"
)

var t0 = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func newCached(t *testing.T) *CachedStore {
	t.Helper()
	s, err := NewCachedStore(chatrepo.NewMemoryStore(), 16)
	require.NoError(t, err)
	return s
}

func TestCachedStore_MessagesReadThrough(t *testing.T) {
	ctx := context.Background()
	s := newCached(t)
	require.NoError(t, s.CreateChat(ctx, Chat{ID: "c", OwnerID: "u", CreatedAt: t0}))

	_, err := s.AppendMessages(ctx, "c", audit.UserTurn("a", t0))
	require.NoError(t, err)

	first, err := s.Messages(ctx, "c")
	require.NoError(t, err)
	require.Len(t, first, 1)

	again, err := s.Messages(ctx, "c")
	require.NoError(t, err)
	require.Len(t, again, 1)

	// Appends drop the cached list; the next read goes to the origin.
	_, err = s.AppendMessages(ctx, "c", audit.AssistantTurn("b", t0))
	require.NoError(t, err)
	second, err := s.Messages(ctx, "c")
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "msg_2", second[1].ID)

	m := s.Metrics()
	assert.Equal(t, uint64(2), m.MessageMisses)
	assert.Equal(t, uint64(1), m.MessageHits)
}

func TestCachedStore_ChatAndListInvalidation(t *testing.T) {
	ctx := context.Background()
	s := newCached(t)
	require.NoError(t, s.CreateChat(ctx, Chat{ID: "c1", OwnerID: "u", CreatedAt: t0}))

	got, err := s.GetChat(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "u", got.OwnerID)
	assert.Equal(t, uint64(1), s.Metrics().ChatHits, "created chats are cached")

	list, err := s.ListChats(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.CreateChat(ctx, Chat{ID: "c2", OwnerID: "u", CreatedAt: t0.Add(time.Minute)}))
	list, err = s.ListChats(ctx, "u")
	require.NoError(t, err)
	require.Len(t, list, 2, "create drops the owner's list")

	require.NoError(t, s.DeleteChat(ctx, "c1"))
	_, err = s.GetChat(ctx, "c1")
	assert.ErrorIs(t, err, chatrepo.ErrNotFound)
	_, err = s.Messages(ctx, "c1")
	assert.ErrorIs(t, err, chatrepo.ErrNotFound)
	list, err = s.ListChats(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	m := s.Metrics()
	assert.Equal(t, uint64(3), m.ListMisses)
	assert.Equal(t, uint64(2), m.OriginReadErr)
}

// slowOrigin blocks GetChat until release is closed.
type slowOrigin struct {
	Store
	release chan struct{}
}

func (o slowOrigin) GetChat(ctx context.Context, id string) (Chat, error) {
	<-o.release
	return o.Store.GetChat(ctx, id)
}

func TestCachedStore_ConcurrentMissesShareOneRead(t *testing.T) {
	ctx := context.Background()
	mem := chatrepo.NewMemoryStore()
	require.NoError(t, mem.CreateChat(ctx, Chat{ID: "c", OwnerID: "u", CreatedAt: t0}))
	origin := slowOrigin{Store: mem, release: make(chan struct{})}
	s, err := NewCachedStore(origin, 16)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := s.GetChat(ctx, "c")
			assert.NoError(t, err)
			assert.Equal(t, "u", c.OwnerID)
		}()
	}
	require.Eventually(t, func() bool { return s.Metrics().ChatMisses == n }, time.Second, time.Millisecond)
	// Let the last goroutines reach the flight before the origin answers.
	time.Sleep(20 * time.Millisecond)
	close(origin.release)
	wg.Wait()

	assert.Equal(t, uint64(1), s.Metrics().OriginReads)
}

// stalledOrigin answers reads from the origin, then waits on release before
// returning them, so a write can land between the read and the cache fill.
type stalledOrigin struct {
	Store
	read    chan struct{}
	release chan struct{}
}

func newStalledOrigin(mem Store) stalledOrigin {
	return stalledOrigin{Store: mem, read: make(chan struct{}, 1), release: make(chan struct{})}
}

func (o stalledOrigin) Messages(ctx context.Context, chatID string) ([]Message, error) {
	msgs, err := o.Store.Messages(ctx, chatID)
	o.read <- struct{}{}
	<-o.release
	return msgs, err
}

func (o stalledOrigin) GetChat(ctx context.Context, id string) (Chat, error) {
	c, err := o.Store.GetChat(ctx, id)
	o.read <- struct{}{}
	<-o.release
	return c, err
}

func TestCachedStore_AppendDuringMessagesReadIsNotLost(t *testing.T) {
	ctx := context.Background()
	mem := chatrepo.NewMemoryStore()
	require.NoError(t, mem.CreateChat(ctx, Chat{ID: "c", OwnerID: "u", CreatedAt: t0}))
	origin := newStalledOrigin(mem)
	s, err := NewCachedStore(origin, 16)
	require.NoError(t, err)

	done := make(chan []Message)
	go func() {
		msgs, err := s.Messages(ctx, "c")
		assert.NoError(t, err)
		done <- msgs
	}()
	<-origin.read

	_, err = s.AppendMessages(ctx, "c", audit.UserTurn("q", t0), audit.AssistantTurn("r", t0))
	require.NoError(t, err)
	close(origin.release)
	assert.Empty(t, <-done, "the overlapping read saw the chat before the append")

	go func() { <-origin.read }()
	got, err := s.Messages(ctx, "c")
	require.NoError(t, err)
	want, err := mem.Messages(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	require.Len(t, got, 2)

	_, err = s.AppendMessages(ctx, "c", audit.UserTurn("q2", t0), audit.AssistantTurn("r2", t0))
	require.NoError(t, err)
	go func() { <-origin.read }()
	got, err = s.Messages(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestCachedStore_DeleteDuringChatReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	mem := chatrepo.NewMemoryStore()
	require.NoError(t, mem.CreateChat(ctx, Chat{ID: "c", OwnerID: "u", CreatedAt: t0}))
	origin := newStalledOrigin(mem)
	s, err := NewCachedStore(origin, 16)
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		_, err := s.GetChat(ctx, "c")
		done <- err
	}()
	<-origin.read

	require.NoError(t, s.DeleteChat(ctx, "c"))
	close(origin.release)
	require.NoError(t, <-done)

	go func() { <-origin.read }()
	_, err = s.GetChat(ctx, "c")
	assert.ErrorIs(t, err, chatrepo.ErrNotFound)
	assert.Equal(t, uint64(0), s.Metrics().ChatHits)
}
