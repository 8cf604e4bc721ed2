package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "c1", "constat.xlsx", "x", []byte("a")))
	require.NoError(t, s.Put(ctx, "c1", "/rapport.pdf", "x", []byte("b")))
	require.NoError(t, s.Put(ctx, "c2", "constat.xlsx", "x", []byte("c")))
	assert.Error(t, s.Put(ctx, "", "x", "", nil))
	assert.Error(t, s.Put(ctx, "c1", " ", "", nil))

	got, err := s.Get(ctx, "c1", "rapport.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)

	_, err = s.Get(ctx, "c1", "cadrage.xlsx")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := s.List(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"constat.xlsx", "rapport.pdf"}, names)

	url, err := s.GetURL(ctx, "c1", "rapport.pdf")
	require.NoError(t, err)
	assert.Empty(t, url)

	require.NoError(t, s.DeleteAll(ctx, "c1"))
	names, err = s.List(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, names)
	other, err := s.List(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestS3Config(t *testing.T) {
	assert.False(t, S3Config{}.Enabled())
	assert.True(t, S3Config{Endpoint: "localhost:9000", Bucket: "docs"}.Enabled())

	_, err := NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "docs"})
	assert.Error(t, err, "credentials are required")

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "docs", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	url, err := s.GetURL(context.Background(), "c1", "rapport.pdf")
	require.NoError(t, err)
	assert.Contains(t, url, "/docs/c1/rapport.pdf")
	assert.Contains(t, url, "X-Amz-Signature")
}
