package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditflow/internal/gateway/config"
	"auditflow/internal/gateway/repository/document"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Port:          ":0",
		Env:           "test",
		ChatCacheSize: 16,
		LLM:           config.LLMConfig{Provider: config.ProviderFake, Timeout: time.Second},
	}
}

func TestBuild_InMemory(t *testing.T) {
	a, err := build(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.NotNil(t, a.stores.cache)
	assert.IsType(t, &document.MemoryStore{}, a.stores.documents)
	assert.Equal(t, "FakeLLM", a.llm.Name())
	require.NoError(t, a.Shutdown(context.Background()))
}

func TestBuild_MissingAPIKey(t *testing.T) {
	cfg := memoryConfig()
	cfg.LLM.Provider = config.ProviderMistral
	_, err := build(context.Background(), cfg)
	assert.ErrorContains(t, err, "MISTRAL_API_KEY")
}

func TestBuild_VocabularyFile(t *testing.T) {
	cfg := memoryConfig()
	cfg.VocabularyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := build(context.Background(), cfg)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "vocab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locale: fr-test\n"), 0o644))
	cfg.VocabularyFile = path
	a, err := build(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, a.Shutdown(context.Background()))
}
