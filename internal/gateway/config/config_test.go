package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PORT", "APP_ENV", "DATABASE_URL", "CHAT_CACHE_SIZE", "AUDIT_VOCABULARY_FILE",
		"LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "MISTRAL_API_KEY", "MISTRAL_MODEL", "MISTRAL_BASE_URL",
		"LLM_TIMEOUT", "LLM_RPS", "LLM_BURST",
		"DOCUMENT_S3_ENDPOINT", "DOCUMENT_MINIO_ENDPOINT", "DOCUMENT_S3_REGION", "DOCUMENT_S3_ACCESS_KEY",
		"DOCUMENT_S3_SECRET_KEY", "DOCUMENT_S3_BUCKET", "DOCUMENT_S3_USE_SSL", "MINIO_ROOT_USER", "MINIO_ROOT_PASSWORD",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := fromEnv(":8080")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ProviderFake, cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1024, cfg.ChatCacheSize)
	assert.False(t, cfg.Document.CanUseS3())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MISTRAL_API_KEY", "k")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("LLM_RPS", "2.5")
	t.Setenv("LLM_BURST", "3")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("DOCUMENT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("DOCUMENT_S3_ACCESS_KEY", "a")
	t.Setenv("DOCUMENT_S3_SECRET_KEY", "s")

	cfg, err := fromEnv(":8080")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, ProviderMistral, cfg.LLM.Provider)
	assert.Equal(t, 15*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2.5, cfg.LLM.RPS)
	assert.Equal(t, 3, cfg.LLM.Burst)
	assert.True(t, cfg.Document.CanUseS3())
	assert.True(t, cfg.Document.UseSSL)
	assert.Equal(t, "audit-documents", cfg.Document.Bucket)
}

func TestFromEnv_Invalid(t *testing.T) {
	for key, val := range map[string]string{
		"LLM_PROVIDER":    "openai",
		"LLM_TIMEOUT":     "soon",
		"LLM_RPS":         "fast",
		"CHAT_CACHE_SIZE": "big",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := fromEnv(":8080")
			assert.Error(t, err)
		})
	}
}
