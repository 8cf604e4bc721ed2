package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	ChatCacheSize int
	// VocabularyFile overrides the built-in French keyword tables when set.
	VocabularyFile string
	LLM            LLMConfig
	Document       DocumentConfig
}

type LLMConfig struct {
	Provider       string
	GeminiAPIKey   string
	GeminiModel    string
	MistralAPIKey  string
	MistralModel   string
	MistralBaseURL string
	Timeout        time.Duration
	RPS            float64
	Burst          int
}

type DocumentConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CanUseS3 reports whether every setting needed to reach the bucket is set.
func (c DocumentConfig) CanUseS3() bool {
	return c.Enabled &&
		strings.TrimSpace(c.Endpoint) != "" &&
		strings.TrimSpace(c.AccessKey) != "" &&
		strings.TrimSpace(c.SecretKey) != "" &&
		strings.TrimSpace(c.Bucket) != ""
}

const (
	ProviderGemini  = "gemini"
	ProviderMistral = "mistral"
	ProviderFake    = "fake"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	flag.Parse()
	return fromEnv(*port)
}

func fromEnv(port string) (*Config, error) {
	if envPort := env("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			port = envPort
		} else {
			port = ":" + envPort
		}
	}

	appEnv := firstNonEmpty(env("APP_ENV"), "local")

	llm, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}
	cacheSize, err := intEnv("CHAT_CACHE_SIZE", 1024)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           port,
		Env:            appEnv,
		DatabaseURL:    env("DATABASE_URL"),
		ChatCacheSize:  cacheSize,
		VocabularyFile: env("AUDIT_VOCABULARY_FILE"),
		LLM:            llm,
		Document:       loadDocumentConfig(appEnv),
	}, nil
}

func loadLLMConfig() (LLMConfig, error) {
	cfg := LLMConfig{
		Provider:       strings.ToLower(env("LLM_PROVIDER")),
		GeminiAPIKey:   env("GEMINI_API_KEY"),
		GeminiModel:    env("GEMINI_MODEL"),
		MistralAPIKey:  env("MISTRAL_API_KEY"),
		MistralModel:   env("MISTRAL_MODEL"),
		MistralBaseURL: env("MISTRAL_BASE_URL"),
		Timeout:        60 * time.Second,
	}
	if cfg.Provider == "" {
		// Pick whichever key is present, the fake client otherwise.
		switch {
		case cfg.MistralAPIKey != "":
			cfg.Provider = ProviderMistral
		case cfg.GeminiAPIKey != "":
			cfg.Provider = ProviderGemini
		default:
			cfg.Provider = ProviderFake
		}
	}
	switch cfg.Provider {
	case ProviderGemini, ProviderMistral, ProviderFake:
	default:
		return LLMConfig{}, fmt.Errorf("config: unknown LLM_PROVIDER %q", cfg.Provider)
	}

	if raw := env("LLM_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("config: LLM_TIMEOUT: %w", err)
		}
		cfg.Timeout = d
	}
	if raw := env("LLM_RPS"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("config: LLM_RPS: %w", err)
		}
		cfg.RPS = v
	}
	burst, err := intEnv("LLM_BURST", 1)
	if err != nil {
		return LLMConfig{}, err
	}
	cfg.Burst = burst
	return cfg, nil
}

func loadDocumentConfig(appEnv string) DocumentConfig {
	local := strings.EqualFold(appEnv, "local")
	endpoint := env("DOCUMENT_S3_ENDPOINT")
	if local {
		endpoint = firstNonEmpty(endpoint, env("DOCUMENT_MINIO_ENDPOINT"))
	}
	return DocumentConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(env("DOCUMENT_S3_REGION"), "us-east-1"),
		AccessKey: firstNonEmpty(env("DOCUMENT_S3_ACCESS_KEY"), env("MINIO_ROOT_USER")),
		SecretKey: firstNonEmpty(env("DOCUMENT_S3_SECRET_KEY"), env("MINIO_ROOT_PASSWORD")),
		Bucket:    firstNonEmpty(env("DOCUMENT_S3_BUCKET"), "audit-documents"),
		UseSSL:    resolveUseSSL(local),
	}
}

func resolveUseSSL(local bool) bool {
	if local {
		return false
	}
	raw := env("DOCUMENT_S3_USE_SSL")
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnv(key string, def int) (int, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
