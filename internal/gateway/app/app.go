package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"auditflow/internal/audit"
	"auditflow/internal/gateway/config"
	"auditflow/internal/gateway/handler"
	"auditflow/internal/gateway/server"
	chatsvc "auditflow/internal/gateway/service/chat"
	"auditflow/internal/llm"
	"auditflow/internal/workflow"
)

type App struct {
	server *server.Server
	stores *gatewayStores
	llm    llm.Gateway
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return build(ctx, cfg)
}

func build(ctx context.Context, cfg *config.Config) (*App, error) {
	vocab := audit.DefaultVocabulary()
	if cfg.VocabularyFile != "" {
		v, err := audit.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load vocabulary: %w", err)
		}
		vocab = v
		log.Printf("audit vocabulary: %s (locale=%s)", cfg.VocabularyFile, vocab.Locale)
	}

	// Dependencies
	stores, err := initStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := newGateway(ctx, cfg.LLM)
	if err != nil {
		stores.close()
		return nil, err
	}
	log.Printf("llm gateway: %s timeout=%s rps=%g", gen.Name(), cfg.LLM.Timeout, cfg.LLM.RPS)

	pipeline := workflow.New(audit.NewClassifier(vocab), gen)
	chatService := chatsvc.New(chatsvc.Deps{
		Chats:     stores.chats,
		Documents: stores.documents,
		Pipeline:  pipeline,
	})

	// Routing & Server
	mux := server.NewMux(handler.NewChatHandler(chatService), chatService)
	return &App{
		server: server.New(cfg.Port, mux),
		stores: stores,
		llm:    gen,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.stores.cache != nil {
		m := a.stores.cache.Metrics()
		log.Printf("chat cache: chat_hits=%d chat_misses=%d message_hits=%d message_misses=%d",
			m.ChatHits, m.ChatMisses, m.MessageHits, m.MessageMisses)
	}
	return errors.Join(err, a.llm.Close(), a.stores.close())
}
