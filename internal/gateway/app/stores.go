package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	chatcache "auditflow/internal/cache/chat"
	"auditflow/internal/gateway/config"
	chatrepo "auditflow/internal/gateway/repository/chat"
	"auditflow/internal/gateway/repository/document"
)

type gatewayStores struct {
	chats     chatrepo.Store
	documents document.Store
	cache     *chatcache.CachedStore
	closers   []io.Closer
}

func (s *gatewayStores) close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func initStores(ctx context.Context, cfg *config.Config) (*gatewayStores, error) {
	stores := &gatewayStores{}

	var origin chatrepo.Store
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := chatrepo.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open chat store: %w", err)
		}
		stores.closers = append(stores.closers, pg)
		origin = pg
		log.Printf("chat store: postgres")
	} else {
		origin = chatrepo.NewMemoryStore()
		log.Printf("chat store: in-memory")
	}

	cached, err := chatcache.NewCachedStore(origin, cfg.ChatCacheSize)
	if err != nil {
		_ = stores.close()
		return nil, fmt.Errorf("failed to build chat cache: %w", err)
	}
	stores.chats = cached
	stores.cache = cached

	docs, err := chooseDocumentStore(cfg)
	if err != nil {
		_ = stores.close()
		return nil, err
	}
	stores.documents = docs
	return stores, nil
}

func chooseDocumentStore(cfg *config.Config) (document.Store, error) {
	if !cfg.Document.CanUseS3() {
		if cfg.Document.Enabled {
			log.Printf("document store: using in-memory fallback (s3 config incomplete)")
		}
		return document.NewMemoryStore(), nil
	}
	s3Cfg := document.S3Config{
		Endpoint:  cfg.Document.Endpoint,
		Region:    cfg.Document.Region,
		AccessKey: cfg.Document.AccessKey,
		SecretKey: cfg.Document.SecretKey,
		Bucket:    cfg.Document.Bucket,
		UseSSL:    cfg.Document.UseSSL,
	}
	s3Store, err := document.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize document s3 store: %w", err)
	}
	log.Printf("document store: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	return s3Store, nil
}
