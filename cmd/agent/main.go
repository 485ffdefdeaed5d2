package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	authApp "storefront-sync/internal/application/auth"
	cartApp "storefront-sync/internal/application/cart"
	wishlistApp "storefront-sync/internal/application/wishlist"
	cartDomain "storefront-sync/internal/domain/cart"
	"storefront-sync/internal/infra/memory"
	authinfra "storefront-sync/internal/infrastructure/auth"
	"storefront-sync/internal/infrastructure/config"
	"storefront-sync/internal/infrastructure/db"
	"storefront-sync/internal/infrastructure/persistence/file"
	"storefront-sync/internal/infrastructure/persistence/postgres"
	"storefront-sync/internal/infrastructure/storefront"
	httpapi "storefront-sync/internal/interface/http"
)

// store 同時涵蓋快照與 session 兩個儲存接口。
type store interface {
	cartApp.SnapshotStore
	authApp.SessionStore
}

func buildStore(ctx context.Context, cfg config.Config) (store, *sql.DB) {
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Printf("warning: database connection failed, falling back to local store: %v", err)
	} else if pool != nil {
		log.Printf("database connected successfully")
		return postgres.NewStore(pool), pool
	}

	fileStore, err := file.NewStore(cfg.State.Dir, cfg.State.SealKey)
	if err != nil {
		log.Printf("warning: file store unavailable (%v); state will not survive restarts", err)
		return memory.NewStore(), nil
	}
	log.Printf("using file store at %s", cfg.State.Dir)
	return fileStore, nil
}

func main() {
	cfg, err := config.LoadFromFile("config.yaml")
	if err != nil {
		log.Fatalf("CRITICAL: load config failed: %v", err)
	}
	log.Printf("configuration loaded (HTTP_ADDR=%s API=%s)", cfg.HTTP.Addr, cfg.API.BaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, pool := buildStore(ctx, cfg)
	if pool != nil {
		defer pool.Close()
	}

	client := storefront.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	tokens := authApp.NewManager(client, authinfra.NewDecoder(), st, cfg.Sync.Profile, cfg.Auth.ExpiryBuffer)
	client.SetAuthorizer(tokens)

	persister := cartApp.NewPersister(cfg.Sync.PersistDelay, func(snap cartDomain.Snapshot) {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := st.SaveSnapshot(saveCtx, cfg.Sync.Profile, snap); err != nil {
			log.Printf("[CartSync] persist snapshot failed: %v", err)
		}
	})
	engine := cartApp.NewEngine(client, tokens, st, persister, cfg.Sync.Profile, cfg.Sync.MergeCooldown)
	defer engine.Close()
	wishes := wishlistApp.NewService(client)

	if err := tokens.Restore(ctx); err != nil {
		log.Printf("session restore skipped: %v", err)
	}
	if err := engine.Restore(ctx); err != nil {
		log.Printf("cart restore skipped: %v", err)
	}

	// 登入轉換驅動合併與清理；處理器在背景執行，避免擋住登入流程。
	unsubscribe := tokens.Subscribe(func(ev authApp.Event) {
		switch ev {
		case authApp.EventLogin:
			go func() {
				evCtx, evCancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer evCancel()
				if err := engine.MergeOnLogin(evCtx); err != nil {
					log.Printf("[CartSync] merge on login failed: %v", err)
				}
				if err := wishes.Refresh(evCtx); err != nil {
					log.Printf("[Wishlist] refresh on login failed: %v", err)
				}
			}()
		case authApp.EventLogout:
			go func() {
				evCtx, evCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer evCancel()
				engine.DropLocal(evCtx)
				wishes.Drop()
			}()
		}
	})
	defer unsubscribe()

	worker := cartApp.NewRefreshWorker(engine, tokens, cfg.Sync.RefreshInterval)
	worker.Start()
	defer worker.Stop()

	server := httpapi.NewServer(client, tokens, engine, wishes, pool)
	log.Printf("starting HTTP server on %s", cfg.HTTP.Addr)
	if err := http.ListenAndServe(cfg.HTTP.Addr, server.Handler()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
