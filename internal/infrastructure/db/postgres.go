package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"storefront-sync/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// Connect 建立 PostgreSQL 連線池供快照與會話儲存使用。
// DSN 未設定時回傳 (nil, nil)，呼叫端據此退回檔案或記憶體儲存。
func Connect(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	pool, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxIdleTime(cfg.MaxIdleTime)

	if err := ping(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Printf("[DB] postgres pool ready (max_open=%d max_idle=%d)", cfg.MaxOpenConns, cfg.MaxIdleConns)
	return pool, nil
}

// ping 在呼叫端未帶期限時補上 5 秒上限，避免啟動期無限阻塞。
func ping(ctx context.Context, pool *sql.DB) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	return pool.PingContext(ctx)
}
