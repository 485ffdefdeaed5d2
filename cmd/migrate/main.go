package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"storefront-sync/internal/infrastructure/config"

	_ "github.com/lib/pq"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "組態檔路徑")
	dir := flag.String("dir", "db/migrations", "migration 目錄")
	flag.Parse()

	if err := run(*cfgPath, *dir); err != nil {
		log.Fatalf("[Migrate] %v", err)
	}
	fmt.Println("snapshot/session schema 就緒")
}

func run(cfgPath, dir string) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return fmt.Errorf("讀取組態: %w", err)
	}

	dsn := cfg.DB.DSN
	if dsn == "" {
		dsn = os.Getenv("DB_DSN")
	}
	if dsn == "" {
		return fmt.Errorf("db.dsn 與 DB_DSN 皆未設定，無資料庫可遷移")
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("列舉 %s: %w", dir, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%s 下沒有 .sql 檔", dir)
	}
	sort.Strings(files)

	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("開啟資料庫: %w", err)
	}
	defer pool.Close()

	for _, f := range files {
		ddl, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("讀取 %s: %w", f, err)
		}
		start := time.Now()
		if _, err := pool.Exec(string(ddl)); err != nil {
			return fmt.Errorf("套用 %s: %w", filepath.Base(f), err)
		}
		log.Printf("[Migrate] %s 套用完成 (%v)", filepath.Base(f), time.Since(start).Round(time.Millisecond))
	}
	return nil
}
