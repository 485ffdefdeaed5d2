package cart

import (
	"context"
	"log"
	"time"
)

// RefreshWorker 定期重新載入權威購物車，維持本地快照新鮮。
type RefreshWorker struct {
	engine   *Engine
	auth     AuthState
	interval time.Duration
	stopChan chan struct{}
}

// NewRefreshWorker 建立背景工作者；interval <= 0 時採用 5 分鐘。
func NewRefreshWorker(engine *Engine, auth AuthState, interval time.Duration) *RefreshWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &RefreshWorker{
		engine:   engine,
		auth:     auth,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start 啟動迴圈。
func (w *RefreshWorker) Start() {
	log.Printf("[Worker] Starting cart refresh worker with interval: %v", w.interval)
	ticker := time.NewTicker(w.interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop 停止迴圈。
func (w *RefreshWorker) Stop() {
	close(w.stopChan)
}

func (w *RefreshWorker) runOnce() {
	if !w.auth.IsAuthenticated() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := w.engine.RefreshCart(ctx); err != nil {
		log.Printf("[Worker] cart refresh failed: %v", err)
	}
}
