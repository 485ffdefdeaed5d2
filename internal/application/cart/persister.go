package cart

import (
	"sync"
	"time"

	cartDomain "storefront-sync/internal/domain/cart"
)

// DefaultPersistDelay 為快照防抖寫入的合併窗口。
const DefaultPersistDelay = 300 * time.Millisecond

// Persister 將連續的快照寫入合併為一次落盤，避免快速操作下的寫入放大。
// 只保留最後一份待寫快照；Close 會取消計時器並送出未寫入的內容。
type Persister struct {
	save  func(cartDomain.Snapshot)
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *cartDomain.Snapshot
	closed  bool
}

// NewPersister 建立防抖寫入器；delay <= 0 時採用預設 300ms。
// save 於計時器到期時在背景 goroutine 被呼叫。
func NewPersister(delay time.Duration, save func(cartDomain.Snapshot)) *Persister {
	if delay <= 0 {
		delay = DefaultPersistDelay
	}
	return &Persister{save: save, delay: delay}
}

// Queue 排入一份快照，重置合併窗口；較早排入但尚未寫出的快照被取代。
func (p *Persister) Queue(snap cartDomain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.pending = &snap
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.delay, p.flush)
}

// Cancel 丟棄待寫入的快照並停止計時器。
func (p *Persister) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Flush 立即寫出待寫入的快照（若有）。
func (p *Persister) Flush() {
	p.flush()
}

// Close 停止後續排程並送出未寫入的快照。
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	snap := p.pending
	p.pending = nil
	p.mu.Unlock()

	if snap != nil {
		p.save(*snap)
	}
}

func (p *Persister) flush() {
	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.mu.Unlock()

	if snap != nil {
		p.save(*snap)
	}
}
