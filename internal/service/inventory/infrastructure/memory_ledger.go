// internal/service/inventory/infrastructure/memory_ledger.go
package infrastructure

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/service/inventory/domain"
)

// MemoryLedger 是按商品寻址的内存库存台账。
// map 本身由 mu 保护，每条记录有自己的锁，因此不同商品的操作互不阻塞。
type MemoryLedger struct {
	mu    sync.RWMutex
	slots map[string]*ledgerSlot
	now   func() time.Time
}

type ledgerSlot struct {
	mu  sync.Mutex
	inv domain.Inventory
}

// NewMemoryLedger 创建一个空台账。
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{slots: make(map[string]*ledgerSlot), now: time.Now}
}

// Put 创建或覆盖一条库存记录，供启动时初始化和测试使用。
func (l *MemoryLedger) Put(productID string, stockQty, reservedQty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slots[productID] = &ledgerSlot{inv: domain.Inventory{
		ProductID:   productID,
		StockQty:    stockQty,
		ReservedQty: reservedQty,
		UpdatedAt:   l.now(),
	}}
}

func (l *MemoryLedger) slot(productID string) (*ledgerSlot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.slots[productID]
	return s, ok
}

// mutate 在单条记录的锁内对副本执行 fn，成功后才写回，失败时记录保持不变。
func (l *MemoryLedger) mutate(productID string, fn func(inv *domain.Inventory) error) (*domain.Inventory, error) {
	s, ok := l.slot(productID)
	if !ok {
		return nil, domain.NotFound(productID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.inv
	if err := fn(&next); err != nil {
		return nil, err
	}
	s.inv = next
	out := next
	return &out, nil
}

func (l *MemoryLedger) Reserve(_ context.Context, productID string, qty int) (*domain.Inventory, error) {
	return l.mutate(productID, func(inv *domain.Inventory) error { return inv.Reserve(qty, l.now()) })
}

func (l *MemoryLedger) Release(_ context.Context, productID string, qty int) (*domain.Inventory, error) {
	return l.mutate(productID, func(inv *domain.Inventory) error { return inv.Release(qty, l.now()) })
}

func (l *MemoryLedger) SetStock(_ context.Context, productID string, stockQty int) (*domain.Inventory, error) {
	return l.mutate(productID, func(inv *domain.Inventory) error { return inv.SetStock(stockQty, l.now()) })
}

func (l *MemoryLedger) Get(_ context.Context, productID string) (*domain.Inventory, error) {
	s, ok := l.slot(productID)
	if !ok {
		return nil, domain.NotFound(productID)
	}
	s.mu.Lock()
	out := s.inv
	s.mu.Unlock()
	return &out, nil
}
