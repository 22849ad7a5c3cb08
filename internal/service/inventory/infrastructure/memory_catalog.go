package infrastructure

import (
	"context"
	"sync"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/service/inventory/domain"
)

// MemoryCatalog 是内存中的商品目录。
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{products: make(map[string]domain.Product)}
}

// Put 写入一个商品。
func (c *MemoryCatalog) Put(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ProductID] = p
}

func (c *MemoryCatalog) FindByProductID(_ context.Context, productID string) (*domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[productID]
	if !ok {
		return nil, apperr.New(apperr.KindProductNotFound, "product not found: %s", productID)
	}
	return &p, nil
}
