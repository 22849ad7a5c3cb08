// internal/service/inventory/domain/ledger.go
package domain

import "context"

// Ledger 是库存台账。Reserve 和 Release 对同一商品必须是线性一致的：
// 检查和修改在一次原子操作中完成，不同商品之间互不加锁。
type Ledger interface {
	Reserve(ctx context.Context, productID string, qty int) (*Inventory, error)
	Release(ctx context.Context, productID string, qty int) (*Inventory, error)
	SetStock(ctx context.Context, productID string, stockQty int) (*Inventory, error)
	Get(ctx context.Context, productID string) (*Inventory, error)
}

// ProductCatalog 提供商品的只读查询。
type ProductCatalog interface {
	FindByProductID(ctx context.Context, productID string) (*Product, error)
}
