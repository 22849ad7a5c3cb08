package port

import "context"

// Product 是下单时从库存服务读取的商品快照
type Product struct {
	ProductID string
	SKU       string
	Name      string
	Price     float64
	Currency  string
	Active    bool
}

// InventoryService 是库存服务的出站端口。
type InventoryService interface {
	// FetchProduct 查询商品，失败时返回 ProductNotFound 或 ServiceUnavailable。
	FetchProduct(ctx context.Context, productID string) (*Product, error)

	// Reserve 预占库存，库存不足返回 OutOfStock。
	Reserve(ctx context.Context, productID string, qty int) error

	// Release 是 Reserve 的补偿操作。实现会记录失败日志并返回错误，
	// 调用方在补偿和取消路径上只记录、不向上抛出。
	Release(ctx context.Context, productID string, qty int) error
}
