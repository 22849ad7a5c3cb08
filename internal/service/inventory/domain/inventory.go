// internal/service/inventory/domain/inventory.go
package domain

import (
	"time"

	"fulfillment/internal/pkg/apperr"
)

// Inventory 是单个商品的库存记录。
// 不变量：0 <= ReservedQty <= StockQty。
type Inventory struct {
	ProductID   string
	StockQty    int
	ReservedQty int
	UpdatedAt   time.Time
}

// AvailableQty 返回可售数量，最小为 0。
func (i Inventory) AvailableQty() int {
	if avail := i.StockQty - i.ReservedQty; avail > 0 {
		return avail
	}
	return 0
}

// Reserve 在可售数量足够时增加预占量，否则不做任何修改。
func (i *Inventory) Reserve(qty int, now time.Time) error {
	if err := ValidateQuantity(qty); err != nil {
		return err
	}
	if i.AvailableQty() < qty {
		return apperr.New(apperr.KindInsufficientStock,
			"insufficient stock for product %s: requested %d, available %d", i.ProductID, qty, i.AvailableQty())
	}
	i.ReservedQty += qty
	i.UpdatedAt = now
	return nil
}

// Release 归还预占量。释放超过当前预占量属于调用方错误。
func (i *Inventory) Release(qty int, now time.Time) error {
	if err := ValidateQuantity(qty); err != nil {
		return err
	}
	if qty > i.ReservedQty {
		return apperr.New(apperr.KindInvalidRelease,
			"cannot release %d units of product %s: only %d reserved", qty, i.ProductID, i.ReservedQty)
	}
	i.ReservedQty -= qty
	i.UpdatedAt = now
	return nil
}

// SetStock 修改总库存，不触碰预占量。新库存不能低于已预占的数量。
func (i *Inventory) SetStock(stockQty int, now time.Time) error {
	if err := ValidateStock(stockQty); err != nil {
		return err
	}
	if stockQty < i.ReservedQty {
		return apperr.New(apperr.KindInvalidArgument,
			"stock quantity %d for product %s is below reserved quantity %d", stockQty, i.ProductID, i.ReservedQty)
	}
	i.StockQty = stockQty
	i.UpdatedAt = now
	return nil
}

// ValidateQuantity 校验预占/释放数量。
func ValidateQuantity(qty int) error {
	if qty <= 0 {
		return apperr.New(apperr.KindInvalidArgument, "quantity must be positive, got %d", qty)
	}
	return nil
}

// ValidateStock 校验库存数量。
func ValidateStock(stockQty int) error {
	if stockQty < 0 {
		return apperr.New(apperr.KindInvalidArgument, "stock quantity must not be negative, got %d", stockQty)
	}
	return nil
}

// NotFound 构造库存记录不存在的错误。
func NotFound(productID string) error {
	return apperr.New(apperr.KindNotFound, "inventory not found for product %s", productID)
}
