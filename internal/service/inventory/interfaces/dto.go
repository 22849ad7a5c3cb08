package interfaces

import (
	"time"

	"fulfillment/internal/service/inventory/domain"
)

// InventoryResponse 是库存记录的对外表示。
type InventoryResponse struct {
	ProductID    string    `json:"productId"`
	StockQty     int       `json:"stockQty"`
	ReservedQty  int       `json:"reservedQty"`
	AvailableQty int       `json:"availableQty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ProductResponse 是商品的对外表示。
type ProductResponse struct {
	ProductID   string  `json:"productId"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Active      bool    `json:"active"`
}

// SetStockRequest 是修改库存的请求体。
type SetStockRequest struct {
	StockQty *int `json:"stockQty"`
}

func toInventoryResponse(inv *domain.Inventory) InventoryResponse {
	return InventoryResponse{
		ProductID:    inv.ProductID,
		StockQty:     inv.StockQty,
		ReservedQty:  inv.ReservedQty,
		AvailableQty: inv.AvailableQty(),
		UpdatedAt:    inv.UpdatedAt,
	}
}

func toProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ProductID:   p.ProductID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Currency:    p.Currency,
		Active:      p.Active,
	}
}
