package interfaces

import (
	"time"

	"fulfillment/internal/service/order/domain"
)

// OrderItemResponse 是订单行的对外表示。
type OrderItemResponse struct {
	ProductID   string  `json:"productId"`
	SKU         string  `json:"sku"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	LineTotal   float64 `json:"lineTotal"`
}

// OrderResponse 是订单的对外表示。
type OrderResponse struct {
	OrderID    string              `json:"orderId"`
	CustomerID string              `json:"customerId"`
	Status     domain.Status       `json:"status"`
	Items      []OrderItemResponse `json:"items"`
	OrderTotal float64             `json:"orderTotal"`
	Currency   string              `json:"currency"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// PageResponse 是分页查询的响应体。
type PageResponse struct {
	Content       []OrderResponse `json:"content"`
	Page          int             `json:"page"`
	Size          int             `json:"size"`
	TotalElements int64           `json:"totalElements"`
	TotalPages    int             `json:"totalPages"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return OrderResponse{
		OrderID:    o.OrderID,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Items:      items,
		OrderTotal: o.OrderTotal,
		Currency:   o.Currency,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

func toPageResponse(p *domain.Page) PageResponse {
	content := make([]OrderResponse, 0, len(p.Content))
	for _, o := range p.Content {
		content = append(content, toOrderResponse(o))
	}
	return PageResponse{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
	}
}
