// internal/service/order/domain/event.go
package domain

import "time"

// EventType 是订单事件的类型
type EventType string

const (
	EventOrderCreated   EventType = "ORDER_CREATED"
	EventOrderConfirmed EventType = "ORDER_CONFIRMED"
	EventOrderCancelled EventType = "ORDER_CANCELLED"
)

// 库存释放失败发生的阶段
const (
	ReleasePhaseCompensation = "compensation"
	ReleasePhaseCancellation = "cancellation"
)

// EventItem 是事件中的订单行摘要
type EventItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderEvent 是订单生命周期事件
type OrderEvent struct {
	Type       EventType   `json:"type"`
	OrderID    string      `json:"orderId"`
	CustomerID string      `json:"customerId"`
	Status     Status      `json:"status"`
	OrderTotal float64     `json:"orderTotal"`
	Currency   string      `json:"currency"`
	Items      []EventItem `json:"items"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// NewOrderEvent 从订单构造一个事件
func NewOrderEvent(eventType EventType, order *Order, at time.Time) *OrderEvent {
	items := make([]EventItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, EventItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return &OrderEvent{
		Type:       eventType,
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		Status:     order.Status,
		OrderTotal: order.OrderTotal,
		Currency:   order.Currency,
		Items:      items,
		OccurredAt: at,
	}
}

// InventoryReleaseFailed 表示一次补偿释放最终失败，库存可能被超额预占，需要对账处理。
type InventoryReleaseFailed struct {
	OrderID    string    `json:"orderId"`
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	Phase      string    `json:"phase"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
}
