// internal/service/order/domain/order.go
package domain

import (
	"math"
	"time"

	"fulfillment/internal/pkg/apperr"
)

// OrderItem 是订单行。单价在下单时锁定，之后不再变化。
type OrderItem struct {
	ProductID   string
	SKU         string
	ProductName string
	Quantity    int
	UnitPrice   float64
	LineTotal   float64
}

// Order 是订单聚合的根实体。创建后只有 Status 和 UpdatedAt 会变化。
type Order struct {
	OrderID    string
	CustomerID string
	Status     Status
	Items      []OrderItem
	OrderTotal float64
	Currency   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrderItem 根据单价和数量计算行金额。
func NewOrderItem(productID, sku, productName string, quantity int, unitPrice float64) OrderItem {
	return OrderItem{
		ProductID:   productID,
		SKU:         sku,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   roundCents(unitPrice * float64(quantity)),
	}
}

// NewOrder 是订单的工厂函数，新订单总是处于 CREATED 状态。
func NewOrder(orderID, customerID, currency string, items []OrderItem, now time.Time) (*Order, error) {
	if orderID == "" || customerID == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "order id and customer id are required")
	}
	if len(items) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "order must contain at least one item")
	}

	lines := make([]OrderItem, len(items))
	copy(lines, items)

	var total float64
	for _, item := range lines {
		total += item.LineTotal
	}

	return &Order{
		OrderID:    orderID,
		CustomerID: customerID,
		Status:     StatusCreated,
		Items:      lines,
		OrderTotal: roundCents(total),
		Currency:   currency,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// TransitionTo 执行一次状态流转，非法流转返回 InvalidOrderState 且不修改订单。
func (o *Order) TransitionTo(to Status, now time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return InvalidTransition(o.OrderID, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Clone 返回一份深拷贝。
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}

// NotFound 构造订单不存在的错误。
func NotFound(orderID string) error {
	return apperr.New(apperr.KindNotFound, "order not found: %s", orderID)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
