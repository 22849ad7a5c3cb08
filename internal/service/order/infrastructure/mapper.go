package infrastructure

import "fulfillment/internal/service/order/domain"

// ToOrderModel 将领域模型转换为数据库模型
func ToOrderModel(order *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(order.Items))
	for i, item := range order.Items {
		items = append(items, OrderItemModel{
			OrderID:     order.OrderID,
			LineNo:      i,
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return &OrderModel{
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		OrderTotal: order.OrderTotal,
		Currency:   order.Currency,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
		Items:      items,
	}
}

// ToDomainOrder 将数据库模型转换为领域模型，Items 需按 LineNo 预先排好序
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, item := range model.Items {
		items = append(items, domain.OrderItem{
			ProductID:   item.ProductID,
			SKU:         item.SKU,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return &domain.Order{
		OrderID:    model.OrderID,
		CustomerID: model.CustomerID,
		Status:     domain.Status(model.Status),
		Items:      items,
		OrderTotal: model.OrderTotal,
		Currency:   model.Currency,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}
