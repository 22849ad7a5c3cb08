package infrastructure

import "time"

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	OrderID    string  `gorm:"primaryKey;size:36"`
	CustomerID string  `gorm:"index:idx_orders_customer;size:64;not null"`
	Status     string  `gorm:"size:16;not null"`
	OrderTotal float64 `gorm:"type:decimal(14,2);not null"`
	Currency   string  `gorm:"size:3;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items []OrderItemModel `gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 对应数据库中的 order_items 表，LineNo 保留请求中的行顺序
type OrderItemModel struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	OrderID     string  `gorm:"index;size:36;not null"`
	LineNo      int     `gorm:"not null"`
	ProductID   string  `gorm:"size:64;not null"`
	SKU         string  `gorm:"size:64"`
	ProductName string  `gorm:"size:255"`
	Quantity    int     `gorm:"not null"`
	UnitPrice   float64 `gorm:"type:decimal(12,2);not null"`
	LineTotal   float64 `gorm:"type:decimal(14,2);not null"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderItemModel) TableName() string {
	return "order_items"
}
