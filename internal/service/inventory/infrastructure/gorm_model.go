package infrastructure

import (
	"time"

	"gorm.io/gorm"
)

// InventoryModel 对应数据库中的 inventory 表
type InventoryModel struct {
	ProductID   string `gorm:"primaryKey;size:64"`
	StockQty    int    `gorm:"not null;default:0"`
	ReservedQty int    `gorm:"not null;default:0"`
	UpdatedAt   time.Time
}

// TableName 指定 GORM 应该使用的表名
func (InventoryModel) TableName() string {
	return "inventory"
}

// ProductModel 对应数据库中的 product 表
type ProductModel struct {
	gorm.Model
	ProductID   string  `gorm:"uniqueIndex;size:64"`
	SKU         string  `gorm:"size:64"`
	Name        string  `gorm:"size:255"`
	Description string  `gorm:"type:text"`
	Price       float64 `gorm:"type:decimal(12,2)"`
	Currency    string  `gorm:"size:3"`
	Active      bool
}

// TableName 指定 GORM 应该使用的表名
func (ProductModel) TableName() string {
	return "product"
}
