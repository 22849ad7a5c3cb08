package infrastructure

import (
	"context"

	"fulfillment/internal/service/inventory/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedProduct 写入商品和初始库存，主键冲突时保留已有数据。
func SeedProduct(ctx context.Context, db *gorm.DB, p domain.Product, stockQty int) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product := ProductModel{
			ProductID:   p.ProductID,
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Currency:    p.Currency,
			Active:      p.Active,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&product).Error; err != nil {
			return errors.Wrapf(err, "seed product %s", p.ProductID)
		}
		inv := InventoryModel{ProductID: p.ProductID, StockQty: stockQty}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&inv).Error; err != nil {
			return errors.Wrapf(err, "seed inventory %s", p.ProductID)
		}
		return nil
	})
}
