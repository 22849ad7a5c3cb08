package infrastructure

import (
	"context"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/service/inventory/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormProductCatalog 是 ProductCatalog 的 GORM 实现
type GormProductCatalog struct {
	db *gorm.DB
}

func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// FindByProductID 使用 GORM 从数据库中查找商品
func (c *GormProductCatalog) FindByProductID(ctx context.Context, productID string) (*domain.Product, error) {
	var model ProductModel
	err := c.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindProductNotFound, "product not found: %s", productID)
		}
		return nil, errors.Wrapf(err, "load product %s", productID)
	}
	return ToDomainProduct(&model), nil
}
