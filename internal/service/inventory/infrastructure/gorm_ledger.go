// internal/service/inventory/infrastructure/gorm_ledger.go
package infrastructure

import (
	"context"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/service/inventory/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormLedger 是 Ledger 的 MySQL 实现。
// 每个修改都是一条带条件的 UPDATE，库存检查写在 WHERE 子句里，
// 同一事务内回读的行仍被 UPDATE 持有的行锁保护。
type GormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormLedger 创建一个新的 GORM 台账实例
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db, now: time.Now}
}

// conditionalUpdate 执行一次条件更新。未命中时由 classify 给出具体的业务错误。
func (l *GormLedger) conditionalUpdate(
	ctx context.Context,
	productID string,
	cond string, condArgs []interface{},
	updates map[string]interface{},
	classify func(current *InventoryModel) error,
) (*domain.Inventory, error) {
	var model InventoryModel
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&InventoryModel{}).
			Where("product_id = ?", productID).
			Where(cond, condArgs...).
			Updates(updates)
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update inventory %s", productID)
		}

		if err := tx.Where("product_id = ?", productID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NotFound(productID)
			}
			return errors.Wrapf(err, "load inventory %s", productID)
		}
		if res.RowsAffected == 0 {
			return classify(&model)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToDomainInventory(&model), nil
}

func (l *GormLedger) Reserve(ctx context.Context, productID string, qty int) (*domain.Inventory, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	return l.conditionalUpdate(ctx, productID,
		"stock_qty - reserved_qty >= ?", []interface{}{qty},
		map[string]interface{}{
			"reserved_qty": gorm.Expr("reserved_qty + ?", qty),
			"updated_at":   l.now(),
		},
		func(current *InventoryModel) error {
			return apperr.New(apperr.KindInsufficientStock,
				"insufficient stock for product %s: requested %d, available %d",
				productID, qty, ToDomainInventory(current).AvailableQty())
		},
	)
}

func (l *GormLedger) Release(ctx context.Context, productID string, qty int) (*domain.Inventory, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	return l.conditionalUpdate(ctx, productID,
		"reserved_qty >= ?", []interface{}{qty},
		map[string]interface{}{
			"reserved_qty": gorm.Expr("reserved_qty - ?", qty),
			"updated_at":   l.now(),
		},
		func(current *InventoryModel) error {
			return apperr.New(apperr.KindInvalidRelease,
				"cannot release %d units of product %s: only %d reserved", qty, productID, current.ReservedQty)
		},
	)
}

func (l *GormLedger) SetStock(ctx context.Context, productID string, stockQty int) (*domain.Inventory, error) {
	if err := domain.ValidateStock(stockQty); err != nil {
		return nil, err
	}
	return l.conditionalUpdate(ctx, productID,
		"reserved_qty <= ?", []interface{}{stockQty},
		map[string]interface{}{
			"stock_qty":  stockQty,
			"updated_at": l.now(),
		},
		func(current *InventoryModel) error {
			return apperr.New(apperr.KindInvalidArgument,
				"stock quantity %d for product %s is below reserved quantity %d", stockQty, productID, current.ReservedQty)
		},
	)
}

func (l *GormLedger) Get(ctx context.Context, productID string) (*domain.Inventory, error) {
	var model InventoryModel
	err := l.db.WithContext(ctx).Where("product_id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(productID)
		}
		return nil, errors.Wrapf(err, "load inventory %s", productID)
	}
	return ToDomainInventory(&model), nil
}
