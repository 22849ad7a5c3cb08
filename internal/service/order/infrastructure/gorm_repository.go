package infrastructure

import (
	"context"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/database"
	"fulfillment/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var sortColumns = map[string]string{
	domain.SortByCreatedAt:  "created_at",
	domain.SortByUpdatedAt:  "updated_at",
	domain.SortByOrderTotal: "order_total",
	domain.SortByStatus:     "status",
}

// GormOrderRepository 是 OrderRepository 的 MySQL 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 在一个事务里写入订单头和所有订单行。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := ToOrderModel(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			return apperr.Wrap(apperr.KindInternal, err, "order %s already exists", order.OrderID)
		}
		return errors.Wrapf(err, "save order %s", order.OrderID)
	}
	return nil
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

func (r *GormOrderRepository) load(tx *gorm.DB, orderID string) (*OrderModel, error) {
	var model OrderModel
	err := tx.Preload("Items", preloadItems).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(orderID)
		}
		return nil, errors.Wrapf(err, "load order %s", orderID)
	}
	return &model, nil
}

func (r *GormOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	model, err := r.load(r.db.WithContext(ctx), orderID)
	if err != nil {
		return nil, err
	}
	return ToDomainOrder(model), nil
}

func (r *GormOrderRepository) FindByCustomerID(ctx context.Context, customerID string, req domain.PageRequest) (*domain.Page, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&OrderModel{}).Where("customer_id = ?", customerID).Count(&total).Error; err != nil {
		return nil, errors.Wrapf(err, "count orders of %s", customerID)
	}

	var models []OrderModel
	err := db.Preload("Items", preloadItems).
		Where("customer_id = ?", customerID).
		Order(orderClause(req)).
		Offset(req.Offset()).
		Limit(req.Size).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of %s", customerID)
	}

	content := make([]*domain.Order, 0, len(models))
	for i := range models {
		content = append(content, ToDomainOrder(&models[i]))
	}
	return domain.NewPage(content, req, total), nil
}

// orderClause 只使用白名单中的列名拼接排序子句，并以 order_id 作为稳定的次级排序。
func orderClause(req domain.PageRequest) string {
	column, ok := sortColumns[req.SortField]
	if !ok {
		column = sortColumns[domain.SortByCreatedAt]
	}
	dir := "ASC"
	if req.SortDesc {
		dir = "DESC"
	}
	return column + " " + dir + ", order_id " + dir
}

// TransitionStatus 用 WHERE status = from 的条件 UPDATE 实现比较并交换，
// 未命中时回读当前状态给出具体错误。
func (r *GormOrderRepository) TransitionStatus(ctx context.Context, orderID string, from, to domain.Status, at time.Time) (*domain.Order, error) {
	if !from.CanTransitionTo(to) {
		return nil, domain.InvalidTransition(orderID, from, to)
	}

	var model *OrderModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&OrderModel{}).
			Where("order_id = ? AND status = ?", orderID, string(from)).
			Updates(map[string]interface{}{"status": string(to), "updated_at": at})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update order %s status", orderID)
		}

		var err error
		model, err = r.load(tx, orderID)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return domain.InvalidTransition(orderID, domain.Status(model.Status), to)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToDomainOrder(model), nil
}
