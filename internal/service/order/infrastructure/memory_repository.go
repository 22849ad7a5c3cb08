package infrastructure

import (
	"context"
	"sort"
	"sync"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/service/order/domain"
)

// MemoryOrderRepository 是 OrderRepository 的内存实现，用于本地运行和测试。
// 存取的都是副本，调用方拿到的订单不会和仓储内部共享状态。
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*domain.Order)}
}

func (r *MemoryOrderRepository) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.OrderID]; exists {
		return apperr.New(apperr.KindInternal, "order %s already exists", order.OrderID)
	}
	r.orders[order.OrderID] = order.Clone()
	return nil
}

func (r *MemoryOrderRepository) FindByOrderID(_ context.Context, orderID string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.NotFound(orderID)
	}
	return order.Clone(), nil
}

func (r *MemoryOrderRepository) FindByCustomerID(_ context.Context, customerID string, req domain.PageRequest) (*domain.Page, error) {
	r.mu.RLock()
	var matched []*domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			matched = append(matched, order.Clone())
		}
	}
	r.mu.RUnlock()

	less := orderLess(req.SortField)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if req.SortDesc {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.OrderID < b.OrderID
	})

	total := int64(len(matched))
	start := min(req.Offset(), len(matched))
	end := start + max(0, min(req.Size, len(matched)-start))
	return domain.NewPage(matched[start:end], req, total), nil
}

func orderLess(field string) func(a, b *domain.Order) bool {
	switch field {
	case domain.SortByUpdatedAt:
		return func(a, b *domain.Order) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	case domain.SortByOrderTotal:
		return func(a, b *domain.Order) bool { return a.OrderTotal < b.OrderTotal }
	case domain.SortByStatus:
		return func(a, b *domain.Order) bool { return a.Status < b.Status }
	default:
		return func(a, b *domain.Order) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

// TransitionStatus 在写锁内完成读-改-写。
func (r *MemoryOrderRepository) TransitionStatus(_ context.Context, orderID string, from, to domain.Status, at time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, domain.NotFound(orderID)
	}
	if order.Status != from {
		return nil, domain.InvalidTransition(orderID, order.Status, to)
	}
	updated := order.Clone()
	if err := updated.TransitionTo(to, at); err != nil {
		return nil, err
	}
	r.orders[orderID] = updated
	return updated.Clone(), nil
}
