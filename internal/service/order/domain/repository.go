// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"math"
	"time"
)

// 可排序的字段
const (
	SortByCreatedAt  = "createdAt"
	SortByUpdatedAt  = "updatedAt"
	SortByOrderTotal = "orderTotal"
	SortByStatus     = "status"
)

// PageRequest 描述分页和排序，Page 从 0 开始。
type PageRequest struct {
	Page      int
	Size      int
	SortField string
	SortDesc  bool
}

// Offset 返回本页第一条记录的位置，乘积溢出时返回 math.MaxInt。
func (r PageRequest) Offset() int {
	if r.Page <= 0 || r.Size <= 0 {
		return 0
	}
	if r.Page > math.MaxInt/r.Size {
		return math.MaxInt
	}
	return r.Page * r.Size
}

// Page 是一页查询结果。
type Page struct {
	Content       []*Order
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// NewPage 根据总数计算总页数。
func NewPage(content []*Order, req PageRequest, total int64) *Page {
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page{Content: content, Page: req.Page, Size: req.Size, TotalElements: total, TotalPages: pages}
}

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Save 原子地保存一个新订单及其所有订单行。
	Save(ctx context.Context, order *Order) error

	// FindByOrderID 根据订单号查找订单，不存在时返回 NotFound。
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)

	// FindByCustomerID 分页查询某个客户的订单。
	FindByCustomerID(ctx context.Context, customerID string, page PageRequest) (*Page, error)

	// TransitionStatus 是一次条件写：仅当当前状态为 from 时改为 to，
	// 否则返回 InvalidOrderState。返回更新后的订单。
	TransitionStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (*Order, error)
}
