// internal/service/order/domain/state.go
package domain

import "fulfillment/internal/pkg/apperr"

// Status 定义了订单的生命周期状态
type Status string

const (
	StatusCreated   Status = "CREATED"   // Saga 全部成功后的初始状态
	StatusConfirmed Status = "CONFIRMED" // 终态
	StatusCancelled Status = "CANCELLED" // 终态，预占的库存已释放
)

// CanTransitionTo 只有 CREATED 可以流转，CONFIRMED 和 CANCELLED 都是终态。
func (s Status) CanTransitionTo(to Status) bool {
	return s == StatusCreated && (to == StatusConfirmed || to == StatusCancelled)
}

// InvalidTransition 构造非法状态流转的错误。
func InvalidTransition(orderID string, from, to Status) error {
	return apperr.New(apperr.KindInvalidOrderState,
		"order %s cannot transition from %s to %s", orderID, from, to)
}
