package port

import (
	"context"

	"fulfillment/internal/service/order/domain"
)

// OrderEventPublisher 是订单事件的出站端口。发布失败不影响业务结果。
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event *domain.OrderEvent) error
	PublishReleaseFailed(ctx context.Context, event *domain.InventoryReleaseFailed) error
}
