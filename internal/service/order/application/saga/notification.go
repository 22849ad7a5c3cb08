package saga

import (
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
)

// NotificationHandler 是 Saga 流程的最后一步，发布订单创建事件。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	span.SetAttributes(attribute.String("messaging.system", "kafka"))

	// 订单已经落库，发布失败只记录警告，不影响 Saga 的结果
	event := domain.NewOrderEvent(domain.EventOrderCreated, orderCtx.Order, orderCtx.now())
	if err := orderCtx.Publisher.PublishOrderEvent(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderCtx.OrderID).Msg("failed to publish order created event")
		span.RecordError(err)
	}

	return h.executeNext(orderCtx)
}
