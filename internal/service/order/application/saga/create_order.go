package saga

import (
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/service/order/domain"

	"go.opentelemetry.io/otel/codes"
)

// CreateOrderHandler 负责构造并持久化订单。持久化失败同样触发补偿。
type CreateOrderHandler struct {
	NextHandler
	repo domain.OrderRepository
}

func NewCreateOrderHandler(repo domain.OrderRepository) *CreateOrderHandler {
	return &CreateOrderHandler{repo: repo}
}

func (h *CreateOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	order, err := domain.NewOrder(orderCtx.OrderID, orderCtx.CustomerID, orderCtx.Currency, orderCtx.Lines, orderCtx.now())
	if err == nil {
		err = h.repo.Save(ctx, order)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		logger.Ctx(ctx).Error().Err(err).Str("order_id", orderCtx.OrderID).Msg("failed to persist order, compensating reservations")
		orderCtx.Compensate(ctx)
		return err
	}

	orderCtx.Order = order
	span.AddEvent("Order saved with CREATED status.")
	return h.executeNext(orderCtx)
}
