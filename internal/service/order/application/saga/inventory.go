package saga

import (
	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InventoryHandler 按请求顺序逐行取商品、校验上架状态并预占库存。
// 任何一行失败时，先对已成功的行执行补偿，再返回原始错误。
type InventoryHandler struct {
	NextHandler
}

func (h *InventoryHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.InventoryReserve",
		trace.WithAttributes(attribute.Int("order.lines", len(orderCtx.Requested))))
	defer span.End()

	for i, line := range orderCtx.Requested {
		item, err := h.reserveLine(orderCtx, i, line)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "inventory reservation failed")
			logger.Ctx(ctx).Warn().Err(err).
				Str("order_id", orderCtx.OrderID).
				Int("line", i).
				Str("product_id", line.ProductID).
				Msg("line item failed, compensating earlier reservations")

			failed := orderCtx.Compensate(ctx)
			span.SetAttributes(attribute.Int("compensation.failed", failed))
			return err
		}
		orderCtx.Lines = append(orderCtx.Lines, item)
	}

	span.AddEvent("All items reserved successfully")
	return h.executeNext(orderCtx)
}

func (h *InventoryHandler) reserveLine(orderCtx *OrderContext, index int, line LineRequest) (domain.OrderItem, error) {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReserveLine", trace.WithAttributes(
		attribute.Int("line", index),
		attribute.String("product.id", line.ProductID),
		attribute.Int("quantity", line.Quantity),
	))
	defer span.End()

	product, err := orderCtx.InventoryService.FetchProduct(ctx, line.ProductID)
	if err != nil {
		span.RecordError(err)
		return domain.OrderItem{}, err
	}
	if !product.Active {
		err := apperr.New(apperr.KindProductInactive, "product %s is not active", line.ProductID)
		span.RecordError(err)
		return domain.OrderItem{}, err
	}

	if err := orderCtx.InventoryService.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
		span.RecordError(err)
		return domain.OrderItem{}, err
	}
	orderCtx.AddReservation(line.ProductID, line.Quantity)

	logger.Ctx(ctx).Info().
		Str("order_id", orderCtx.OrderID).
		Str("product_id", line.ProductID).
		Int("quantity", line.Quantity).
		Float64("unit_price", product.Price).
		Msg("line item reserved")

	return domain.NewOrderItem(product.ProductID, product.SKU, product.Name, line.Quantity, product.Price), nil
}
