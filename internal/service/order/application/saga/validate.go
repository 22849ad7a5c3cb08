package saga

import (
	"fulfillment/internal/pkg/apperr"

	"go.opentelemetry.io/otel/codes"
)

// ValidateHandler 在发起任何远程调用之前校验请求。
type ValidateHandler struct {
	NextHandler
}

func (h *ValidateHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Validate")
	err := validate(orderCtx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid order request")
	}
	span.End()
	if err != nil {
		return err
	}
	return h.executeNext(orderCtx)
}

func validate(orderCtx *OrderContext) error {
	if orderCtx.CustomerID == "" {
		return apperr.New(apperr.KindInvalidArgument, "customerId is required")
	}
	if len(orderCtx.Requested) == 0 {
		return apperr.New(apperr.KindInvalidArgument, "order must contain at least one item")
	}
	for i, line := range orderCtx.Requested {
		if line.ProductID == "" {
			return apperr.New(apperr.KindInvalidArgument, "items[%d].productId is required", i)
		}
		if line.Quantity <= 0 {
			return apperr.New(apperr.KindInvalidArgument, "items[%d].quantity must be positive, got %d", i, line.Quantity)
		}
	}
	return nil
}
