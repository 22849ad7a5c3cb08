package saga

import (
	"context"
	"sync"
	"time"

	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/service/order/domain"
	"fulfillment/internal/service/order/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LineRequest 是请求中的一行：商品和数量。
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Reservation 记录一次已经成功的预占，只用于补偿，不持久化。
type Reservation struct {
	ProductID string
	Quantity  int
}

// OrderContext 在 Saga 流程中传递上下文数据。
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer
	Now    func() time.Time

	OrderID    string
	CustomerID string
	Currency   string
	Requested  []LineRequest

	// 依赖出站端口
	InventoryService port.InventoryService
	Publisher        port.OrderEventPublisher

	// 逐步累积的结果
	Lines []domain.OrderItem
	Order *domain.Order

	reservations []Reservation
	resLock      sync.Mutex
}

// AddReservation 记录一次成功的预占。
func (c *OrderContext) AddReservation(productID string, qty int) {
	c.resLock.Lock()
	defer c.resLock.Unlock()
	c.reservations = append(c.reservations, Reservation{ProductID: productID, Quantity: qty})
}

// Reservations 返回目前已成功的预占（副本）。
func (c *OrderContext) Reservations() []Reservation {
	c.resLock.Lock()
	defer c.resLock.Unlock()
	out := make([]Reservation, len(c.reservations))
	copy(out, c.reservations)
	return out
}

// Compensate 按预占的逆序释放所有已成功的预占并清空记录。
// 单次释放失败只记录日志和事件，继续处理剩余记录，本方法从不返回错误。
// 返回释放失败的条数。
func (c *OrderContext) Compensate(ctx context.Context) int {
	c.resLock.Lock()
	pending := c.reservations
	c.reservations = nil
	c.resLock.Unlock()

	if len(pending) == 0 {
		return 0
	}
	logger.Ctx(ctx).Info().Str("order_id", c.OrderID).Int("reservations", len(pending)).Msg("Executing compensation releases")

	failed := 0
	for i := len(pending) - 1; i >= 0; i-- {
		if !ReleaseBestEffort(ctx, c.Tracer, c.InventoryService, c.Publisher, c.OrderID, pending[i], domain.ReleasePhaseCompensation, c.now()) {
			failed++
		}
	}
	return failed
}

func (c *OrderContext) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// ReleaseBestEffort 发起一次释放。失败时记录错误日志、指标和 InventoryReleaseFailed 事件，
// 然后返回 false，不会把错误交给调用方。
func ReleaseBestEffort(
	ctx context.Context,
	tracer trace.Tracer,
	inventory port.InventoryService,
	publisher port.OrderEventPublisher,
	orderID string,
	r Reservation,
	phase string,
	now time.Time,
) bool {
	ctx, span := tracer.Start(ctx, "saga.compensation.ReleaseStock", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("product.id", r.ProductID),
		attribute.Int("quantity", r.Quantity),
		attribute.String("phase", phase),
	))
	defer span.End()

	err := inventory.Release(ctx, r.ProductID, r.Quantity)
	metrics.CompensationReleases.WithLabelValues(phase, metrics.Result(err)).Inc()
	if err == nil {
		return true
	}

	span.RecordError(err, trace.WithAttributes(attribute.Bool("critical.error", true)))
	span.SetStatus(codes.Error, "release failed")
	logger.Ctx(ctx).Error().Err(err).
		Bool("compensation", true).
		Str("order_id", orderID).
		Str("product_id", r.ProductID).
		Int("quantity", r.Quantity).
		Str("phase", phase).
		Msg("CRITICAL: inventory release failed, reservation may be left over")

	if publisher != nil {
		pubErr := publisher.PublishReleaseFailed(ctx, &domain.InventoryReleaseFailed{
			OrderID:    orderID,
			ProductID:  r.ProductID,
			Quantity:   r.Quantity,
			Phase:      phase,
			Reason:     err.Error(),
			OccurredAt: now,
		})
		if pubErr != nil {
			logger.Ctx(ctx).Error().Err(pubErr).Str("order_id", orderID).Msg("failed to publish release failure event")
		}
	}
	return false
}

// Handler 是责任链中的一个步骤。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
