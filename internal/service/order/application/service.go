// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/service/order/application/saga"
	"fulfillment/internal/service/order/domain"
	"fulfillment/internal/service/order/domain/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderApplicationService 编排下单 Saga 和订单状态流转。
type OrderApplicationService struct {
	orderRepo       domain.OrderRepository
	tracer          trace.Tracer
	inventory       port.InventoryService
	publisher       port.OrderEventPublisher
	defaultCurrency string

	now   func() time.Time
	newID func() string
}

func NewOrderApplicationService(
	orderRepo domain.OrderRepository,
	tracer trace.Tracer,
	inventory port.InventoryService,
	publisher port.OrderEventPublisher,
	defaultCurrency string,
) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo:       orderRepo,
		tracer:          tracer,
		inventory:       inventory,
		publisher:       publisher,
		defaultCurrency: defaultCurrency,
		now:             func() time.Time { return time.Now().UTC() },
		newID:           func() string { return uuid.New().String() },
	}
}

// CreateOrder 执行下单 Saga。成功时返回已持久化的 CREATED 订单；
// 失败时所有已完成的预占都已被释放，返回触发失败的原始错误。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	// Saga 一旦开始就要跑完，包括补偿，调用方断开连接不能中途打断它
	ctx = context.WithoutCancel(ctx)

	orderID := s.newID()
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("customer.id", req.CustomerID),
		attribute.Int("order.lines", len(req.Items)),
	))
	defer span.End()

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	orderCtx := &saga.OrderContext{
		Ctx:              ctx,
		Tracer:           s.tracer,
		Now:              s.now,
		OrderID:          orderID,
		CustomerID:       req.CustomerID,
		Currency:         currency,
		Requested:        req.lines(),
		InventoryService: s.inventory,
		Publisher:        s.publisher,
	}

	logger.Ctx(ctx).Info().Str("order_id", orderID).Str("customer_id", req.CustomerID).
		Int("lines", len(req.Items)).Msg("Starting order creation saga")

	if err := saga.NewOrderCreationChain(s.orderRepo).Handle(orderCtx); err != nil {
		metrics.SagaOutcomes.WithLabelValues(metrics.Result(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation saga failed")
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Msg("Order creation saga failed")
		return nil, err
	}

	metrics.SagaOutcomes.WithLabelValues(metrics.Result(nil)).Inc()
	logger.Ctx(ctx).Info().Str("order_id", orderID).Float64("order_total", orderCtx.Order.OrderTotal).
		Msg("Order created")
	span.AddEvent("Order created.")
	return orderCtx.Order, nil
}

// GetOrder 按订单号查询。
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.orderRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}

// ListOrders 分页查询某个客户的订单。
func (s *OrderApplicationService) ListOrders(ctx context.Context, customerID string, page domain.PageRequest) (*domain.Page, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListOrders", trace.WithAttributes(
		attribute.String("customer.id", customerID),
		attribute.Int("page", page.Page),
		attribute.Int("size", page.Size),
	))
	defer span.End()

	if customerID == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "customerId is required")
	}
	result, err := s.orderRepo.FindByCustomerID(ctx, customerID, page)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// ConfirmOrder 把 CREATED 订单流转为 CONFIRMED，没有其它副作用。
func (s *OrderApplicationService) ConfirmOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.ConfirmOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.transition(ctx, orderID, domain.StatusConfirmed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "confirm failed")
		return nil, err
	}

	s.publish(ctx, domain.EventOrderConfirmed, order)
	return order, nil
}

// CancelOrder 把 CREATED 订单流转为 CANCELLED，然后尽力释放每一行的预占。
// 状态流转先以条件写完成，同一订单的并发取消只有一个能进入释放阶段。
// 释放失败只记录，不影响取消结果。
func (s *OrderApplicationService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := s.tracer.Start(ctx, "app.CancelOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, err := s.transition(ctx, orderID, domain.StatusCancelled)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return nil, err
	}

	failed := 0
	for _, item := range order.Items {
		r := saga.Reservation{ProductID: item.ProductID, Quantity: item.Quantity}
		if !saga.ReleaseBestEffort(ctx, s.tracer, s.inventory, s.publisher, orderID, r, domain.ReleasePhaseCancellation, s.now()) {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("release.failed", failed))
	if failed > 0 {
		logger.Ctx(ctx).Warn().Str("order_id", orderID).Int("failed_releases", failed).
			Msg("Order cancelled with unreleased reservations")
	}

	s.publish(ctx, domain.EventOrderCancelled, order)
	return order, nil
}

func (s *OrderApplicationService) transition(ctx context.Context, orderID string, to domain.Status) (*domain.Order, error) {
	order, err := s.orderRepo.TransitionStatus(ctx, orderID, domain.StatusCreated, to, s.now())
	metrics.OrderTransitions.WithLabelValues(string(to), metrics.Result(err)).Inc()
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderID).Str("to", string(to)).Msg("Order transition rejected")
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("order_id", orderID).Str("status", string(order.Status)).Msg("Order transitioned")
	return order, nil
}

func (s *OrderApplicationService) publish(ctx context.Context, eventType domain.EventType, order *domain.Order) {
	if err := s.publisher.PublishOrderEvent(ctx, domain.NewOrderEvent(eventType, order, s.now())); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.OrderID).Str("event", string(eventType)).
			Msg("failed to publish order event")
	}
}
