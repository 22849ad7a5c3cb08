package adapter

import (
	"context"
	"encoding/json"

	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/mq"
	"fulfillment/internal/service/order/domain"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const (
	eventTypeHeader        = "event-type"
	releaseFailedEventType    = "INVENTORY_RELEASE_FAILED"
)

// OrderEventKafkaAdapter 实现了 port.OrderEventPublisher 接口。
// 订单生命周期事件和库存释放失败事件写入不同的 topic，均以订单号为 key 保证同一订单有序。
type OrderEventKafkaAdapter struct {
	orderWriter   mq.MessageWriter
	failureWriter mq.MessageWriter
}

// NewOrderEventKafkaAdapter 创建一个新的事件生产者适配器。
func NewOrderEventKafkaAdapter(orderWriter, failureWriter mq.MessageWriter) *OrderEventKafkaAdapter {
	return &OrderEventKafkaAdapter{orderWriter: orderWriter, failureWriter: failureWriter}
}

func (a *OrderEventKafkaAdapter) PublishOrderEvent(ctx context.Context, event *domain.OrderEvent) error {
	return publish(ctx, a.orderWriter, event.OrderID, string(event.Type), event)
}

func (a *OrderEventKafkaAdapter) PublishReleaseFailed(ctx context.Context, event *domain.InventoryReleaseFailed) error {
	return publish(ctx, a.failureWriter, event.OrderID, releaseFailedEventType, event)
}

func publish(ctx context.Context, writer mq.MessageWriter, key, eventType string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "marshal %s event", eventType)
	}
	// mq.ProduceMessage 会自动注入追踪上下文
	err = mq.ProduceMessage(ctx, writer, []byte(key), payload, kafka.Header{Key: eventTypeHeader, Value: []byte(eventType)})
	if err != nil {
		return errors.Wrapf(err, "produce %s event for %s", eventType, key)
	}
	return nil
}

// LogEventPublisher 在没有配置 Kafka 时使用，只把事件写进日志。
type LogEventPublisher struct{}

func (LogEventPublisher) PublishOrderEvent(ctx context.Context, event *domain.OrderEvent) error {
	logger.Ctx(ctx).Info().
		Str("event", string(event.Type)).
		Str("order_id", event.OrderID).
		Str("status", string(event.Status)).
		Float64("order_total", event.OrderTotal).
		Msg("order event")
	return nil
}

func (LogEventPublisher) PublishReleaseFailed(ctx context.Context, event *domain.InventoryReleaseFailed) error {
	logger.Ctx(ctx).Error().
		Str("event", releaseFailedEventType).
		Str("order_id", event.OrderID).
		Str("product_id", event.ProductID).
		Int("quantity", event.Quantity).
		Str("phase", event.Phase).
		Str("reason", event.Reason).
		Msg("inventory release failed event")
	return nil
}
