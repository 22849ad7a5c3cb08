package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fulfillment/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishOrderEvent(t *testing.T) {
	orders, failures := &recordingWriter{}, &recordingWriter{}
	a := NewOrderEventKafkaAdapter(orders, failures)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	order, err := domain.NewOrder("o-1", "c-1", "USD",
		[]domain.OrderItem{domain.NewOrderItem("P1", "SKU-P1", "Desk", 2, 10)}, now)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	if err := a.PublishOrderEvent(context.Background(), domain.NewOrderEvent(domain.EventOrderCreated, order, now)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(orders.msgs) != 1 || len(failures.msgs) != 0 {
		t.Fatalf("expected one message on the order topic, got %d/%d", len(orders.msgs), len(failures.msgs))
	}
	msg := orders.msgs[0]
	if string(msg.Key) != "o-1" || header(msg, eventTypeHeader) != "ORDER_CREATED" {
		t.Fatalf("unexpected key/header: %s %v", msg.Key, msg.Headers)
	}
	var decoded domain.OrderEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OrderTotal != 20 || len(decoded.Items) != 1 || decoded.Status != domain.StatusCreated {
		t.Fatalf("unexpected payload %+v", decoded)
	}
}

func TestPublishReleaseFailed(t *testing.T) {
	orders, failures := &recordingWriter{}, &recordingWriter{}
	a := NewOrderEventKafkaAdapter(orders, failures)

	err := a.PublishReleaseFailed(context.Background(), &domain.InventoryReleaseFailed{
		OrderID: "o-1", ProductID: "P1", Quantity: 2, Phase: domain.ReleasePhaseCompensation, Reason: "timeout",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(failures.msgs) != 1 || header(failures.msgs[0], eventTypeHeader) != releaseFailedEventType {
		t.Fatalf("expected release failure message, got %+v", failures.msgs)
	}
}

func TestPublishPropagatesWriterError(t *testing.T) {
	a := NewOrderEventKafkaAdapter(&recordingWriter{err: errors.New("broker down")}, &recordingWriter{})
	order := &domain.Order{OrderID: "o-1"}
	if err := a.PublishOrderEvent(context.Background(), domain.NewOrderEvent(domain.EventOrderCancelled, order, time.Now())); err == nil {
		t.Fatalf("expected writer error")
	}
}
