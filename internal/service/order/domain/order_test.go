package domain

import (
	"math"
	"testing"
	"time"

	"fulfillment/internal/pkg/apperr"
)

func TestNewOrderComputesTotals(t *testing.T) {
	now := time.Now()
	items := []OrderItem{
		NewOrderItem("P1", "SKU-1", "Desk", 2, 10.00),
		NewOrderItem("P2", "SKU-2", "Chair", 1, 20.00),
		NewOrderItem("P3", "SKU-3", "Pen", 3, 0.1),
	}
	o, err := NewOrder("o-1", "c-1", "USD", items, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != StatusCreated {
		t.Fatalf("expected CREATED, got %s", o.Status)
	}
	if o.Items[0].LineTotal != 20 || o.Items[2].LineTotal != 0.3 {
		t.Fatalf("unexpected line totals %+v", o.Items)
	}
	if o.OrderTotal != 40.3 {
		t.Fatalf("expected total 40.3, got %v", o.OrderTotal)
	}

	items[0].Quantity = 99
	if o.Items[0].Quantity != 2 {
		t.Fatalf("order must not share the caller's slice")
	}
}

func TestNewOrderRejectsEmpty(t *testing.T) {
	if _, err := NewOrder("o-1", "c-1", "USD", nil, time.Now()); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := NewOrder("o-1", "", "USD", []OrderItem{NewOrderItem("P1", "", "", 1, 1)}, time.Now()); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("expected invalid argument for missing customer, got %v", err)
	}
}

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusCreated, StatusConfirmed, true},
		{StatusCreated, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, false},
		{StatusConfirmed, StatusConfirmed, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCreated, StatusCreated, false},
	}
	for _, c := range cases {
		t.Run(string(c.from)+"->"+string(c.to), func(t *testing.T) {
			before := time.Unix(0, 0)
			o := &Order{OrderID: "o-1", Status: c.from, UpdatedAt: before}
			err := o.TransitionTo(c.to, time.Now())
			if c.ok {
				if err != nil || o.Status != c.to {
					t.Fatalf("expected transition to succeed, got %v (status %s)", err, o.Status)
				}
				return
			}
			if !apperr.Is(err, apperr.KindInvalidOrderState) {
				t.Fatalf("expected invalid order state, got %v", err)
			}
			if o.Status != c.from || !o.UpdatedAt.Equal(before) {
				t.Fatalf("rejected transition must not mutate the order")
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage(nil, PageRequest{Page: 1, Size: 10}, 21)
	if p.TotalPages != 3 || p.Page != 1 || p.TotalElements != 21 {
		t.Fatalf("unexpected page %+v", p)
	}
	if NewPage(nil, PageRequest{Size: 10}, 0).TotalPages != 0 {
		t.Fatalf("expected 0 pages for empty result")
	}
}

func TestPageRequestOffset(t *testing.T) {
	cases := []struct {
		req  PageRequest
		want int
	}{
		{PageRequest{Page: 0, Size: 10}, 0},
		{PageRequest{Page: 3, Size: 10}, 30},
		{PageRequest{Page: 2, Size: 0}, 0},
		{PageRequest{Page: math.MaxInt, Size: 10}, math.MaxInt},
	}
	for _, c := range cases {
		if got := c.req.Offset(); got != c.want {
			t.Errorf("Offset(%+v) = %d, want %d", c.req, got, c.want)
		}
	}
}

func TestNewOrderEvent(t *testing.T) {
	o, _ := NewOrder("o-1", "c-1", "USD", []OrderItem{NewOrderItem("P1", "S", "N", 2, 5)}, time.Now())
	e := NewOrderEvent(EventOrderCreated, o, o.CreatedAt)
	if e.OrderID != "o-1" || e.Status != StatusCreated || len(e.Items) != 1 || e.Items[0].Quantity != 2 || e.OrderTotal != 10 {
		t.Fatalf("unexpected event %+v", e)
	}
}
