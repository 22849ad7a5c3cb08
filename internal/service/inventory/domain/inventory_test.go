package domain

import (
	"testing"
	"time"

	"fulfillment/internal/pkg/apperr"
)

func TestAvailableQtyIsFloored(t *testing.T) {
	inv := Inventory{ProductID: "P1", StockQty: 3, ReservedQty: 5}
	if got := inv.AvailableQty(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	inv = Inventory{ProductID: "P1", StockQty: 10, ReservedQty: 4}
	if got := inv.AvailableQty(); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
}

func TestReserve(t *testing.T) {
	now := time.Now()
	inv := &Inventory{ProductID: "P1", StockQty: 5}

	if err := inv.Reserve(5, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ReservedQty != 5 || inv.AvailableQty() != 0 {
		t.Fatalf("expected reserved=5 available=0, got %+v", inv)
	}

	err := inv.Reserve(1, now)
	if !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if inv.ReservedQty != 5 {
		t.Fatalf("failed reserve must not mutate, reserved=%d", inv.ReservedQty)
	}
}

func TestReserveRejectsNonPositive(t *testing.T) {
	inv := &Inventory{ProductID: "P1", StockQty: 5}
	for _, qty := range []int{0, -1} {
		if err := inv.Reserve(qty, time.Now()); !apperr.Is(err, apperr.KindInvalidArgument) {
			t.Errorf("qty %d: expected invalid argument, got %v", qty, err)
		}
	}
}

func TestReleaseMoreThanReserved(t *testing.T) {
	inv := &Inventory{ProductID: "P1", StockQty: 10, ReservedQty: 3}

	err := inv.Release(10, time.Now())
	if !apperr.Is(err, apperr.KindInvalidRelease) {
		t.Fatalf("expected invalid release, got %v", err)
	}
	if inv.ReservedQty != 3 {
		t.Fatalf("expected reserved to remain 3, got %d", inv.ReservedQty)
	}

	if err := inv.Release(3, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ReservedQty != 0 {
		t.Fatalf("expected reserved 0, got %d", inv.ReservedQty)
	}
}

func TestSetStock(t *testing.T) {
	inv := &Inventory{ProductID: "P1", StockQty: 10, ReservedQty: 4}

	if err := inv.SetStock(-1, time.Now()); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("expected invalid argument for negative stock, got %v", err)
	}
	if err := inv.SetStock(3, time.Now()); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("expected invalid argument for stock below reserved, got %v", err)
	}
	if err := inv.SetStock(4, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.StockQty != 4 || inv.ReservedQty != 4 {
		t.Fatalf("set stock must not touch reserved, got %+v", inv)
	}
}
