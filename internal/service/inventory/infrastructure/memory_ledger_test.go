package infrastructure

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"fulfillment/internal/pkg/apperr"
)

func TestMemoryLedgerReserveUntilExhausted(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put("P1", 5, 0)

	inv, err := l.Reserve(ctx, "P1", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.ReservedQty != 5 || inv.AvailableQty() != 0 {
		t.Fatalf("expected reserved=5 available=0, got %+v", inv)
	}

	if _, err := l.Reserve(ctx, "P1", 1); !apperr.Is(err, apperr.KindInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	got, _ := l.Get(ctx, "P1")
	if got.ReservedQty != 5 || got.StockQty != 5 {
		t.Fatalf("state changed after rejected reserve: %+v", got)
	}
}

func TestMemoryLedgerInvalidRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put("P1", 10, 3)

	if _, err := l.Release(ctx, "P1", 10); !apperr.Is(err, apperr.KindInvalidRelease) {
		t.Fatalf("expected invalid release, got %v", err)
	}
	got, _ := l.Get(ctx, "P1")
	if got.ReservedQty != 3 {
		t.Fatalf("expected reserved to remain 3, got %d", got.ReservedQty)
	}
}

func TestMemoryLedgerUnknownProduct(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()

	if _, err := l.Reserve(ctx, "nope", 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("reserve: expected not found, got %v", err)
	}
	if _, err := l.Release(ctx, "nope", 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("release: expected not found, got %v", err)
	}
	if _, err := l.SetStock(ctx, "nope", 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("set stock: expected not found, got %v", err)
	}
	if _, err := l.Get(ctx, "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
}

func TestMemoryLedgerSetStockKeepsReserved(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put("P1", 10, 4)

	inv, err := l.SetStock(ctx, "P1", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.StockQty != 20 || inv.ReservedQty != 4 {
		t.Fatalf("unexpected record %+v", inv)
	}
	if _, err := l.SetStock(ctx, "P1", -1); !apperr.Is(err, apperr.KindInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestMemoryLedgerConcurrentReservationsNeverOversell(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	l.Put("P1", 100, 0)
	l.Put("P2", 50, 0)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded = map[string]int{}
	)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for j := 0; j < 50; j++ {
				id := "P1"
				if r.Intn(2) == 0 {
					id = "P2"
				}
				qty := r.Intn(3) + 1
				if _, err := l.Reserve(ctx, id, qty); err == nil {
					mu.Lock()
					succeeded[id] += qty
					mu.Unlock()
					if r.Intn(4) == 0 {
						if _, err := l.Release(ctx, id, qty); err == nil {
							mu.Lock()
							succeeded[id] -= qty
							mu.Unlock()
						}
					}
				} else if !apperr.Is(err, apperr.KindInsufficientStock) {
					t.Errorf("unexpected error: %v", err)
				}

				inv, _ := l.Get(ctx, id)
				if inv.ReservedQty < 0 || inv.ReservedQty > inv.StockQty {
					t.Errorf("invariant violated: %+v", inv)
				}
			}
		}(int64(i))
	}
	wg.Wait()

	for id, want := range succeeded {
		inv, _ := l.Get(ctx, id)
		if inv.ReservedQty != want {
			t.Errorf("%s: expected reserved %d, got %d", id, want, inv.ReservedQty)
		}
	}
}
