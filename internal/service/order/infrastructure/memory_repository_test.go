package infrastructure

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/service/order/domain"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newOrder(t *testing.T, id, customer string, total float64, createdAt time.Time) *domain.Order {
	t.Helper()
	o, err := domain.NewOrder(id, customer, "USD",
		[]domain.OrderItem{domain.NewOrderItem("P1", "SKU-P1", "Desk", 1, total)}, createdAt)
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	return o
}

func TestMemoryRepositorySaveAndFind(t *testing.T) {
	repo := NewMemoryOrderRepository()
	ctx := context.Background()
	o := newOrder(t, "o-1", "c-1", 10, base)

	if err := repo.Save(ctx, o); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, o); err == nil {
		t.Fatalf("expected duplicate save to fail")
	}

	// 调用方对副本的修改不能影响仓储
	o.Items[0].Quantity = 99
	got, err := repo.FindByOrderID(ctx, "o-1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Items[0].Quantity != 1 {
		t.Fatalf("stored order was mutated through caller copy")
	}

	if _, err := repo.FindByOrderID(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestMemoryRepositoryPaging(t *testing.T) {
	repo := NewMemoryOrderRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		o := newOrder(t, fmt.Sprintf("o-%d", i), "c-1", float64(50-i), base.Add(time.Duration(i)*time.Minute))
		if err := repo.Save(ctx, o); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := repo.Save(ctx, newOrder(t, "other", "c-2", 1, base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	page, err := repo.FindByCustomerID(ctx, "c-1", domain.PageRequest{Page: 0, Size: 2, SortField: domain.SortByCreatedAt, SortDesc: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.TotalElements != 5 || page.TotalPages != 3 || len(page.Content) != 2 {
		t.Fatalf("unexpected page %+v", page)
	}
	if page.Content[0].OrderID != "o-4" || page.Content[1].OrderID != "o-3" {
		t.Fatalf("expected newest first, got %s, %s", page.Content[0].OrderID, page.Content[1].OrderID)
	}

	last, _ := repo.FindByCustomerID(ctx, "c-1", domain.PageRequest{Page: 2, Size: 2, SortField: domain.SortByCreatedAt, SortDesc: true})
	if len(last.Content) != 1 || last.Content[0].OrderID != "o-0" {
		t.Fatalf("unexpected last page %+v", last.Content)
	}

	beyond, _ := repo.FindByCustomerID(ctx, "c-1", domain.PageRequest{Page: 9, Size: 2, SortField: domain.SortByCreatedAt})
	if len(beyond.Content) != 0 || beyond.TotalElements != 5 {
		t.Fatalf("expected empty page beyond the end, got %+v", beyond)
	}

	// 超大页码不能让切片越界
	huge, err := repo.FindByCustomerID(ctx, "c-1", domain.PageRequest{Page: math.MaxInt, Size: 10, SortField: domain.SortByCreatedAt})
	if err != nil || len(huge.Content) != 0 || huge.TotalElements != 5 {
		t.Fatalf("expected empty page for huge page number, got %+v, %v", huge, err)
	}

	byTotal, _ := repo.FindByCustomerID(ctx, "c-1", domain.PageRequest{Page: 0, Size: 5, SortField: domain.SortByOrderTotal})
	if byTotal.Content[0].OrderTotal != 46 || byTotal.Content[4].OrderTotal != 50 {
		t.Fatalf("expected ascending totals, got %v .. %v", byTotal.Content[0].OrderTotal, byTotal.Content[4].OrderTotal)
	}
}

func TestMemoryRepositoryTransition(t *testing.T) {
	repo := NewMemoryOrderRepository()
	ctx := context.Background()
	if err := repo.Save(ctx, newOrder(t, "o-1", "c-1", 10, base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	later := base.Add(time.Hour)
	got, err := repo.TransitionStatus(ctx, "o-1", domain.StatusCreated, domain.StatusConfirmed, later)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if got.Status != domain.StatusConfirmed || !got.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected order %+v", got)
	}

	_, err = repo.TransitionStatus(ctx, "o-1", domain.StatusCreated, domain.StatusCancelled, later)
	if !apperr.Is(err, apperr.KindInvalidOrderState) {
		t.Fatalf("expected InvalidOrderState, got %v", err)
	}
	stored, _ := repo.FindByOrderID(ctx, "o-1")
	if stored.Status != domain.StatusConfirmed {
		t.Fatalf("rejected transition must not change the order, got %s", stored.Status)
	}

	if _, err := repo.TransitionStatus(ctx, "missing", domain.StatusCreated, domain.StatusConfirmed, later); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestMemoryRepositoryConcurrentTransitionsHaveOneWinner(t *testing.T) {
	repo := NewMemoryOrderRepository()
	ctx := context.Background()
	if err := repo.Save(ctx, newOrder(t, "o-1", "c-1", 10, base)); err != nil {
		t.Fatalf("save: %v", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := domain.StatusCancelled
			if i%2 == 0 {
				to = domain.StatusConfirmed
			}
			if _, err := repo.TransitionStatus(ctx, "o-1", domain.StatusCreated, to, base); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one successful transition, got %d", wins)
	}
}
