package infrastructure

import (
	"context"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/database"
	"fulfillment/internal/service/inventory/domain"

	"github.com/google/uuid"
)

// 需要一个可用的 MySQL，通过 MYSQL_TEST_HOST 等环境变量开启。
func TestGormLedgerIntegration(t *testing.T) {
	host := os.Getenv("MYSQL_TEST_HOST")
	if host == "" {
		t.Skip("MYSQL_TEST_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("MYSQL_TEST_PORT"))
	if port == 0 {
		port = 3306
	}
	db, err := database.Open(database.Config{
		Host:     host,
		Port:     port,
		User:     os.Getenv("MYSQL_TEST_USER"),
		Password: os.Getenv("MYSQL_TEST_PASSWORD"),
		Database: os.Getenv("MYSQL_TEST_DATABASE"),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.AutoMigrate(&ProductModel{}, &InventoryModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	l := NewGormLedger(db)
	seed := func(stock int) string {
		id := "it-" + uuid.NewString()
		p := domain.Product{ProductID: id, SKU: "SKU-" + id[:8], Name: "Desk", Price: 10, Currency: "USD", Active: true}
		if err := SeedProduct(ctx, db, p, stock); err != nil {
			t.Fatalf("seed: %v", err)
		}
		return id
	}

	t.Run("reserve until exhausted", func(t *testing.T) {
		id := seed(5)
		inv, err := l.Reserve(ctx, id, 5)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if inv.ReservedQty != 5 || inv.AvailableQty() != 0 {
			t.Fatalf("expected reserved=5 available=0, got %+v", inv)
		}
		if _, err := l.Reserve(ctx, id, 1); !apperr.Is(err, apperr.KindInsufficientStock) {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
		got, _ := l.Get(ctx, id)
		if got.ReservedQty != 5 || got.StockQty != 5 {
			t.Fatalf("state changed after rejected reserve: %+v", got)
		}
	})

	t.Run("invalid release", func(t *testing.T) {
		id := seed(10)
		if _, err := l.Reserve(ctx, id, 3); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if _, err := l.Release(ctx, id, 10); !apperr.Is(err, apperr.KindInvalidRelease) {
			t.Fatalf("expected invalid release, got %v", err)
		}
		inv, err := l.Release(ctx, id, 3)
		if err != nil || inv.ReservedQty != 0 {
			t.Fatalf("release: %+v, %v", inv, err)
		}
	})

	t.Run("set stock below reserved", func(t *testing.T) {
		id := seed(10)
		if _, err := l.Reserve(ctx, id, 4); err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if _, err := l.SetStock(ctx, id, 3); !apperr.Is(err, apperr.KindInvalidArgument) {
			t.Fatalf("expected invalid argument, got %v", err)
		}
		inv, err := l.SetStock(ctx, id, 20)
		if err != nil || inv.StockQty != 20 || inv.ReservedQty != 4 {
			t.Fatalf("set stock: %+v, %v", inv, err)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		id := "missing-" + uuid.NewString()
		if _, err := l.Reserve(ctx, id, 1); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("reserve: expected not found, got %v", err)
		}
		if _, err := l.Release(ctx, id, 1); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("release: expected not found, got %v", err)
		}
		if _, err := l.SetStock(ctx, id, 1); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("set stock: expected not found, got %v", err)
		}
		if _, err := l.Get(ctx, id); !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("get: expected not found, got %v", err)
		}
	})

	t.Run("concurrent reserves never oversell", func(t *testing.T) {
		id := seed(20)
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int64
		)
		for i := 0; i < 40; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := l.Reserve(ctx, id, 1)
				switch {
				case err == nil:
					succeeded.Add(1)
				case !apperr.Is(err, apperr.KindInsufficientStock):
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		got, _ := l.Get(ctx, id)
		if succeeded.Load() != 20 || got.ReservedQty != 20 {
			t.Fatalf("expected 20 reservations, got %d (reserved %d)", succeeded.Load(), got.ReservedQty)
		}
	})
}
