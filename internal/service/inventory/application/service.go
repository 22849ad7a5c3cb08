// internal/service/inventory/application/service.go
package application

import (
	"context"

	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/service/inventory/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InventoryApplicationService 编排库存台账和商品目录的用例。
type InventoryApplicationService struct {
	ledger  domain.Ledger
	catalog domain.ProductCatalog
	tracer  trace.Tracer
}

func NewInventoryApplicationService(ledger domain.Ledger, catalog domain.ProductCatalog, tracer trace.Tracer) *InventoryApplicationService {
	return &InventoryApplicationService{ledger: ledger, catalog: catalog, tracer: tracer}
}

// GetProduct 查询商品信息。
func (s *InventoryApplicationService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GetProduct", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	p, err := s.catalog.FindByProductID(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "product lookup failed")
		return nil, err
	}
	return p, nil
}

// GetInventory 查询库存记录。
func (s *InventoryApplicationService) GetInventory(ctx context.Context, productID string) (*domain.Inventory, error) {
	return s.apply(ctx, "get", productID, 0, s.ledger.Get)
}

// Reserve 预占库存。
func (s *InventoryApplicationService) Reserve(ctx context.Context, productID string, qty int) (*domain.Inventory, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	return s.apply(ctx, "reserve", productID, qty, func(ctx context.Context, id string) (*domain.Inventory, error) {
		return s.ledger.Reserve(ctx, id, qty)
	})
}

// Release 释放预占的库存。
func (s *InventoryApplicationService) Release(ctx context.Context, productID string, qty int) (*domain.Inventory, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	return s.apply(ctx, "release", productID, qty, func(ctx context.Context, id string) (*domain.Inventory, error) {
		return s.ledger.Release(ctx, id, qty)
	})
}

// SetStock 修改总库存（管理操作）。
func (s *InventoryApplicationService) SetStock(ctx context.Context, productID string, stockQty int) (*domain.Inventory, error) {
	if err := domain.ValidateStock(stockQty); err != nil {
		return nil, err
	}
	return s.apply(ctx, "set_stock", productID, stockQty, func(ctx context.Context, id string) (*domain.Inventory, error) {
		return s.ledger.SetStock(ctx, id, stockQty)
	})
}

func (s *InventoryApplicationService) apply(
	ctx context.Context, op, productID string, qty int,
	fn func(ctx context.Context, productID string) (*domain.Inventory, error),
) (*domain.Inventory, error) {
	ctx, span := s.tracer.Start(ctx, "inventory."+op, trace.WithAttributes(
		attribute.String("product.id", productID),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	inv, err := fn(ctx, productID)
	metrics.LedgerOperations.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		logger.Ctx(ctx).Warn().Err(err).Str("op", op).Str("product_id", productID).Int("quantity", qty).Msg("ledger operation rejected")
		return nil, err
	}

	span.SetAttributes(attribute.Int("inventory.reserved", inv.ReservedQty), attribute.Int("inventory.stock", inv.StockQty))
	if op != "get" {
		logger.Ctx(ctx).Info().
			Str("op", op).
			Str("product_id", productID).
			Int("quantity", qty).
			Int("stock_qty", inv.StockQty).
			Int("reserved_qty", inv.ReservedQty).
			Msg("ledger updated")
	}
	return inv, nil
}
