// cmd/inventory-service/main.go
package main

import (
	"context"
	"fmt"

	"fulfillment/internal/pkg/bootstrap"
	"fulfillment/internal/pkg/database"
	"fulfillment/internal/pkg/redis"
	"fulfillment/internal/service/inventory/application"
	"fulfillment/internal/service/inventory/domain"
	"fulfillment/internal/service/inventory/infrastructure"
	"fulfillment/internal/service/inventory/interfaces"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const serviceName = "inventory-service"

// main 函数是应用的"组装根" (Composition Root)
func main() {
	cfg, err := bootstrap.Load(serviceName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName:      serviceName,
		Config:           cfg,
		RegisterHandlers: registerHandlers,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inventory service exited with error")
	}
}

func registerHandlers(appCtx *bootstrap.AppCtx) error {
	ledger, catalog, err := buildBackend(context.Background(), appCtx)
	if err != nil {
		return err
	}
	svc := application.NewInventoryApplicationService(ledger, catalog, otel.Tracer(serviceName))
	interfaces.NewInventoryHandler(svc).RegisterRoutes(appCtx.Mux)
	return nil
}

// buildBackend 按配置选择台账实现，并写入配置中预置的商品。
func buildBackend(ctx context.Context, appCtx *bootstrap.AppCtx) (domain.Ledger, domain.ProductCatalog, error) {
	cfg := appCtx.Config
	seeds := cfg.Inventory.Products
	for _, s := range seeds {
		if err := domain.ValidateStock(s.StockQty); err != nil {
			return nil, nil, errors.Wrapf(err, "invalid seed for product %s", s.ProductID)
		}
	}

	switch cfg.Inventory.LedgerBackend {
	case "memory", "":
		ledger := infrastructure.NewMemoryLedger()
		catalog := infrastructure.NewMemoryCatalog()
		for _, s := range seeds {
			catalog.Put(toProduct(s))
			ledger.Put(s.ProductID, s.StockQty, 0)
		}
		return ledger, catalog, nil

	case "redis":
		redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
		if err != nil {
			return nil, nil, err
		}
		appCtx.OnShutdown(func(context.Context) error { return redisClient.Close() })

		ledger, err := infrastructure.NewRedisLedger(redisClient)
		if err != nil {
			return nil, nil, err
		}
		// redis 只承载台账，商品目录来自配置
		catalog := infrastructure.NewMemoryCatalog()
		for _, s := range seeds {
			catalog.Put(toProduct(s))
			if err := ledger.Init(ctx, s.ProductID, s.StockQty); err != nil {
				return nil, nil, err
			}
		}
		return ledger, catalog, nil

	case "mysql":
		db, err := database.Open(cfg.Infra.MySQL)
		if err != nil {
			return nil, nil, err
		}
		appCtx.OnShutdown(func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		if err := db.AutoMigrate(&infrastructure.ProductModel{}, &infrastructure.InventoryModel{}); err != nil {
			return nil, nil, err
		}
		for _, s := range seeds {
			if err := infrastructure.SeedProduct(ctx, db, toProduct(s), s.StockQty); err != nil {
				return nil, nil, err
			}
		}
		return infrastructure.NewGormLedger(db), infrastructure.NewGormProductCatalog(db), nil
	}
	return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Inventory.LedgerBackend)
}

func toProduct(s bootstrap.ProductSeed) domain.Product {
	return domain.Product{
		ProductID:   s.ProductID,
		SKU:         s.SKU,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Currency:    s.Currency,
		Active:      s.Active,
	}
}
