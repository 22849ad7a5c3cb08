// cmd/order-service/main.go
package main

import (
	"context"
	"fmt"

	"fulfillment/internal/pkg/bootstrap"
	"fulfillment/internal/pkg/database"
	"fulfillment/internal/pkg/httpclient"
	"fulfillment/internal/pkg/mq"
	"fulfillment/internal/service/order/application"
	"fulfillment/internal/service/order/domain"
	"fulfillment/internal/service/order/domain/port"
	"fulfillment/internal/service/order/infrastructure"
	"fulfillment/internal/service/order/infrastructure/adapter"
	"fulfillment/internal/service/order/interfaces"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const serviceName = "order-service"

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
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
		log.Fatal().Err(err).Msg("order service exited with error")
	}
}

func registerHandlers(appCtx *bootstrap.AppCtx) error {
	cfg := appCtx.Config
	tracer := otel.Tracer(serviceName)

	repo, err := buildRepository(appCtx)
	if err != nil {
		return err
	}

	// 1. 远程库存客户端：有 Nacos 时按服务名发现，否则使用固定地址
	var resolver adapter.BaseURLResolver = adapter.StaticResolver(cfg.InventoryClient.BaseURL)
	if appCtx.Nacos != nil {
		resolver = &adapter.DiscoveryResolver{Discoverer: appCtx.Nacos, ServiceName: cfg.InventoryClient.ServiceName}
	}
	inventory := adapter.NewInventoryHTTPAdapter(
		httpclient.NewClient(tracer, cfg.InventoryClient.ConnectTimeout),
		resolver,
		adapter.RetryConfig{
			Timeout:        cfg.InventoryClient.Timeout,
			MaxRetries:     cfg.InventoryClient.MaxRetries,
			InitialBackoff: cfg.InventoryClient.InitialBackoff,
		},
	)

	// 2. 事件发布：未配置 broker 时只写日志
	publisher := buildPublisher(appCtx)

	// 3. 应用服务和 HTTP 入口
	svc := application.NewOrderApplicationService(repo, tracer, inventory, publisher, cfg.Order.DefaultCurrency)
	interfaces.NewOrderHandler(svc).RegisterRoutes(appCtx.Mux)
	return nil
}

func buildRepository(appCtx *bootstrap.AppCtx) (domain.OrderRepository, error) {
	cfg := appCtx.Config
	switch cfg.Order.Repository {
	case "memory", "":
		return infrastructure.NewMemoryOrderRepository(), nil
	case "mysql":
		db, err := database.Open(cfg.Infra.MySQL)
		if err != nil {
			return nil, err
		}
		appCtx.OnShutdown(func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		if err := db.AutoMigrate(&infrastructure.OrderModel{}, &infrastructure.OrderItemModel{}); err != nil {
			return nil, err
		}
		return infrastructure.NewGormOrderRepository(db), nil
	}
	return nil, fmt.Errorf("unknown order repository %q", cfg.Order.Repository)
}

func buildPublisher(appCtx *bootstrap.AppCtx) port.OrderEventPublisher {
	cfg := appCtx.Config
	brokers := cfg.KafkaBrokers()
	if len(brokers) == 0 {
		log.Warn().Msg("no kafka brokers configured, order events will only be logged")
		return adapter.LogEventPublisher{}
	}

	orderWriter := mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.OrderEventsTopic)
	failureWriter := mq.NewKafkaWriter(brokers, cfg.Infra.Kafka.ReleaseFailureTopic)
	appCtx.OnShutdown(func(context.Context) error { return orderWriter.Close() })
	appCtx.OnShutdown(func(context.Context) error { return failureWriter.Close() })
	return adapter.NewOrderEventKafkaAdapter(orderWriter, failureWriter)
}
