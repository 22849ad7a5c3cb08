package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/httpclient"
	"fulfillment/internal/pkg/httpserver"
	"fulfillment/internal/pkg/logger"
	"fulfillment/internal/pkg/metrics"
	"fulfillment/internal/service/order/domain/port"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

const (
	productPath = "/api/v1/products/%s"
	reservePath = "/api/v1/inventory/%s/reserve"
	releasePath = "/api/v1/inventory/%s/release"
)

// BaseURLResolver 给出库存服务当前的地址，每次尝试前都会调用一次。
type BaseURLResolver interface {
	BaseURL(ctx context.Context) (string, error)
}

// StaticResolver 使用配置中的固定地址。
type StaticResolver string

func (s StaticResolver) BaseURL(context.Context) (string, error) {
	if s == "" {
		return "", errors.New("inventory base url is not configured")
	}
	return string(s), nil
}

// ServiceDiscoverer 是服务发现的最小接口，由 nacos.Client 实现。
type ServiceDiscoverer interface {
	DiscoverServiceInstance(serviceName string) (string, int, error)
}

// DiscoveryResolver 通过注册中心解析库存服务地址。
type DiscoveryResolver struct {
	Discoverer  ServiceDiscoverer
	ServiceName string
}

func (r *DiscoveryResolver) BaseURL(context.Context) (string, error) {
	ip, port, err := r.Discoverer.DiscoverServiceInstance(r.ServiceName)
	if err != nil {
		return "", errors.Wrapf(err, "discover %s", r.ServiceName)
	}
	return fmt.Sprintf("http://%s:%d", ip, port), nil
}

// RetryConfig 控制单次调用的超时和重试策略。
type RetryConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
}

// InventoryHTTPAdapter 实现了 port.InventoryService 接口。
// 连接错误、超时和 5xx 会按指数退避重试；4xx 不重试。
type InventoryHTTPAdapter struct {
	client   *httpclient.Client
	resolver BaseURLResolver
	cfg      RetryConfig
}

// NewInventoryHTTPAdapter 创建一个新的库存服务适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client, resolver BaseURLResolver, cfg RetryConfig) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, resolver: resolver, cfg: cfg}
}

type productResponse struct {
	ProductID string  `json:"productId"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	Active    bool    `json:"active"`
}

// FetchProduct 查询商品信息。
func (a *InventoryHTTPAdapter) FetchProduct(ctx context.Context, productID string) (*port.Product, error) {
	var resp productResponse
	err := a.call(ctx, "fetch_product", func(ctx context.Context, baseURL string) error {
		return a.client.Get(ctx, baseURL+fmt.Sprintf(productPath, url.PathEscape(productID)), &resp)
	})
	if err != nil {
		return nil, err
	}
	return &port.Product{
		ProductID: resp.ProductID,
		SKU:       resp.SKU,
		Name:      resp.Name,
		Price:     resp.Price,
		Currency:  resp.Currency,
		Active:    resp.Active,
	}, nil
}

// Reserve 预占库存。
func (a *InventoryHTTPAdapter) Reserve(ctx context.Context, productID string, qty int) error {
	return a.call(ctx, "reserve", func(ctx context.Context, baseURL string) error {
		return a.client.Post(ctx, baseURL+fmt.Sprintf(reservePath, url.PathEscape(productID)), qtyParams(qty), nil)
	})
}

// Release 释放预占。失败会被记录并返回，由调用方决定是否吞掉。
func (a *InventoryHTTPAdapter) Release(ctx context.Context, productID string, qty int) error {
	err := a.call(ctx, "release", func(ctx context.Context, baseURL string) error {
		return a.client.Post(ctx, baseURL+fmt.Sprintf(releasePath, url.PathEscape(productID)), qtyParams(qty), nil)
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("product_id", productID).Int("quantity", qty).Msg("inventory release failed")
	}
	return err
}

func qtyParams(qty int) url.Values {
	params := url.Values{}
	params.Set("qty", strconv.Itoa(qty))
	return params
}

// call 执行一次带重试的远程调用。attempt 返回的错误在这里被分类：
// 4xx 转为 backoff.Permanent 立即结束，其余视为瞬时错误。
func (a *InventoryHTTPAdapter) call(ctx context.Context, operation string, attempt func(ctx context.Context, baseURL string) error) error {
	attempts := 0
	op := func() error {
		attempts++
		baseURL, err := a.resolver.BaseURL(ctx)
		if err != nil {
			metrics.InventoryClientAttempts.WithLabelValues(operation, "unresolved").Inc()
			return err
		}

		attemptCtx := ctx
		if a.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
			defer cancel()
		}

		err = attempt(attemptCtx, baseURL)
		if err == nil {
			metrics.InventoryClientAttempts.WithLabelValues(operation, "ok").Inc()
			return nil
		}

		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			classified := classify(statusErr)
			metrics.InventoryClientAttempts.WithLabelValues(operation, metrics.Result(classified)).Inc()
			return backoff.Permanent(classified)
		}
		metrics.InventoryClientAttempts.WithLabelValues(operation, "transient").Inc()
		return err
	}

	notify := func(err error, wait time.Duration) {
		logger.Ctx(ctx).Warn().Err(err).Str("operation", operation).Int("attempt", attempts).
			Dur("backoff", wait).Msg("inventory call failed, retrying")
	}

	err := backoff.RetryNotify(op, a.newBackOff(ctx), notify)
	if err == nil {
		return nil
	}
	if _, ok := err.(*apperr.Error); ok {
		return err
	}
	return apperr.Wrap(apperr.KindServiceUnavailable, err,
		"inventory service unavailable after %d attempt(s) of %s", attempts, operation)
}

func (a *InventoryHTTPAdapter) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.cfg.InitialBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0
	retries := a.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// classify 把 4xx 响应映射为本地错误分类。
func classify(statusErr *httpclient.StatusError) error {
	var body httpserver.ErrorResponse
	_ = json.Unmarshal(statusErr.Body, &body)
	message := body.Message
	if message == "" {
		message = statusErr.Error()
	}

	switch apperr.Kind(body.ErrorCode) {
	case apperr.KindInsufficientStock, apperr.KindOutOfStock:
		return apperr.New(apperr.KindOutOfStock, "%s", message)
	case apperr.KindNotFound, apperr.KindProductNotFound:
		return apperr.New(apperr.KindProductNotFound, "%s", message)
	case apperr.KindProductInactive:
		return apperr.New(apperr.KindProductInactive, "%s", message)
	case apperr.KindInvalidRelease:
		return apperr.New(apperr.KindInvalidRelease, "%s", message)
	}
	if statusErr.StatusCode == http.StatusNotFound {
		return apperr.New(apperr.KindProductNotFound, "%s", message)
	}
	return apperr.Wrap(apperr.KindServiceUnavailable, statusErr, "inventory service rejected request: %s", message)
}
