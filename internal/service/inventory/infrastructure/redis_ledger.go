// internal/service/inventory/infrastructure/redis_ledger.go
package infrastructure

import (
	"context"
	"fmt"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/redis"
	"fulfillment/internal/service/inventory/domain"

	"github.com/pkg/errors"
)

const (
	reserveScriptName  = "inventory_reserve"
	releaseScriptName  = "inventory_release"
	setStockScriptName = "inventory_set_stock"
	getScriptName      = "inventory_get"
)

// 脚本返回 {code, stock, reserved, updated_at_ms}
const (
	codeRejected = 0
	codeOK       = 1
	codeNotFound = -1
)

// RedisLedger 把每个商品存成一个 hash，key 带 hash tag 以兼容集群。
// 每个操作是一段 Lua 脚本，检查和修改在服务端一次完成。
type RedisLedger struct {
	redisClient *redis.Client
	now         func() time.Time
}

// NewRedisLedger 创建台账并加载所有脚本。
func NewRedisLedger(redisClient *redis.Client) (*RedisLedger, error) {
	scripts := map[string]string{
		reserveScriptName:  reserveScript,
		releaseScriptName:  releaseScript,
		setStockScriptName: setStockScript,
		getScriptName:      getScript,
	}
	for name, src := range scripts {
		if err := redisClient.LoadScriptFromContent(name, src); err != nil {
			return nil, errors.Wrapf(err, "failed to load ledger script %s", name)
		}
	}
	return &RedisLedger{redisClient: redisClient, now: time.Now}, nil
}

func inventoryKey(productID string) string {
	return fmt.Sprintf("inventory:{%s}", productID)
}

// Init 在记录不存在时写入初始库存，已存在的记录不受影响。
func (l *RedisLedger) Init(ctx context.Context, productID string, stockQty int) error {
	key := inventoryKey(productID)
	pipe := l.redisClient.GetClient().Pipeline()
	pipe.HSetNX(ctx, key, "stock", stockQty)
	pipe.HSetNX(ctx, key, "reserved", 0)
	pipe.HSetNX(ctx, key, "updated_at", l.now().UnixMilli())
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to init inventory for %s", productID)
	}
	return nil
}

func (l *RedisLedger) Reserve(ctx context.Context, productID string, qty int) (*domain.Inventory, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	inv, code, err := l.run(ctx, reserveScriptName, productID, qty)
	if err != nil {
		return nil, err
	}
	switch code {
	case codeOK:
		return inv, nil
	case codeNotFound:
		return nil, domain.NotFound(productID)
	default:
		return nil, apperr.New(apperr.KindInsufficientStock,
			"insufficient stock for product %s: requested %d, available %d", productID, qty, inv.AvailableQty())
	}
}

func (l *RedisLedger) Release(ctx context.Context, productID string, qty int) (*domain.Inventory, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	inv, code, err := l.run(ctx, releaseScriptName, productID, qty)
	if err != nil {
		return nil, err
	}
	switch code {
	case codeOK:
		return inv, nil
	case codeNotFound:
		return nil, domain.NotFound(productID)
	default:
		return nil, apperr.New(apperr.KindInvalidRelease,
			"cannot release %d units of product %s: only %d reserved", qty, productID, inv.ReservedQty)
	}
}

func (l *RedisLedger) SetStock(ctx context.Context, productID string, stockQty int) (*domain.Inventory, error) {
	if err := domain.ValidateStock(stockQty); err != nil {
		return nil, err
	}
	inv, code, err := l.run(ctx, setStockScriptName, productID, stockQty)
	if err != nil {
		return nil, err
	}
	switch code {
	case codeOK:
		return inv, nil
	case codeNotFound:
		return nil, domain.NotFound(productID)
	default:
		return nil, apperr.New(apperr.KindInvalidArgument,
			"stock quantity %d for product %s is below reserved quantity %d", stockQty, productID, inv.ReservedQty)
	}
}

func (l *RedisLedger) Get(ctx context.Context, productID string) (*domain.Inventory, error) {
	inv, code, err := l.run(ctx, getScriptName, productID, 0)
	if err != nil {
		return nil, err
	}
	if code == codeNotFound {
		return nil, domain.NotFound(productID)
	}
	return inv, nil
}

func (l *RedisLedger) run(ctx context.Context, script, productID string, qty int) (*domain.Inventory, int64, error) {
	vals, err := l.redisClient.RunScript(ctx, script, []string{inventoryKey(productID)}, qty, l.now().UnixMilli()).Int64Slice()
	if err != nil {
		return nil, 0, errors.Wrapf(err, "ledger script %s failed for %s", script, productID)
	}
	return parseScriptResult(productID, vals)
}

func parseScriptResult(productID string, vals []int64) (*domain.Inventory, int64, error) {
	if len(vals) != 4 {
		return nil, 0, fmt.Errorf("unexpected ledger script result for %s: %v", productID, vals)
	}
	inv := &domain.Inventory{
		ProductID:   productID,
		StockQty:    int(vals[1]),
		ReservedQty: int(vals[2]),
		UpdatedAt:   time.UnixMilli(vals[3]).UTC(),
	}
	return inv, vals[0], nil
}

// KEYS[1]: inventory:{productId}
// ARGV[1]: 数量  ARGV[2]: 当前时间（毫秒）
const readRecord = `
if redis.call('exists', KEYS[1]) == 0 then
    return {-1, 0, 0, 0}
end
local stock = tonumber(redis.call('hget', KEYS[1], 'stock')) or 0
local reserved = tonumber(redis.call('hget', KEYS[1], 'reserved')) or 0
local updated = tonumber(redis.call('hget', KEYS[1], 'updated_at')) or 0
local qty = tonumber(ARGV[1])
`

var reserveScript = readRecord + `
if stock - reserved < qty then
    return {0, stock, reserved, updated}
end
reserved = redis.call('hincrby', KEYS[1], 'reserved', qty)
redis.call('hset', KEYS[1], 'updated_at', ARGV[2])
return {1, stock, reserved, tonumber(ARGV[2])}
`

var releaseScript = readRecord + `
if qty > reserved then
    return {0, stock, reserved, updated}
end
reserved = redis.call('hincrby', KEYS[1], 'reserved', -qty)
redis.call('hset', KEYS[1], 'updated_at', ARGV[2])
return {1, stock, reserved, tonumber(ARGV[2])}
`

var setStockScript = readRecord + `
if qty < reserved then
    return {0, stock, reserved, updated}
end
redis.call('hset', KEYS[1], 'stock', qty, 'updated_at', ARGV[2])
return {1, qty, reserved, tonumber(ARGV[2])}
`

var getScript = readRecord + `
return {1, stock, reserved, updated}
`
