// internal/pkg/metrics/metrics.go
package metrics

import (
	"strings"

	"fulfillment/internal/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SagaOutcomes 记录每次下单 Saga 的结果，outcome 为 ok 或错误分类。
	SagaOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_saga_outcomes_total",
		Help: "Order creation sagas by outcome.",
	}, []string{"outcome"})

	// CompensationReleases 记录补偿释放的结果。失败意味着库存可能被超额占用。
	CompensationReleases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_compensation_releases_total",
		Help: "Inventory releases issued by compensation or cancellation, by phase and result.",
	}, []string{"phase", "result"})

	// InventoryClientAttempts 记录远程库存调用的每一次尝试（含重试）。
	InventoryClientAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_client_attempts_total",
		Help: "Remote inventory calls per attempt, by operation and result.",
	}, []string{"operation", "result"})

	// LedgerOperations 记录库存台账的操作结果。
	LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_ledger_operations_total",
		Help: "Inventory ledger operations by operation and result.",
	}, []string{"operation", "result"})

	// OrderTransitions 记录订单状态流转。
	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status and result.",
	}, []string{"to", "result"})
)

// Result 把错误归约为指标标签：成功为 ok，失败为小写的错误分类。
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(apperr.KindOf(err)))
}
