package saga

import "fulfillment/internal/service/order/domain"

// NewOrderCreationChain 组装下单责任链：校验 -> 预占库存 -> 持久化 -> 发布事件。
func NewOrderCreationChain(repo domain.OrderRepository) Handler {
	chain := new(ValidateHandler)
	chain.
		SetNext(new(InventoryHandler)).
		SetNext(NewCreateOrderHandler(repo)).
		SetNext(new(NotificationHandler))
	return chain
}
