package interfaces

import (
	"encoding/json"
	"net/http"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/httpserver"
	"fulfillment/internal/service/order/application"
	"fulfillment/internal/service/order/domain"
)

const serviceName = "order-service"

// OrderHandler 封装了 order 服务的 HTTP 处理器
type OrderHandler struct {
	service *application.OrderApplicationService
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例
func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"POST /api/v1/orders":                   h.handleCreateOrder,
		"GET /api/v1/orders":                    h.handleListOrders,
		"GET /api/v1/orders/{orderId}":          h.handleGetOrder,
		"POST /api/v1/orders/{orderId}/cancel":  h.handleCancelOrder,
		"POST /api/v1/orders/{orderId}/confirm": h.handleConfirmOrder,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, httpserver.Middleware(serviceName, fn))
	}
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.WriteError(w, r, apperr.Wrap(apperr.KindInvalidArgument, err, "malformed request body"))
		return
	}
	order, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.OrderID)
	httpserver.WriteJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), r.PathValue("orderId"))
	h.writeOrder(w, r, order, err)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := application.ParsePageRequest(q.Get("page"), q.Get("size"), q.Get("sort"))
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	result, err := h.service.ListOrders(r.Context(), q.Get("customerId"), page)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toPageResponse(result))
}

func (h *OrderHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrder(r.Context(), r.PathValue("orderId"))
	h.writeOrder(w, r, order, err)
}

func (h *OrderHandler) handleConfirmOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.ConfirmOrder(r.Context(), r.PathValue("orderId"))
	h.writeOrder(w, r, order, err)
}

func (h *OrderHandler) writeOrder(w http.ResponseWriter, r *http.Request, order *domain.Order, err error) {
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toOrderResponse(order))
}
