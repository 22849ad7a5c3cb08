package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/httpserver"
	"fulfillment/internal/service/inventory/application"
)

const serviceName = "inventory-service"

// InventoryHandler 封装了 inventory 服务的 HTTP 处理器
type InventoryHandler struct {
	service *application.InventoryApplicationService
}

// NewInventoryHandler 创建一个新的 HTTP 处理器实例
func NewInventoryHandler(service *application.InventoryApplicationService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /api/v1/products/{productId}":          h.handleGetProduct,
		"GET /api/v1/inventory/{productId}":         h.handleGetInventory,
		"PUT /api/v1/inventory/{productId}":         h.handleSetStock,
		"POST /api/v1/inventory/{productId}/reserve": h.handleReserve,
		"POST /api/v1/inventory/{productId}/release": h.handleRelease,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, httpserver.Middleware(serviceName, fn))
	}
}

func (h *InventoryHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), r.PathValue("productId"))
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *InventoryHandler) handleGetInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInventory(r.Context(), r.PathValue("productId"))
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toInventoryResponse(inv))
}

func (h *InventoryHandler) handleSetStock(w http.ResponseWriter, r *http.Request) {
	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StockQty == nil {
		httpserver.WriteError(w, r, apperr.New(apperr.KindInvalidArgument, "request body must contain stockQty"))
		return
	}
	inv, err := h.service.SetStock(r.Context(), r.PathValue("productId"), *req.StockQty)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toInventoryResponse(inv))
}

func (h *InventoryHandler) handleReserve(w http.ResponseWriter, r *http.Request) {
	qty, err := parseQty(r)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	inv, err := h.service.Reserve(r.Context(), r.PathValue("productId"), qty)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toInventoryResponse(inv))
}

func (h *InventoryHandler) handleRelease(w http.ResponseWriter, r *http.Request) {
	qty, err := parseQty(r)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	inv, err := h.service.Release(r.Context(), r.PathValue("productId"), qty)
	if err != nil {
		httpserver.WriteError(w, r, err)
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, toInventoryResponse(inv))
}

func parseQty(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("qty")
	qty, err := strconv.Atoi(raw)
	if err != nil || qty <= 0 {
		return 0, apperr.New(apperr.KindInvalidArgument, "qty must be a positive integer, got %q", raw)
	}
	return qty, nil
}
