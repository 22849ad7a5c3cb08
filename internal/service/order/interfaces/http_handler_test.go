package interfaces

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fulfillment/internal/pkg/httpclient"
	"fulfillment/internal/pkg/httpserver"
	invapp "fulfillment/internal/service/inventory/application"
	invdomain "fulfillment/internal/service/inventory/domain"
	invinfra "fulfillment/internal/service/inventory/infrastructure"
	invhttp "fulfillment/internal/service/inventory/interfaces"
	"fulfillment/internal/service/order/application"
	"fulfillment/internal/service/order/infrastructure"
	"fulfillment/internal/service/order/infrastructure/adapter"

	"go.opentelemetry.io/otel/trace/noop"
)

var tracer = noop.NewTracerProvider().Tracer("test")

type env struct {
	orders *httptest.Server
	ledger *invinfra.MemoryLedger
}

// newEnv 启动一个内存版的库存服务和指向它的订单服务。
func newEnv(t *testing.T) *env {
	t.Helper()
	ledger := invinfra.NewMemoryLedger()
	ledger.Put("P1", 10, 0)
	ledger.Put("P2", 1, 0)
	ledger.Put("P3", 10, 0)
	catalog := invinfra.NewMemoryCatalog()
	catalog.Put(invdomain.Product{ProductID: "P1", SKU: "SKU-P1", Name: "Desk", Price: 100, Currency: "USD", Active: true})
	catalog.Put(invdomain.Product{ProductID: "P2", SKU: "SKU-P2", Name: "Chair", Price: 25.5, Currency: "USD", Active: true})
	catalog.Put(invdomain.Product{ProductID: "P3", SKU: "SKU-P3", Name: "Lamp", Price: 5, Currency: "USD", Active: false})

	invMux := http.NewServeMux()
	invhttp.NewInventoryHandler(invapp.NewInventoryApplicationService(ledger, catalog, tracer)).RegisterRoutes(invMux)
	invSrv := httptest.NewServer(invMux)
	t.Cleanup(invSrv.Close)

	return &env{orders: newOrderServer(t, invSrv.URL), ledger: ledger}
}

func newOrderServer(t *testing.T, inventoryURL string) *httptest.Server {
	t.Helper()
	inventory := adapter.NewInventoryHTTPAdapter(
		httpclient.NewClient(tracer, time.Second),
		adapter.StaticResolver(inventoryURL),
		adapter.RetryConfig{Timeout: time.Second, MaxRetries: 2, InitialBackoff: time.Millisecond},
	)
	svc := application.NewOrderApplicationService(
		infrastructure.NewMemoryOrderRepository(), tracer, inventory, adapter.LogEventPublisher{}, "USD")
	mux := http.NewServeMux()
	NewOrderHandler(svc).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func (e *env) reserved(t *testing.T, productID string) int {
	t.Helper()
	inv, err := e.ledger.Get(t.Context(), productID)
	if err != nil {
		t.Fatalf("get inventory: %v", err)
	}
	return inv.ReservedQty
}

func TestOrderLifecycle(t *testing.T) {
	e := newEnv(t)

	var created OrderResponse
	status := call(t, http.MethodPost, e.orders.URL+"/api/v1/orders",
		`{"customerId":"c-1","items":[{"productId":"P1","quantity":2},{"productId":"P2","quantity":1}]}`, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if created.Status != "CREATED" || created.OrderTotal != 225.5 || len(created.Items) != 2 || created.Items[1].SKU != "SKU-P2" {
		t.Fatalf("unexpected order %+v", created)
	}
	if e.reserved(t, "P1") != 2 || e.reserved(t, "P2") != 1 {
		t.Fatalf("expected reservations to be held")
	}

	var fetched OrderResponse
	if status := call(t, http.MethodGet, e.orders.URL+"/api/v1/orders/"+created.OrderID, "", &fetched); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if fetched.OrderID != created.OrderID {
		t.Fatalf("fetched wrong order %+v", fetched)
	}

	var cancelled OrderResponse
	if status := call(t, http.MethodPost, e.orders.URL+"/api/v1/orders/"+created.OrderID+"/cancel", "", &cancelled); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if cancelled.Status != "CANCELLED" || e.reserved(t, "P1") != 0 || e.reserved(t, "P2") != 0 {
		t.Fatalf("cancel must release every line, got %+v", cancelled)
	}

	var errResp httpserver.ErrorResponse
	if status := call(t, http.MethodPost, e.orders.URL+"/api/v1/orders/"+created.OrderID+"/confirm", "", &errResp); status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if errResp.ErrorCode != "INVALID_ORDER_STATE" {
		t.Fatalf("unexpected error code %q", errResp.ErrorCode)
	}
}

func TestCreateOrderFailureCompensates(t *testing.T) {
	e := newEnv(t)

	var errResp httpserver.ErrorResponse
	status := call(t, http.MethodPost, e.orders.URL+"/api/v1/orders",
		`{"customerId":"c-1","items":[{"productId":"P1","quantity":2},{"productId":"P2","quantity":5}]}`, &errResp)
	if status != http.StatusBadRequest || errResp.ErrorCode != "OUT_OF_STOCK" {
		t.Fatalf("expected 400 OUT_OF_STOCK, got %d %q", status, errResp.ErrorCode)
	}
	if e.reserved(t, "P1") != 0 {
		t.Fatalf("P1 reservation must be compensated")
	}

	var page PageResponse
	call(t, http.MethodGet, e.orders.URL+"/api/v1/orders?customerId=c-1", "", &page)
	if page.TotalElements != 0 {
		t.Fatalf("no order may be stored, got %d", page.TotalElements)
	}
}

func TestCreateOrderErrorMapping(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty items", `{"customerId":"c-1","items":[]}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed", `{"customerId":`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown product", `{"customerId":"c-1","items":[{"productId":"nope","quantity":1}]}`, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"inactive product", `{"customerId":"c-1","items":[{"productId":"P3","quantity":1}]}`, http.StatusBadRequest, "PRODUCT_INACTIVE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var errResp httpserver.ErrorResponse
			status := call(t, http.MethodPost, e.orders.URL+"/api/v1/orders", tc.body, &errResp)
			if status != tc.status || errResp.ErrorCode != tc.code {
				t.Fatalf("expected %d %s, got %d %s", tc.status, tc.code, status, errResp.ErrorCode)
			}
			if errResp.Path != "/api/v1/orders" {
				t.Fatalf("expected path in error body, got %q", errResp.Path)
			}
		})
	}
}

func TestInventoryUnavailableMapsToBadGateway(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(down.Close)
	orders := newOrderServer(t, down.URL)

	var errResp httpserver.ErrorResponse
	status := call(t, http.MethodPost, orders.URL+"/api/v1/orders",
		`{"customerId":"c-1","items":[{"productId":"P1","quantity":1}]}`, &errResp)
	if status != http.StatusBadGateway || errResp.ErrorCode != "PRODUCT_SERVICE_UNAVAILABLE" {
		t.Fatalf("expected 502 PRODUCT_SERVICE_UNAVAILABLE, got %d %s", status, errResp.ErrorCode)
	}
}

func TestListOrdersPaging(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		if status := call(t, http.MethodPost, e.orders.URL+"/api/v1/orders",
			`{"customerId":"c-9","items":[{"productId":"P1","quantity":1}]}`, nil); status != http.StatusCreated {
			t.Fatalf("expected 201, got %d", status)
		}
	}

	var page PageResponse
	if status := call(t, http.MethodGet, e.orders.URL+"/api/v1/orders?customerId=c-9&page=1&size=2", "", &page); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if page.TotalElements != 3 || page.TotalPages != 2 || page.Page != 1 || page.Size != 2 || len(page.Content) != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	var errResp httpserver.ErrorResponse
	if status := call(t, http.MethodGet, e.orders.URL+"/api/v1/orders?customerId=c-9&sort=price,desc", "", &errResp); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sort field, got %d", status)
	}
	if status := call(t, http.MethodGet, e.orders.URL+"/api/v1/orders/unknown", "", &errResp); status != http.StatusNotFound || errResp.ErrorCode != "NOT_FOUND" {
		t.Fatalf("expected 404 NOT_FOUND, got %d %s", status, errResp.ErrorCode)
	}
}
