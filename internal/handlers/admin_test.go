package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/platform/auth"
	"github.com/loomline/api/internal/services"
)

type stubInventoryService struct {
	setStockFn        func(ctx context.Context, cmd services.StockUpdateCommand) (services.Product, error)
	setAvailabilityFn func(ctx context.Context, productID string, available bool) (services.Product, error)
}

func (s *stubInventoryService) SetStock(ctx context.Context, cmd services.StockUpdateCommand) (services.Product, error) {
	if s.setStockFn != nil {
		return s.setStockFn(ctx, cmd)
	}
	return services.Product{}, services.ErrInventoryProductNotFound
}

func (s *stubInventoryService) SetAvailability(ctx context.Context, productID string, available bool) (services.Product, error) {
	if s.setAvailabilityFn != nil {
		return s.setAvailabilityFn(ctx, productID, available)
	}
	return services.Product{}, services.ErrInventoryProductNotFound
}

func newAdminTestRouter(orders services.OrderService, inventory services.InventoryService) chi.Router {
	handlers := NewAdminHandlers(nil, orders, inventory)
	r := chi.NewRouter()
	r.Route("/admin", handlers.Routes)
	return r
}

func adminRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.WithIdentity(req.Context(), &auth.Identity{UID: "staff-1", Role: auth.RoleStaff})
	return req.WithContext(ctx)
}

func TestAdminListOrdersForwardsFilter(t *testing.T) {
	orders := &stubOrderService{
		listFn: func(_ context.Context, filter services.OrderListFilter) (services.OrderListPage, error) {
			if filter.Status != "pending" || filter.PageSize != 10 {
				t.Fatalf("unexpected filter %+v", filter)
			}
			return services.OrderListPage{
				Orders:        []services.Order{placedOrder()},
				NextPageToken: "next-token",
			}, nil
		},
	}
	router := newAdminTestRouter(orders, &stubInventoryService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodGet, "/admin/orders?status=pending&pageSize=10", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Orders        []orderPayload `json:"orders"`
		NextPageToken string         `json:"next_page_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.NextPageToken != "next-token" {
		t.Fatalf("expected next page token, got %q", payload.NextPageToken)
	}
}

func TestAdminListOrdersRejectsGarbageToken(t *testing.T) {
	router := newAdminTestRouter(&stubOrderService{}, &stubInventoryService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodGet, "/admin/orders?pageToken=%21%21not-base64", ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orders := &stubOrderService{
		transitionFn: func(_ context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
			if cmd.OrderID != "order-1" || cmd.To != domain.OrderStatusApproved {
				t.Fatalf("unexpected command %+v", cmd)
			}
			order := placedOrder()
			order.Status = domain.OrderStatusApproved
			return order, nil
		},
	}
	router := newAdminTestRouter(orders, &stubInventoryService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodPut, "/admin/orders/order-1/status", `{"status":"approved"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Order.Status != "approved" {
		t.Fatalf("expected approved, got %q", payload.Order.Status)
	}
}

func TestAdminUpdateOrderStatusInvalidTransition(t *testing.T) {
	orders := &stubOrderService{
		transitionFn: func(context.Context, services.OrderStatusTransitionCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInvalidTransition
		},
	}
	router := newAdminTestRouter(orders, &stubInventoryService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodPut, "/admin/orders/order-1/status", `{"status":"delivered"}`))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAdminUpdateStock(t *testing.T) {
	inventory := &stubInventoryService{
		setStockFn: func(_ context.Context, cmd services.StockUpdateCommand) (services.Product, error) {
			if cmd.ProductID != "saree-1" || cmd.Stock != 120 {
				t.Fatalf("unexpected command %+v", cmd)
			}
			return services.Product{ID: cmd.ProductID, Stock: cmd.Stock, IsAvailable: true}, nil
		},
	}
	router := newAdminTestRouter(&stubOrderService{}, inventory)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodPut, "/admin/products/saree-1/stock", `{"stock":120}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminUpdateStockRequiresField(t *testing.T) {
	router := newAdminTestRouter(&stubOrderService{}, &stubInventoryService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodPut, "/admin/products/saree-1/stock", `{}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminUpdateAvailability(t *testing.T) {
	inventory := &stubInventoryService{
		setAvailabilityFn: func(_ context.Context, productID string, available bool) (services.Product, error) {
			if productID != "saree-1" || available {
				t.Fatalf("unexpected args %q %v", productID, available)
			}
			return services.Product{ID: productID, IsAvailable: available}, nil
		},
	}
	router := newAdminTestRouter(&stubOrderService{}, inventory)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, adminRequest(http.MethodPut, "/admin/products/saree-1/availability", `{"is_available":false}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
