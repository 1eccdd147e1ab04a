package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/services"
)

type stubOrderService struct {
	createFn     func(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error)
	getFn        func(ctx context.Context, requester services.Requester, orderID string) (services.Order, error)
	listMyFn     func(ctx context.Context, buyerID string) ([]services.Order, error)
	listFn       func(ctx context.Context, filter services.OrderListFilter) (services.OrderListPage, error)
	transitionFn func(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Order{}, services.ErrOrderEmptyCart
}

func (s *stubOrderService) GetOrder(ctx context.Context, requester services.Requester, orderID string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, requester, orderID)
	}
	return services.Order{}, services.ErrOrderNotFound
}

func (s *stubOrderService) ListMyOrders(ctx context.Context, buyerID string) ([]services.Order, error) {
	if s.listMyFn != nil {
		return s.listMyFn(ctx, buyerID)
	}
	return nil, nil
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (services.OrderListPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return services.OrderListPage{}, nil
}

func (s *stubOrderService) TransitionStatus(ctx context.Context, cmd services.OrderStatusTransitionCommand) (services.Order, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, cmd)
	}
	return services.Order{}, services.ErrOrderNotFound
}

type stubInvoiceService struct {
	buildFn func(ctx context.Context, requester services.Requester, orderID string) (services.InvoiceDocument, error)
}

func (s *stubInvoiceService) BuildInvoice(ctx context.Context, requester services.Requester, orderID string) (services.InvoiceDocument, error) {
	if s.buildFn != nil {
		return s.buildFn(ctx, requester, orderID)
	}
	return services.InvoiceDocument{}, services.ErrInvoiceOrderNotFound
}

func placedOrder() services.Order {
	return services.Order{
		ID:      "order-1",
		BuyerID: "buyer-1",
		Items: []domain.OrderItem{
			{ProductID: "saree-1", Name: "Banarasi Silk Saree", Quantity: 60, UnitPrice: 720},
		},
		TotalAmount:   43200,
		Status:        domain.OrderStatusPending,
		InvoiceNumber: "LT-202508-000001",
		CreatedAt:     time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC),
	}
}

func newOrderTestRouter(orders services.OrderService, invoices services.InvoiceService) chi.Router {
	handlers := NewOrderHandlers(nil, orders, invoices)
	r := chi.NewRouter()
	r.Route("/orders", handlers.Routes)
	return r
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	orders := &stubOrderService{
		createFn: func(_ context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
			if cmd.BuyerID != "buyer-1" {
				t.Fatalf("expected buyer-1, got %q", cmd.BuyerID)
			}
			if cmd.ShippingAddress.City != "Surat" {
				t.Fatalf("expected shipping city Surat, got %q", cmd.ShippingAddress.City)
			}
			return placedOrder(), nil
		},
	}
	router := newOrderTestRouter(orders, &stubInvoiceService{})

	body := `{"shipping_address":{"street":"14 Textile Market Road","city":"Surat","state":"Gujarat","pincode":"395002","country":"India"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/orders", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload orderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Order.InvoiceNumber != "LT-202508-000001" {
		t.Fatalf("expected invoice number in payload, got %q", payload.Order.InvoiceNumber)
	}
	if payload.Order.Status != "pending" {
		t.Fatalf("expected pending status, got %q", payload.Order.Status)
	}
}

func TestCreateOrderEmptyCartMapsToBadRequest(t *testing.T) {
	router := newOrderTestRouter(&stubOrderService{}, &stubInvoiceService{})

	body := `{"shipping_address":{"street":"x","city":"Surat","pincode":"395002"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/orders", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cart_empty") {
		t.Fatalf("expected cart_empty code, got %s", rec.Body.String())
	}
}

func TestCreateOrderInsufficientStockMapsToConflict(t *testing.T) {
	orders := &stubOrderService{
		createFn: func(context.Context, services.CreateOrderCommand) (services.Order, error) {
			return services.Order{}, services.ErrOrderInsufficientStock
		},
	}
	router := newOrderTestRouter(orders, &stubInvoiceService{})

	body := `{"shipping_address":{"street":"x","city":"Surat","pincode":"395002"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/orders", body))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestGetOrderForwardsRequester(t *testing.T) {
	orders := &stubOrderService{
		getFn: func(_ context.Context, requester services.Requester, orderID string) (services.Order, error) {
			if requester.UID != "buyer-1" || requester.Admin {
				t.Fatalf("unexpected requester %+v", requester)
			}
			order := placedOrder()
			order.ID = orderID
			return order, nil
		},
	}
	router := newOrderTestRouter(orders, &stubInvoiceService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/orders/order-1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListMyOrders(t *testing.T) {
	orders := &stubOrderService{
		listMyFn: func(_ context.Context, buyerID string) ([]services.Order, error) {
			if buyerID != "buyer-1" {
				t.Fatalf("expected buyer-1, got %q", buyerID)
			}
			return []services.Order{placedOrder()}, nil
		},
	}
	router := newOrderTestRouter(orders, &stubInvoiceService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/orders/my", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload struct {
		Orders []orderPayload `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(payload.Orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(payload.Orders))
	}
}

func TestDownloadInvoiceSetsAttachmentHeaders(t *testing.T) {
	invoices := &stubInvoiceService{
		buildFn: func(_ context.Context, requester services.Requester, orderID string) (services.InvoiceDocument, error) {
			return services.InvoiceDocument{
				InvoiceNumber: "LT-202508-000001",
				Filename:      "invoice-LT-202508-000001.txt",
				ContentType:   "text/plain; charset=utf-8",
				Content:       []byte("TAX INVOICE"),
			}, nil
		},
	}
	router := newOrderTestRouter(&stubOrderService{}, invoices)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/orders/order-1/invoice", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "invoice-LT-202508-000001.txt") {
		t.Fatalf("expected attachment filename header, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}
	if rec.Body.String() != "TAX INVOICE" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestDownloadInvoiceForbidden(t *testing.T) {
	invoices := &stubInvoiceService{
		buildFn: func(context.Context, services.Requester, string) (services.InvoiceDocument, error) {
			return services.InvoiceDocument{}, services.ErrInvoiceForbidden
		},
	}
	router := newOrderTestRouter(&stubOrderService{}, invoices)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodGet, "/orders/order-1/invoice", ""))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
