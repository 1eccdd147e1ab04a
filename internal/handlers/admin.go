package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loomline/api/internal/platform/auth"
	"github.com/loomline/api/internal/platform/httpx"
	"github.com/loomline/api/internal/platform/pagination"
	"github.com/loomline/api/internal/services"
)

const maxAdminBodySize = 16 * 1024

// AdminHandlers exposes staff-facing order and inventory management endpoints.
type AdminHandlers struct {
	authn     *auth.Authenticator
	orders    services.OrderService
	inventory services.InventoryService

	ordersPageSize int
}

// AdminOption customises AdminHandlers construction.
type AdminOption func(*AdminHandlers)

// WithAdminOrdersPageSize overrides the default page size for order listings.
func WithAdminOrdersPageSize(size int) AdminOption {
	return func(h *AdminHandlers) {
		if size > 0 {
			h.ordersPageSize = size
		}
	}
}

// NewAdminHandlers constructs handlers for the /admin group.
func NewAdminHandlers(authn *auth.Authenticator, orders services.OrderService, inventory services.InventoryService, opts ...AdminOption) *AdminHandlers {
	h := &AdminHandlers{
		authn:          authn,
		orders:         orders,
		inventory:      inventory,
		ordersPageSize: 20,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth(auth.RoleAdmin, auth.RoleStaff))
	}
	r.Get("/orders", h.listOrders)
	r.Put("/orders/{orderId}/status", h.updateOrderStatus)
	r.Put("/products/{productId}/stock", h.updateStock)
	r.Put("/products/{productId}/availability", h.updateAvailability)
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	params, err := pagination.Decode(r.URL.Query(), pagination.Options{DefaultPageSize: h.ordersPageSize})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.orders.ListOrders(ctx, services.OrderListFilter{
		Status:   r.URL.Query().Get("status"),
		BuyerID:  r.URL.Query().Get("buyerId"),
		PageSize: params.PageSize,
		Cursor:   params.Cursor,
	})
	if err != nil {
		h.writeAdminOrderError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(page.Orders))
	for _, order := range page.Orders {
		payload = append(payload, buildOrderPayload(order))
	}

	response := map[string]any{"orders": payload}
	if page.NextPageToken != "" {
		response["next_page_token"] = page.NextPageToken
	}
	writeJSONResponse(w, http.StatusOK, response)
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}

	var req updateOrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	order, err := h.orders.TransitionStatus(ctx, services.OrderStatusTransitionCommand{
		OrderID: chi.URLParam(r, "orderId"),
		To:      services.OrderStatus(req.Status),
	})
	if err != nil {
		h.writeAdminOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *AdminHandlers) updateStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.inventory == nil {
		httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}

	var req updateStockRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if req.Stock == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "stock is required", http.StatusBadRequest))
		return
	}

	product, err := h.inventory.SetStock(ctx, services.StockUpdateCommand{
		ProductID: chi.URLParam(r, "productId"),
		Stock:     *req.Stock,
	})
	if err != nil {
		h.writeInventoryError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminHandlers) updateAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.inventory == nil {
		httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(w, r, err)
		return
	}

	var req updateAvailabilityRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if req.IsAvailable == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "is_available is required", http.StatusBadRequest))
		return
	}

	product, err := h.inventory.SetAvailability(ctx, chi.URLParam(r, "productId"), *req.IsAvailable)
	if err != nil {
		h.writeInventoryError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *AdminHandlers) writeAdminOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order was modified concurrently; retry", http.StatusConflict))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order", http.StatusInternalServerError))
	}
}

func (h *AdminHandlers) writeInventoryError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrInventoryInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInventoryProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInventoryUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("inventory_error", "failed to update product", http.StatusInternalServerError))
	}
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type updateStockRequest struct {
	Stock *int `json:"stock"`
}

type updateAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}
