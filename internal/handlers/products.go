package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/loomline/api/internal/platform/httpx"
	"github.com/loomline/api/internal/services"
)

// ProductHandlers exposes the public catalogue browsing endpoints. The read
// side carries no buyer state, so no authentication is required.
type ProductHandlers struct {
	catalog services.CatalogService
}

// NewProductHandlers constructs handlers for the /products group.
func NewProductHandlers(catalog services.CatalogService) *ProductHandlers {
	return &ProductHandlers{catalog: catalog}
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listProducts)
	r.Get("/{productId}", h.getProduct)
	r.Get("/{productId}/price", h.previewPrice)
}

func (h *ProductHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	filter := services.ProductListFilter{
		Category: query.Get("category"),
		Fabric:   query.Get("fabric"),
		Occasion: query.Get("occasion"),
	}
	if raw := strings.TrimSpace(query.Get("available")); raw != "" {
		filter.OnlyAvailable = strings.EqualFold(raw, "true")
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a positive integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	products, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payload})
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product": buildProductPayload(product)})
}

func (h *ProductHandlers) previewPrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("quantity")))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "quantity must be an integer", http.StatusBadRequest))
		return
	}

	preview, err := h.catalog.PreviewPrice(ctx, chi.URLParam(r, "productId"), quantity)
	if err != nil {
		h.writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, pricePreviewPayload{
		ProductID: preview.ProductID,
		Quantity:  preview.Quantity,
		UnitPrice: preview.UnitPrice,
		LineTotal: preview.LineTotal,
	})
}

func (h *ProductHandlers) writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to read catalogue", http.StatusInternalServerError))
	}
}

func buildProductPayload(product services.Product) productPayload {
	tiers := make([]priceTierPayload, 0, len(product.BulkTiers))
	for _, tier := range product.BulkTiers {
		tiers = append(tiers, priceTierPayload{MinQuantity: tier.MinQuantity, UnitPrice: tier.UnitPrice})
	}

	return productPayload{
		ID:             product.ID,
		Name:           product.Name,
		Description:    product.Description,
		Category:       product.Category,
		Fabric:         product.Fabric,
		Style:          product.Style,
		Occasion:       product.Occasion,
		Images:         product.Images,
		Sizes:          product.Sizes,
		Colors:         product.Colors,
		WholesalePrice: product.WholesalePrice,
		MRP:            product.MRP,
		MOQ:            product.MOQ,
		BulkPricing:    tiers,
		Stock:          product.Stock,
		IsAvailable:    product.IsAvailable,
		CreatedAt:      formatTime(product.CreatedAt),
		UpdatedAt:      formatTime(product.UpdatedAt),
	}
}

type productPayload struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Category       string             `json:"category,omitempty"`
	Fabric         string             `json:"fabric,omitempty"`
	Style          string             `json:"style,omitempty"`
	Occasion       string             `json:"occasion,omitempty"`
	Images         []string           `json:"images,omitempty"`
	Sizes          []string           `json:"sizes,omitempty"`
	Colors         []string           `json:"colors,omitempty"`
	WholesalePrice int64              `json:"wholesale_price"`
	MRP            int64              `json:"mrp,omitempty"`
	MOQ            int                `json:"moq"`
	BulkPricing    []priceTierPayload `json:"bulk_pricing,omitempty"`
	Stock          int                `json:"stock"`
	IsAvailable    bool               `json:"is_available"`
	CreatedAt      string             `json:"created_at,omitempty"`
	UpdatedAt      string             `json:"updated_at,omitempty"`
}

type priceTierPayload struct {
	MinQuantity int   `json:"min_qty"`
	UnitPrice   int64 `json:"price"`
}

type pricePreviewPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LineTotal int64  `json:"line_total"`
}
