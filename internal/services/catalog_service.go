package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/loomline/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals malformed catalogue queries.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogProductNotFound indicates the product does not exist.
	ErrCatalogProductNotFound = errors.New("catalog: product not found")
	// ErrCatalogUnavailable indicates the backing store rejected the operation transiently.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
)

// CatalogServiceDeps bundles collaborators required to construct a catalog service instance.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	catalog repositories.CatalogRepository
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{catalog: deps.Catalog, logger: logger}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error) {
	products, err := s.catalog.ListProducts(ctx, repositories.ProductListFilter{
		Category:      strings.TrimSpace(filter.Category),
		Fabric:        strings.TrimSpace(filter.Fabric),
		Occasion:      strings.TrimSpace(filter.Occasion),
		OnlyAvailable: filter.OnlyAvailable,
		Limit:         filter.Limit,
	})
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}
	return product, nil
}

// PreviewPrice resolves the tier price a buyer would pay for the quantity
// without touching their cart.
func (s *catalogService) PreviewPrice(ctx context.Context, productID string, quantity int) (PricePreview, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return PricePreview{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if quantity <= 0 {
		return PricePreview{}, fmt.Errorf("%w: quantity must be positive", ErrCatalogInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return PricePreview{}, s.translateRepoError(err)
	}

	unitPrice := ResolveUnitPrice(product.WholesalePrice, product.BulkTiers, quantity)
	return PricePreview{
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: unitPrice * int64(quantity),
	}, nil
}

func (s *catalogService) translateRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCatalogProductNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
	}
	return err
}
