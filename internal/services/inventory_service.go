package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loomline/api/internal/repositories"
)

var (
	// ErrInventoryInvalidInput signals malformed stock commands.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryProductNotFound indicates the product does not exist.
	ErrInventoryProductNotFound = errors.New("inventory: product not found")
	// ErrInventoryUnavailable indicates the backing store rejected the operation transiently.
	ErrInventoryUnavailable = errors.New("inventory: unavailable")
)

// InventoryServiceDeps bundles collaborators required to construct an inventory service instance.
type InventoryServiceDeps struct {
	Catalog repositories.CatalogRepository
	Clock   func() time.Time
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	catalog repositories.CatalogRepository
	clock   func() time.Time
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewInventoryService constructs the inventory service for the admin surface.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("inventory service: catalog repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &inventoryService{
		catalog: deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// SetStock replaces the absolute stock level of a product.
func (s *inventoryService) SetStock(ctx context.Context, cmd StockUpdateCommand) (Product, error) {
	id := strings.TrimSpace(cmd.ProductID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrInventoryInvalidInput)
	}
	if cmd.Stock < 0 {
		return Product{}, fmt.Errorf("%w: stock cannot be negative", ErrInventoryInvalidInput)
	}

	product, err := s.catalog.SetStock(ctx, id, cmd.Stock, s.clock())
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}

	s.logger(ctx, "stock_updated", map[string]any{
		"productId": id,
		"stock":     cmd.Stock,
	})
	return product, nil
}

// SetAvailability toggles whether the product is offered for sale.
func (s *inventoryService) SetAvailability(ctx context.Context, productID string, available bool) (Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrInventoryInvalidInput)
	}

	product, err := s.catalog.SetAvailability(ctx, id, available, s.clock())
	if err != nil {
		return Product{}, s.translateRepoError(err)
	}

	s.logger(ctx, "availability_updated", map[string]any{
		"productId":   id,
		"isAvailable": available,
	})
	return product, nil
}

func (s *inventoryService) translateRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrInventoryProductNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
		}
	}
	return err
}
