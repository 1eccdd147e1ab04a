package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/repositories"
)

var (
	// ErrCartInvalidInput signals malformed cart commands such as quantities below the product MOQ.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartItemNotFound indicates the referenced cart line does not exist.
	ErrCartItemNotFound = errors.New("cart: item not found")
	// ErrCartProductNotFound indicates the referenced product does not exist in the catalogue.
	ErrCartProductNotFound = errors.New("cart: product not found")
	// ErrCartProductUnavailable indicates the product is withdrawn from sale.
	ErrCartProductUnavailable = errors.New("cart: product unavailable")
	// ErrCartConflict indicates a concurrent modification clashed with this command.
	ErrCartConflict = errors.New("cart: conflict")
	// ErrCartUnavailable indicates the backing store rejected the operation transiently.
	ErrCartUnavailable = errors.New("cart: unavailable")
)

// CartServiceDeps bundles collaborators required to construct a cart service instance.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	carts   repositories.CartRepository
	catalog repositories.CatalogRepository
	clock   func() time.Time
	newID   func() string
	logger  func(ctx context.Context, event string, fields map[string]any)
}

// NewCartService constructs the cart service.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("cart service: catalog repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  newID,
		logger: logger,
	}, nil
}

// GetCart returns the hydrated cart, or an empty view when the buyer has no cart yet.
func (s *cartService) GetCart(ctx context.Context, buyerID string) (CartView, error) {
	uid := strings.TrimSpace(buyerID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: buyer id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmpty(ctx, uid)
	if err != nil {
		return CartView{}, err
	}
	return s.hydrate(ctx, cart)
}

// AddItem adds a product variant line to the cart. Size and color are carried
// as free-form labels that only distinguish lines. Adding a variant already in
// the cart replaces that line's quantity rather than accumulating it.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, error) {
	uid := strings.TrimSpace(cmd.BuyerID)
	productID := strings.TrimSpace(cmd.ProductID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: buyer id is required", ErrCartInvalidInput)
	}
	if productID == "" {
		return CartView{}, fmt.Errorf("%w: product id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return CartView{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return CartView{}, s.translateProductError(err)
	}
	if !product.IsAvailable {
		return CartView{}, fmt.Errorf("%w: %s", ErrCartProductUnavailable, productID)
	}
	if cmd.Quantity < product.MOQ {
		return CartView{}, fmt.Errorf("%w: quantity %d is below the minimum order of %d", ErrCartInvalidInput, cmd.Quantity, product.MOQ)
	}

	now := s.clock()
	cart, err := s.loadOrEmpty(ctx, uid)
	if err != nil {
		return CartView{}, err
	}

	incoming := domain.CartItem{
		ID:        s.newID(),
		ProductID: productID,
		Quantity:  cmd.Quantity,
		Size:      strings.TrimSpace(cmd.Size),
		Color:     strings.TrimSpace(cmd.Color),
		AddedAt:   now,
	}

	merged := false
	for idx, item := range cart.Items {
		if item.SameVariant(incoming) {
			cart.Items[idx].Quantity = cmd.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, incoming)
	}
	cart.UpdatedAt = now

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}

	s.logger(ctx, "cart_item_added", map[string]any{
		"buyerId":   uid,
		"productId": productID,
		"quantity":  cmd.Quantity,
		"merged":    merged,
	})
	return s.hydrate(ctx, saved)
}

// UpdateItem replaces the quantity of an existing cart line.
func (s *cartService) UpdateItem(ctx context.Context, cmd UpdateCartItemCommand) (CartView, error) {
	uid := strings.TrimSpace(cmd.BuyerID)
	itemID := strings.TrimSpace(cmd.ItemID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: buyer id is required", ErrCartInvalidInput)
	}
	if itemID == "" {
		return CartView{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return CartView{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmpty(ctx, uid)
	if err != nil {
		return CartView{}, err
	}

	idx := -1
	for i, item := range cart.Items {
		if item.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return CartView{}, fmt.Errorf("%w: %s", ErrCartItemNotFound, itemID)
	}

	product, err := s.catalog.GetProduct(ctx, cart.Items[idx].ProductID)
	if err != nil {
		return CartView{}, s.translateProductError(err)
	}
	if cmd.Quantity < product.MOQ {
		return CartView{}, fmt.Errorf("%w: quantity %d is below the minimum order of %d", ErrCartInvalidInput, cmd.Quantity, product.MOQ)
	}

	cart.Items[idx].Quantity = cmd.Quantity
	cart.UpdatedAt = s.clock()

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.hydrate(ctx, saved)
}

// RemoveItem drops a cart line. Removing an unknown line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, buyerID, itemID string) (CartView, error) {
	uid := strings.TrimSpace(buyerID)
	id := strings.TrimSpace(itemID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: buyer id is required", ErrCartInvalidInput)
	}
	if id == "" {
		return CartView{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	cart, err := s.loadOrEmpty(ctx, uid)
	if err != nil {
		return CartView{}, err
	}

	filtered := cart.Items[:0]
	removed := false
	for _, item := range cart.Items {
		if item.ID == id {
			removed = true
			continue
		}
		filtered = append(filtered, item)
	}
	if !removed {
		return s.hydrate(ctx, cart)
	}

	cart.Items = filtered
	cart.UpdatedAt = s.clock()

	saved, err := s.carts.UpsertCart(ctx, cart)
	if err != nil {
		return CartView{}, s.translateRepoError(err)
	}
	return s.hydrate(ctx, saved)
}

// Clear deletes the buyer's cart entirely.
func (s *cartService) Clear(ctx context.Context, buyerID string) error {
	uid := strings.TrimSpace(buyerID)
	if uid == "" {
		return fmt.Errorf("%w: buyer id is required", ErrCartInvalidInput)
	}
	if err := s.carts.DeleteCart(ctx, uid); err != nil {
		translated := s.translateRepoError(err)
		if errors.Is(translated, ErrCartItemNotFound) {
			return nil
		}
		return translated
	}
	return nil
}

func (s *cartService) loadOrEmpty(ctx context.Context, buyerID string) (domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, buyerID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			now := s.clock()
			return domain.Cart{ID: buyerID, BuyerID: buyerID, CreatedAt: now, UpdatedAt: now}, nil
		}
		return domain.Cart{}, s.translateRepoError(err)
	}
	return cart, nil
}

// hydrate joins stored cart lines with live product data so callers always see
// current prices and stock. Lines whose product vanished stay visible but are
// flagged unavailable.
func (s *cartService) hydrate(ctx context.Context, cart domain.Cart) (CartView, error) {
	view := CartView{
		BuyerID:   cart.BuyerID,
		Items:     make([]CartViewItem, 0, len(cart.Items)),
		UpdatedAt: cart.UpdatedAt,
	}

	products := make(map[string]domain.Product, len(cart.Items))
	for _, item := range cart.Items {
		if _, ok := products[item.ProductID]; ok {
			continue
		}
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				continue
			}
			return CartView{}, s.translateRepoError(err)
		}
		products[item.ProductID] = product
	}

	for _, item := range cart.Items {
		line := CartViewItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			AddedAt:   item.AddedAt,
		}
		if product, ok := products[item.ProductID]; ok {
			line.Name = product.Name
			line.Image = product.PrimaryImage()
			line.MOQ = product.MOQ
			line.Stock = product.Stock
			line.IsAvailable = product.IsAvailable
			line.UnitPrice = ResolveUnitPrice(product.WholesalePrice, product.BulkTiers, item.Quantity)
			line.LineTotal = line.UnitPrice * int64(item.Quantity)
			view.Subtotal += line.LineTotal
		}
		view.Items = append(view.Items, line)
	}

	return view, nil
}

func (s *cartService) translateProductError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCartProductNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCartConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
		}
	}
	return err
}

func (s *cartService) translateRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrCartItemNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrCartConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
		}
	}
	return err
}
