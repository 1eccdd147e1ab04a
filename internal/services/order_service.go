package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/platform/pagination"
	"github.com/loomline/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput signals malformed order commands.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderEmptyCart indicates checkout was attempted with no cart lines.
	ErrOrderEmptyCart = errors.New("order: cart is empty")
	// ErrOrderInvalidCartState indicates the cart references products that vanished,
	// were withdrawn, or drifted below their minimum order quantity.
	ErrOrderInvalidCartState = errors.New("order: invalid cart state")
	// ErrOrderInsufficientStock indicates a product cannot cover the requested quantity.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderBuyerNotApproved indicates the buyer account is not cleared for wholesale ordering.
	ErrOrderBuyerNotApproved = errors.New("order: buyer not approved")
	// ErrOrderNotFound indicates the order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderForbidden indicates the caller may not access the order.
	ErrOrderForbidden = errors.New("order: forbidden")
	// ErrOrderInvalidTransition indicates the requested status change violates the lifecycle.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates a concurrent modification clashed with this command.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the backing store rejected the operation transiently.
	ErrOrderUnavailable = errors.New("order: unavailable")
)

// statusRank orders the forward lifecycle. Cancelled sits outside the ladder.
var statusRank = map[domain.OrderStatus]int{
	domain.OrderStatusPending:   0,
	domain.OrderStatusApproved:  1,
	domain.OrderStatusPacked:    2,
	domain.OrderStatusShipped:   3,
	domain.OrderStatusDelivered: 4,
}

// OrderServiceDeps bundles collaborators required to construct an order service instance.
type OrderServiceDeps struct {
	Orders            repositories.OrderRepository
	Carts             repositories.CartRepository
	Catalog           repositories.CatalogRepository
	Buyers            repositories.BuyerRepository
	Counters          CounterService
	Clock             func() time.Time
	IDGenerator       func() string
	Logger            func(ctx context.Context, event string, fields map[string]any)
	StrictTransitions bool
}

type orderService struct {
	orders   repositories.OrderRepository
	carts    repositories.CartRepository
	catalog  repositories.CatalogRepository
	buyers   repositories.BuyerRepository
	counters CounterService
	clock    func() time.Time
	newID    func() string
	logger   func(ctx context.Context, event string, fields map[string]any)
	strict   bool
}

// NewOrderService constructs the order service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Carts == nil {
		return nil, errors.New("order service: cart repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog repository is required")
	}
	if deps.Buyers == nil {
		return nil, errors.New("order service: buyer repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter service is required")
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

	return &orderService{
		orders:   deps.Orders,
		carts:    deps.Carts,
		catalog:  deps.Catalog,
		buyers:   deps.Buyers,
		counters: deps.Counters,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  newID,
		logger: logger,
		strict: deps.StrictTransitions,
	}, nil
}

// CreateOrder converts the buyer's cart into a pending order. Prices are
// re-resolved against the live catalogue at this moment and snapshotted onto
// the order; the stock decrement, order write, and cart deletion commit
// atomically in the repository.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	uid := strings.TrimSpace(cmd.BuyerID)
	if uid == "" {
		return Order{}, fmt.Errorf("%w: buyer id is required", ErrOrderInvalidInput)
	}
	if err := validateShippingAddress(cmd.ShippingAddress); err != nil {
		return Order{}, err
	}

	buyer, err := s.buyers.FindByID(ctx, uid)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Order{}, fmt.Errorf("%w: no buyer profile for %s", ErrOrderBuyerNotApproved, uid)
		}
		return Order{}, s.translateRepoError(err)
	}
	if !buyer.IsApproved {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderBuyerNotApproved, uid)
	}

	cart, err := s.carts.GetCart(ctx, uid)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return Order{}, ErrOrderEmptyCart
		}
		return Order{}, s.translateRepoError(err)
	}
	if len(cart.Items) == 0 {
		return Order{}, ErrOrderEmptyCart
	}

	items, err := s.snapshotItems(ctx, cart.Items)
	if err != nil {
		return Order{}, err
	}

	total, err := ComputeOrderTotal(items)
	if err != nil {
		return Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidCartState, err)
	}

	invoiceNumber, err := s.counters.NextInvoiceNumber(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("order: issue invoice number: %w", err)
	}

	now := s.clock()
	order := domain.Order{
		ID:              s.newID(),
		BuyerID:         uid,
		Items:           items,
		TotalAmount:     total,
		ShippingAddress: cmd.ShippingAddress,
		Status:          domain.OrderStatusPending,
		InvoiceNumber:   invoiceNumber,
		Notes:           strings.TrimSpace(cmd.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	created, err := s.orders.CreateFromCart(ctx, repositories.CheckoutRequest{
		Order:  order,
		CartID: uid,
		Now:    now,
	})
	if err != nil {
		return Order{}, s.translateCheckoutError(err)
	}

	s.logger(ctx, "order_created", map[string]any{
		"orderId":       created.ID,
		"buyerId":       uid,
		"invoiceNumber": created.InvoiceNumber,
		"totalAmount":   created.TotalAmount,
		"itemCount":     len(created.Items),
	})
	return created, nil
}

// GetOrder fetches an order, restricting access to its owner or admin callers.
func (s *orderService) GetOrder(ctx context.Context, requester Requester, orderID string) (Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}
	if !requester.Admin && order.BuyerID != requester.UID {
		return Order{}, fmt.Errorf("%w: order %s", ErrOrderForbidden, id)
	}
	return order, nil
}

// ListMyOrders returns the buyer's orders, newest first.
func (s *orderService) ListMyOrders(ctx context.Context, buyerID string) ([]Order, error) {
	uid := strings.TrimSpace(buyerID)
	if uid == "" {
		return nil, fmt.Errorf("%w: buyer id is required", ErrOrderInvalidInput)
	}

	orders, err := s.orders.ListByBuyer(ctx, uid)
	if err != nil {
		return nil, s.translateRepoError(err)
	}
	return orders, nil
}

// ListOrders returns a page of orders for the admin surface.
func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (OrderListPage, error) {
	repoFilter := repositories.OrderListFilter{
		BuyerID:  strings.TrimSpace(filter.BuyerID),
		PageSize: filter.PageSize,
		Cursor:   filter.Cursor,
	}
	if raw := strings.TrimSpace(filter.Status); raw != "" {
		status := domain.OrderStatus(strings.ToLower(raw))
		if !status.IsValid() {
			return OrderListPage{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, raw)
		}
		repoFilter.Status = status
	}

	page, err := s.orders.List(ctx, repoFilter)
	if err != nil {
		return OrderListPage{}, s.translateRepoError(err)
	}

	result := OrderListPage{Orders: page.Orders}
	if page.NextCursor != nil {
		result.NextPageToken = pagination.EncodeToken(*page.NextCursor)
	}
	return result, nil
}

// TransitionStatus moves an order along its lifecycle. Terminal orders are
// immutable; in strict mode only single forward steps (or cancellation) are
// accepted, otherwise any forward jump is allowed.
func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if !cmd.To.IsValid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, cmd.To)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, s.translateRepoError(err)
	}

	if err := s.validateTransition(order.Status, cmd.To); err != nil {
		return Order{}, err
	}

	updated, err := s.orders.UpdateStatus(ctx, id, order.Status, cmd.To, s.clock())
	if err != nil {
		var orderErr *repositories.OrderError
		if errors.As(err, &orderErr) && orderErr.Code == repositories.OrderErrorStatusConflict {
			return Order{}, fmt.Errorf("%w: %s", ErrOrderConflict, orderErr.Message)
		}
		return Order{}, s.translateRepoError(err)
	}

	s.logger(ctx, "order_status_changed", map[string]any{
		"orderId": id,
		"from":    string(order.Status),
		"to":      string(cmd.To),
	})
	return updated, nil
}

func (s *orderService) validateTransition(from, to domain.OrderStatus) error {
	if from == to {
		return fmt.Errorf("%w: order is already %s", ErrOrderInvalidTransition, from)
	}
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrOrderInvalidTransition, from)
	}
	if to == domain.OrderStatusCancelled {
		return nil
	}

	fromRank, ok := statusRank[from]
	if !ok {
		return fmt.Errorf("%w: cannot leave status %s", ErrOrderInvalidTransition, from)
	}
	toRank, ok := statusRank[to]
	if !ok {
		return fmt.Errorf("%w: cannot enter status %s", ErrOrderInvalidTransition, to)
	}
	if toRank <= fromRank {
		return fmt.Errorf("%w: %s to %s moves backwards", ErrOrderInvalidTransition, from, to)
	}
	if s.strict && toRank != fromRank+1 {
		return fmt.Errorf("%w: %s to %s skips intermediate steps", ErrOrderInvalidTransition, from, to)
	}
	return nil
}

// snapshotItems re-resolves each cart line against the live catalogue and
// freezes name, image, and tier price onto the order.
func (s *orderService) snapshotItems(ctx context.Context, cartItems []domain.CartItem) ([]domain.OrderItem, error) {
	products := make(map[string]domain.Product, len(cartItems))
	items := make([]domain.OrderItem, 0, len(cartItems))

	for _, line := range cartItems {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: line %s has quantity %d", ErrOrderInvalidCartState, line.ID, line.Quantity)
		}

		product, ok := products[line.ProductID]
		if !ok {
			var err error
			product, err = s.catalog.GetProduct(ctx, line.ProductID)
			if err != nil {
				var repoErr repositories.RepositoryError
				if errors.As(err, &repoErr) && repoErr.IsNotFound() {
					return nil, fmt.Errorf("%w: product %s no longer exists", ErrOrderInvalidCartState, line.ProductID)
				}
				return nil, s.translateRepoError(err)
			}
			products[line.ProductID] = product
		}

		if !product.IsAvailable {
			return nil, fmt.Errorf("%w: product %s is not available", ErrOrderInvalidCartState, line.ProductID)
		}
		if line.Quantity < product.MOQ {
			return nil, fmt.Errorf("%w: line %s is below the minimum order of %d", ErrOrderInvalidCartState, line.ID, product.MOQ)
		}

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.PrimaryImage(),
			Quantity:  line.Quantity,
			Size:      line.Size,
			Color:     line.Color,
			UnitPrice: ResolveUnitPrice(product.WholesalePrice, product.BulkTiers, line.Quantity),
		})
	}

	return items, nil
}

func (s *orderService) translateCheckoutError(err error) error {
	var inventoryErr *repositories.InventoryError
	if errors.As(err, &inventoryErr) {
		switch inventoryErr.Code {
		case repositories.InventoryErrorInsufficientStock:
			return fmt.Errorf("%w: %s", ErrOrderInsufficientStock, inventoryErr.Message)
		case repositories.InventoryErrorProductNotFound, repositories.InventoryErrorProductUnavailable:
			return fmt.Errorf("%w: %s", ErrOrderInvalidCartState, inventoryErr.Message)
		}
	}
	var orderErr *repositories.OrderError
	if errors.As(err, &orderErr) && orderErr.Code == repositories.OrderErrorCartMissing {
		return fmt.Errorf("%w: %s", ErrOrderConflict, orderErr.Message)
	}
	return s.translateRepoError(err)
}

func (s *orderService) translateRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return err
}

func validateShippingAddress(addr domain.ShippingAddress) error {
	if strings.TrimSpace(addr.Street) == "" {
		return fmt.Errorf("%w: shipping street is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(addr.City) == "" {
		return fmt.Errorf("%w: shipping city is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(addr.State) == "" {
		return fmt.Errorf("%w: shipping state is required", ErrOrderInvalidInput)
	}
	if strings.TrimSpace(addr.Pincode) == "" {
		return fmt.Errorf("%w: shipping pincode is required", ErrOrderInvalidInput)
	}
	return nil
}
