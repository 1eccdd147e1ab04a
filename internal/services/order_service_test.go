package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/repositories"
)

type stubOrderRepository struct {
	createFn       func(ctx context.Context, req repositories.CheckoutRequest) (domain.Order, error)
	findFn         func(ctx context.Context, orderID string) (domain.Order, error)
	listByBuyerFn  func(ctx context.Context, buyerID string) ([]domain.Order, error)
	listFn         func(ctx context.Context, filter repositories.OrderListFilter) (repositories.OrderPage, error)
	updateStatusFn func(ctx context.Context, orderID string, from, to domain.OrderStatus, now time.Time) (domain.Order, error)
}

func (s *stubOrderRepository) CreateFromCart(ctx context.Context, req repositories.CheckoutRequest) (domain.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return req.Order, nil
}

func (s *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findFn != nil {
		return s.findFn(ctx, orderID)
	}
	return domain.Order{}, &stubRepoError{notFound: true}
}

func (s *stubOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if s.listByBuyerFn != nil {
		return s.listByBuyerFn(ctx, buyerID)
	}
	return nil, nil
}

func (s *stubOrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (repositories.OrderPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return repositories.OrderPage{}, nil
}

func (s *stubOrderRepository) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, now time.Time) (domain.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, orderID, from, to, now)
	}
	return domain.Order{ID: orderID, Status: to, UpdatedAt: now}, nil
}

type stubBuyerRepository struct {
	buyers map[string]domain.BuyerProfile
}

func (s *stubBuyerRepository) FindByID(_ context.Context, buyerID string) (domain.BuyerProfile, error) {
	buyer, ok := s.buyers[buyerID]
	if !ok {
		return domain.BuyerProfile{}, &stubRepoError{notFound: true}
	}
	return buyer, nil
}

func approvedBuyer() *stubBuyerRepository {
	return &stubBuyerRepository{buyers: map[string]domain.BuyerProfile{
		"buyer-1": {ID: "buyer-1", Name: "Meera Textiles", Company: "Meera Textiles Pvt Ltd", IsApproved: true},
	}}
}

type orderServiceFixture struct {
	orders  *stubOrderRepository
	carts   *stubCartRepository
	catalog *stubCatalogRepository
	buyers  *stubBuyerRepository
}

func newTestOrderService(t *testing.T, fixture orderServiceFixture, strict bool) OrderService {
	t.Helper()

	if fixture.orders == nil {
		fixture.orders = &stubOrderRepository{}
	}
	if fixture.carts == nil {
		fixture.carts = newStubCartRepository()
	}
	if fixture.catalog == nil {
		fixture.catalog = newStubCatalogRepository(testSaree())
	}
	if fixture.buyers == nil {
		fixture.buyers = approvedBuyer()
	}

	counters, err := NewCounterService(CounterServiceDeps{
		Repository: newStubCounterRepository(),
		Clock:      fixedClock(time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("failed to construct counter service: %v", err)
	}

	svc, err := NewOrderService(OrderServiceDeps{
		Orders:            fixture.orders,
		Carts:             fixture.carts,
		Catalog:           fixture.catalog,
		Buyers:            fixture.buyers,
		Counters:          counters,
		Clock:             fixedClock(time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC)),
		IDGenerator:       func() string { return "order-1" },
		StrictTransitions: strict,
	})
	if err != nil {
		t.Fatalf("failed to construct order service: %v", err)
	}
	return svc
}

func testAddress() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:  "14 Textile Market Road",
		City:    "Surat",
		State:   "Gujarat",
		Pincode: "395002",
		Country: "India",
	}
}

func cartWithLines(items ...domain.CartItem) *stubCartRepository {
	carts := newStubCartRepository()
	carts.carts["buyer-1"] = domain.Cart{
		ID:      "buyer-1",
		BuyerID: "buyer-1",
		Items:   items,
	}
	return carts
}

func TestCreateOrderSnapshotsTierPricing(t *testing.T) {
	kurta := domain.Product{
		ID:             "kurta-1",
		Name:           "Chikankari Kurta Set",
		WholesalePrice: 850,
		MOQ:            10,
		Stock:          300,
		IsAvailable:    true,
	}
	saree := testSaree()

	var captured repositories.CheckoutRequest
	orders := &stubOrderRepository{
		createFn: func(_ context.Context, req repositories.CheckoutRequest) (domain.Order, error) {
			captured = req
			return req.Order, nil
		},
	}

	svc := newTestOrderService(t, orderServiceFixture{
		orders:  orders,
		catalog: newStubCatalogRepository(saree, kurta),
		carts: cartWithLines(
			domain.CartItem{ID: "line-1", ProductID: "kurta-1", Quantity: 10},
			domain.CartItem{ID: "line-2", ProductID: "saree-1", Quantity: 60},
		),
	}, true)

	order, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
		BuyerID:         "buyer-1",
		ShippingAddress: testAddress(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if order.TotalAmount != 51700 {
		t.Fatalf("expected total 51700, got %d", order.TotalAmount)
	}
	if order.InvoiceNumber != "LT-202508-000001" {
		t.Fatalf("expected invoice number LT-202508-000001, got %q", order.InvoiceNumber)
	}
	if captured.CartID != "buyer-1" {
		t.Fatalf("expected checkout to target cart buyer-1, got %q", captured.CartID)
	}

	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if order.Items[0].UnitPrice != 850 {
		t.Fatalf("expected base price 850 for quantity 10, got %d", order.Items[0].UnitPrice)
	}
	if order.Items[1].UnitPrice != 720 {
		t.Fatalf("expected tier price 720 for quantity 60, got %d", order.Items[1].UnitPrice)
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc := newTestOrderService(t, orderServiceFixture{}, true)

	_, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
		BuyerID:         "buyer-1",
		ShippingAddress: testAddress(),
	})
	if !errors.Is(err, ErrOrderEmptyCart) {
		t.Fatalf("expected ErrOrderEmptyCart, got %v", err)
	}
}

func TestCreateOrderRejectsIncompleteAddress(t *testing.T) {
	for field, mutate := range map[string]func(*domain.ShippingAddress){
		"street":  func(a *domain.ShippingAddress) { a.Street = "" },
		"city":    func(a *domain.ShippingAddress) { a.City = "" },
		"state":   func(a *domain.ShippingAddress) { a.State = "" },
		"pincode": func(a *domain.ShippingAddress) { a.Pincode = "" },
	} {
		svc := newTestOrderService(t, orderServiceFixture{
			carts: cartWithLines(domain.CartItem{ID: "line-1", ProductID: "saree-1", Quantity: 25}),
		}, true)

		addr := testAddress()
		mutate(&addr)

		_, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
			BuyerID:         "buyer-1",
			ShippingAddress: addr,
		})
		if !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("expected ErrOrderInvalidInput for missing %s, got %v", field, err)
		}
	}
}

func TestCreateOrderUnapprovedBuyer(t *testing.T) {
	buyers := &stubBuyerRepository{buyers: map[string]domain.BuyerProfile{
		"buyer-1": {ID: "buyer-1", IsApproved: false},
	}}
	svc := newTestOrderService(t, orderServiceFixture{
		buyers: buyers,
		carts:  cartWithLines(domain.CartItem{ID: "line-1", ProductID: "saree-1", Quantity: 25}),
	}, true)

	_, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
		BuyerID:         "buyer-1",
		ShippingAddress: testAddress(),
	})
	if !errors.Is(err, ErrOrderBuyerNotApproved) {
		t.Fatalf("expected ErrOrderBuyerNotApproved, got %v", err)
	}
}

func TestCreateOrderVanishedProduct(t *testing.T) {
	svc := newTestOrderService(t, orderServiceFixture{
		catalog: newStubCatalogRepository(),
		carts:   cartWithLines(domain.CartItem{ID: "line-1", ProductID: "saree-1", Quantity: 25}),
	}, true)

	_, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
		BuyerID:         "buyer-1",
		ShippingAddress: testAddress(),
	})
	if !errors.Is(err, ErrOrderInvalidCartState) {
		t.Fatalf("expected ErrOrderInvalidCartState, got %v", err)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	orders := &stubOrderRepository{
		createFn: func(context.Context, repositories.CheckoutRequest) (domain.Order, error) {
			return domain.Order{}, repositories.NewInventoryError(
				repositories.InventoryErrorInsufficientStock, "saree-1", "product saree-1 has 5 in stock, 25 requested", nil)
		},
	}
	svc := newTestOrderService(t, orderServiceFixture{
		orders: orders,
		carts:  cartWithLines(domain.CartItem{ID: "line-1", ProductID: "saree-1", Quantity: 25}),
	}, true)

	_, err := svc.CreateOrder(context.Background(), CreateOrderCommand{
		BuyerID:         "buyer-1",
		ShippingAddress: testAddress(),
	})
	if !errors.Is(err, ErrOrderInsufficientStock) {
		t.Fatalf("expected ErrOrderInsufficientStock, got %v", err)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return domain.Order{ID: orderID, BuyerID: "buyer-1"}, nil
		},
	}
	svc := newTestOrderService(t, orderServiceFixture{orders: orders}, true)
	ctx := context.Background()

	if _, err := svc.GetOrder(ctx, Requester{UID: "buyer-1"}, "order-1"); err != nil {
		t.Fatalf("expected owner access, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, Requester{UID: "buyer-2"}, "order-1"); !errors.Is(err, ErrOrderForbidden) {
		t.Fatalf("expected ErrOrderForbidden for other buyer, got %v", err)
	}
	if _, err := svc.GetOrder(ctx, Requester{UID: "staff-1", Admin: true}, "order-1"); err != nil {
		t.Fatalf("expected admin access, got %v", err)
	}
}

func TestTransitionStatusStrictLifecycle(t *testing.T) {
	current := domain.OrderStatusPending
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return domain.Order{ID: orderID, BuyerID: "buyer-1", Status: current}, nil
		},
	}
	svc := newTestOrderService(t, orderServiceFixture{orders: orders}, true)
	ctx := context.Background()

	if _, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusApproved}); err != nil {
		t.Fatalf("expected pending->approved to succeed, got %v", err)
	}

	if _, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusShipped}); !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("expected strict mode to reject skipped steps, got %v", err)
	}

	current = domain.OrderStatusShipped
	if _, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusApproved}); !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("expected backwards transition rejection, got %v", err)
	}

	current = domain.OrderStatusDelivered
	if _, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusCancelled}); !errors.Is(err, ErrOrderInvalidTransition) {
		t.Fatalf("expected terminal order to be immutable, got %v", err)
	}

	current = domain.OrderStatusPacked
	if _, err := svc.TransitionStatus(ctx, OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusCancelled}); err != nil {
		t.Fatalf("expected cancellation from packed, got %v", err)
	}
}

func TestTransitionStatusLenientMode(t *testing.T) {
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return domain.Order{ID: orderID, Status: domain.OrderStatusPending}, nil
		},
	}
	svc := newTestOrderService(t, orderServiceFixture{orders: orders}, false)

	if _, err := svc.TransitionStatus(context.Background(), OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusShipped}); err != nil {
		t.Fatalf("expected lenient mode to allow forward jumps, got %v", err)
	}
}

func TestTransitionStatusConflict(t *testing.T) {
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			return domain.Order{ID: orderID, Status: domain.OrderStatusPending}, nil
		},
		updateStatusFn: func(context.Context, string, domain.OrderStatus, domain.OrderStatus, time.Time) (domain.Order, error) {
			return domain.Order{}, repositories.NewOrderError(repositories.OrderErrorStatusConflict, "order moved concurrently", nil)
		},
	}
	svc := newTestOrderService(t, orderServiceFixture{orders: orders}, true)

	_, err := svc.TransitionStatus(context.Background(), OrderStatusTransitionCommand{OrderID: "order-1", To: domain.OrderStatusApproved})
	if !errors.Is(err, ErrOrderConflict) {
		t.Fatalf("expected ErrOrderConflict, got %v", err)
	}
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	svc := newTestOrderService(t, orderServiceFixture{}, true)

	_, err := svc.ListOrders(context.Background(), OrderListFilter{Status: "refunded"})
	if !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}
