package repositories

import (
	"context"
	"time"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/platform/pagination"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter narrows catalogue queries.
type ProductListFilter struct {
	Category      string
	Fabric        string
	Occasion      string
	OnlyAvailable bool
	Limit         int
}

// OrderListFilter narrows admin order queries.
type OrderListFilter struct {
	Status   domain.OrderStatus
	BuyerID  string
	PageSize int
	Cursor   *pagination.Cursor
}

// OrderPage carries one page of orders plus the cursor for the next page.
type OrderPage struct {
	Orders     []domain.Order
	NextCursor *pagination.Cursor
}

// CatalogRepository persists products and their stock levels.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
	SetStock(ctx context.Context, productID string, stock int, now time.Time) (domain.Product, error)
	SetAvailability(ctx context.Context, productID string, available bool, now time.Time) (domain.Product, error)
}

// CartRepository owns per-buyer cart persistence. A buyer has at most one cart document.
type CartRepository interface {
	GetCart(ctx context.Context, buyerID string) (domain.Cart, error)
	UpsertCart(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	DeleteCart(ctx context.Context, buyerID string) error
}

// CheckoutRequest bundles the inputs for the atomic order placement transaction.
type CheckoutRequest struct {
	Order  domain.Order
	CartID string
	Now    time.Time
}

// OrderRepository persists orders. CreateFromCart runs the stock decrement, order
// creation, and cart deletion inside one transaction.
type OrderRepository interface {
	CreateFromCart(ctx context.Context, req CheckoutRequest) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (OrderPage, error)
	UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, now time.Time) (domain.Order, error)
}

// CounterConfig tunes optional counter settings.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}

// CounterRepository provides atomic monotonically increasing sequences.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// BuyerRepository reads buyer profiles used for order and invoice enrichment.
type BuyerRepository interface {
	FindByID(ctx context.Context, buyerID string) (domain.BuyerProfile, error)
}

// HealthRepository evaluates dependency probes for readiness reporting.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
