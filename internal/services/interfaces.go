package services

import (
	"context"
	"time"

	"github.com/loomline/api/internal/domain"
	"github.com/loomline/api/internal/platform/pagination"
)

// Domain aliases keep service signatures terse while the canonical definitions
// live in the domain package.
type (
	Product            = domain.Product
	PriceTier          = domain.PriceTier
	Cart               = domain.Cart
	CartItem           = domain.CartItem
	Order              = domain.Order
	OrderItem          = domain.OrderItem
	OrderStatus        = domain.OrderStatus
	ShippingAddress    = domain.ShippingAddress
	BuyerProfile       = domain.BuyerProfile
	SystemHealthReport = domain.SystemHealthReport
)

// BuildInfo describes the running binary for health reporting.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// CatalogService exposes read access to the wholesale product catalogue.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductListFilter) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	PreviewPrice(ctx context.Context, productID string, quantity int) (PricePreview, error)
}

// ProductListFilter narrows catalogue listings.
type ProductListFilter struct {
	Category      string
	Fabric        string
	Occasion      string
	OnlyAvailable bool
	Limit         int
}

// PricePreview reports the tier-resolved unit price for a prospective quantity.
type PricePreview struct {
	ProductID string
	Quantity  int
	UnitPrice int64
	LineTotal int64
}

// CartService manages the buyer's single wholesale cart.
type CartService interface {
	GetCart(ctx context.Context, buyerID string) (CartView, error)
	AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, error)
	UpdateItem(ctx context.Context, cmd UpdateCartItemCommand) (CartView, error)
	RemoveItem(ctx context.Context, buyerID, itemID string) (CartView, error)
	Clear(ctx context.Context, buyerID string) error
}

// AddCartItemCommand adds or merges a product variant line into the cart.
type AddCartItemCommand struct {
	BuyerID   string
	ProductID string
	Quantity  int
	Size      string
	Color     string
}

// UpdateCartItemCommand replaces the quantity of an existing cart line.
type UpdateCartItemCommand struct {
	BuyerID  string
	ItemID   string
	Quantity int
}

// CartView is the hydrated cart returned to callers: each line carries the
// current product snapshot and tier-resolved pricing.
type CartView struct {
	BuyerID   string
	Items     []CartViewItem
	Subtotal  int64
	UpdatedAt time.Time
}

// CartViewItem pairs a stored cart line with live product data.
type CartViewItem struct {
	ID          string
	ProductID   string
	Name        string
	Image       string
	Quantity    int
	Size        string
	Color       string
	MOQ         int
	UnitPrice   int64
	LineTotal   int64
	Stock       int
	IsAvailable bool
	AddedAt     time.Time
}

// OrderService owns order placement, retrieval, and status transitions.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	GetOrder(ctx context.Context, requester Requester, orderID string) (Order, error)
	ListMyOrders(ctx context.Context, buyerID string) ([]Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) (OrderListPage, error)
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
}

// Requester identifies the caller for ownership checks.
type Requester struct {
	UID   string
	Admin bool
}

// CreateOrderCommand converts the buyer's cart into an order.
type CreateOrderCommand struct {
	BuyerID         string
	ShippingAddress ShippingAddress
	Notes           string
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	Status   string
	BuyerID  string
	PageSize int
	Cursor   *pagination.Cursor
}

// OrderListPage carries one page of orders plus the token for the next page.
type OrderListPage struct {
	Orders        []Order
	NextPageToken string
}

// OrderStatusTransitionCommand moves an order to a new lifecycle status.
type OrderStatusTransitionCommand struct {
	OrderID string
	To      OrderStatus
}

// InventoryService exposes admin stock management.
type InventoryService interface {
	SetStock(ctx context.Context, cmd StockUpdateCommand) (Product, error)
	SetAvailability(ctx context.Context, productID string, available bool) (Product, error)
}

// StockUpdateCommand replaces the absolute stock level of a product.
type StockUpdateCommand struct {
	ProductID string
	Stock     int
}

// CounterService issues atomic sequence values and formatted document numbers.
type CounterService interface {
	Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

// CounterGenerationOptions controls how counter values are incremented and formatted.
type CounterGenerationOptions struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
	Prefix       string
	Suffix       string
	PadLength    int
	Formatter    func(now time.Time, seq int64) string
}

// CounterValue carries both the raw sequence value and its formatted representation.
type CounterValue struct {
	Value     int64
	Formatted string
}

// InvoiceService renders invoice documents for placed orders.
type InvoiceService interface {
	BuildInvoice(ctx context.Context, requester Requester, orderID string) (InvoiceDocument, error)
}

// InvoiceDocument is a rendered invoice ready for download.
type InvoiceDocument struct {
	InvoiceNumber string
	Filename      string
	ContentType   string
	Content       []byte
}

// DocumentRenderer turns invoice data into a downloadable document.
type DocumentRenderer interface {
	Render(ctx context.Context, data InvoiceData) (InvoiceDocument, error)
}

// InvoiceData is the renderer input assembled from the order and buyer profile.
type InvoiceData struct {
	InvoiceNumber string
	IssuedAt      time.Time
	Order         Order
	Buyer         BuyerProfile
	Seller        SellerDetails
}

// SellerDetails identifies the invoicing party printed on documents.
type SellerDetails struct {
	Name    string
	Address string
	GSTIN   string
	Email   string
	Phone   string
}

// SystemService aggregates dependency health for readiness probes.
type SystemService interface {
	CheckReadiness(ctx context.Context) (SystemHealthReport, error)
}
