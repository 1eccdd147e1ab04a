package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/loomline/api/internal/domain"
	pfirestore "github.com/loomline/api/internal/platform/firestore"
	"github.com/loomline/api/internal/platform/pagination"
	"github.com/loomline/api/internal/repositories"
)

const ordersCollection = "orders"

type orderDocument struct {
	BuyerID         string                  `firestore:"buyerId"`
	Items           []orderItemDocument     `firestore:"items"`
	TotalAmount     int64                   `firestore:"totalAmount"`
	ShippingAddress shippingAddressDocument `firestore:"shippingAddress"`
	Status          string                  `firestore:"status"`
	InvoiceNumber   string                  `firestore:"invoiceNumber"`
	Notes           string                  `firestore:"notes,omitempty"`
	CreatedAt       time.Time               `firestore:"createdAt"`
	UpdatedAt       time.Time               `firestore:"updatedAt"`
}

type orderItemDocument struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Image     string `firestore:"image,omitempty"`
	Quantity  int    `firestore:"quantity"`
	Size      string `firestore:"size,omitempty"`
	Color     string `firestore:"color,omitempty"`
	UnitPrice int64  `firestore:"unitPrice"`
}

type shippingAddressDocument struct {
	Street  string `firestore:"street,omitempty"`
	City    string `firestore:"city,omitempty"`
	State   string `firestore:"state,omitempty"`
	Pincode string `firestore:"pincode,omitempty"`
	Country string `firestore:"country,omitempty"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore transactions.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
	products *pfirestore.BaseRepository[productDocument]
	carts    *pfirestore.BaseRepository[cartDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		provider: provider,
		orders:   pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil),
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil),
		carts:    pfirestore.NewBaseRepository[cartDocument](provider, cartsCollection, nil, nil),
	}, nil
}

// CreateFromCart commits the order, decrements product stock, and deletes the source
// cart inside one Firestore transaction. Stock is re-validated against the live
// documents so concurrent checkouts cannot oversell.
func (r *OrderRepository) CreateFromCart(ctx context.Context, req repositories.CheckoutRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	order := req.Order
	orderID := strings.TrimSpace(order.ID)
	if orderID == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	cartID := strings.TrimSpace(req.CartID)
	if cartID == "" {
		return domain.Order{}, errors.New("order repository: cart id is required")
	}
	if len(order.Items) == 0 {
		return domain.Order{}, errors.New("order repository: order has no items")
	}

	now := req.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	// Aggregate quantities per product so a cart holding two variants of the
	// same product decrements stock once with the combined amount.
	required := make(map[string]int, len(order.Items))
	productOrder := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return domain.Order{}, errors.New("order repository: order item missing product id")
		}
		if _, seen := required[id]; !seen {
			productOrder = append(productOrder, id)
		}
		required[id] += item.Quantity
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cartRef, err := r.carts.DocumentRef(ctx, cartID)
		if err != nil {
			return err
		}
		orderRef, err := r.orders.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}

		// All reads must happen before the first write.
		if _, err := tx.Get(cartRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewOrderError(repositories.OrderErrorCartMissing, fmt.Sprintf("cart %s no longer exists", cartID), err)
			}
			return err
		}

		type stockUpdate struct {
			ref      *firestore.DocumentRef
			newStock int
		}
		updates := make([]stockUpdate, 0, len(productOrder))

		for _, productID := range productOrder {
			ref, err := r.products.DocumentRef(ctx, productID)
			if err != nil {
				return err
			}
			snapshot, err := tx.Get(ref)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return repositories.NewInventoryError(repositories.InventoryErrorProductNotFound, productID, fmt.Sprintf("product %s no longer exists", productID), err)
				}
				return err
			}

			var doc productDocument
			if err := snapshot.DataTo(&doc); err != nil {
				return fmt.Errorf("firestore products decode %s: %w", productID, err)
			}

			if !doc.IsAvailable {
				return repositories.NewInventoryError(repositories.InventoryErrorProductUnavailable, productID, fmt.Sprintf("product %s is not available", productID), nil)
			}
			qty := required[productID]
			if doc.Stock < qty {
				return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, productID, fmt.Sprintf("product %s has %d in stock, %d requested", productID, doc.Stock, qty), nil)
			}

			updates = append(updates, stockUpdate{ref: ref, newStock: doc.Stock - qty})
		}

		for _, update := range updates {
			if err := tx.Update(update.ref, []firestore.Update{
				{Path: "stock", Value: update.newStock},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}

		doc := orderToDocument(order, now)
		if err := tx.Create(orderRef, doc); err != nil {
			return err
		}

		return tx.Delete(cartRef)
	})
	if err != nil {
		var inventoryErr *repositories.InventoryError
		if errors.As(err, &inventoryErr) {
			return domain.Order{}, inventoryErr
		}
		var orderErr *repositories.OrderError
		if errors.As(err, &orderErr) {
			return domain.Order{}, orderErr
		}
		return domain.Order{}, pfirestore.WrapError("orders.create", err)
	}

	created := order
	created.CreatedAt = now
	created.UpdatedAt = now
	return created, nil
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.orders == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	doc, err := r.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return orderFromDocument(doc.ID, doc.Data), nil
}

// ListByBuyer returns all orders placed by the buyer, newest first.
func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}
	uid := strings.TrimSpace(buyerID)
	if uid == "" {
		return nil, errors.New("order repository: buyer id is required")
	}

	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("buyerId", "==", uid).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, orderFromDocument(doc.ID, doc.Data))
	}
	return orders, nil
}

// List returns a page of orders for the admin surface, newest first.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (repositories.OrderPage, error) {
	if r == nil || r.orders == nil {
		return repositories.OrderPage{}, errors.New("order repository not initialised")
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	docs, err := r.orders.Query(ctx, func(query firestore.Query) firestore.Query {
		if filter.Status != "" {
			query = query.Where("status", "==", string(filter.Status))
		}
		if uid := strings.TrimSpace(filter.BuyerID); uid != "" {
			query = query.Where("buyerId", "==", uid)
		}
		query = query.
			OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Desc)
		if filter.Cursor != nil {
			query = query.StartAfter(filter.Cursor.CreatedAt, filter.Cursor.ID)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return repositories.OrderPage{}, err
	}

	page := repositories.OrderPage{Orders: make([]domain.Order, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			last := page.Orders[len(page.Orders)-1]
			page.NextCursor = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
			break
		}
		page.Orders = append(page.Orders, orderFromDocument(doc.ID, doc.Data))
	}
	return page, nil
}

// UpdateStatus transitions the order status, guarding against concurrent transitions
// by re-reading the stored status inside the transaction.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, now time.Time) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	ts := now.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var updated domain.Order
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.orders.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var doc orderDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return fmt.Errorf("firestore orders decode %s: %w", id, err)
		}

		if domain.OrderStatus(doc.Status) != from {
			return repositories.NewOrderError(repositories.OrderErrorStatusConflict, fmt.Sprintf("order %s is %s, expected %s", id, doc.Status, from), nil)
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(to)},
			{Path: "updatedAt", Value: ts},
		}); err != nil {
			return err
		}

		doc.Status = string(to)
		doc.UpdatedAt = ts
		updated = orderFromDocument(id, doc)
		return nil
	})
	if err != nil {
		var orderErr *repositories.OrderError
		if errors.As(err, &orderErr) {
			return domain.Order{}, orderErr
		}
		return domain.Order{}, pfirestore.WrapError("orders.update_status", err)
	}
	return updated, nil
}

func orderToDocument(order domain.Order, now time.Time) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			UnitPrice: item.UnitPrice,
		})
	}

	createdAt := order.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = now
	}

	return orderDocument{
		BuyerID:     order.BuyerID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		ShippingAddress: shippingAddressDocument{
			Street:  order.ShippingAddress.Street,
			City:    order.ShippingAddress.City,
			State:   order.ShippingAddress.State,
			Pincode: order.ShippingAddress.Pincode,
			Country: order.ShippingAddress.Country,
		},
		Status:        string(order.Status),
		InvoiceNumber: order.InvoiceNumber,
		Notes:         order.Notes,
		CreatedAt:     createdAt,
		UpdatedAt:     now,
	}
}

func orderFromDocument(id string, doc orderDocument) domain.Order {
	items := make([]domain.OrderItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			UnitPrice: item.UnitPrice,
		})
	}

	return domain.Order{
		ID:          id,
		BuyerID:     doc.BuyerID,
		Items:       items,
		TotalAmount: doc.TotalAmount,
		ShippingAddress: domain.ShippingAddress{
			Street:  doc.ShippingAddress.Street,
			City:    doc.ShippingAddress.City,
			State:   doc.ShippingAddress.State,
			Pincode: doc.ShippingAddress.Pincode,
			Country: doc.ShippingAddress.Country,
		},
		Status:        domain.OrderStatus(doc.Status),
		InvoiceNumber: doc.InvoiceNumber,
		Notes:         doc.Notes,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
