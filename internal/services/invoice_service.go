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
	// ErrInvoiceInvalidInput signals malformed invoice requests.
	ErrInvoiceInvalidInput = errors.New("invoice: invalid input")
	// ErrInvoiceOrderNotFound indicates the order does not exist.
	ErrInvoiceOrderNotFound = errors.New("invoice: order not found")
	// ErrInvoiceForbidden indicates the requester may not view the order.
	ErrInvoiceForbidden = errors.New("invoice: forbidden")
	// ErrInvoiceUnavailable indicates the backing store rejected the operation transiently.
	ErrInvoiceUnavailable = errors.New("invoice: unavailable")
)

// InvoiceServiceDeps bundles collaborators required to construct an invoice service instance.
type InvoiceServiceDeps struct {
	Orders   repositories.OrderRepository
	Buyers   repositories.BuyerRepository
	Renderer DocumentRenderer
	Seller   SellerDetails
	Clock    func() time.Time
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type invoiceService struct {
	orders   repositories.OrderRepository
	buyers   repositories.BuyerRepository
	renderer DocumentRenderer
	seller   SellerDetails
	clock    func() time.Time
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewInvoiceService constructs the invoice service.
func NewInvoiceService(deps InvoiceServiceDeps) (InvoiceService, error) {
	if deps.Orders == nil {
		return nil, errors.New("invoice service: order repository is required")
	}
	if deps.Buyers == nil {
		return nil, errors.New("invoice service: buyer repository is required")
	}
	renderer := deps.Renderer
	if renderer == nil {
		renderer = NewTextInvoiceRenderer()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &invoiceService{
		orders:   deps.Orders,
		buyers:   deps.Buyers,
		renderer: renderer,
		seller:   deps.Seller,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// BuildInvoice assembles and renders the invoice for an order. Buyers can only
// pull invoices for their own orders.
func (s *invoiceService) BuildInvoice(ctx context.Context, requester Requester, orderID string) (InvoiceDocument, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return InvoiceDocument{}, fmt.Errorf("%w: order id is required", ErrInvoiceInvalidInput)
	}
	if requester.UID == "" && !requester.Admin {
		return InvoiceDocument{}, fmt.Errorf("%w: requester is required", ErrInvoiceInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return InvoiceDocument{}, s.translateRepoError(err)
	}
	if !requester.Admin && order.BuyerID != requester.UID {
		return InvoiceDocument{}, fmt.Errorf("%w: order %s belongs to another buyer", ErrInvoiceForbidden, id)
	}

	buyer, err := s.buyers.FindByID(ctx, order.BuyerID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
			return InvoiceDocument{}, s.translateRepoError(err)
		}
		// Buyer record gone; render with what the order carries.
		buyer = BuyerProfile{ID: order.BuyerID}
	}

	doc, err := s.renderer.Render(ctx, InvoiceData{
		InvoiceNumber: order.InvoiceNumber,
		IssuedAt:      order.CreatedAt,
		Order:         order,
		Buyer:         buyer,
		Seller:        s.seller,
	})
	if err != nil {
		return InvoiceDocument{}, fmt.Errorf("invoice: render %s: %w", order.InvoiceNumber, err)
	}

	s.logger(ctx, "invoice_rendered", map[string]any{
		"orderId":       order.ID,
		"invoiceNumber": order.InvoiceNumber,
	})
	return doc, nil
}

func (s *invoiceService) translateRepoError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrInvoiceOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrInvoiceUnavailable, err)
		}
	}
	return err
}
