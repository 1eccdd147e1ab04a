package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/loomline/api/internal/domain"
)

func invoiceTestOrder() domain.Order {
	return domain.Order{
		ID:      "order-1",
		BuyerID: "buyer-1",
		Items: []domain.OrderItem{
			{ProductID: "saree-1", Name: "Banarasi Silk Saree", Quantity: 60, Size: "Free Size", Color: "Maroon", UnitPrice: 720},
			{ProductID: "kurta-1", Name: "Chikankari Kurta Set", Quantity: 10, UnitPrice: 850},
		},
		TotalAmount:     51700,
		ShippingAddress: testAddress(),
		Status:          domain.OrderStatusApproved,
		InvoiceNumber:   "LT-202508-000001",
		CreatedAt:       time.Date(2025, time.August, 14, 9, 0, 0, 0, time.UTC),
	}
}

func newTestInvoiceService(t *testing.T, orders *stubOrderRepository) InvoiceService {
	t.Helper()
	svc, err := NewInvoiceService(InvoiceServiceDeps{
		Orders: orders,
		Buyers: approvedBuyer(),
		Seller: SellerDetails{
			Name:    "Loomline Trade",
			Address: "42 Ring Road, Surat, Gujarat 395002",
			GSTIN:   "24AAACL1234F1Z5",
			Email:   "billing@loomline.example",
		},
	})
	if err != nil {
		t.Fatalf("failed to construct invoice service: %v", err)
	}
	return svc
}

func TestBuildInvoiceRendersDocument(t *testing.T) {
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			order := invoiceTestOrder()
			order.ID = orderID
			return order, nil
		},
	}
	svc := newTestInvoiceService(t, orders)

	doc, err := svc.BuildInvoice(context.Background(), Requester{UID: "buyer-1"}, "order-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.InvoiceNumber != "LT-202508-000001" {
		t.Fatalf("expected invoice number LT-202508-000001, got %q", doc.InvoiceNumber)
	}
	if doc.Filename != "invoice-LT-202508-000001.txt" {
		t.Fatalf("unexpected filename %q", doc.Filename)
	}
	if doc.ContentType != "text/plain; charset=utf-8" {
		t.Fatalf("unexpected content type %q", doc.ContentType)
	}

	body := string(doc.Content)
	for _, want := range []string{
		"LT-202508-000001",
		"Loomline Trade",
		"Meera Textiles Pvt Ltd",
		"Banarasi Silk Saree (Free Size / Maroon)",
		"60 x Rs.720 = Rs.43200",
		"Total: Rs.51700",
		"14 Aug 2025",
		"Status     : approved",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected invoice body to contain %q, got:\n%s", want, body)
		}
	}
}

func TestBuildInvoiceEnforcesOwnership(t *testing.T) {
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			order := invoiceTestOrder()
			order.ID = orderID
			return order, nil
		},
	}
	svc := newTestInvoiceService(t, orders)
	ctx := context.Background()

	if _, err := svc.BuildInvoice(ctx, Requester{UID: "buyer-2"}, "order-1"); !errors.Is(err, ErrInvoiceForbidden) {
		t.Fatalf("expected ErrInvoiceForbidden for other buyer, got %v", err)
	}
	if _, err := svc.BuildInvoice(ctx, Requester{UID: "staff-1", Admin: true}, "order-1"); err != nil {
		t.Fatalf("expected admin access, got %v", err)
	}
}

func TestBuildInvoiceUnknownOrder(t *testing.T) {
	svc := newTestInvoiceService(t, &stubOrderRepository{})

	_, err := svc.BuildInvoice(context.Background(), Requester{UID: "buyer-1"}, "missing")
	if !errors.Is(err, ErrInvoiceOrderNotFound) {
		t.Fatalf("expected ErrInvoiceOrderNotFound, got %v", err)
	}
}

func TestBuildInvoiceVanishedBuyer(t *testing.T) {
	orders := &stubOrderRepository{
		findFn: func(_ context.Context, orderID string) (domain.Order, error) {
			order := invoiceTestOrder()
			order.ID = orderID
			order.BuyerID = "buyer-gone"
			return order, nil
		},
	}
	svc := newTestInvoiceService(t, orders)

	doc, err := svc.BuildInvoice(context.Background(), Requester{UID: "buyer-gone"}, "order-1")
	if err != nil {
		t.Fatalf("expected render to tolerate missing buyer profile, got %v", err)
	}
	if !strings.Contains(string(doc.Content), "buyer-gone") {
		t.Fatal("expected fallback buyer identifier in rendered invoice")
	}
}
