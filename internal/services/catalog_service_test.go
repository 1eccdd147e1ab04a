package services

import (
	"context"
	"errors"
	"testing"
)

func newTestCatalogService(t *testing.T, catalog *stubCatalogRepository) CatalogService {
	t.Helper()
	svc, err := NewCatalogService(CatalogServiceDeps{Catalog: catalog})
	if err != nil {
		t.Fatalf("failed to construct catalog service: %v", err)
	}
	return svc
}

func TestGetProductUnknownID(t *testing.T) {
	svc := newTestCatalogService(t, newStubCatalogRepository())

	_, err := svc.GetProduct(context.Background(), "missing")
	if !errors.Is(err, ErrCatalogProductNotFound) {
		t.Fatalf("expected ErrCatalogProductNotFound, got %v", err)
	}
}

func TestGetProductRequiresID(t *testing.T) {
	svc := newTestCatalogService(t, newStubCatalogRepository())

	_, err := svc.GetProduct(context.Background(), "  ")
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}

func TestPreviewPriceResolvesTiers(t *testing.T) {
	svc := newTestCatalogService(t, newStubCatalogRepository(testSaree()))

	cases := []struct {
		quantity int
		want     int64
	}{
		{10, 850},
		{25, 780},
		{49, 780},
		{50, 720},
		{150, 650},
	}
	for _, tc := range cases {
		preview, err := svc.PreviewPrice(context.Background(), "saree-1", tc.quantity)
		if err != nil {
			t.Fatalf("quantity %d: unexpected error: %v", tc.quantity, err)
		}
		if preview.UnitPrice != tc.want {
			t.Fatalf("quantity %d: expected unit price %d, got %d", tc.quantity, tc.want, preview.UnitPrice)
		}
		if preview.LineTotal != tc.want*int64(tc.quantity) {
			t.Fatalf("quantity %d: expected line total %d, got %d", tc.quantity, tc.want*int64(tc.quantity), preview.LineTotal)
		}
	}
}

func TestPreviewPriceRejectsNonPositiveQuantity(t *testing.T) {
	svc := newTestCatalogService(t, newStubCatalogRepository(testSaree()))

	_, err := svc.PreviewPrice(context.Background(), "saree-1", 0)
	if !errors.Is(err, ErrCatalogInvalidInput) {
		t.Fatalf("expected ErrCatalogInvalidInput, got %v", err)
	}
}
