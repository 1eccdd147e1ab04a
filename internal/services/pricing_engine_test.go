package services

import (
	"errors"
	"testing"

	"github.com/loomline/api/internal/domain"
)

var sareeTiers = []domain.PriceTier{
	{MinQuantity: 25, UnitPrice: 780},
	{MinQuantity: 50, UnitPrice: 720},
	{MinQuantity: 100, UnitPrice: 650},
}

func TestResolveUnitPrice(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		want     int64
	}{
		{name: "below first tier uses base price", quantity: 10, want: 850},
		{name: "exactly at first tier", quantity: 25, want: 780},
		{name: "just under second tier", quantity: 49, want: 780},
		{name: "exactly at second tier", quantity: 50, want: 720},
		{name: "beyond deepest tier", quantity: 150, want: 650},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveUnitPrice(850, sareeTiers, tc.quantity)
			if got != tc.want {
				t.Fatalf("quantity %d: expected unit price %d, got %d", tc.quantity, tc.want, got)
			}
		})
	}
}

func TestResolveUnitPriceWithoutTiers(t *testing.T) {
	if got := ResolveUnitPrice(850, nil, 500); got != 850 {
		t.Fatalf("expected base price 850, got %d", got)
	}
}

func TestResolveUnitPriceUnsortedTiers(t *testing.T) {
	shuffled := []domain.PriceTier{
		{MinQuantity: 100, UnitPrice: 650},
		{MinQuantity: 25, UnitPrice: 780},
		{MinQuantity: 50, UnitPrice: 720},
	}
	if got := ResolveUnitPrice(850, shuffled, 60); got != 720 {
		t.Fatalf("expected 720 for quantity 60, got %d", got)
	}
}

func TestValidateTiers(t *testing.T) {
	if err := validateTiers(sareeTiers); err != nil {
		t.Fatalf("expected valid tiers, got %v", err)
	}

	bad := []domain.PriceTier{{MinQuantity: 0, UnitPrice: 100}}
	if err := validateTiers(bad); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}

	dup := []domain.PriceTier{
		{MinQuantity: 25, UnitPrice: 780},
		{MinQuantity: 25, UnitPrice: 700},
	}
	if err := validateTiers(dup); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected duplicate threshold rejection, got %v", err)
	}
}

func TestComputeOrderTotal(t *testing.T) {
	items := []domain.OrderItem{
		{ProductID: "p1", Quantity: 10, UnitPrice: 850},
		{ProductID: "p2", Quantity: 60, UnitPrice: 720},
	}

	total, err := ComputeOrderTotal(items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 51700 {
		t.Fatalf("expected total 51700, got %d", total)
	}
}

func TestComputeOrderTotalRejectsBadItems(t *testing.T) {
	items := []domain.OrderItem{{ProductID: "p1", Quantity: 0, UnitPrice: 850}}
	if _, err := ComputeOrderTotal(items); !errors.Is(err, ErrPricingInvalidInput) {
		t.Fatalf("expected ErrPricingInvalidInput, got %v", err)
	}
}
