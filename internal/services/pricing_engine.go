package services

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrPricingInvalidInput signals bad pricing data such as negative prices or quantities.
	ErrPricingInvalidInput = errors.New("pricing: invalid input")
)

// ResolveUnitPrice returns the per-unit price for the quantity: the deepest
// bulk tier whose minimum quantity is satisfied wins, otherwise the base
// wholesale price applies. Tier order in the input does not matter.
func ResolveUnitPrice(basePrice int64, tiers []PriceTier, quantity int) int64 {
	if quantity <= 0 || len(tiers) == 0 {
		return basePrice
	}

	sorted := make([]PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})

	for _, tier := range sorted {
		if quantity >= tier.MinQuantity {
			return tier.UnitPrice
		}
	}
	return basePrice
}

// validateTiers checks a bulk pricing ladder for structural problems:
// non-positive thresholds or prices, and duplicate thresholds. It stays
// unexported until a product-write surface exists to call it.
func validateTiers(tiers []PriceTier) error {
	seen := make(map[int]struct{}, len(tiers))
	for _, tier := range tiers {
		if tier.MinQuantity <= 0 {
			return fmt.Errorf("%w: tier minimum quantity must be positive, got %d", ErrPricingInvalidInput, tier.MinQuantity)
		}
		if tier.UnitPrice <= 0 {
			return fmt.Errorf("%w: tier unit price must be positive, got %d", ErrPricingInvalidInput, tier.UnitPrice)
		}
		if _, dup := seen[tier.MinQuantity]; dup {
			return fmt.Errorf("%w: duplicate tier threshold %d", ErrPricingInvalidInput, tier.MinQuantity)
		}
		seen[tier.MinQuantity] = struct{}{}
	}
	return nil
}

// ComputeOrderTotal sums line totals for the given order items, guarding
// against overflow on large wholesale quantities.
func ComputeOrderTotal(items []OrderItem) (int64, error) {
	var total int64
	for _, item := range items {
		if item.Quantity <= 0 {
			return 0, fmt.Errorf("%w: item %s quantity must be positive", ErrPricingInvalidInput, item.ProductID)
		}
		if item.UnitPrice < 0 {
			return 0, fmt.Errorf("%w: item %s unit price cannot be negative", ErrPricingInvalidInput, item.ProductID)
		}

		quantity := int64(item.Quantity)
		if item.UnitPrice > 0 && item.UnitPrice > math.MaxInt64/quantity {
			return 0, fmt.Errorf("%w: item %s line total overflow", ErrPricingInvalidInput, item.ProductID)
		}
		line := item.UnitPrice * quantity
		if total > math.MaxInt64-line {
			return 0, fmt.Errorf("%w: order total overflow", ErrPricingInvalidInput)
		}
		total += line
	}
	return total, nil
}
