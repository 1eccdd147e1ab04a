package domain

import "time"

// Cart holds the pending selection for a single buyer. The buyer UID doubles
// as the cart identifier, so a buyer has at most one cart.
type Cart struct {
	ID        string
	BuyerID   string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem references a product plus the chosen variant. Two items are the
// same line when product, size, and color all match.
type CartItem struct {
	ID        string
	ProductID string
	Quantity  int
	Size      string
	Color     string
	AddedAt   time.Time
}

// SameVariant reports whether other addresses the same product variant.
func (i CartItem) SameVariant(other CartItem) bool {
	return i.ProductID == other.ProductID && i.Size == other.Size && i.Color == other.Color
}
