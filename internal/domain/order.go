package domain

import "time"

// OrderStatus enumerates the order fulfilment lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusApproved,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// IsValid reports whether the status is one of the known lifecycle values.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range OrderStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order is an immutable record of a completed checkout. Items carry frozen
// product details; later catalog edits never change an order.
type Order struct {
	ID              string
	BuyerID         string
	Items           []OrderItem
	TotalAmount     int64
	ShippingAddress ShippingAddress
	Status          OrderStatus
	InvoiceNumber   string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem snapshots one cart line at checkout time. UnitPrice is the
// tier-resolved wholesale price that was charged.
type OrderItem struct {
	ProductID string
	Name      string
	Image     string
	Quantity  int
	Size      string
	Color     string
	UnitPrice int64
}

// LineTotal returns the charged amount for this line.
func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// ShippingAddress is the destination captured with the order.
type ShippingAddress struct {
	Street  string
	City    string
	State   string
	Pincode string
	Country string
}
