package domain

import "time"

// BuyerProfile carries the business details of a registered wholesale buyer.
// Account issuance lives in the identity provider; this record holds what the
// storefront needs for approval checks and invoice rendering.
type BuyerProfile struct {
	ID         string
	Name       string
	Email      string
	Phone      string
	Company    string
	GSTIN      string
	IsApproved bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
