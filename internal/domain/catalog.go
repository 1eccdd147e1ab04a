package domain

import "time"

// Product is a wholesale catalog entry. Prices are whole rupees.
type Product struct {
	ID            string
	Name          string
	Description   string
	Category      string
	Fabric        string
	Style         string
	Occasion      string
	Images        []string
	Sizes         []string
	Colors        []string
	WholesalePrice int64
	MRP           int64
	MOQ           int
	BulkTiers     []PriceTier
	Stock         int
	IsAvailable   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriceTier grants a discounted unit price once the ordered quantity
// reaches MinQuantity.
type PriceTier struct {
	MinQuantity int
	UnitPrice   int64
}

// PrimaryImage returns the first catalog image, if any.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
