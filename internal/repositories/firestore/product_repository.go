package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/loomline/api/internal/domain"
	pfirestore "github.com/loomline/api/internal/platform/firestore"
	"github.com/loomline/api/internal/repositories"
)

const productsCollection = "products"

type productDocument struct {
	Name           string              `firestore:"name"`
	Description    string              `firestore:"description,omitempty"`
	Category       string              `firestore:"category,omitempty"`
	Fabric         string              `firestore:"fabric,omitempty"`
	Style          string              `firestore:"style,omitempty"`
	Occasion       string              `firestore:"occasion,omitempty"`
	Images         []string            `firestore:"images,omitempty"`
	Sizes          []string            `firestore:"sizes,omitempty"`
	Colors         []string            `firestore:"colors,omitempty"`
	WholesalePrice int64               `firestore:"wholesalePrice"`
	MRP            int64               `firestore:"mrp,omitempty"`
	MOQ            int                 `firestore:"moq"`
	BulkTiers      []priceTierDocument `firestore:"bulkPricing,omitempty"`
	Stock          int                 `firestore:"stock"`
	IsAvailable    bool                `firestore:"isAvailable"`
	CreatedAt      time.Time           `firestore:"createdAt"`
	UpdatedAt      time.Time           `firestore:"updatedAt"`
}

type priceTierDocument struct {
	MinQuantity int   `firestore:"minQty"`
	UnitPrice   int64 `firestore:"price"`
}

// ProductRepository implements repositories.CatalogRepository backed by Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &ProductRepository{base: base}, nil
}

// GetProduct loads a single product by its document ID.
func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return productFromDocument(doc.ID, doc.Data), nil
}

// ListProducts returns products matching the filter, newest first.
func (r *ProductRepository) ListProducts(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		if category := strings.TrimSpace(filter.Category); category != "" {
			query = query.Where("category", "==", category)
		}
		if fabric := strings.TrimSpace(filter.Fabric); fabric != "" {
			query = query.Where("fabric", "==", fabric)
		}
		if occasion := strings.TrimSpace(filter.Occasion); occasion != "" {
			query = query.Where("occasion", "==", occasion)
		}
		if filter.OnlyAvailable {
			query = query.Where("isAvailable", "==", true)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, productFromDocument(doc.ID, doc.Data))
	}
	return products, nil
}

// SetStock replaces the absolute stock level of a product.
func (r *ProductRepository) SetStock(ctx context.Context, productID string, stock int, now time.Time) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	updates := []firestore.Update{
		{Path: "stock", Value: stock},
		{Path: "updatedAt", Value: now.UTC()},
	}
	if _, err := r.base.Update(ctx, id, updates, firestore.Exists); err != nil {
		return domain.Product{}, err
	}
	return r.GetProduct(ctx, id)
}

// SetAvailability toggles whether the product is offered for sale.
func (r *ProductRepository) SetAvailability(ctx context.Context, productID string, available bool, now time.Time) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	updates := []firestore.Update{
		{Path: "isAvailable", Value: available},
		{Path: "updatedAt", Value: now.UTC()},
	}
	if _, err := r.base.Update(ctx, id, updates, firestore.Exists); err != nil {
		return domain.Product{}, err
	}
	return r.GetProduct(ctx, id)
}

func productFromDocument(id string, doc productDocument) domain.Product {
	tiers := make([]domain.PriceTier, 0, len(doc.BulkTiers))
	for _, tier := range doc.BulkTiers {
		tiers = append(tiers, domain.PriceTier{
			MinQuantity: tier.MinQuantity,
			UnitPrice:   tier.UnitPrice,
		})
	}

	return domain.Product{
		ID:             id,
		Name:           doc.Name,
		Description:    doc.Description,
		Category:       doc.Category,
		Fabric:         doc.Fabric,
		Style:          doc.Style,
		Occasion:       doc.Occasion,
		Images:         append([]string(nil), doc.Images...),
		Sizes:          append([]string(nil), doc.Sizes...),
		Colors:         append([]string(nil), doc.Colors...),
		WholesalePrice: doc.WholesalePrice,
		MRP:            doc.MRP,
		MOQ:            doc.MOQ,
		BulkTiers:      tiers,
		Stock:          doc.Stock,
		IsAvailable:    doc.IsAvailable,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

var _ repositories.CatalogRepository = (*ProductRepository)(nil)
