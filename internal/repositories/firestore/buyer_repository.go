package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/loomline/api/internal/domain"
	pfirestore "github.com/loomline/api/internal/platform/firestore"
	"github.com/loomline/api/internal/repositories"
)

const buyersCollection = "buyers"

type buyerDocument struct {
	Name       string    `firestore:"name,omitempty"`
	Email      string    `firestore:"email,omitempty"`
	Phone      string    `firestore:"phone,omitempty"`
	Company    string    `firestore:"company,omitempty"`
	GSTIN      string    `firestore:"gstin,omitempty"`
	IsApproved bool      `firestore:"isApproved"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

// BuyerRepository reads buyer profiles keyed by the buyer UID.
type BuyerRepository struct {
	base *pfirestore.BaseRepository[buyerDocument]
}

// NewBuyerRepository constructs a Firestore-backed buyer repository.
func NewBuyerRepository(provider *pfirestore.Provider) (*BuyerRepository, error) {
	if provider == nil {
		return nil, errors.New("buyer repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[buyerDocument](provider, buyersCollection, nil, nil)
	return &BuyerRepository{base: base}, nil
}

// FindByID loads a buyer profile.
func (r *BuyerRepository) FindByID(ctx context.Context, buyerID string) (domain.BuyerProfile, error) {
	if r == nil || r.base == nil {
		return domain.BuyerProfile{}, errors.New("buyer repository not initialised")
	}
	uid := strings.TrimSpace(buyerID)
	if uid == "" {
		return domain.BuyerProfile{}, errors.New("buyer repository: buyer id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		return domain.BuyerProfile{}, err
	}

	return domain.BuyerProfile{
		ID:         doc.ID,
		Name:       doc.Data.Name,
		Email:      doc.Data.Email,
		Phone:      doc.Data.Phone,
		Company:    doc.Data.Company,
		GSTIN:      doc.Data.GSTIN,
		IsApproved: doc.Data.IsApproved,
		CreatedAt:  doc.Data.CreatedAt,
		UpdatedAt:  doc.Data.UpdatedAt,
	}, nil
}

var _ repositories.BuyerRepository = (*BuyerRepository)(nil)
