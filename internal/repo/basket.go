package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/models"
)

// basketRecord is the stored form. The version lives on the document, not in
// the payload.
type basketRecord struct {
	UserID    string                       `json:"user_id"`
	Items     map[string]models.BasketItem `json:"items"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

// BasketRepo keeps one document per user, keyed and partitioned by user id.
type BasketRepo struct {
	store docstore.Store
}

func NewBasketRepo(store docstore.Store) *BasketRepo {
	return &BasketRepo{store: store}
}

func (r *BasketRepo) Get(ctx context.Context, userID string) (*models.Basket, error) {
	doc, err := r.store.Get(ctx, CollectionBaskets, userID)
	if err != nil {
		return nil, fmt.Errorf("basket %s: %w", userID, err)
	}
	var rec basketRecord
	if err := decode(doc, &rec); err != nil {
		return nil, err
	}
	if rec.Items == nil {
		rec.Items = map[string]models.BasketItem{}
	}
	return &models.Basket{
		UserID:    userID,
		Items:     rec.Items,
		Version:   doc.Version,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Create stores b if the user has no basket yet and sets b.Version.
func (r *BasketRepo) Create(ctx context.Context, b *models.Basket) error {
	doc, err := r.document(b)
	if err != nil {
		return err
	}
	v, err := r.store.Create(ctx, CollectionBaskets, doc)
	if err != nil {
		return fmt.Errorf("create basket %s: %w", b.UserID, err)
	}
	b.Version = v
	return nil
}

// Update writes b only if the stored version still equals b.Version, and
// advances b.Version on success.
func (r *BasketRepo) Update(ctx context.Context, b *models.Basket) error {
	doc, err := r.document(b)
	if err != nil {
		return err
	}
	v, err := r.store.Put(ctx, CollectionBaskets, doc, b.Version)
	if err != nil {
		return fmt.Errorf("update basket %s: %w", b.UserID, err)
	}
	b.Version = v
	return nil
}

func (r *BasketRepo) document(b *models.Basket) (docstore.Document, error) {
	return encode(b.UserID, b.UserID, basketRecord{
		UserID:    b.UserID,
		Items:     b.Items,
		UpdatedAt: b.UpdatedAt,
	})
}
