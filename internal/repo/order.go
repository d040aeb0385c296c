package repo

import (
	"context"
	"fmt"
	"sort"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/models"
)

// OrderRepo keys orders by id and partitions them by user.
type OrderRepo struct {
	store docstore.Store
}

func NewOrderRepo(store docstore.Store) *OrderRepo {
	return &OrderRepo{store: store}
}

func (r *OrderRepo) Create(ctx context.Context, o *models.Order) error {
	doc, err := encode(o.ID, o.UserID, o)
	if err != nil {
		return err
	}
	if _, err := r.store.Create(ctx, CollectionOrders, doc); err != nil {
		return fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	doc, err := r.store.Get(ctx, CollectionOrders, id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	var o models.Order
	if err := decode(doc, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	docs, err := r.store.Query(ctx, CollectionOrders, docstore.Filter{Partition: userID})
	if err != nil {
		return nil, fmt.Errorf("list orders of %s: %w", userID, err)
	}
	orders := make([]models.Order, 0, len(docs))
	for _, doc := range docs {
		var o models.Order
		if err := decode(doc, &o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, nil
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, CollectionOrders, id, docstore.AnyVersion); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}
