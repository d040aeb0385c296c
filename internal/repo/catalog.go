package repo

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/models"
)

// CatalogRepo keys items by id and partitions them by category.
type CatalogRepo struct {
	store docstore.Store
}

func NewCatalogRepo(store docstore.Store) *CatalogRepo {
	return &CatalogRepo{store: store}
}

func (r *CatalogRepo) Get(ctx context.Context, id string) (*models.CatalogItem, error) {
	doc, err := r.store.Get(ctx, CollectionCatalog, id)
	if err != nil {
		return nil, fmt.Errorf("catalog item %s: %w", id, err)
	}
	var item models.CatalogItem
	if err := decode(doc, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Create fails with docstore.ErrAlreadyExists when the id is taken.
func (r *CatalogRepo) Create(ctx context.Context, item models.CatalogItem) error {
	doc, err := encode(item.ID, item.Category, item)
	if err != nil {
		return err
	}
	if _, err := r.store.Create(ctx, CollectionCatalog, doc); err != nil {
		return fmt.Errorf("create catalog item %s: %w", item.ID, err)
	}
	return nil
}

// List returns the items of one category, or all items when category is
// empty, ordered by id.
func (r *CatalogRepo) List(ctx context.Context, category string) ([]models.CatalogItem, error) {
	docs, err := r.store.Query(ctx, CollectionCatalog, docstore.Filter{Partition: category})
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	items := make([]models.CatalogItem, 0, len(docs))
	for _, doc := range docs {
		var item models.CatalogItem
		if err := decode(doc, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	sortCatalog(items)
	return items, nil
}

// Empty reports whether the catalog holds no items at all.
func (r *CatalogRepo) Empty(ctx context.Context) (bool, error) {
	docs, err := r.store.Query(ctx, CollectionCatalog, docstore.Filter{Limit: 1})
	if err != nil {
		return false, fmt.Errorf("check catalog: %w", err)
	}
	return len(docs) == 0, nil
}

// sortCatalog orders ids numerically when both are numbers, so "10" follows
// "9", and lexically otherwise.
func sortCatalog(items []models.CatalogItem) {
	sort.Slice(items, func(i, j int) bool {
		a, errA := strconv.Atoi(items[i].ID)
		b, errB := strconv.Atoi(items[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return items[i].ID < items[j].ID
	})
}
