package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
	"github.com/Skotchmaster/brewhaven/internal/repo"
)

type BasketService struct {
	baskets *repo.BasketRepo
	catalog *repo.CatalogRepo
	writer  basketWriter
	events  events
	now     func() time.Time
}

func NewBasketService(baskets *repo.BasketRepo, catalog *repo.CatalogRepo, maxAttempts int, pub Publisher, topic string) *BasketService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	now := func() time.Time { return time.Now().UTC() }
	return &BasketService{
		baskets: baskets,
		catalog: catalog,
		writer:  basketWriter{baskets: baskets, maxAttempts: maxAttempts, now: now},
		events:  events{pub: pub, topic: topic},
		now:     now,
	}
}

// GetBasket returns the user's basket, creating an empty one on first access.
func (s *BasketService) GetBasket(ctx context.Context, userID string) (*models.Basket, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	b, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, persistence("get basket", err)
	}
	return b, nil
}

func (s *BasketService) getOrCreate(ctx context.Context, userID string) (*models.Basket, error) {
	b, err := s.baskets.Get(ctx, userID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	b = models.NewBasket(userID, s.now())
	err = s.baskets.Create(ctx, b)
	if errors.Is(err, docstore.ErrAlreadyExists) {
		// a concurrent request created it first
		return s.baskets.Get(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpsertItem sets the quantity of one catalog item in the basket. Quantity 0
// removes the line. Name and unit price are copied from the catalog on every
// write.
func (s *BasketService) UpsertItem(ctx context.Context, userID, itemID string, quantity int) (*models.Basket, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if quantity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	item, err := s.catalog.Get(ctx, itemID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if err != nil {
		return nil, persistence("get product", err)
	}

	var changed bool
	b, err := s.writer.update(ctx, userID, s.getOrCreate, func(b *models.Basket) (bool, error) {
		if quantity == 0 {
			changed = b.Remove(itemID)
			return changed, nil
		}
		cur, ok := b.Items[itemID]
		if ok && cur.Quantity == quantity && cur.Name == item.Name && cur.UnitPrice.Equal(item.Price) {
			changed = false
			return false, nil
		}
		b.Set(models.BasketItem{
			CatalogItemID: itemID,
			Name:          item.Name,
			Quantity:      quantity,
			UnitPrice:     item.Price,
			AddedAt:       s.now(),
		})
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		typ := mykafka.EventBasketItemUpserted
		if quantity == 0 {
			typ = mykafka.EventBasketItemRemoved
		}
		s.events.emit(ctx, userID, mykafka.Event{
			Type:      typ,
			UserID:    userID,
			ProductID: itemID,
			Quantity:  quantity,
			At:        s.now(),
		})
	}
	return b, nil
}

// RemoveItem drops a line from the basket. Removing a line that is not there
// succeeds without writing, so retried deletes are safe.
func (s *BasketService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Basket, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	var removed bool
	b, err := s.writer.update(ctx, userID, s.getOrCreate, func(b *models.Basket) (bool, error) {
		removed = b.Remove(itemID)
		return removed, nil
	})
	if err != nil {
		return nil, err
	}

	if !removed {
		logging.FromContext(ctx).Info("basket_remove_noop",
			"user_id", userID, "product_id", itemID, "reason", ErrItemNotInBasket.Error())
		return b, nil
	}
	s.events.emit(ctx, userID, mykafka.Event{
		Type:      mykafka.EventBasketItemRemoved,
		UserID:    userID,
		ProductID: itemID,
		At:        s.now(),
	})
	return b, nil
}
