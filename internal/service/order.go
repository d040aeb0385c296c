package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/brewhaven/internal/docstore"
	"github.com/Skotchmaster/brewhaven/internal/logging"
	"github.com/Skotchmaster/brewhaven/internal/models"
	"github.com/Skotchmaster/brewhaven/internal/mykafka"
	"github.com/Skotchmaster/brewhaven/internal/repo"
)

type OrderService struct {
	baskets *repo.BasketRepo
	orders  *repo.OrderRepo
	writer  basketWriter
	events  events
	now     func() time.Time
	newID   func() (uuid.UUID, error)
}

func NewOrderService(baskets *repo.BasketRepo, orders *repo.OrderRepo, maxAttempts int, pub Publisher, topic string) *OrderService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	now := func() time.Time { return time.Now().UTC() }
	return &OrderService{
		baskets: baskets,
		orders:  orders,
		writer:  basketWriter{baskets: baskets, maxAttempts: maxAttempts, now: now},
		events:  events{pub: pub, topic: topic},
		now:     now,
		newID:   uuid.NewV7,
	}
}

// PlaceOrder turns the user's basket into an order and empties the basket.
//
// The order is written before the basket is cleared. Clearing only removes
// the lines that went into the order, so items added while the order was
// being placed stay in the basket. If the clear fails the error keeps its
// kind (ErrConcurrentModification or ErrPersistence) and the order is
// withdrawn unless the basket shows the clear went through.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string) (*models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	l := logging.FromContext(ctx).With("service", "order", "user_id", userID)

	b, err := s.baskets.Get(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrEmptyBasket
	}
	if err != nil {
		return nil, persistence("read basket", err)
	}
	if b.IsEmpty() {
		return nil, ErrEmptyBasket
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate order id: %w", err)
	}
	frozen := b.Lines()
	order := &models.Order{
		ID:         id.String(),
		UserID:     userID,
		Lines:      make([]models.OrderLine, 0, len(frozen)),
		GrandTotal: models.Total(frozen),
		Status:     models.OrderStatusCreated,
		CreatedAt:  s.now(),
	}
	for _, it := range frozen {
		order.Lines = append(order.Lines, models.OrderLine{
			CatalogItemID: it.CatalogItemID,
			Name:          it.Name,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			LineTotal:     it.LineTotal(),
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, persistence("write order", err)
	}

	_, err = s.writer.update(ctx, userID, s.loadForClear, func(cur *models.Basket) (bool, error) {
		changed := false
		for _, it := range frozen {
			if intact(cur, it) {
				delete(cur.Items, it.CatalogItemID)
				changed = true
			}
		}
		return changed, nil
	})
	if err != nil {
		return s.settleFailedClear(ctx, l, order, frozen, err)
	}

	s.placed(ctx, l, order)
	return order, nil
}

// settleFailedClear decides the fate of an order whose basket clear reported
// an error. A write can commit and still report failure, so the basket is
// read again first. Ordered lines still in the basket mean the clear did not
// happen and the order is withdrawn. No such lines mean it did and the order
// stands. If the basket cannot be read the order is kept.
func (s *OrderService) settleFailedClear(ctx context.Context, l *slog.Logger, order *models.Order, frozen []models.BasketItem, clearErr error) (*models.Order, error) {
	ctx = context.WithoutCancel(ctx)

	cur, err := s.loadForClear(ctx, order.UserID)
	if err != nil {
		l.Error("order_clear_unconfirmed", "order_id", order.ID, "clear_error", clearErr, "error", err)
		return nil, fmt.Errorf("order %s written, basket state unknown: %w", order.ID, clearErr)
	}

	for _, it := range frozen {
		if intact(cur, it) {
			l.Error("order_basket_clear_failed", "order_id", order.ID, "error", clearErr)
			if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
				l.Error("order_compensation_failed", "order_id", order.ID, "error", delErr)
			}
			return nil, fmt.Errorf("order %s not placed: %w", order.ID, clearErr)
		}
	}

	l.Warn("order_clear_committed_despite_error", "order_id", order.ID, "error", clearErr)
	s.placed(ctx, l, order)
	return order, nil
}

func (s *OrderService) placed(ctx context.Context, l *slog.Logger, order *models.Order) {
	l.Info("order_placed", "order_id", order.ID, "lines", len(order.Lines), "total", order.GrandTotal.StringFixed(models.CurrencyPlaces))
	s.events.emit(ctx, order.UserID, mykafka.Event{
		Type:    mykafka.EventOrderPlaced,
		UserID:  order.UserID,
		OrderID: order.ID,
		Total:   order.GrandTotal.StringFixed(models.CurrencyPlaces),
		Count:   len(order.Lines),
		At:      order.CreatedAt,
	})
}

// intact reports whether b still holds line it exactly as it was ordered.
func intact(b *models.Basket, it models.BasketItem) bool {
	c, ok := b.Items[it.CatalogItemID]
	return ok && c.Quantity == it.Quantity && c.UnitPrice.Equal(it.UnitPrice)
}

// loadForClear reads the basket without creating it; a missing basket has
// nothing left to clear.
func (s *OrderService) loadForClear(ctx context.Context, userID string) (*models.Basket, error) {
	b, err := s.baskets.Get(ctx, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.NewBasket(userID, s.now()), nil
	}
	return b, err
}

// ListOrders returns the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistence("list orders", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	o, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, persistence("get order", err)
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return o, nil
}
