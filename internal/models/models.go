package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
}

// BasketItem holds the name and price the item had when it was put in the
// basket. Catalog edits after that point do not touch it.
type BasketItem struct {
	CatalogItemID string          `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	AddedAt       time.Time       `json:"added_at"`
}

func (i BasketItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Basket struct {
	UserID    string                `json:"user_id"`
	Items     map[string]BasketItem `json:"items"`
	Version   int64                 `json:"version"`
	UpdatedAt time.Time             `json:"updated_at"`
}

func NewBasket(userID string, now time.Time) *Basket {
	return &Basket{
		UserID:    userID,
		Items:     map[string]BasketItem{},
		UpdatedAt: now,
	}
}

func (b *Basket) IsEmpty() bool {
	return len(b.Items) == 0
}

// Lines returns the basket items ordered by the time they were added.
func (b *Basket) Lines() []BasketItem {
	lines := make([]BasketItem, 0, len(b.Items))
	for _, it := range b.Items {
		lines = append(lines, it)
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].AddedAt.Equal(lines[j].AddedAt) {
			return lines[i].AddedAt.Before(lines[j].AddedAt)
		}
		return lines[i].CatalogItemID < lines[j].CatalogItemID
	})
	return lines
}

func (b *Basket) Total() decimal.Decimal {
	return Total(b.Lines())
}

// Set inserts or overwrites a line. A line that is overwritten keeps its
// original position in the basket.
func (b *Basket) Set(item BasketItem) {
	if b.Items == nil {
		b.Items = map[string]BasketItem{}
	}
	if prev, ok := b.Items[item.CatalogItemID]; ok {
		item.AddedAt = prev.AddedAt
	}
	b.Items[item.CatalogItemID] = item
}

// Remove reports whether a line was present.
func (b *Basket) Remove(catalogItemID string) bool {
	if _, ok := b.Items[catalogItemID]; !ok {
		return false
	}
	delete(b.Items, catalogItemID)
	return true
}

type OrderStatus string

const OrderStatusCreated OrderStatus = "created"

type OrderLine struct {
	CatalogItemID string          `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	LineTotal     decimal.Decimal `json:"line_total"`
}

type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Lines      []OrderLine     `json:"items"`
	GrandTotal decimal.Decimal `json:"total"`
	Status     OrderStatus     `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}
