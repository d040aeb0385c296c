package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasket_TotalAndLines(t *testing.T) {
	now := time.Now()
	b := NewBasket("u1", now)
	b.Set(BasketItem{CatalogItemID: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("5.00"), AddedAt: now.Add(time.Second)})
	b.Set(BasketItem{CatalogItemID: "a", Quantity: 2, UnitPrice: decimal.RequireFromString("3.00"), AddedAt: now})

	assert.True(t, decimal.RequireFromString("11.00").Equal(b.Total()))

	lines := b.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].CatalogItemID)
	assert.Equal(t, "b", lines[1].CatalogItemID)
}

func TestBasket_SetKeepsPosition(t *testing.T) {
	now := time.Now()
	b := NewBasket("u1", now)
	b.Set(BasketItem{CatalogItemID: "a", Quantity: 1, UnitPrice: decimal.NewFromInt(1), AddedAt: now})
	b.Set(BasketItem{CatalogItemID: "a", Quantity: 4, UnitPrice: decimal.NewFromInt(2), AddedAt: now.Add(time.Hour)})

	assert.Equal(t, 4, b.Items["a"].Quantity)
	assert.True(t, b.Items["a"].AddedAt.Equal(now))
}

func TestBasket_Remove(t *testing.T) {
	b := NewBasket("u1", time.Now())
	assert.False(t, b.Remove("missing"))

	b.Set(BasketItem{CatalogItemID: "a", Quantity: 1})
	assert.True(t, b.Remove("a"))
	assert.True(t, b.IsEmpty())
}

func TestTotal_RoundsOnceAtTheEnd(t *testing.T) {
	third := decimal.RequireFromString("0.333")
	lines := []BasketItem{
		{CatalogItemID: "a", Quantity: 1, UnitPrice: third},
		{CatalogItemID: "b", Quantity: 1, UnitPrice: third},
		{CatalogItemID: "c", Quantity: 1, UnitPrice: third},
	}

	// per-line rounding would give 0.99
	assert.Equal(t, "1.00", Total(lines).StringFixed(2))
	assert.True(t, decimal.RequireFromString("1.00").Equal(Total(lines)))
}
