package mykafka

import "time"

const (
	EventBasketItemUpserted = "basket_item_upserted"
	EventBasketItemRemoved  = "basket_item_removed"
	EventOrderPlaced        = "order_placed"
	EventCatalogSeeded      = "catalog_seeded"
)

// Event is the payload written to the shop events topic. Fields that do not
// apply to a type are left out.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Total     string    `json:"total,omitempty"`
	Count     int       `json:"count,omitempty"`
	At        time.Time `json:"at"`
}
