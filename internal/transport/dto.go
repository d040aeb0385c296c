package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/brewhaven/internal/models"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Quantity is a pointer so a missing field can be told from zero, which
// means "remove".
type UpsertItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type BasketLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type BasketView struct {
	UserID    string          `json:"user_id"`
	Items     []BasketLine    `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type BasketResponse struct {
	Message string     `json:"message"`
	Cart    BasketView `json:"cart"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

type ProductsResponse struct {
	Items []models.CatalogItem `json:"items"`
	Count int                  `json:"count"`
}

type OrdersResponse struct {
	Orders []models.Order `json:"orders"`
	Count  int            `json:"count"`
}

func NewBasketView(b *models.Basket) BasketView {
	lines := b.Lines()
	v := BasketView{
		UserID:    b.UserID,
		Items:     make([]BasketLine, 0, len(lines)),
		Total:     models.Total(lines),
		UpdatedAt: b.UpdatedAt,
	}
	for _, it := range lines {
		v.Items = append(v.Items, BasketLine{
			ProductID: it.CatalogItemID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: models.RoundCurrency(it.LineTotal()),
		})
		v.ItemCount += it.Quantity
	}
	return v
}
